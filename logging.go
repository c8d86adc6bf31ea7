package dsl

import (
	"fmt"
	"strings"
)

// logging is embedded into DSL to give it gothird-style leveled, mark-tagged
// logf output (e.g. "roll  idx=2 distance=1 width=1"), silent unless a logf
// is configured with WithLogf.
type logging struct {
	logfn     func(mess string, args ...interface{})
	markWidth int
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		mark = mark + strings.Repeat(" ", n)
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
