package dsl

// Option configures a DSL at construction time.
type Option interface{ apply(d *DSL) }

// Options flattens a list of options into one, the way jcorbin/gothird's
// VMOptions combinator does: nested Options values are spliced rather than
// nested, and a nil or zero-value Option is dropped.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noOption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noOption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noOption struct{}

func (noOption) apply(*DSL) {}

type options []Option

func (opts options) apply(d *DSL) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(d)
		}
	}
}

type withLogf func(mess string, args ...interface{})

func (logf withLogf) apply(d *DSL) { d.logfn = logf }

// WithLogf configures the DSL to report compiler decisions (executed calls,
// constant and hint materialization, ROLL/PICK choices, emitted calls)
// through logf. Output drainage is not logged. The default is silent.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return withLogf(logf)
}

type withStrictReferences bool

func (s withStrictReferences) apply(d *DSL) { d.strictReferences = bool(s) }

// WithStrictReferences, when enabled, makes Execute/ExecuteWithOptions
// reject binding a `&`-prefixed input to a data type that was not
// registered with AddRefOnlyDataType. Off by default, matching the
// original's permissive behavior (see Open Question resolution in
// DESIGN.md).
func WithStrictReferences(strict bool) Option {
	return withStrictReferences(strict)
}

type withMemoryCap int

func (c withMemoryCap) apply(d *DSL) { d.memoryCap = int(c) }

// WithMemoryCap bounds the number of memory entries a DSL may allocate; zero
// (the default) means unbounded.
func WithMemoryCap(n int) Option {
	return withMemoryCap(n)
}
