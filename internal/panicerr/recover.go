// Package panicerr turns a panic raised by a user-registered callback (the
// compiler uses it around script generators) into a plain error, so that one bad
// function registration cannot bring down a compilation.
//
// The compiler is single-threaded and synchronous, so unlike an isolate that
// runs f on its own goroutine (and so can also catch a stray runtime.Goexit),
// Recover just wraps f with a deferred recover in the calling goroutine.
package panicerr

import "runtime/debug"

// Recover calls f, converting any panic it raises into a non-nil error
// tagged with name (typically the name of the function being invoked).
func Recover(name string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{name: name, e: r, stack: debug.Stack()}
		}
	}()
	return f()
}
