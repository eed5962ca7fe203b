// Package cbcvm defines the contract a CBC execution engine implements,
// without itself deciding heap layout, GC strategy, or interpretation
// technique (threaded dispatch, a JIT, a tree-walker wrapped around the
// bytecode). internal/cbcvm/ref ships one minimal implementation, with its
// own concrete value types, sufficient to run this module's own end-to-end
// tests.
package cbcvm

import "github.com/funvibe/cbcjs/internal/cbc"

// Interpreter executes a compiled unit to completion and returns its
// completion value, or an error if an exception escaped uncaught.
type Interpreter interface {
	Run(code *cbc.CompiledCode) (any, error)
}

// UncaughtError wraps a value thrown by a 'throw' statement that propagated
// past the top-level unit without being caught by any try/catch.
type UncaughtError struct {
	Value any
}

func (e *UncaughtError) Error() string {
	return "uncaught exception"
}
