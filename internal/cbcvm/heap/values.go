// Package heap declares the value-representation boundary around cbcvm:
// Values lists the operations an interpreter needs, so an embedder can
// supply tagged doubles, a real object heap, and a garbage collector behind
// it. No package in this module imports heap: internal/cbcvm/ref's
// interpreter works on its own concrete value types.
package heap

// Values is the set of primitive constructors, property operations, and
// coercions the CBC instruction set assumes. internal/cbcvm/ref's *Values
// has this method set, but ref's Interpreter calls that concrete type
// directly rather than through this interface.
type Values interface {
	Undefined() any
	Null() any
	Bool(b bool) any
	Number(f float64) any
	String(s string) any

	// NewObject returns an empty, ordinary object.
	NewObject() any
	// NewArray returns an array-like object seeded with elems in order.
	NewArray(elems []any) any

	GetProp(obj any, key string) any
	SetProp(obj any, key string, val any)
	HasProp(obj any, key string) bool
	// OwnKeys returns obj's own enumerable string keys in insertion order,
	// the enumeration order for-in walks.
	OwnKeys(obj any) []string

	Truthy(v any) bool
	StrictEqual(a, b any) bool
	LooseEqual(a, b any) bool
	ToNumber(v any) float64
	ToString(v any) string
	TypeOf(v any) string
	// Add implements '+', including string concatenation when either
	// operand is a string.
	Add(a, b any) any
}
