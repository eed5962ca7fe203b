// Package ref is the minimal reference Interpreter: a flat stack machine
// reading a cbc.CompiledCode's byte stream directly, over this package's
// own concrete value types (Values, Object, Function). It exists to
// execute this module's own end-to-end scenarios, not as a production
// runtime — see DESIGN.md's Open Question entry on the VM boundary.
package ref

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/funvibe/cbcjs/internal/cbc"
)

type undefinedType struct{}
type nullType struct{}

// Undefined and Null are the reference heap's singleton values for
// JavaScript's two "no value" types; comparing against them by Go equality
// is what StrictEqual relies on.
var Undefined any = undefinedType{}
var Null any = nullType{}

// Object is the reference heap's only compound value, doubling as both a
// plain object and an array: Array marks the latter so ToString and typeof
// read more like a real engine's would.
type Object struct {
	props map[string]any
	keys  []string
	Array bool
}

func newObject() *Object {
	return &Object{props: map[string]any{}}
}

func (o *Object) get(key string) any {
	if v, ok := o.props[key]; ok {
		return v
	}
	return Undefined
}

func (o *Object) set(key string, val any) {
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = val
}

func (o *Object) hasOwn(key string) bool {
	_, ok := o.props[key]
	return ok
}

// Function is a closure: the compiled body plus the scope it closed over.
type Function struct {
	Code    *cbc.CompiledCode
	Closure *env
	Name    string
}

// Values is the reference heap.Values implementation: Go's own bool/float64/
// string as primitives, *Object for everything compound.
type Values struct{}

func NewValues() *Values { return &Values{} }

func (Values) Undefined() any     { return Undefined }
func (Values) Null() any          { return Null }
func (Values) Bool(b bool) any    { return b }
func (Values) Number(f float64) any { return f }
func (Values) String(s string) any  { return s }

func (Values) NewObject() any { return newObject() }

func (Values) NewArray(elems []any) any {
	o := newObject()
	o.Array = true
	for i, e := range elems {
		o.set(strconv.Itoa(i), e)
	}
	o.set("length", float64(len(elems)))
	return o
}

func (v Values) GetProp(obj any, key string) any {
	switch o := obj.(type) {
	case *Object:
		return o.get(key)
	case string:
		if key == "length" {
			return float64(len(o))
		}
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(o) {
			return string(o[i])
		}
		return Undefined
	default:
		return Undefined
	}
}

func (v Values) SetProp(obj any, key string, val any) {
	if o, ok := obj.(*Object); ok {
		if o.Array && key == "length" {
			o.set(key, val)
			return
		}
		o.set(key, val)
		if o.Array {
			if n, err := strconv.Atoi(key); err == nil {
				cur := v.ToNumber(o.get("length"))
				if float64(n+1) > cur {
					o.set("length", float64(n+1))
				}
			}
		}
	}
}

func (v Values) HasProp(obj any, key string) bool {
	o, ok := obj.(*Object)
	if !ok {
		return false
	}
	return o.hasOwn(key)
}

func (v Values) OwnKeys(obj any) []string {
	o, ok := obj.(*Object)
	if !ok {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	if o.Array {
		sort.SliceStable(out, func(i, j int) bool {
			ni, erri := strconv.Atoi(out[i])
			nj, errj := strconv.Atoi(out[j])
			if erri == nil && errj == nil {
				return ni < nj
			}
			return erri == nil
		})
	}
	return out
}

func (v Values) Truthy(val any) bool {
	switch x := val.(type) {
	case undefinedType, nullType:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

func (v Values) StrictEqual(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case undefinedType:
		_, ok := b.(undefinedType)
		return ok
	case nullType:
		_, ok := b.(nullType)
		return ok
	default:
		return a == b
	}
}

// LooseEqual is deliberately narrow: strict equality plus null/undefined
// mutual equality. Full ToPrimitive/ToNumber coercion across type pairs
// (e.g. "1" == 1) is not implemented — no end-to-end scenario this
// reference interpreter targets exercises it, and every comparison the
// expression grammar emits for '==' is otherwise identical to '==='.
func (v Values) LooseEqual(a, b any) bool {
	if v.StrictEqual(a, b) {
		return true
	}
	_, aUndef := a.(undefinedType)
	_, aNull := a.(nullType)
	_, bUndef := b.(undefinedType)
	_, bNull := b.(nullType)
	if (aUndef || aNull) && (bUndef || bNull) {
		return true
	}
	return false
}

func (v Values) ToNumber(val any) float64 {
	switch x := val.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if x == "" {
			return 0
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case nullType:
		return 0
	default:
		return math.NaN()
	}
}

func (v Values) ToString(val any) string {
	switch x := val.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case *Object:
		if x.Array {
			parts := make([]string, 0, len(x.keys))
			for _, k := range v.OwnKeys(x) {
				if k == "length" {
					continue
				}
				parts = append(parts, v.ToString(x.get(k)))
			}
			out := ""
			for i, p := range parts {
				if i > 0 {
					out += ","
				}
				out += p
			}
			return out
		}
		return "[object Object]"
	case *Function:
		return "function " + x.Name + "() { [native code] }"
	default:
		return fmt.Sprintf("%v", x)
	}
}

func (v Values) TypeOf(val any) string {
	switch val.(type) {
	case undefinedType:
		return "undefined"
	case nullType:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Function:
		return "function"
	default:
		return "object"
	}
}

func (v Values) Add(a, b any) any {
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aStr || bStr {
		return v.ToString(a) + v.ToString(b)
	}
	return v.ToNumber(a) + v.ToNumber(b)
}
