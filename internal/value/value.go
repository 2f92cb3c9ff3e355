// Package value implements the tagged Value domain (spec §3 Value, §4.1)
// consumed by the stack, heap and op-dispatch layers. The one piece of
// arithmetic here, PtrAdd, follows the teacher's ExecuteALU: it never checks
// for overflow and lets Go's native integer wraparound supply the wrapping
// semantics, the way SupraX's ALU did.
package value

import (
	"fmt"
	"strconv"

	"brili/internal/ierr"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	Uninitialized Kind = iota
	KindInt
	KindBool
	KindFloat
	KindPointer
)

// Pointer is a (handle, offset) pair. Only Offset == 0 is a valid free
// target (spec §3 Pointer).
type Pointer struct {
	Base   int
	Offset int64
}

// Value is the tagged union spec.md §3 describes. Exactly one of the typed
// fields is meaningful, selected by Kind; the rest are zero. This mirrors
// the teacher's preference for flat structs over interface-boxed variants
// on the hot path (no allocation per value).
type Value struct {
	Kind Kind
	I    int64
	B    bool
	F    float64
	P    Pointer
}

func Int(i int64) Value     { return Value{Kind: KindInt, I: i} }
func Bool(b bool) Value     { return Value{Kind: KindBool, B: b} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func Ptr(p Pointer) Value   { return Value{Kind: KindPointer, P: p} }

// TypeName names a Kind for error messages (BadAsmtType, BadFuncArgType).
func (k Kind) TypeName() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	default:
		return "uninitialized"
	}
}

// FromLiteralInt builds a Value from a constant instruction's literal,
// applying the sole implicit promotion the spec allows: an Int literal
// under a declared Float destination type becomes a Float (spec §4.1).
func FromLiteralInt(declaredFloat bool, lit int64) Value {
	if declaredFloat {
		return Float(float64(lit))
	}
	return Int(lit)
}

// String renders a Value's textual form (spec §4.4, normative). Callers
// must never invoke this on an Uninitialized value — the op dispatcher
// checks that before calling String for Print.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindPointer:
		return fmt.Sprintf("Pointer { base: %d, offset: %d }", v.P.Base, v.P.Offset)
	default:
		return "<uninitialized>"
	}
}

// ParseBool, ParseInt and ParseFloat implement the input grammar of spec §6.

func ParseBool(raw string) (Value, error) {
	switch raw {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	default:
		return Value{}, &ierr.BadFuncArgType{Expected: "bool", Raw: raw}
	}
}

func ParseInt(raw string) (Value, error) {
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Value{}, &ierr.BadFuncArgType{Expected: "int", Raw: raw}
	}
	return Int(i), nil
}

func ParseFloat(raw string) (Value, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{}, &ierr.BadFuncArgType{Expected: "float", Raw: raw}
	}
	return Float(f), nil
}

// PtrAdd implements invariant 6 of spec §8: PtrAdd(PtrAdd(p,a),b) ==
// PtrAdd(p,a+b), using wrapping add on the offset exactly like the
// teacher's ExecuteALU wraps integer results.
func PtrAdd(p Pointer, delta int64) Pointer {
	return Pointer{Base: p.Base, Offset: p.Offset + delta}
}
