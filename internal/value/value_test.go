package value

import (
	"math"
	"testing"
)

func TestFromLiteralInt_Promotion(t *testing.T) {
	// A constant declared float with an int literal is promoted (spec §4.1).
	v := FromLiteralInt(true, 3)
	if v.Kind != KindFloat || v.F != 3.0 {
		t.Fatalf("expected Float(3), got %+v", v)
	}

	v = FromLiteralInt(false, 3)
	if v.Kind != KindInt || v.I != 3 {
		t.Fatalf("expected Int(3), got %+v", v)
	}
}

func TestString_Forms(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Int(7), "7"},
		{Int(-7), "-7"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Ptr(Pointer{Base: 2, Offset: 5}), "Pointer { base: 2, offset: 5 }"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParseInt_BoundaryAndRejects(t *testing.T) {
	if _, err := ParseInt("hello"); err == nil {
		t.Fatal("expected BadFuncArgType for non-numeric input")
	}
	v, err := ParseInt("-9223372036854775808")
	if err != nil || v.I != math.MinInt64 {
		t.Fatalf("expected MinInt64, got %+v, err=%v", v, err)
	}
}

func TestParseBool_ExactForms(t *testing.T) {
	if _, err := ParseBool("True"); err == nil {
		t.Fatal("expected rejection of non-exact boolean spelling")
	}
	v, err := ParseBool("false")
	if err != nil || v.B != false {
		t.Fatalf("expected Bool(false), got %+v, err=%v", v, err)
	}
}

func TestPtrAdd_Algebra(t *testing.T) {
	// Invariant 6 (spec §8): PtrAdd(PtrAdd(p,a),b) == PtrAdd(p,a+b).
	p := Pointer{Base: 4, Offset: 10}
	lhs := PtrAdd(PtrAdd(p, 3), 5)
	rhs := PtrAdd(p, 8)
	if lhs != rhs {
		t.Fatalf("pointer arithmetic algebra violated: %+v != %+v", lhs, rhs)
	}
}

func TestPtrAdd_WrapsOnOverflow(t *testing.T) {
	p := Pointer{Base: 0, Offset: math.MaxInt64}
	got := PtrAdd(p, 1)
	if got.Offset != math.MinInt64 {
		t.Fatalf("expected wrapping overflow to MinInt64, got %d", got.Offset)
	}
}
