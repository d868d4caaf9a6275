package vm

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"paserati-heap/pkg/heap"
)

// Helper function to check for panics using standard library
func expectPanic(t *testing.T, fn func(), containsMsg string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("Expected a panic, but function did not panic")
			return
		}
		if containsMsg != "" {
			var panicMsg string
			switch v := r.(type) {
			case string:
				panicMsg = v
			case error:
				panicMsg = v.Error()
			default:
				panicMsg = fmt.Sprintf("%v", r)
			}
			if !strings.Contains(panicMsg, containsMsg) {
				t.Errorf("Panic message mismatch.\nExpected to contain: %q\nActual: %q", containsMsg, panicMsg)
			}
		}
	}()
	fn()
}

func TestValue_SameValue(t *testing.T) {
	negZero := NumberValue(math.Copysign(0, -1))
	nan := NumberValue(math.NaN())
	tests := []struct {
		a, b     Value
		is, zero bool
	}{
		{NumberValue(1), NumberValue(1), true, true},
		{nan, nan, true, true},
		{NumberValue(0), negZero, false, true},
		{NewString("a"), NewString("a"), true, true},
		{NewString("1"), NumberValue(1), false, false},
		{Undefined, Null, false, false},
		{True, BooleanValue(true), true, true},
		{heapValue(TypeObject, 1), heapValue(TypeObject, 1), true, true},
		{heapValue(TypeObject, 1), heapValue(TypeArray, 1), false, false},
	}
	for i, tt := range tests {
		if got := tt.a.Is(tt.b); got != tt.is {
			t.Errorf("case %d: Is = %v, want %v", i, got, tt.is)
		}
		if got := tt.a.SameValueZero(tt.b); got != tt.zero {
			t.Errorf("case %d: SameValueZero = %v, want %v", i, got, tt.zero)
		}
		if tt.zero && tt.a.zeroKey() != tt.b.zeroKey() {
			t.Errorf("case %d: SameValueZero-equal values have different map keys", i)
		}
	}
}

func TestValue_ToString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{True, "true"},
		{NumberValue(42), "42"},
		{NumberValue(-0.5), "-0.5"},
		{NumberValue(math.Copysign(0, -1)), "0"},
		{NumberValue(1e21), "1e+21"},
		{NumberValue(1e-7), "1e-7"},
		{NumberValue(math.Inf(-1)), "-Infinity"},
		{NumberValue(math.NaN()), "NaN"},
		{IntegerValue(1 << 40), "1099511627776"},
		{NewString("hi"), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.ToString(); got != tt.want {
			t.Errorf("ToString(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestValue_HeapIndex(t *testing.T) {
	if v := heapValue(TypeObject, heap.None); !v.IsUndefined() {
		t.Errorf("a none handle must read as undefined, got %s", v.TypeName())
	}
	v := heapValue(TypeSet, 4)
	kind, i, ok := v.HeapIndex()
	if !ok || kind != heap.KindSet || i != 4 {
		t.Errorf("unexpected heap index %v %v %v", kind, i, ok)
	}
	if _, _, ok := NumberValue(1).HeapIndex(); ok {
		t.Errorf("numbers are not heap values")
	}
	if !v.IsObject() || heapValue(TypeSymbol, 1).IsObject() {
		t.Errorf("IsObject misclassifies heap values")
	}
}

func TestValue_AccessorsPanicOnWrongType(t *testing.T) {
	expectPanic(t, func() { NewString("x").AsFloat() }, "not a number")
	expectPanic(t, func() { NumberValue(1).AsString() }, "not a string")
	expectPanic(t, func() { heapValue(TypeArray, 1).AsOrdinaryObject() }, "not an object")
	expectPanic(t, func() { Undefined.AsFunction() }, "not a function")
}

func TestValue_MarkAndSweep(t *testing.T) {
	q := heap.NewWorkQueues()
	v := heapValue(TypeArray, 3)
	v.MarkValues(q)
	NumberValue(1).MarkValues(q)
	if q.Len() != 1 || len(q.Pending(heap.KindArray)) != 1 {
		t.Fatalf("expected one array pushed, got %d", q.Len())
	}

	var masks [heap.NumKinds][]bool
	masks[heap.KindArray] = []bool{false, false, true}
	c := heap.NewCompactionLists(masks)
	v.SweepValues(c)
	if _, i, _ := v.HeapIndex(); i != 1 {
		t.Errorf("expected index 1 after compaction, got %v", i)
	}
}

func TestPropertyKey_Canonicalisation(t *testing.T) {
	tests := []struct {
		key     PropertyKey
		integer bool
		name    string
	}{
		{NewStringKey("0"), true, "0"},
		{NewStringKey("42"), true, "42"},
		{NewStringKey("007"), false, "007"},
		{NewStringKey("-1"), false, "-1"},
		{NewStringKey("4294967294"), true, "4294967294"},
		{NewStringKey("4294967295"), false, "4294967295"},
		{NewIntegerKey(math.MaxUint32), false, "4294967295"},
		{NewStringKey(""), false, ""},
	}
	for _, tt := range tests {
		if tt.key.IsInteger() != tt.integer || tt.key.Name() != tt.name {
			t.Errorf("key %q: integer=%v name=%q", tt.name, tt.key.IsInteger(), tt.key.Name())
		}
	}
	if NewStringKey("5") != NewIntegerKey(5) {
		t.Errorf("\"5\" and 5 must be the same key")
	}

	conversions := []struct {
		v    Value
		want PropertyKey
	}{
		{NumberValue(3), NewIntegerKey(3)},
		{NumberValue(math.Copysign(0, -1)), NewIntegerKey(0)},
		{NumberValue(1.5), NewStringKey("1.5")},
		{True, NewStringKey("true")},
		{Undefined, NewStringKey("undefined")},
	}
	for _, c := range conversions {
		got, ok := ToPropertyKey(c.v)
		if !ok || got != c.want {
			t.Errorf("ToPropertyKey(%s) = %v, want %v", c.v.ToString(), got, c.want)
		}
	}
	if _, ok := ToPropertyKey(heapValue(TypeObject, 1)); ok {
		t.Errorf("objects need ToPrimitive and must be rejected")
	}
}
