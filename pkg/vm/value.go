package vm

import (
	"math"
	"strconv"
	"strings"

	"paserati-heap/pkg/heap"
)

// cleanExponentialFormat removes leading zeros from exponent to match JS format
// e.g., "1e-07" -> "1e-7", "1e+25" -> "1e+25"
func cleanExponentialFormat(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' || s[i] == 'E' {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				sign := s[i+1]
				j := i + 2
				for j < len(s) && s[j] == '0' {
					j++
				}
				if j >= len(s) {
					return s[:i+2] + "0"
				}
				return s[:i+1] + string(sign) + s[j:]
			}
			break
		}
	}
	return s
}

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString

	// Heap-resident types. The payload lives in the arena of the matching
	// heap.Kind and the Value carries only its index.
	TypeSymbol
	TypeObject
	TypeArray
	TypeFunction
	TypeSet
	TypeSetIterator
	TypeWeakRef
	TypeRegExp

	TypeHole // Internal marker for array holes and deleted set entries
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeFunction:
		return "function"
	case TypeSet:
		return "set"
	case TypeSetIterator:
		return "set iterator"
	case TypeWeakRef:
		return "weakref"
	case TypeRegExp:
		return "regexp"
	case TypeHole:
		return "hole"
	default:
		return "unknown"
	}
}

// heapKind maps a heap-resident value type to the arena that stores it.
func (vt ValueType) heapKind() (heap.Kind, bool) {
	switch vt {
	case TypeSymbol:
		return heap.KindSymbol, true
	case TypeObject:
		return heap.KindObject, true
	case TypeArray:
		return heap.KindArray, true
	case TypeFunction:
		return heap.KindFunction, true
	case TypeSet:
		return heap.KindSet, true
	case TypeSetIterator:
		return heap.KindSetIterator, true
	case TypeWeakRef:
		return heap.KindWeakRef, true
	case TypeRegExp:
		return heap.KindRegExp, true
	default:
		return 0, false
	}
}

// Value is a tagged union over every language value. Primitives are stored
// inline; heap-resident values hold an arena index, so a Value is a plain
// comparable struct that owns nothing.
type Value struct {
	typ ValueType
	num float64    // numbers; booleans as 0/1
	str string     // strings
	ref heap.Index // heap-resident types
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, num: 1}
	False     = Value{typ: TypeBoolean, num: 0}
	Hole      = Value{typ: TypeHole}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeNumber, num: value}
}

func IntegerValue(value int64) Value {
	return Value{typ: TypeNumber, num: float64(value)}
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, str: value}
}

func heapValue(typ ValueType, i heap.Index) Value {
	if i.IsNone() {
		return Undefined
	}
	return Value{typ: typ, ref: i}
}

func (v Value) Type() ValueType {
	return v.typ
}

func (v Value) TypeName() string {
	return v.typ.String()
}

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsNullish() bool   { return v.typ == TypeNull || v.typ == TypeUndefined }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsSymbol() bool    { return v.typ == TypeSymbol }
func (v Value) IsHole() bool      { return v.typ == TypeHole }
func (v Value) IsCallable() bool  { return v.typ == TypeFunction }

// IsHeapValue reports whether v refers into the heap.
func (v Value) IsHeapValue() bool {
	_, ok := v.typ.heapKind()
	return ok
}

// IsObject reports whether v is any object representation.
func (v Value) IsObject() bool {
	_, ok := v.AsObject()
	return ok
}

func (v Value) AsFloat() float64 {
	if v.typ != TypeNumber {
		panic("value is not a number")
	}
	return v.num
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.num != 0
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return v.str
}

func (v Value) AsSymbol() Symbol {
	if v.typ != TypeSymbol {
		panic("value is not a symbol")
	}
	return Symbol(v.ref)
}

func (v Value) AsOrdinaryObject() OrdinaryObject {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return OrdinaryObject(v.ref)
}

func (v Value) AsArray() Array {
	if v.typ != TypeArray {
		panic("value is not an array")
	}
	return Array(v.ref)
}

func (v Value) AsFunction() Function {
	if v.typ != TypeFunction {
		panic("value is not a function")
	}
	return Function(v.ref)
}

func (v Value) AsSet() Set {
	if v.typ != TypeSet {
		panic("value is not a set")
	}
	return Set(v.ref)
}

func (v Value) AsSetIterator() SetIterator {
	if v.typ != TypeSetIterator {
		panic("value is not a set iterator")
	}
	return SetIterator(v.ref)
}

func (v Value) AsWeakRef() WeakRef {
	if v.typ != TypeWeakRef {
		panic("value is not a weakref")
	}
	return WeakRef(v.ref)
}

func (v Value) AsRegExp() RegExp {
	if v.typ != TypeRegExp {
		panic("value is not a regexp")
	}
	return RegExp(v.ref)
}

// HeapIndex returns the arena index of a heap-resident value.
func (v Value) HeapIndex() (heap.Kind, heap.Index, bool) {
	kind, ok := v.typ.heapKind()
	if !ok {
		return 0, heap.None, false
	}
	return kind, v.ref, true
}

// MarkValues pushes the referenced heap slot, if any.
func (v Value) MarkValues(q *heap.WorkQueues) {
	if kind, ok := v.typ.heapKind(); ok {
		q.Push(kind, v.ref)
	}
}

// SweepValues rewrites the referenced heap slot after compaction.
func (v *Value) SweepValues(c *heap.CompactionLists) {
	if kind, ok := v.typ.heapKind(); ok {
		c.Shift(kind, &v.ref)
	}
}

// Is implements SameValue.
func (v Value) Is(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	if v.typ == TypeNumber {
		if math.IsNaN(v.num) && math.IsNaN(other.num) {
			return true
		}
		if v.num == 0 && other.num == 0 {
			return math.Signbit(v.num) == math.Signbit(other.num)
		}
	}
	return v == other
}

// SameValueZero is SameValue with +0 and -0 considered equal.
func (v Value) SameValueZero(other Value) bool {
	if v.typ == TypeNumber && other.typ == TypeNumber && v.num == 0 && other.num == 0 {
		return true
	}
	return v.Is(other)
}

// zeroKey normalises v so that SameValueZero-equal values compare equal with
// ==, which lets Values key Go maps.
func (v Value) zeroKey() Value {
	if v.typ == TypeNumber {
		if math.IsNaN(v.num) {
			return Value{typ: TypeNumber, str: "NaN"}
		}
		if v.num == 0 {
			return Value{typ: TypeNumber}
		}
	}
	return v
}

// numberToString formats a float64 following the Number::toString shapes
// used in output: integers without exponent up to 1e21, otherwise shortest
// round-trip digits.
func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return cleanExponentialFormat(strconv.FormatFloat(f, 'g', -1, 64))
}

// ToString converts primitives; heap values render as a type tag because
// their contents need the heap (see Heap.Inspect).
func (v Value) ToString() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case TypeNumber:
		return numberToString(v.num)
	case TypeString:
		return v.str
	case TypeHole:
		return "<hole>"
	default:
		return "[" + v.typ.String() + " " + v.ref.String() + "]"
	}
}

// quoteString renders a string value for inspection
func quoteString(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}
