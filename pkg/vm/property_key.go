package vm

import (
	"fmt"
	"math"
	"strconv"

	"paserati-heap/pkg/heap"
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindInteger
	KeyKindSymbol
)

// maxArrayIndex is 2^32 - 2, the largest valid array index.
const maxArrayIndex = math.MaxUint32 - 1

// PropertyKey is a string, an array index, or a symbol. Integer-like strings
// are canonicalised to integer keys so "1" and 1 name the same property.
type PropertyKey struct {
	kind   KeyKind
	name   string // KeyKindString
	index  uint32 // KeyKindInteger
	symbol Symbol // KeyKindSymbol
}

// NewStringKey constructs a key from a property name.
func NewStringKey(name string) PropertyKey {
	if i, ok := parseArrayIndex(name); ok {
		return PropertyKey{kind: KeyKindInteger, index: i}
	}
	return PropertyKey{kind: KeyKindString, name: name}
}

// NewIntegerKey constructs an array-index key.
func NewIntegerKey(index uint32) PropertyKey {
	if index > maxArrayIndex {
		return PropertyKey{kind: KeyKindString, name: strconv.FormatUint(uint64(index), 10)}
	}
	return PropertyKey{kind: KeyKindInteger, index: index}
}

// NewSymbolKey constructs a key for a symbol.
func NewSymbolKey(sym Symbol) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, symbol: sym}
}

// ToPropertyKey converts a primitive value. Objects need ToPrimitive, which
// belongs to the interpreter, so they are rejected.
func ToPropertyKey(v Value) (PropertyKey, bool) {
	switch v.typ {
	case TypeSymbol:
		return NewSymbolKey(v.AsSymbol()), true
	case TypeNumber:
		f := v.num
		if f >= 0 && f <= maxArrayIndex && f == math.Trunc(f) && !math.Signbit(f) {
			return NewIntegerKey(uint32(f)), true
		}
		return NewStringKey(numberToString(f)), true
	case TypeString:
		return NewStringKey(v.str), true
	case TypeUndefined, TypeNull, TypeBoolean:
		return NewStringKey(v.ToString()), true
	default:
		return PropertyKey{}, false
	}
}

// parseArrayIndex accepts canonical decimal integers in [0, 2^32-2].
func parseArrayIndex(s string) (uint32, bool) {
	if s == "" || len(s) > 10 {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n > maxArrayIndex {
		return 0, false
	}
	return uint32(n), true
}

func (k PropertyKey) Kind() KeyKind { return k.kind }

func (k PropertyKey) IsString() bool  { return k.kind == KeyKindString }
func (k PropertyKey) IsInteger() bool { return k.kind == KeyKindInteger }
func (k PropertyKey) IsSymbol() bool  { return k.kind == KeyKindSymbol }

// ArrayIndex returns the index of an integer key.
func (k PropertyKey) ArrayIndex() (uint32, bool) {
	return k.index, k.kind == KeyKindInteger
}

// Name returns the string form of a string or integer key.
func (k PropertyKey) Name() string {
	switch k.kind {
	case KeyKindInteger:
		return strconv.FormatUint(uint64(k.index), 10)
	case KeyKindString:
		return k.name
	default:
		return ""
	}
}

// Symbol returns the symbol of a symbol key.
func (k PropertyKey) Symbol() (Symbol, bool) {
	return k.symbol, k.kind == KeyKindSymbol
}

// Value returns the key as a language value.
func (k PropertyKey) Value() Value {
	switch k.kind {
	case KeyKindInteger:
		return NumberValue(float64(k.index))
	case KeyKindSymbol:
		return k.symbol.Value()
	default:
		return NewString(k.name)
	}
}

func (k PropertyKey) String() string {
	switch k.kind {
	case KeyKindString, KeyKindInteger:
		return k.Name()
	case KeyKindSymbol:
		return fmt.Sprintf("Symbol(%v)", heap.Index(k.symbol))
	default:
		return "<unknown-key>"
	}
}

var lengthKey = NewStringKey("length")
var nameKey = NewStringKey("name")
var lastIndexKey = NewStringKey("lastIndex")

func (k PropertyKey) MarkValues(q *heap.WorkQueues) {
	if k.kind == KeyKindSymbol {
		k.symbol.MarkValues(q)
	}
}

func (k *PropertyKey) SweepValues(c *heap.CompactionLists) {
	if k.kind == KeyKindSymbol {
		k.symbol.SweepValues(c)
	}
}
