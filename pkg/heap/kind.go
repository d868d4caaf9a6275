package heap

// Kind identifies one heap-resident data kind. Every kind has exactly one
// arena in the heap, one work queue and one compaction list.
//
// The set of kinds is closed: adding a kind means adding its arena to the
// heap, its dispatch case to the collector and a name below.
type Kind uint8

const (
	KindObject Kind = iota
	KindArray
	KindFunction
	KindSymbol
	KindSet
	KindSetIterator
	KindEnvironment
	KindPrivateEnvironment
	KindWeakRef
	KindRegExp

	NumKinds int = iota
)

var kindNames = [NumKinds]string{
	KindObject:             "object",
	KindArray:              "array",
	KindFunction:           "function",
	KindSymbol:             "symbol",
	KindSet:                "set",
	KindSetIterator:        "set iterator",
	KindEnvironment:        "environment",
	KindPrivateEnvironment: "private environment",
	KindWeakRef:            "weakref",
	KindRegExp:             "regexp",
}

// String returns a human-readable name for the kind
func (k Kind) String() string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds returns every kind in registry order.
func Kinds() []Kind {
	kinds := make([]Kind, NumKinds)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}
