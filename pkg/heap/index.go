package heap

import "fmt"

// Index addresses one slot of an arena.
//
// The value of an index is one plus the number of slots allocated before it,
// so the zero Index is never a valid slot and serves as the "none" sentinel.
type Index uint32

// None is the null index.
const None Index = 0

// FromSlot converts a 0-based slot position into an Index.
func FromSlot(slot int) Index {
	return Index(slot + 1)
}

// Slot returns the 0-based slot position addressed by i.
func (i Index) Slot() int {
	return int(i) - 1
}

// IsNone reports whether i is the null index.
func (i Index) IsNone() bool {
	return i == None
}

func (i Index) String() string {
	if i == None {
		return "<none>"
	}
	return fmt.Sprintf("#%d", uint32(i))
}
