package heap

import (
	"iter"
	"unsafe"
)

// Data is the mark/sweep protocol. Every heap-resident payload, and every
// type that embeds indices into the heap, implements it.
//
// MarkValues pushes each directly held index into q; it must not recurse.
// SweepValues rewrites each held index through c after compaction.
type Data interface {
	MarkValues(q *WorkQueues)
	SweepValues(c *CompactionLists)
}

type slot[T any] struct {
	data T
	live bool
}

// Arena is an isolated subspace: a densely packed, growable sequence of
// optional slots holding payloads of a single kind.
//
// Pointers returned by Get stay valid until the next Alloc or Sweep on the
// same arena.
type Arena[T any, PT interface {
	*T
	Data
}] struct {
	kind  Kind
	slots []slot[T]
}

// NewArena creates an empty arena for kind with room for capacity slots.
func NewArena[T any, PT interface {
	*T
	Data
}](kind Kind, capacity int) *Arena[T, PT] {
	return &Arena[T, PT]{
		kind:  kind,
		slots: make([]slot[T], 0, capacity),
	}
}

// Kind returns the kind this arena stores.
func (a *Arena[T, PT]) Kind() Kind {
	return a.kind
}

// Alloc appends data in a new slot and returns its index.
func (a *Arena[T, PT]) Alloc(data T) Index {
	a.slots = append(a.slots, slot[T]{data: data, live: true})
	return FromSlot(len(a.slots) - 1)
}

// Get returns the payload at i. An empty, null or out of range slot means the
// index is dangling, which is fatal.
func (a *Arena[T, PT]) Get(i Index) *T {
	Assertf(!i.IsNone(), "dereference of null %s index", a.kind)
	slot := i.Slot()
	Assertf(slot < len(a.slots), "%s index %v out of bounds (len %d)", a.kind, i, len(a.slots))
	s := &a.slots[slot]
	Assertf(s.live, "%s slot %v empty", a.kind, i)
	return &s.data
}

// Lookup is the non-fatal form of Get.
func (a *Arena[T, PT]) Lookup(i Index) (*T, bool) {
	slot := i.Slot()
	if i.IsNone() || slot >= len(a.slots) || !a.slots[slot].live {
		return nil, false
	}
	return &a.slots[slot].data, true
}

// Contains reports whether i addresses a live slot.
func (a *Arena[T, PT]) Contains(i Index) bool {
	_, ok := a.Lookup(i)
	return ok
}

// Mark invokes the payload's MarkValues.
func (a *Arena[T, PT]) Mark(i Index, q *WorkQueues) {
	PT(a.Get(i)).MarkValues(q)
}

// Len returns the number of slots.
func (a *Arena[T, PT]) Len() int {
	return len(a.slots)
}

// IsEmpty reports whether the arena holds no slots.
func (a *Arena[T, PT]) IsEmpty() bool {
	return len(a.slots) == 0
}

// Size returns the bytes occupied by the slots: element count times payload
// size. Out-of-line storage owned by payloads is not included.
func (a *Arena[T, PT]) Size() uint64 {
	var zero T
	return uint64(len(a.slots)) * uint64(unsafe.Sizeof(zero))
}

// All yields every live slot in order.
func (a *Arena[T, PT]) All() iter.Seq2[Index, *T] {
	return func(yield func(Index, *T) bool) {
		for slot := range a.slots {
			if !a.slots[slot].live {
				continue
			}
			if !yield(FromSlot(slot), &a.slots[slot].data) {
				return
			}
		}
	}
}

// Sweep removes every slot whose mask bit is false and runs SweepValues on
// every survivor, in one order-preserving pass. A survivor's new slot equals
// its rank among survivors. The mask must cover exactly the current slots.
func (a *Arena[T, PT]) Sweep(c *CompactionLists, mask []bool) {
	Assertf(len(mask) == len(a.slots), "%s retain mask has %d entries, arena has %d slots", a.kind, len(mask), len(a.slots))
	kept := 0
	for slot, keep := range mask {
		if !keep {
			continue
		}
		PT(&a.slots[slot].data).SweepValues(c)
		if kept != slot {
			a.slots[kept] = a.slots[slot]
		}
		kept++
	}
	clear(a.slots[kept:])
	a.slots = a.slots[:kept]
}

// Clear drops every slot.
func (a *Arena[T, PT]) Clear() {
	clear(a.slots)
	a.slots = a.slots[:0]
}
