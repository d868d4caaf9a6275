package vm

import (
	"paserati-heap/pkg/heap"
)

// SetHeapData is the payload of a Set. Values are kept in insertion order;
// deleted entries become Hole so iterator positions stay meaningful until
// the next collection compacts them away. index maps a
// SameValueZero-normalised value to its position.
type SetHeapData struct {
	values  []Value
	index   map[Value]int
	size    int
	backing OrdinaryObject
}

func (s *SetHeapData) Size() int { return s.size }

func (s *SetHeapData) MarkValues(q *heap.WorkQueues) {
	for i := range s.values {
		s.values[i].MarkValues(q)
	}
	s.backing.MarkValues(q)
}

// SweepValues rewrites stored values and rebuilds the index, since the map
// keys embed heap indices that compaction just changed.
func (s *SetHeapData) SweepValues(c *heap.CompactionLists) {
	for i := range s.values {
		s.values[i].SweepValues(c)
	}
	s.backing.SweepValues(c)
	s.rebuildIndex()
}

func (s *SetHeapData) rebuildIndex() {
	s.index = make(map[Value]int, s.size)
	for i, v := range s.values {
		if !v.IsHole() {
			s.index[v.zeroKey()] = i
		}
	}
}

// CreateSet allocates an empty set.
func (h *Heap) CreateSet() Set {
	h.assertIdle()
	i := h.sets.Alloc(SetHeapData{index: make(map[Value]int)})
	h.allocated(heap.KindSet, 0)
	return Set(i)
}

// SetData returns the payload of s.
func (h *Heap) SetData(s Set) *SetHeapData {
	return h.sets.Get(s.Index())
}

// SetAdd inserts v unless a SameValueZero-equal value is present.
func (h *Heap) SetAdd(s Set, v Value) {
	h.assertIdle()
	if v.IsHole() {
		heap.Fatalf("hole stored in set")
	}
	d := h.SetData(s)
	key := v.zeroKey()
	if _, ok := d.index[key]; ok {
		return
	}
	if v.IsNumber() && v.num == 0 {
		v = NumberValue(0)
	}
	d.index[key] = len(d.values)
	d.values = append(d.values, v)
	d.size++
	h.charge(valueBytes)
}

// SetHas reports whether v is in the set.
func (h *Heap) SetHas(s Set, v Value) bool {
	h.assertIdle()
	_, ok := h.SetData(s).index[v.zeroKey()]
	return ok
}

// SetDelete removes v and reports whether it was present.
func (h *Heap) SetDelete(s Set, v Value) bool {
	h.assertIdle()
	d := h.SetData(s)
	key := v.zeroKey()
	i, ok := d.index[key]
	if !ok {
		return false
	}
	delete(d.index, key)
	d.values[i] = Hole
	d.size--
	return true
}

// SetClear removes every value. Live iterators see the set as exhausted.
func (h *Heap) SetClear(s Set) {
	h.assertIdle()
	d := h.SetData(s)
	for i := range d.values {
		d.values[i] = Hole
	}
	clear(d.index)
	d.size = 0
}

// SetValues returns the live values in insertion order.
func (h *Heap) SetValues(s Set) []Value {
	d := h.SetData(s)
	out := make([]Value, 0, d.size)
	for _, v := range d.values {
		if !v.IsHole() {
			out = append(out, v)
		}
	}
	return out
}

// compactSets drops deleted entries from every set after a sweep. Live
// iterators keep their logical position: nextIndex becomes the number of
// live entries they had already passed.
func (h *Heap) compactSets() {
	iterators := make(map[heap.Index][]*SetIteratorHeapData)
	for _, it := range h.setIterators.All() {
		if !it.set.IsNone() {
			iterators[it.set.Index()] = append(iterators[it.set.Index()], it)
		}
	}
	for i, s := range h.sets.All() {
		if s.size == len(s.values) {
			continue
		}
		for _, it := range iterators[i] {
			passed := 0
			for _, v := range s.values[:min(it.nextIndex, len(s.values))] {
				if !v.IsHole() {
					passed++
				}
			}
			it.nextIndex = passed
		}
		live := s.values[:0]
		for _, v := range s.values {
			if !v.IsHole() {
				live = append(live, v)
			}
		}
		clear(s.values[len(live):])
		if cap(live) > 2*len(live)+8 {
			live = append([]Value(nil), live...)
		}
		s.values = live
		s.rebuildIndex()
	}
}

// CollectionIteratorKind selects what a collection iterator yields.
type CollectionIteratorKind uint8

const (
	IterateKeys CollectionIteratorKind = iota
	IterateValues
	IterateEntries
)

func (k CollectionIteratorKind) String() string {
	switch k {
	case IterateKeys:
		return "keys"
	case IterateValues:
		return "values"
	case IterateEntries:
		return "entries"
	default:
		return "unknown"
	}
}

// SetIteratorHeapData is the payload of a set iterator. set becomes none once
// the iterator is exhausted, releasing the set.
type SetIteratorHeapData struct {
	backing   OrdinaryObject
	set       Set
	nextIndex int
	kind      CollectionIteratorKind
}

func (it *SetIteratorHeapData) Set() Set                     { return it.set }
func (it *SetIteratorHeapData) NextIndex() int               { return it.nextIndex }
func (it *SetIteratorHeapData) Kind() CollectionIteratorKind { return it.kind }

func (it *SetIteratorHeapData) MarkValues(q *heap.WorkQueues) {
	it.backing.MarkValues(q)
	it.set.MarkValues(q)
}

func (it *SetIteratorHeapData) SweepValues(c *heap.CompactionLists) {
	it.backing.SweepValues(c)
	it.set.SweepValues(c)
}

// CreateSetIterator allocates an iterator over s.
func (h *Heap) CreateSetIterator(s Set, kind CollectionIteratorKind) SetIterator {
	h.assertIdle()
	i := h.setIterators.Alloc(SetIteratorHeapData{set: s, kind: kind})
	h.allocated(heap.KindSetIterator, 0)
	return SetIterator(i)
}

// SetIteratorData returns the payload of it.
func (h *Heap) SetIteratorData(it SetIterator) *SetIteratorHeapData {
	return h.setIterators.Get(it.Index())
}

// SetIteratorNext advances it. done is true once the set is exhausted; for
// entries iteration the result is a fresh [value, value] array.
func (h *Heap) SetIteratorNext(it SetIterator) (result Value, done bool) {
	h.assertIdle()
	data := h.SetIteratorData(it)
	if data.set.IsNone() {
		return Undefined, true
	}
	values := h.SetData(data.set).values
	for data.nextIndex < len(values) {
		v := values[data.nextIndex]
		data.nextIndex++
		if v.IsHole() {
			continue
		}
		if data.kind == IterateEntries {
			return h.CreateArray(v, v).Value(), false
		}
		return v, false
	}
	data.set = 0
	return Undefined, true
}
