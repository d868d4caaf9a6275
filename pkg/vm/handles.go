package vm

import "paserati-heap/pkg/heap"

// Typed handles. Each is an index into the arena of one kind: comparable,
// ordered, freely copied and owning nothing. The zero handle is "none".
//
// A handle is only valid between collections unless whoever holds it takes
// part in the collection as a root or as heap data.

type (
	OrdinaryObject     heap.Index
	Array              heap.Index
	Function           heap.Index
	Symbol             heap.Index
	Set                heap.Index
	SetIterator        heap.Index
	Environment        heap.Index
	PrivateEnvironment heap.Index
	WeakRef            heap.Index
	RegExp             heap.Index
)

// --- OrdinaryObject ---

func (o OrdinaryObject) Index() heap.Index { return heap.Index(o) }
func (o OrdinaryObject) IsNone() bool      { return heap.Index(o).IsNone() }
func (o OrdinaryObject) Value() Value      { return heapValue(TypeObject, heap.Index(o)) }
func (o OrdinaryObject) Object() Object    { return Object{typ: TypeObject, index: heap.Index(o)} }

func (o OrdinaryObject) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindObject, heap.Index(o))
}

func (o *OrdinaryObject) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindObject, (*heap.Index)(o))
}

// --- Array ---

func (a Array) Index() heap.Index { return heap.Index(a) }
func (a Array) IsNone() bool      { return heap.Index(a).IsNone() }
func (a Array) Value() Value      { return heapValue(TypeArray, heap.Index(a)) }
func (a Array) Object() Object    { return Object{typ: TypeArray, index: heap.Index(a)} }

func (a Array) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindArray, heap.Index(a))
}

func (a *Array) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindArray, (*heap.Index)(a))
}

// --- Function ---

func (f Function) Index() heap.Index { return heap.Index(f) }
func (f Function) IsNone() bool      { return heap.Index(f).IsNone() }
func (f Function) Value() Value      { return heapValue(TypeFunction, heap.Index(f)) }
func (f Function) Object() Object    { return Object{typ: TypeFunction, index: heap.Index(f)} }

func (f Function) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindFunction, heap.Index(f))
}

func (f *Function) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindFunction, (*heap.Index)(f))
}

// --- Symbol ---

func (s Symbol) Index() heap.Index { return heap.Index(s) }
func (s Symbol) IsNone() bool      { return heap.Index(s).IsNone() }
func (s Symbol) Value() Value      { return heapValue(TypeSymbol, heap.Index(s)) }

func (s Symbol) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindSymbol, heap.Index(s))
}

func (s *Symbol) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindSymbol, (*heap.Index)(s))
}

// --- Set ---

func (s Set) Index() heap.Index { return heap.Index(s) }
func (s Set) IsNone() bool      { return heap.Index(s).IsNone() }
func (s Set) Value() Value      { return heapValue(TypeSet, heap.Index(s)) }
func (s Set) Object() Object    { return Object{typ: TypeSet, index: heap.Index(s)} }

func (s Set) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindSet, heap.Index(s))
}

func (s *Set) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindSet, (*heap.Index)(s))
}

// --- SetIterator ---

func (s SetIterator) Index() heap.Index { return heap.Index(s) }
func (s SetIterator) IsNone() bool      { return heap.Index(s).IsNone() }
func (s SetIterator) Value() Value      { return heapValue(TypeSetIterator, heap.Index(s)) }
func (s SetIterator) Object() Object    { return Object{typ: TypeSetIterator, index: heap.Index(s)} }

func (s SetIterator) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindSetIterator, heap.Index(s))
}

func (s *SetIterator) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindSetIterator, (*heap.Index)(s))
}

// --- Environment ---

func (e Environment) Index() heap.Index { return heap.Index(e) }
func (e Environment) IsNone() bool      { return heap.Index(e).IsNone() }

func (e Environment) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindEnvironment, heap.Index(e))
}

func (e *Environment) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindEnvironment, (*heap.Index)(e))
}

// --- PrivateEnvironment ---

func (p PrivateEnvironment) Index() heap.Index { return heap.Index(p) }
func (p PrivateEnvironment) IsNone() bool      { return heap.Index(p).IsNone() }

func (p PrivateEnvironment) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindPrivateEnvironment, heap.Index(p))
}

func (p *PrivateEnvironment) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindPrivateEnvironment, (*heap.Index)(p))
}

// --- WeakRef ---

func (w WeakRef) Index() heap.Index { return heap.Index(w) }
func (w WeakRef) IsNone() bool      { return heap.Index(w).IsNone() }
func (w WeakRef) Value() Value      { return heapValue(TypeWeakRef, heap.Index(w)) }
func (w WeakRef) Object() Object    { return Object{typ: TypeWeakRef, index: heap.Index(w)} }

func (w WeakRef) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindWeakRef, heap.Index(w))
}

func (w *WeakRef) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindWeakRef, (*heap.Index)(w))
}

// --- RegExp ---

func (r RegExp) Index() heap.Index { return heap.Index(r) }
func (r RegExp) IsNone() bool      { return heap.Index(r).IsNone() }
func (r RegExp) Value() Value      { return heapValue(TypeRegExp, heap.Index(r)) }
func (r RegExp) Object() Object    { return Object{typ: TypeRegExp, index: heap.Index(r)} }

func (r RegExp) MarkValues(q *heap.WorkQueues) {
	q.Push(heap.KindRegExp, heap.Index(r))
}

func (r *RegExp) SweepValues(c *heap.CompactionLists) {
	c.Shift(heap.KindRegExp, (*heap.Index)(r))
}
