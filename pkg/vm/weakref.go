package vm

import (
	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

// WeakRefHeapData holds its target without keeping it alive: MarkValues
// skips the target and SweepValues clears it when the collector removed it.
type WeakRefHeapData struct {
	target  Value
	backing OrdinaryObject
}

func (w *WeakRefHeapData) MarkValues(q *heap.WorkQueues) {
	w.backing.MarkValues(q)
}

func (w *WeakRefHeapData) SweepValues(c *heap.CompactionLists) {
	w.backing.SweepValues(c)
	if kind, i, ok := w.target.HeapIndex(); ok {
		if !c.ShiftWeak(kind, &i) {
			w.target = Undefined
			return
		}
		w.target.ref = i
	}
}

// CreateWeakRef allocates a weak reference to target, which must be an
// object or a symbol.
func (h *Heap) CreateWeakRef(target Value) (WeakRef, error) {
	h.assertIdle()
	if !target.IsObject() && !target.IsSymbol() {
		return 0, &errors.TypeError{Msg: "WeakRef: invalid target " + target.TypeName()}
	}
	i := h.weakRefs.Alloc(WeakRefHeapData{target: target})
	h.allocated(heap.KindWeakRef, 0)
	return WeakRef(i), nil
}

// WeakRefData returns the payload of w.
func (h *Heap) WeakRefData(w WeakRef) *WeakRefHeapData {
	return h.weakRefs.Get(w.Index())
}

// WeakRefDeref returns the target, or Undefined once it has been collected.
func (h *Heap) WeakRefDeref(w WeakRef) Value {
	h.assertIdle()
	return h.WeakRefData(w).target
}
