package vm

import "paserati-heap/pkg/heap"

// SymbolHeapData is the payload of a symbol.
type SymbolHeapData struct {
	description Value // a string, or Undefined
}

func (s *SymbolHeapData) Description() Value { return s.description }

func (s *SymbolHeapData) MarkValues(q *heap.WorkQueues) {}

func (s *SymbolHeapData) SweepValues(c *heap.CompactionLists) {}

// CreateSymbol allocates a new unique symbol.
func (h *Heap) CreateSymbol(description Value) Symbol {
	h.assertIdle()
	if !description.IsString() {
		description = Undefined
	}
	i := h.symbols.Alloc(SymbolHeapData{description: description})
	h.allocated(heap.KindSymbol, 0)
	return Symbol(i)
}

// SymbolData returns the payload of s.
func (h *Heap) SymbolData(s Symbol) *SymbolHeapData {
	return h.symbols.Get(s.Index())
}
