package vm

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
)

const debugHeap = false

func debugPrintf(format string, args ...interface{}) {
	if debugHeap {
		fmt.Printf(format, args...)
	}
}

// arena is the kind-independent view of a heap.Arena the collector works
// through.
type arena interface {
	Kind() heap.Kind
	Len() int
	Size() uint64
	Contains(i heap.Index) bool
	Mark(i heap.Index, q *heap.WorkQueues)
	Sweep(c *heap.CompactionLists, mask []bool)
	Clear()
}

// Heap owns one arena per heap-resident kind. All allocation goes through
// its Create methods and all payload access through its Data accessors.
//
// A Heap is not safe for concurrent use. Hosts that share one across
// goroutines must funnel every access through Exclusive.
type Heap struct {
	config heap.Config

	objects             *heap.Arena[ObjectHeapData, *ObjectHeapData]
	arrays              *heap.Arena[ArrayHeapData, *ArrayHeapData]
	functions           *heap.Arena[FunctionHeapData, *FunctionHeapData]
	symbols             *heap.Arena[SymbolHeapData, *SymbolHeapData]
	sets                *heap.Arena[SetHeapData, *SetHeapData]
	setIterators        *heap.Arena[SetIteratorHeapData, *SetIteratorHeapData]
	environments        *heap.Arena[EnvironmentHeapData, *EnvironmentHeapData]
	privateEnvironments *heap.Arena[PrivateEnvironmentHeapData, *PrivateEnvironmentHeapData]
	weakRefs            *heap.Arena[WeakRefHeapData, *WeakRefHeapData]
	regexps             *heap.Arena[RegExpHeapData, *RegExpHeapData]

	arenas [heap.NumKinds]arena

	// allocCounter counts bytes allocated since the last collection.
	allocCounter uint64
	threshold    uint64
	collecting   bool
	cycles       int
	last         CollectStats

	trace io.Writer
	mu    sync.Mutex
}

// NewHeap creates a heap with the given configuration.
func NewHeap(cfg heap.Config) *Heap {
	if err := cfg.Validate(); err != nil {
		panic(&errors.InvariantError{Msg: "invalid heap config", Cause: err})
	}
	n := cfg.InitialCapacity
	h := &Heap{
		config:              cfg,
		objects:             heap.NewArena[ObjectHeapData](heap.KindObject, n),
		arrays:              heap.NewArena[ArrayHeapData](heap.KindArray, n),
		functions:           heap.NewArena[FunctionHeapData](heap.KindFunction, n),
		symbols:             heap.NewArena[SymbolHeapData](heap.KindSymbol, n),
		sets:                heap.NewArena[SetHeapData](heap.KindSet, n),
		setIterators:        heap.NewArena[SetIteratorHeapData](heap.KindSetIterator, n),
		environments:        heap.NewArena[EnvironmentHeapData](heap.KindEnvironment, n),
		privateEnvironments: heap.NewArena[PrivateEnvironmentHeapData](heap.KindPrivateEnvironment, n),
		weakRefs:            heap.NewArena[WeakRefHeapData](heap.KindWeakRef, n),
		regexps:             heap.NewArena[RegExpHeapData](heap.KindRegExp, n),
		threshold:           uint64(cfg.GCThreshold),
	}
	for _, a := range []arena{
		h.objects, h.arrays, h.functions, h.symbols, h.sets, h.setIterators,
		h.environments, h.privateEnvironments, h.weakRefs, h.regexps,
	} {
		h.arenas[a.Kind()] = a
	}
	for k, a := range h.arenas {
		heap.Assertf(a != nil, "no arena registered for %s", heap.Kind(k))
	}
	if cfg.Trace {
		h.trace = os.Stderr
	}
	return h
}

// NewDefaultHeap creates a heap with heap.DefaultConfig.
func NewDefaultHeap() *Heap {
	return NewHeap(heap.DefaultConfig())
}

// Config returns the configuration the heap was created with.
func (h *Heap) Config() heap.Config {
	return h.config
}

// SetTraceWriter directs collection trace lines to w. A nil writer disables
// tracing.
func (h *Heap) SetTraceWriter(w io.Writer) {
	h.trace = w
}

// Exclusive runs fn while holding the heap's lock. It is the only supported
// way to touch a heap from more than one goroutine.
func (h *Heap) Exclusive(fn func(h *Heap)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h)
}

// assertIdle guards every mutation and property access: nothing may touch
// the heap while a collection is running.
func (h *Heap) assertIdle() {
	heap.Assertf(!h.collecting, "heap accessed during garbage collection")
}

// charge adds bytes to the allocation counter.
func (h *Heap) charge(bytes uint64) {
	h.allocCounter += bytes
}

// allocated accounts for one new slot of kind plus extra out-of-line bytes
// and enforces the configured heap limit.
func (h *Heap) allocated(kind heap.Kind, extra uint64) {
	a := h.arenas[kind]
	h.charge(a.Size()/uint64(a.Len()) + extra)
	if limit := uint64(h.config.MaxHeapBytes); limit > 0 {
		if used := h.Size(); used > limit {
			panic(&errors.ExhaustionError{
				Msg:   fmt.Sprintf("heap size %d exceeds limit %d allocating %s", used, limit, kind),
				Limit: limit,
				Used:  used,
			})
		}
	}
	debugPrintf("// [Heap] alloc %s #%d (counter=%d)\n", kind, a.Len(), h.allocCounter)
}

// Size returns the bytes occupied by all arenas.
func (h *Heap) Size() uint64 {
	var total uint64
	for _, a := range h.arenas {
		total += a.Size()
	}
	return total
}

// Len returns the number of slots in the arena of kind.
func (h *Heap) Len(kind heap.Kind) int {
	return h.arenas[kind].Len()
}

// AllocatedSinceCollection returns the allocation counter.
func (h *Heap) AllocatedSinceCollection() uint64 {
	return h.allocCounter
}

// Threshold returns the allocation counter value that triggers MaybeCollect.
func (h *Heap) Threshold() uint64 {
	return h.threshold
}

// Contains reports whether v is a primitive or refers to a live slot.
func (h *Heap) Contains(v Value) bool {
	kind, i, ok := v.HeapIndex()
	if !ok {
		return true
	}
	return h.arenas[kind].Contains(i)
}

// Close drops every slot. The heap must not be used afterwards.
func (h *Heap) Close() {
	h.assertIdle()
	for _, a := range h.arenas {
		a.Clear()
	}
	h.allocCounter = 0
}

var valueBytes = uint64(unsafe.Sizeof(Value{}))
