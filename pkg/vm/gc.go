package vm

import (
	"fmt"
	"time"

	"github.com/inhies/go-bytesize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"paserati-heap/pkg/heap"
)

// RootSet is anything the host holds heap references in. The collector
// marks through it before tracing and sweeps it after compaction so the
// host's handles follow their referents.
//
// Roots and RootFunc may overlap each other in one Collect call: a Value
// reached through both is rewritten once. Other implementations must not
// share storage with any other root set passed to the same call.
type RootSet interface {
	heap.Data
}

// sweepRoot rewrites a root-held value at most once per collection.
func sweepRoot(v *Value, c *heap.CompactionLists) {
	if kind, ok := v.typ.heapKind(); ok {
		c.ShiftOnce(kind, &v.ref)
	}
}

// Roots is a RootSet over a plain slice of values.
type Roots []Value

func (r Roots) MarkValues(q *heap.WorkQueues) {
	for _, v := range r {
		v.MarkValues(q)
	}
}

func (r Roots) SweepValues(c *heap.CompactionLists) {
	for i := range r {
		sweepRoot(&r[i], c)
	}
}

// RootFunc adapts a visitor over host-held values to a RootSet. The visitor
// must pass pointers to the host's own storage.
type RootFunc func(visit func(v *Value))

func (f RootFunc) MarkValues(q *heap.WorkQueues) {
	f(func(v *Value) { v.MarkValues(q) })
}

func (f RootFunc) SweepValues(c *heap.CompactionLists) {
	f(func(v *Value) { sweepRoot(v, c) })
}

// CollectStats describes one collection.
type CollectStats struct {
	Cycle       int
	Before      [heap.NumKinds]int
	After       [heap.NumKinds]int
	BytesBefore uint64
	BytesAfter  uint64
	Visited     int
	Duration    time.Duration
}

// Freed returns the number of slots removed across all kinds.
func (s CollectStats) Freed() int {
	n := 0
	for k := range s.Before {
		n += s.Before[k] - s.After[k]
	}
	return n
}

// FreedOf returns the number of slots of kind removed.
func (s CollectStats) FreedOf(kind heap.Kind) int {
	return s.Before[kind] - s.After[kind]
}

var statsPrinter = message.NewPrinter(language.English)

func (s CollectStats) String() string {
	before, after := 0, 0
	for k := range s.Before {
		before += s.Before[k]
		after += s.After[k]
	}
	return statsPrinter.Sprintf("gc #%d: %d -> %d slots (%d freed), %s -> %s, %d visited in %v",
		s.Cycle, before, after, before-after,
		bytesize.New(float64(s.BytesBefore)), bytesize.New(float64(s.BytesAfter)),
		s.Visited, s.Duration)
}

// Collect runs a full mark and compacting sweep. Everything not reachable
// from roots is removed; every surviving slot moves to its rank among the
// survivors of its kind, and every reference on the heap and in roots is
// rewritten to match. Weak references to removed targets are cleared.
//
// Afterwards the allocation counter resets and the threshold becomes
// GrowthFactor times the surviving heap, but never less than GCThreshold.
//
// Collect must not be re-entered, and no heap access may happen from
// MarkValues or SweepValues.
func (h *Heap) Collect(roots ...RootSet) CollectStats {
	heap.Assertf(!h.collecting, "garbage collection re-entered")
	h.collecting = true
	defer func() { h.collecting = false }()

	start := time.Now()
	stats := CollectStats{Cycle: h.cycles + 1, BytesBefore: h.Size()}

	var seen [heap.NumKinds][]bool
	for k, a := range h.arenas {
		stats.Before[k] = a.Len()
		seen[k] = make([]bool, a.Len())
	}

	q := heap.NewWorkQueues()
	for _, r := range roots {
		r.MarkValues(q)
	}
	for {
		kind, i, ok := q.Pop()
		if !ok {
			break
		}
		slot := i.Slot()
		heap.Assertf(slot < len(seen[kind]), "%s reference %s out of bounds during marking", kind, i)
		if seen[kind][slot] {
			continue
		}
		seen[kind][slot] = true
		stats.Visited++
		h.arenas[kind].Mark(i, q)
	}
	debugPrintf("// [GC] marked %d slots (%d pushes)\n", stats.Visited, q.Pushed())

	lists := heap.NewCompactionLists(seen)
	for k, a := range h.arenas {
		a.Sweep(lists, seen[k])
	}
	for _, r := range roots {
		r.SweepValues(lists)
	}
	h.compactSets()

	for k, a := range h.arenas {
		stats.After[k] = a.Len()
	}
	stats.BytesAfter = h.Size()
	stats.Duration = time.Since(start)

	h.cycles++
	h.last = stats
	h.allocCounter = 0
	next := uint64(float64(stats.BytesAfter) * h.config.GrowthFactor)
	if base := uint64(h.config.GCThreshold); next < base {
		next = base
	}
	h.threshold = next
	if h.trace != nil {
		fmt.Fprintln(h.trace, stats.String())
	}
	return stats
}

// MaybeCollect collects when the allocation counter has reached the
// threshold.
func (h *Heap) MaybeCollect(roots ...RootSet) (CollectStats, bool) {
	if h.allocCounter < h.threshold {
		return CollectStats{}, false
	}
	return h.Collect(roots...), true
}

// Cycles returns the number of completed collections.
func (h *Heap) Cycles() int {
	return h.cycles
}

// LastCollection returns the stats of the most recent collection.
func (h *Heap) LastCollection() (CollectStats, bool) {
	return h.last, h.cycles > 0
}
