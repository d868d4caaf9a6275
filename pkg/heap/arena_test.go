package heap

import (
	"math/rand"
	"testing"

	"paserati-heap/pkg/errors"
)

// node is a minimal payload that links to other nodes of the same kind.
type node struct {
	label string
	links []Index
}

func (n *node) MarkValues(q *WorkQueues) {
	for _, l := range n.links {
		q.Push(KindObject, l)
	}
}

func (n *node) SweepValues(c *CompactionLists) {
	for i := range n.links {
		c.Shift(KindObject, &n.links[i])
	}
}

func expectInvariant(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected invariant panic, got none", name)
		}
		if _, ok := r.(*errors.InvariantError); !ok {
			t.Fatalf("%s: expected *errors.InvariantError, got %T (%v)", name, r, r)
		}
	}()
	fn()
}

func TestArena_AllocAndGet(t *testing.T) {
	a := NewArena[node](KindObject, 2)
	i1 := a.Alloc(node{label: "a"})
	i2 := a.Alloc(node{label: "b"})
	i3 := a.Alloc(node{label: "c"})

	if i1 != 1 || i2 != 2 || i3 != 3 {
		t.Errorf("expected indices 1,2,3, got %v,%v,%v", i1, i2, i3)
	}
	if a.Len() != 3 {
		t.Errorf("expected len 3, got %d", a.Len())
	}
	if got := a.Get(i2).label; got != "b" {
		t.Errorf("expected label b, got %q", got)
	}
	a.Get(i3).label = "C"
	if got := a.Get(i3).label; got != "C" {
		t.Errorf("expected in-place mutation, got %q", got)
	}
	if a.Size() == 0 {
		t.Errorf("expected non-zero size")
	}
}

func TestArena_GetDangling(t *testing.T) {
	a := NewArena[node](KindObject, 0)
	a.Alloc(node{})
	expectInvariant(t, "null", func() { a.Get(None) })
	expectInvariant(t, "out of range", func() { a.Get(FromSlot(5)) })
	if _, ok := a.Lookup(FromSlot(5)); ok {
		t.Errorf("expected Lookup to report missing slot")
	}
}

func TestArena_SweepMaskLength(t *testing.T) {
	a := NewArena[node](KindObject, 0)
	a.Alloc(node{})
	a.Alloc(node{})
	var masks [NumKinds][]bool
	masks[KindObject] = []bool{true}
	c := NewCompactionLists(masks)
	expectInvariant(t, "short mask", func() { a.Sweep(c, []bool{true}) })
}

func TestArena_SweepCompactsAndAdjusts(t *testing.T) {
	a := NewArena[node](KindObject, 0)
	i1 := a.Alloc(node{label: "dead"})
	i2 := a.Alloc(node{label: "b"})
	i3 := a.Alloc(node{label: "dead too"})
	i4 := a.Alloc(node{label: "d"})
	a.Get(i2).links = []Index{i4}
	a.Get(i4).links = []Index{i2, i4}
	_, _ = i1, i3

	mask := []bool{false, true, false, true}
	var masks [NumKinds][]bool
	masks[KindObject] = mask
	c := NewCompactionLists(masks)
	a.Sweep(c, mask)

	if a.Len() != 2 {
		t.Fatalf("expected 2 survivors, got %d", a.Len())
	}
	b := a.Get(FromSlot(0))
	d := a.Get(FromSlot(1))
	if b.label != "b" || d.label != "d" {
		t.Fatalf("survivor order mismatch: %q, %q", b.label, d.label)
	}
	if len(b.links) != 1 || b.links[0] != FromSlot(1) {
		t.Errorf("expected b -> #2, got %v", b.links)
	}
	if len(d.links) != 2 || d.links[0] != FromSlot(0) || d.links[1] != FromSlot(1) {
		t.Errorf("expected d -> [#1 #2], got %v", d.links)
	}
}

func TestArena_SweepRemovedReferenceIsFatal(t *testing.T) {
	a := NewArena[node](KindObject, 0)
	dead := a.Alloc(node{label: "dead"})
	live := a.Alloc(node{label: "live"})
	a.Get(live).links = []Index{dead}

	mask := []bool{false, true}
	var masks [NumKinds][]bool
	masks[KindObject] = mask
	c := NewCompactionLists(masks)
	expectInvariant(t, "removed target", func() { a.Sweep(c, mask) })
}

// Survivor rank property over random masks.
func TestArena_SweepRank(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		a := NewArena[node](KindObject, 0)
		labels := make([]string, n)
		for i := 0; i < n; i++ {
			labels[i] = string(rune('A' + i%26))
			a.Alloc(node{label: labels[i]})
		}
		mask := make([]bool, n)
		var want []string
		for i := range mask {
			mask[i] = rng.Intn(2) == 0
			if mask[i] {
				want = append(want, labels[i])
			}
		}
		var masks [NumKinds][]bool
		masks[KindObject] = mask
		a.Sweep(NewCompactionLists(masks), mask)

		if a.Len() != len(want) {
			t.Fatalf("round %d: expected %d survivors, got %d", round, len(want), a.Len())
		}
		for rank, label := range want {
			if got := a.Get(FromSlot(rank)).label; got != label {
				t.Fatalf("round %d: rank %d expected %q, got %q", round, rank, label, got)
			}
		}
	}
}

func TestArena_All(t *testing.T) {
	a := NewArena[node](KindObject, 0)
	a.Alloc(node{label: "x"})
	a.Alloc(node{label: "y"})
	var seen []string
	for i, n := range a.All() {
		if a.Get(i) != n {
			t.Errorf("All yielded mismatched pointer for %v", i)
		}
		seen = append(seen, n.label)
	}
	if len(seen) != 2 || seen[0] != "x" || seen[1] != "y" {
		t.Errorf("expected [x y], got %v", seen)
	}
	a.Clear()
	if !a.IsEmpty() {
		t.Errorf("expected empty arena after Clear")
	}
}

func FuzzArenaSweep(f *testing.F) {
	f.Add([]byte{1, 0, 1, 1, 0})
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, bits []byte) {
		a := NewArena[node](KindObject, 0)
		mask := make([]bool, len(bits))
		kept := 0
		for i, b := range bits {
			a.Alloc(node{})
			mask[i] = b&1 == 1
			if mask[i] {
				kept++
			}
		}
		var masks [NumKinds][]bool
		masks[KindObject] = mask
		a.Sweep(NewCompactionLists(masks), mask)
		if a.Len() != kept {
			t.Fatalf("expected %d survivors, got %d", kept, a.Len())
		}
	})
}
