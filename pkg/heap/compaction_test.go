package heap

import "testing"

func TestCompactionList_Shifts(t *testing.T) {
	c := NewCompactionList(KindArray, []bool{true, false, true, true, false})
	tests := []struct {
		in   Index
		want Index
		ok   bool
	}{
		{FromSlot(0), FromSlot(0), true},
		{FromSlot(1), None, false},
		{FromSlot(2), FromSlot(1), true},
		{FromSlot(3), FromSlot(2), true},
		{FromSlot(4), None, false},
		{None, None, true},
	}
	for _, tt := range tests {
		got, ok := c.Lookup(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if c.Retained() != 3 {
		t.Errorf("expected 3 retained, got %d", c.Retained())
	}
}

func TestCompactionList_ShiftIndex(t *testing.T) {
	c := NewCompactionList(KindArray, []bool{false, true})
	i := FromSlot(1)
	c.ShiftIndex(&i)
	if i != FromSlot(0) {
		t.Errorf("expected #1, got %v", i)
	}
	removed := FromSlot(0)
	expectInvariant(t, "removed", func() { c.ShiftIndex(&removed) })
	beyond := FromSlot(9)
	expectInvariant(t, "beyond", func() { c.ShiftIndex(&beyond) })
}

func TestCompactionList_ShiftWeakIndex(t *testing.T) {
	c := NewCompactionList(KindObject, []bool{false, true})
	dead := FromSlot(0)
	if c.ShiftWeakIndex(&dead) {
		t.Errorf("expected removed weak target to report false")
	}
	if dead != None {
		t.Errorf("expected weak index cleared, got %v", dead)
	}
	live := FromSlot(1)
	if !c.ShiftWeakIndex(&live) || live != FromSlot(0) {
		t.Errorf("expected live weak target shifted to #1, got %v", live)
	}
}

func TestWorkQueues(t *testing.T) {
	q := NewWorkQueues()
	q.Push(KindArray, FromSlot(3))
	q.Push(KindObject, None)
	q.Push(KindObject, FromSlot(1))
	q.Push(KindObject, FromSlot(2))
	if q.Len() != 3 {
		t.Fatalf("expected 3 pending, got %d", q.Len())
	}
	var got []Kind
	for !q.IsEmpty() {
		k, _, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop failed on non-empty queues")
		}
		got = append(got, k)
	}
	if len(got) != 3 || got[0] != KindObject || got[1] != KindObject || got[2] != KindArray {
		t.Errorf("unexpected drain order %v", got)
	}
	if _, _, ok := q.Pop(); ok {
		t.Errorf("expected Pop on empty queues to fail")
	}
	if q.Pushed() != 3 {
		t.Errorf("expected 3 pushes counted, got %d", q.Pushed())
	}
	q.Reset()
	if q.Pushed() != 0 {
		t.Errorf("expected Reset to clear push counter")
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range Kinds() {
		if k.String() == "" || k.String() == "unknown" {
			t.Errorf("kind %d has no name", k)
		}
	}
	if Kind(200).String() != "unknown" {
		t.Errorf("expected unknown for out of range kind")
	}
}
