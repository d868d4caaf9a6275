package heap

// CompactionList maps every pre-sweep slot of one arena to its post-sweep
// index, or to None when the slot is removed.
type CompactionList struct {
	kind   Kind
	shifts []Index
}

// NewCompactionList builds the list for kind from a retain mask: retained
// slots get ascending indices in mask order, the rest are marked removed.
func NewCompactionList(kind Kind, mask []bool) CompactionList {
	shifts := make([]Index, len(mask))
	next := 0
	for slot, keep := range mask {
		if keep {
			shifts[slot] = FromSlot(next)
			next++
		}
	}
	return CompactionList{kind: kind, shifts: shifts}
}

// Kind returns the kind the list describes.
func (c *CompactionList) Kind() Kind {
	return c.kind
}

// Len returns the pre-sweep slot count the list covers.
func (c *CompactionList) Len() int {
	return len(c.shifts)
}

// Retained returns how many slots survive.
func (c *CompactionList) Retained() int {
	n := 0
	for _, s := range c.shifts {
		if !s.IsNone() {
			n++
		}
	}
	return n
}

// Lookup returns the post-sweep index for i and whether it survives.
func (c *CompactionList) Lookup(i Index) (Index, bool) {
	if i.IsNone() {
		return None, true
	}
	slot := i.Slot()
	Assertf(slot < len(c.shifts), "%s index %v out of range of compaction list (len %d)", c.kind, i, len(c.shifts))
	n := c.shifts[slot]
	return n, !n.IsNone()
}

// ShiftIndex rewrites *i to its post-sweep position. A live holder pointing at
// a removed slot is a reachability bug and is fatal.
func (c *CompactionList) ShiftIndex(i *Index) {
	n, ok := c.Lookup(*i)
	Assertf(ok, "live reference to removed %s %v", c.kind, *i)
	*i = n
}

// ShiftWeakIndex rewrites *i like ShiftIndex, but clears it to None when the
// target was removed. It reports whether the target survived.
func (c *CompactionList) ShiftWeakIndex(i *Index) bool {
	n, ok := c.Lookup(*i)
	*i = n
	return ok && !n.IsNone()
}

// CompactionLists holds one CompactionList per kind.
type CompactionLists struct {
	lists   [NumKinds]CompactionList
	shifted map[*Index]struct{}
}

// NewCompactionLists builds every list from the per-kind retain masks. All
// lists must be complete before any SweepValues call, since data of one kind
// holds indices of other kinds.
func NewCompactionLists(masks [NumKinds][]bool) *CompactionLists {
	c := &CompactionLists{}
	for k := range masks {
		c.lists[k] = NewCompactionList(Kind(k), masks[k])
	}
	return c
}

// List returns the list for kind.
func (c *CompactionLists) List(kind Kind) *CompactionList {
	return &c.lists[kind]
}

// Shift rewrites a strong reference of the given kind.
func (c *CompactionLists) Shift(kind Kind, i *Index) {
	c.lists[kind].ShiftIndex(i)
}

// ShiftWeak rewrites a weak reference of the given kind, clearing it when the
// target did not survive.
func (c *CompactionLists) ShiftWeak(kind Kind, i *Index) bool {
	return c.lists[kind].ShiftWeakIndex(i)
}

// ShiftOnce rewrites a strong reference held in root storage. Root sets may
// expose the same slot more than once in one collection; only the first
// visit shifts it.
func (c *CompactionLists) ShiftOnce(kind Kind, i *Index) {
	if c.shifted == nil {
		c.shifted = make(map[*Index]struct{})
	}
	if _, done := c.shifted[i]; done {
		return
	}
	c.shifted[i] = struct{}{}
	c.Shift(kind, i)
}
