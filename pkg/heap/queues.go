package heap

// WorkQueues is the collector's worklist: one pending list per kind.
//
// Data types only push into it; the collector pops and decides whether an
// entry still needs visiting, so pushing the same index twice is harmless.
type WorkQueues struct {
	pending [NumKinds][]Index
	pushed  int
}

// NewWorkQueues returns empty queues.
func NewWorkQueues() *WorkQueues {
	return &WorkQueues{}
}

// Push enqueues i for kind. The null index is ignored so optional handles can
// mark themselves unconditionally.
func (q *WorkQueues) Push(kind Kind, i Index) {
	if i.IsNone() {
		return
	}
	q.pending[kind] = append(q.pending[kind], i)
	q.pushed++
}

// Pop removes one pending entry. Kinds are drained in registry order, entries
// within a kind in LIFO order.
func (q *WorkQueues) Pop() (Kind, Index, bool) {
	for k := range q.pending {
		list := q.pending[k]
		if n := len(list); n > 0 {
			i := list[n-1]
			q.pending[k] = list[:n-1]
			return Kind(k), i, true
		}
	}
	return 0, None, false
}

// IsEmpty reports whether every queue is drained.
func (q *WorkQueues) IsEmpty() bool {
	for k := range q.pending {
		if len(q.pending[k]) > 0 {
			return false
		}
	}
	return true
}

// Len returns the number of pending entries across all kinds.
func (q *WorkQueues) Len() int {
	n := 0
	for k := range q.pending {
		n += len(q.pending[k])
	}
	return n
}

// Pending returns the pending entries of one kind. The slice is owned by q.
func (q *WorkQueues) Pending(kind Kind) []Index {
	return q.pending[kind]
}

// Pushed returns how many entries were pushed since the last Reset.
func (q *WorkQueues) Pushed() int {
	return q.pushed
}

// Reset drops all pending entries, keeping the backing storage.
func (q *WorkQueues) Reset() {
	for k := range q.pending {
		q.pending[k] = q.pending[k][:0]
	}
	q.pushed = 0
}
