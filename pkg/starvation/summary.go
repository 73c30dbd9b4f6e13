package starvation

import (
	"sync"

	"github.com/pravinparker/infer/pkg/ir"
)

// Summary is what outlives a procedure's analysis: the critical pairs
// observed in it and through its callees, and its main-thread fact.
// Stored summaries are never mutated.
type Summary struct {
	Pairs CriticalPairs
	UI    UIThread
}

// WithoutBlocking strips MayBlock pairs, keeping acquisitions and
// strict-mode events. Applied to summaries of procedures annotated as
// non-blocking before they are stored, so neither the procedure's own
// report pass nor its callers ever see the filtered events.
func (s *Summary) WithoutBlocking() *Summary {
	return &Summary{
		Pairs: s.Pairs.Filter(func(p CriticalPair) bool { return p.Event.Kind != EventMayBlock }),
		UI:    s.UI,
	}
}

// Store gives the transfer function access to callee summaries and the
// driver a place to put finished ones. Implementations must be safe
// for concurrent use.
type Store interface {
	// Summary returns the stored summary for proc. ok is false when
	// none exists: unanalyzed, capped out, or in-progress recursion.
	Summary(proc ir.ProcName) (*Summary, bool)
	// Update stores the finished summary for proc.
	Update(proc ir.ProcName, s *Summary)
}

// MemStore is the in-memory Store used for whole-program runs.
type MemStore struct {
	mu sync.RWMutex
	m  map[ir.ProcName]*Summary
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[ir.ProcName]*Summary)}
}

func (st *MemStore) Summary(proc ir.ProcName) (*Summary, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.m[proc]
	return s, ok
}

func (st *MemStore) Update(proc ir.ProcName, s *Summary) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.m[proc] = s
}
