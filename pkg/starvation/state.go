package starvation

import (
	log "github.com/sirupsen/logrus"

	"github.com/pravinparker/infer/pkg/ir"
)

// GuardID names a lock-guard object within one procedure.
type GuardID string

// State is the abstract state at a program point: the pairs recorded
// so far, the locks currently held, the main-thread fact, and live
// guard bindings. A nil *State stands for an unreachable point and is
// the bottom of the lattice.
type State struct {
	Pairs  CriticalPairs
	Acq    Acquisitions
	UI     UIThread
	Guards map[GuardID]Lock
}

// NewState returns the state at an entry point: nothing held, nothing
// recorded.
func NewState() *State {
	return &State{Guards: map[GuardID]Lock{}}
}

// Clone returns an independent copy. Pairs and Acq are immutable
// values and shared structurally.
func (s *State) Clone() *State {
	g := make(map[GuardID]Lock, len(s.Guards))
	for k, v := range s.Guards {
		g[k] = v
	}
	return &State{Pairs: s.Pairs, Acq: s.Acq, UI: s.UI, Guards: g}
}

// Join merges two states at a control-flow merge: pairs union, locks
// held on both paths, agreeing guard bindings, main-thread join. A nil
// operand is bottom and joins as identity.
func (s *State) Join(o *State) *State {
	if s == nil {
		return o
	}
	if o == nil {
		return s
	}
	g := make(map[GuardID]Lock)
	for k, v := range s.Guards {
		if v2, ok := o.Guards[k]; ok && v2.Equal(v) {
			g[k] = v
		}
	}
	return &State{
		Pairs:  s.Pairs.Union(o.Pairs),
		Acq:    s.Acq.Intersect(o.Acq),
		UI:     s.UI.Join(o.UI),
		Guards: g,
	}
}

func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !s.Pairs.Equal(o.Pairs) || !s.Acq.Equal(o.Acq) || !s.UI.Equal(o.UI) {
		return false
	}
	if len(s.Guards) != len(o.Guards) {
		return false
	}
	for k, v := range s.Guards {
		if v2, ok := o.Guards[k]; !ok || !v2.Equal(v) {
			return false
		}
	}
	return true
}

// Acquire records taking each lock in order: a LockAcquire pair with
// the locks held before the event, then the lock itself pushed.
// Reacquiring a held lock yields a pair whose own context contains the
// lock, which is exactly the self-deadlock witness.
func (s *State) Acquire(locks []Lock, loc ir.Location) {
	for _, l := range locks {
		pair := CriticalPair{
			Event: Event{Kind: EventLockAcquire, Lock: l},
			Acq:   s.Acq,
			Loc:   loc,
			Trace: Trace{{Loc: loc, Desc: "acquires " + l.Describe()}},
		}
		s.Pairs = s.Pairs.Add(pair)
		s.Acq = s.Acq.Push(l)
	}
}

// Release forgets each lock. Releasing a lock that is not held is a
// modeling gap, not an error.
func (s *State) Release(locks []Lock) {
	for _, l := range locks {
		if !s.Acq.Contains(l) {
			log.Debugf("release of %s without matching acquire, ignoring", l)
			continue
		}
		s.Acq = s.Acq.Remove(l)
	}
}

// MayBlock records a blocking event under the current locks.
func (s *State) MayBlock(desc string, sev Severity, loc ir.Location) {
	s.Pairs = s.Pairs.Add(CriticalPair{
		Event: Event{Kind: EventMayBlock, Desc: desc, Sev: sev},
		Acq:   s.Acq,
		Loc:   loc,
		Trace: Trace{{Loc: loc, Desc: "may block calling " + desc}},
	})
}

// StrictCall records a strict-mode violation event.
func (s *State) StrictCall(desc string, loc ir.Location) {
	s.Pairs = s.Pairs.Add(CriticalPair{
		Event: Event{Kind: EventStrictCall, Desc: desc},
		Acq:   s.Acq,
		Loc:   loc,
		Trace: Trace{{Loc: loc, Desc: "calls " + desc}},
	})
}

// SetOnUI records the main-thread fact.
func (s *State) SetOnUI(expl UIExplanation) {
	s.UI = s.UI.Join(UIThread{OnUI: true, Expl: expl})
}

// GuardConstruct binds guard to lock, optionally acquiring right away.
func (s *State) GuardConstruct(g GuardID, l Lock, acquireNow bool, loc ir.Location) {
	s.Guards[g] = l
	if acquireNow {
		s.Acquire([]Lock{l}, loc)
	}
}

// GuardLock acquires the lock bound to g.
func (s *State) GuardLock(g GuardID, loc ir.Location) {
	l, ok := s.Guards[g]
	if !ok {
		log.Debugf("lock of unbound guard %s, ignoring", g)
		return
	}
	s.Acquire([]Lock{l}, loc)
}

// GuardUnlock releases the lock bound to g. The binding stays live.
func (s *State) GuardUnlock(g GuardID) {
	l, ok := s.Guards[g]
	if !ok {
		log.Debugf("unlock of unbound guard %s, ignoring", g)
		return
	}
	s.Release([]Lock{l})
}

// GuardDestroy removes the binding without releasing the lock. A guard
// destroyed while its lock is held leaks the acquisition, mirroring
// the modeled library's semantics.
func (s *State) GuardDestroy(g GuardID) {
	delete(s.Guards, g)
}

// Integrate folds a callee summary into the state at a call site. Each
// callee pair is re-homed: the caller's current acquisitions extended
// with the callee's, the trace prefixed with the call-site step, the
// location moved to the call site, the event kept as the callee
// recorded it.
func (s *State) Integrate(sum *Summary, calleeDesc string, loc ir.Location) {
	for _, p := range sum.Pairs.All() {
		s.Pairs = s.Pairs.Add(CriticalPair{
			Event: p.Event,
			Acq:   s.Acq.Union(p.Acq),
			Loc:   loc,
			Trace: p.Trace.Deepen(loc, "calls "+calleeDesc),
		})
	}
	// Only modeled-call facts flow up: a callee that binds the thread
	// binds its caller's thread too. Annotation facts describe where
	// the callee must run, not where the caller does.
	if sum.UI.OnUI && sum.UI.Expl.Kind == UIModeledCall {
		s.UI = s.UI.Join(sum.UI)
	}
}
