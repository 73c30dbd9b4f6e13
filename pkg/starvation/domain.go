// Package starvation implements the concurrency hazard analysis core:
// an abstract domain of critical pairs and main-thread facts, the
// per-procedure transfer function that builds summaries, and the
// whole-program passes that turn summaries into deadlock, starvation
// and lock-contract reports.
//
// The analysis is deliberately unsound. It over- and under-approximates
// in documented ways and aims for actionable reports, not proofs.
package starvation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pravinparker/infer/pkg/ir"
)

// LockKind classifies how a lock is rooted.
type LockKind uint8

const (
	// LockParam locks are reached from a formal parameter of the
	// procedure that recorded them.
	LockParam LockKind = iota
	// LockGlobal locks are reached from a package-level variable.
	LockGlobal
	// LockClass locks stand for the class object itself and are
	// identified by owner type alone.
	LockClass
)

// Lock identifies a lock object well enough to compare across
// procedures. Root and Path pin the access path inside the recording
// procedure; Owner is the named type or package the root belongs to.
type Lock struct {
	Kind  LockKind
	Root  string
	Path  string
	Owner ir.TypeName
}

// LockFromExp derives a lock from an access expression. Only
// parameter- and global-rooted expressions denote locks the analysis
// can track; everything else reports ok == false.
func LockFromExp(e ir.Exp) (Lock, bool) {
	switch e.Root {
	case ir.RootParam:
		return Lock{Kind: LockParam, Root: e.Name, Path: strings.Join(e.Path, "."), Owner: e.Owner}, true
	case ir.RootGlobal:
		return Lock{Kind: LockGlobal, Root: e.Name, Path: strings.Join(e.Path, "."), Owner: e.Owner}, true
	}
	return Lock{}, false
}

// ClassLock returns the class-object lock of owner.
func ClassLock(owner ir.TypeName) Lock {
	return Lock{Kind: LockClass, Owner: owner}
}

// Equal is structural identity: same rooting, same path. This is the
// comparison used for membership in one procedure's acquisition
// context, so reentrancy stays precise.
func (l Lock) Equal(o Lock) bool { return l == o }

// SameObject compares locks across procedures, where roots live in
// different scopes. Class locks match on owner identity and global
// locks on the variable itself. Parameter-rooted locks match on owner
// class plus path, so any two instances of one class are conservatively
// identified.
func (l Lock) SameObject(o Lock) bool {
	if l.Kind == LockClass || o.Kind == LockClass {
		return l.Kind == o.Kind && l.Owner == o.Owner
	}
	if l.Kind == LockGlobal || o.Kind == LockGlobal {
		return l.Kind == o.Kind && l.Owner == o.Owner && l.Root == o.Root && l.Path == o.Path
	}
	return l.Owner == o.Owner && l.Path == o.Path
}

// TypeName is the name deadlock reporting orders locks by.
func (l Lock) TypeName() string { return l.Owner.String() }

func (l Lock) String() string {
	switch {
	case l.Kind == LockClass:
		return l.Owner.String() + ".(class)"
	case l.Path == "":
		return l.Root
	}
	return l.Root + "." + l.Path
}

// Describe renders the lock the way report messages refer to it, by
// owner and path, so messages stay meaningful across procedures.
func (l Lock) Describe() string {
	short := l.Owner.Name
	if short == "" {
		short = l.Owner.Pkg
	}
	switch {
	case l.Kind == LockClass:
		return "class " + short
	case l.Kind == LockGlobal && l.Path != "":
		return l.Root + "." + l.Path
	case l.Path != "":
		return short + "." + l.Path
	}
	return l.Root
}

// key is the canonical encoding used for set membership.
func (l Lock) key() string {
	return fmt.Sprintf("%d/%s/%s/%s", l.Kind, l.Owner, l.Root, l.Path)
}

// Acquisitions is the ordered set of locks held at a program point.
// Order is acquisition order; a lock appears at most once. Values are
// immutable: mutators return fresh slices.
type Acquisitions []Lock

// Contains uses structural lock identity.
func (a Acquisitions) Contains(l Lock) bool {
	for _, h := range a {
		if h.Equal(l) {
			return true
		}
	}
	return false
}

// ContainsObject reports whether some held lock may denote the same
// runtime object as l, using cross-procedure identity.
func (a Acquisitions) ContainsObject(l Lock) bool {
	for _, h := range a {
		if h.SameObject(l) {
			return true
		}
	}
	return false
}

// Push returns a with l appended, unless l is already held.
func (a Acquisitions) Push(l Lock) Acquisitions {
	if a.Contains(l) {
		return a
	}
	out := make(Acquisitions, len(a)+1)
	copy(out, a)
	out[len(a)] = l
	return out
}

// Remove returns a without l. Removing an absent lock is a no-op.
func (a Acquisitions) Remove(l Lock) Acquisitions {
	for i, h := range a {
		if !h.Equal(l) {
			continue
		}
		out := make(Acquisitions, 0, len(a)-1)
		out = append(out, a[:i]...)
		out = append(out, a[i+1:]...)
		return out
	}
	return a
}

// Union appends the locks of b not already held, preserving a's order
// first. Summary integration extends caller acquisitions this way.
func (a Acquisitions) Union(b Acquisitions) Acquisitions {
	out := a
	for _, l := range b {
		out = out.Push(l)
	}
	return out
}

// Intersect keeps locks present in both, preserving a's order. Merge
// points keep only locks held on every incoming path.
func (a Acquisitions) Intersect(b Acquisitions) Acquisitions {
	var out Acquisitions
	for _, l := range a {
		if b.Contains(l) {
			out = append(out, l)
		}
	}
	return out
}

func (a Acquisitions) Equal(b Acquisitions) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (a Acquisitions) String() string {
	if len(a) == 0 {
		return "{}"
	}
	parts := make([]string, len(a))
	for i, l := range a {
		parts[i] = l.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Severity ranks how disruptive a blocking event is.
type Severity uint8

const (
	SevLow Severity = iota + 1
	SevMedium
	SevHigh
)

func (s Severity) String() string {
	switch s {
	case SevLow:
		return "low"
	case SevMedium:
		return "medium"
	case SevHigh:
		return "high"
	}
	return "unknown"
}

// EventKind discriminates Event.
type EventKind uint8

const (
	// EventLockAcquire records taking a lock.
	EventLockAcquire EventKind = iota + 1
	// EventMayBlock records a call that may block the calling thread.
	EventMayBlock
	// EventStrictCall records a call forbidden in strict mode.
	EventStrictCall
)

// Event is the endpoint of a critical pair.
type Event struct {
	Kind EventKind
	Lock Lock     // set for EventLockAcquire
	Desc string   // callee description for the two call kinds
	Sev  Severity // blocking severity for EventMayBlock
}

func (e Event) String() string {
	switch e.Kind {
	case EventLockAcquire:
		return "acquires " + e.Lock.Describe()
	case EventMayBlock:
		return "may block calling " + e.Desc
	case EventStrictCall:
		return "calls " + e.Desc
	}
	return "invalid event"
}

// TraceStep is one hop of the call trace attached to a critical pair.
type TraceStep struct {
	Depth int
	Loc   ir.Location
	Desc  string
}

// Trace is the call chain from the reported procedure down to the
// event, outermost first.
type Trace []TraceStep

// Deepen prefixes a call-site step and shifts the rest down a level.
func (t Trace) Deepen(loc ir.Location, desc string) Trace {
	out := make(Trace, 0, len(t)+1)
	out = append(out, TraceStep{Loc: loc, Desc: desc})
	for _, s := range t {
		s.Depth++
		out = append(out, s)
	}
	return out
}

func (t Trace) String() string {
	var b strings.Builder
	for i, s := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", s.Depth))
		b.WriteString(s.Desc)
		b.WriteString(" at ")
		b.WriteString(s.Loc.String())
	}
	return b.String()
}

// CriticalPair is an event plus the locks held when it happened and
// the call trace leading to it. Pairs are immutable once created.
type CriticalPair struct {
	Event Event
	Acq   Acquisitions
	Loc   ir.Location
	Trace Trace
}

// SelfDeadlock reports whether the pair's own context already holds
// the lock it acquires.
func (p CriticalPair) SelfDeadlock() bool {
	return p.Event.Kind == EventLockAcquire && p.Acq.Contains(p.Event.Lock)
}

func (p CriticalPair) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s|%d|%s", p.Event.Kind, p.Event.Lock.key(), p.Event.Desc, p.Event.Sev, p.Loc)
	for _, l := range p.Acq {
		b.WriteByte(';')
		b.WriteString(l.key())
	}
	for _, s := range p.Trace {
		fmt.Fprintf(&b, "|%d:%s:%s", s.Depth, s.Loc, s.Desc)
	}
	return b.String()
}

// CriticalPairs is a finite set of critical pairs; join is union. The
// zero value is the empty set. Values are immutable: Add and Union
// return new sets and never modify their operands.
type CriticalPairs struct {
	m map[string]CriticalPair
}

func (cp CriticalPairs) Len() int    { return len(cp.m) }
func (cp CriticalPairs) Empty() bool { return len(cp.m) == 0 }

// Add returns the set extended with p.
func (cp CriticalPairs) Add(p CriticalPair) CriticalPairs {
	k := p.key()
	if _, ok := cp.m[k]; ok {
		return cp
	}
	out := make(map[string]CriticalPair, len(cp.m)+1)
	for k2, v := range cp.m {
		out[k2] = v
	}
	out[k] = p
	return CriticalPairs{m: out}
}

// Union returns the set union of cp and o.
func (cp CriticalPairs) Union(o CriticalPairs) CriticalPairs {
	if len(o.m) == 0 {
		return cp
	}
	if len(cp.m) == 0 {
		return o
	}
	out := make(map[string]CriticalPair, len(cp.m)+len(o.m))
	for k, v := range cp.m {
		out[k] = v
	}
	for k, v := range o.m {
		out[k] = v
	}
	return CriticalPairs{m: out}
}

func (cp CriticalPairs) Equal(o CriticalPairs) bool {
	if len(cp.m) != len(o.m) {
		return false
	}
	for k := range cp.m {
		if _, ok := o.m[k]; !ok {
			return false
		}
	}
	return true
}

// Filter returns the subset satisfying keep.
func (cp CriticalPairs) Filter(keep func(CriticalPair) bool) CriticalPairs {
	out := make(map[string]CriticalPair, len(cp.m))
	for k, v := range cp.m {
		if keep(v) {
			out[k] = v
		}
	}
	return CriticalPairs{m: out}
}

// All returns the pairs in deterministic order.
func (cp CriticalPairs) All() []CriticalPair {
	keys := make([]string, 0, len(cp.m))
	for k := range cp.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]CriticalPair, 0, len(keys))
	for _, k := range keys {
		out = append(out, cp.m[k])
	}
	return out
}
