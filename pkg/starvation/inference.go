package starvation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pravinparker/infer/pkg/ir"
)

// classIndex maps an owner class to its member procedures that have
// summaries, in deterministic order. Built once, after every summary
// exists.
type classIndex map[ir.TypeName][]ir.ProcName

func (e *Engine) buildClassIndex(prog *ir.Program) classIndex {
	idx := classIndex{}
	for _, name := range prog.Names() {
		proc, _ := prog.Proc(name)
		if proc.Class.IsZero() || !reportable(proc) {
			continue
		}
		if _, ok := e.Store.Summary(name); !ok {
			continue
		}
		idx[proc.Class] = append(idx[proc.Class], name)
	}
	for class, extra := range e.Siblings {
		idx[class] = append(idx[class], extra...)
	}
	for class := range idx {
		sortProcNames(idx[class])
		idx[class] = slices.CompactFunc(idx[class], func(a, b ir.ProcName) bool { return a == b })
	}
	return idx
}

// report runs the cross-procedure passes over stored summaries and
// hands finished reports to the sink. Procedures report independently,
// so the pass runs concurrently; the sink serializes.
func (e *Engine) report(prog *ir.Program) error {
	idx := e.buildClassIndex(prog)

	grp := new(errgroup.Group)
	grp.SetLimit(e.parallelism())
	for _, name := range prog.Names() {
		proc, _ := prog.Proc(name)
		if !reportable(proc) {
			continue
		}
		sum, ok := e.Store.Summary(name)
		if !ok {
			continue
		}
		grp.Go(func() error {
			return e.reportProc(prog, idx, proc, sum)
		})
	}
	return grp.Wait()
}

func (e *Engine) reportProc(prog *ir.Program, idx classIndex, proc *ir.Procedure, sum *Summary) error {
	rm := newReportMap()
	if err := e.deadlocks(prog, idx, proc, sum, rm); err != nil {
		return err
	}
	e.selfDeadlocks(proc, sum, rm)
	e.lockless(proc, sum, rm)
	e.starvation(idx, proc, sum, rm)
	rm.emit(e.Sink, proc.Name, e.Dedup)
	return nil
}

// deadlocks finds lock-order inversions between this procedure's
// acquisitions and those of sibling procedures of each lock's owner
// class.
func (e *Engine) deadlocks(prog *ir.Program, idx classIndex, proc *ir.Procedure, sum *Summary, rm *reportMap) error {
	for _, p := range sum.Pairs.All() {
		if p.Event.Kind != EventLockAcquire {
			continue
		}
		for _, sibling := range idx[p.Event.Lock.Owner] {
			if sibling == proc.Name {
				continue
			}
			sibSum, ok := e.Store.Summary(sibling)
			if !ok {
				continue
			}
			// Two procedures both proved to run on the main thread
			// cannot run concurrently with each other.
			if sum.UI.OnUI && sibSum.UI.OnUI {
				continue
			}
			_, siblingLocal := prog.Proc(sibling)
			for _, q := range sibSum.Pairs.All() {
				if q.Event.Kind != EventLockAcquire {
					continue
				}
				ok, err := mayDeadlock(p, q)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				// Report on one side only when both sides get the
				// chance; an imported sibling's package never saw this
				// procedure's pairs.
				if siblingLocal && !reportSide(p, q, proc.Name, sibling) {
					continue
				}
				msg := fmt.Sprintf("potential deadlock: %s acquires %s while holding %s, %s acquires them in reverse order",
					proc.Name.Short, p.Event.Lock.Describe(), q.Event.Lock.Describe(), sibling.Short)
				rm.add(candidate{
					kind:  IssueDeadlock,
					sev:   SevHigh,
					loc:   p.Loc,
					trace: p.Trace,
					msg:   msg,
					prio:  len(p.Trace),
				})
			}
		}
	}
	return nil
}

// mayDeadlock reports the classic inversion: distinct locks, each held
// by the other side when it acquires its own.
func mayDeadlock(p, q CriticalPair) (bool, error) {
	if p.Event.Kind != EventLockAcquire || q.Event.Kind != EventLockAcquire {
		return false, errors.Errorf("deadlock candidates must both be lock acquisitions, got %q and %q",
			p.Event, q.Event)
	}
	if p.Event.Lock.SameObject(q.Event.Lock) {
		return false, nil
	}
	return p.Acq.ContainsObject(q.Event.Lock) && q.Acq.ContainsObject(p.Event.Lock), nil
}

// reportSide decides whether this side of an inversion reports, so
// each deadlock surfaces exactly once: smaller lock type name wins,
// then smaller event location, then smaller procedure name. Class
// object locks always report, because the reverse pairing is indexed
// under a different owner and cannot rediscover this one.
func reportSide(mine, other CriticalPair, mineProc, otherProc ir.ProcName) bool {
	if mine.Event.Lock.Kind == LockClass {
		return true
	}
	if c := strings.Compare(mine.Event.Lock.TypeName(), other.Event.Lock.TypeName()); c != 0 {
		return c < 0
	}
	if c := mine.Loc.Compare(other.Loc); c != 0 {
		return c < 0
	}
	return strings.Compare(mineProc.Qualified, otherProc.Qualified) <= 0
}

// selfDeadlocks reports reacquisition of a lock already held on the
// same path.
func (e *Engine) selfDeadlocks(proc *ir.Procedure, sum *Summary, rm *reportMap) {
	for _, p := range sum.Pairs.All() {
		if !p.SelfDeadlock() {
			continue
		}
		msg := fmt.Sprintf("potential self deadlock: %s reacquires %s while already holding it",
			proc.Name.Short, p.Event.Lock.Describe())
		rm.add(candidate{
			kind:  IssueDeadlock,
			sev:   SevHigh,
			loc:   p.Loc,
			trace: p.Trace,
			msg:   msg,
			prio:  len(p.Trace),
		})
	}
}

// lockless reports every acquisition in procedures that promise not to
// take locks.
func (e *Engine) lockless(proc *ir.Procedure, sum *Summary, rm *reportMap) {
	if !e.Annotator.Lockless(proc.Name) {
		return
	}
	for _, p := range sum.Pairs.All() {
		if p.Event.Kind != EventLockAcquire {
			continue
		}
		msg := fmt.Sprintf("lockless violation: %s acquires %s", proc.Name.Short, p.Event.Lock.Describe())
		rm.add(candidate{
			kind:  IssueLockless,
			sev:   SevHigh,
			loc:   p.Loc,
			trace: p.Trace,
			msg:   msg,
			prio:  len(p.Trace),
		})
	}
}

// starvation reports blocking work reachable on the main thread, both
// directly and through lock contention with background siblings.
// Constructors are skipped: their hazards surface at call sites
// through summary integration.
func (e *Engine) starvation(idx classIndex, proc *ir.Procedure, sum *Summary, rm *reportMap) {
	if !sum.UI.OnUI || proc.Constructor {
		return
	}
	just := sum.UI.Expl.Desc

	for _, p := range sum.Pairs.All() {
		switch p.Event.Kind {
		case EventMayBlock:
			msg := fmt.Sprintf("starvation: %s runs on the main thread (%s) and %s",
				proc.Name.Short, just, p.Event)
			rm.add(candidate{
				kind:  IssueStarvation,
				sev:   p.Event.Sev,
				loc:   p.Loc,
				trace: uiTrace(sum, p),
				msg:   msg,
				prio:  int(p.Event.Sev),
			})
		case EventStrictCall:
			msg := fmt.Sprintf("strict mode violation: %s runs on the main thread (%s) and %s",
				proc.Name.Short, just, p.Event)
			rm.add(candidate{
				kind:  IssueStrictMode,
				sev:   SevMedium,
				loc:   p.Loc,
				trace: uiTrace(sum, p),
				msg:   msg,
				prio:  len(p.Trace),
			})
		case EventLockAcquire:
			lock := p.Event.Lock
			for _, sibling := range idx[lock.Owner] {
				if sibling == proc.Name {
					continue
				}
				sibSum, ok := e.Store.Summary(sibling)
				if !ok || sibSum.UI.OnUI {
					continue
				}
				for _, q := range sibSum.Pairs.All() {
					if q.Event.Kind != EventMayBlock || !q.Acq.ContainsObject(lock) {
						continue
					}
					msg := fmt.Sprintf("starvation: %s runs on the main thread (%s) and takes %s, which %s holds while blocking on %s",
						proc.Name.Short, just, lock.Describe(), sibling.Short, q.Event.Desc)
					rm.add(candidate{
						kind:  IssueStarvation,
						sev:   q.Event.Sev,
						loc:   p.Loc,
						trace: uiTrace(sum, p),
						msg:   msg,
						prio:  int(q.Event.Sev),
					})
				}
			}
		}
	}
}

// uiTrace prefixes the main-thread justification to a pair's trace so
// the report explains both halves of the hazard.
func uiTrace(sum *Summary, p CriticalPair) Trace {
	head := TraceStep{Loc: sum.UI.Expl.Loc, Desc: "runs on the main thread: " + sum.UI.Expl.Desc}
	out := make(Trace, 0, len(p.Trace)+1)
	out = append(out, head)
	return append(out, p.Trace...)
}
