package starvation

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pravinparker/infer/pkg/fixpoint"
	"github.com/pravinparker/infer/pkg/ir"
)

// Engine binds the collaborators for a whole-program run.
type Engine struct {
	Classifier Classifier
	Annotator  Annotator
	Store      Store
	Sink       Sink

	// Siblings supplements the owner-class index with procedures
	// defined outside the analyzed program whose summaries are already
	// in Store, such as methods imported from another package.
	Siblings map[ir.TypeName][]ir.ProcName

	MaxVisits   int  // per-block fixpoint cap; 0 uses the default
	Dedup       bool // deduplicate reports per location and category
	Parallelism int  // concurrent procedure analyses; 0 uses GOMAXPROCS
}

// transfer applies one block's instructions to a copy of the incoming
// state. Dispatch order for calls is fixed: classifier lock effects,
// skip list, synchronized library calls, main-thread binding, strict
// mode, blocking models, and finally callee summary integration.
func (e *Engine) transfer(proc *ir.Procedure, s *State, b *ir.Block) *State {
	out := s.Clone()
	for _, ins := range b.Instrs {
		switch ins := ins.(type) {
		case ir.Call:
			e.call(proc, out, ins)
		case ir.IndirectCall, ir.Assign, ir.Assume, ir.Metadata:
			// No effect on the domain.
		default:
			log.Debugf("%s: unhandled instruction %T", proc.Name, ins)
		}
	}
	return out
}

func (e *Engine) call(proc *ir.Procedure, s *State, c ir.Call) {
	if eff := e.Classifier.Classify(c.Callee, c.Args); eff.Kind != EffectNone {
		e.applyEffect(proc, s, eff, c.Loc)
		return
	}
	if e.Classifier.Skip(c.Callee) {
		return
	}
	if e.Classifier.Synchronized(c.Callee) {
		if len(c.Args) > 0 {
			if l, ok := LockFromExp(c.Args[0]); ok {
				s.Acquire([]Lock{l}, c.Loc)
				s.Release([]Lock{l})
				return
			}
		}
		log.Debugf("%s: no traceable receiver for synchronized call to %s", proc.Name, c.Callee)
		return
	}
	if e.Classifier.BindsUIThread(c.Callee) {
		s.SetOnUI(UIExplanation{
			Kind: UIModeledCall,
			Desc: "calls " + c.Callee.Short + ", which binds the goroutine to the main thread",
			Loc:  c.Loc,
		})
		return
	}
	if desc, ok := e.Classifier.Strict(c.Callee); ok {
		s.StrictCall(desc, c.Loc)
		return
	}
	if sev, desc, ok := e.Classifier.Blocks(c.Callee); ok {
		s.MayBlock(desc, sev, c.Loc)
		return
	}
	if sum, ok := e.Store.Summary(c.Callee); ok {
		s.Integrate(sum, c.Callee.Short, c.Loc)
		return
	}
	log.Debugf("%s: no summary for callee %s", proc.Name, c.Callee)
}

func (e *Engine) applyEffect(proc *ir.Procedure, s *State, eff Effect, loc ir.Location) {
	switch eff.Kind {
	case EffectLock:
		if locks := e.locksOf(proc, eff.Exps); len(locks) > 0 {
			s.Acquire(locks, loc)
		}
	case EffectUnlock:
		if locks := e.locksOf(proc, eff.Exps); len(locks) > 0 {
			s.Release(locks)
		}
	case EffectGuardConstruct:
		l, ok := LockFromExp(eff.GuardExp)
		if !ok {
			log.Debugf("%s: guard %s bound to untracked lock %s", proc.Name, eff.Guard, eff.GuardExp)
			return
		}
		s.GuardConstruct(eff.Guard, l, eff.AcquireNow, loc)
	case EffectGuardLock:
		s.GuardLock(eff.Guard, loc)
	case EffectGuardUnlock:
		s.GuardUnlock(eff.Guard)
	case EffectGuardDestroy:
		s.GuardDestroy(eff.Guard)
	case EffectLockedIfTrue:
		// Conditional acquisition is ignored.
	}
}

func (e *Engine) locksOf(proc *ir.Procedure, exps []ir.Exp) []Lock {
	locks := make([]Lock, 0, len(exps))
	for _, x := range exps {
		l, ok := LockFromExp(x)
		if !ok {
			log.Debugf("%s: lock operand %s is not parameter or global rooted, skipping", proc.Name, x)
			continue
		}
		locks = append(locks, l)
	}
	return locks
}

// AnalyzeProc computes and stores one procedure's summary. Ineligible
// procedures and procedures whose fixpoint exceeds the visit cap leave
// no summary behind; only broken seeding aborts the run.
func (e *Engine) AnalyzeProc(proc *ir.Procedure) error {
	if !eligible(proc) {
		return nil
	}

	init := NewState()
	if proc.Synchronized {
		l, err := seedLock(proc)
		if err != nil {
			return err
		}
		init.Acquire([]Lock{l}, proc.Loc)
	}
	if expl, ok := e.Annotator.UIThread(proc.Name); ok {
		init.SetOnUI(expl)
	}

	exit, err := fixpoint.Run(fixpoint.Analysis[*State]{
		Proc:      proc,
		Init:      init,
		Transfer:  func(s *State, b *ir.Block) *State { return e.transfer(proc, s, b) },
		Join:      (*State).Join,
		Equal:     (*State).Equal,
		MaxVisits: e.MaxVisits,
	})
	if err != nil {
		log.Debugf("%v; dropping summary", err)
		return nil
	}
	if exit == nil {
		return nil
	}

	sum := &Summary{Pairs: exit.Pairs, UI: exit.UI}
	if e.Annotator.NonBlocking(proc.Name) {
		sum = sum.WithoutBlocking()
	}
	e.Store.Update(proc.Name, sum)
	return nil
}

func eligible(p *ir.Procedure) bool {
	return !p.Private && !p.Generated && !p.Initializer && len(p.Blocks) > 0
}

func reportable(p *ir.Procedure) bool {
	return !p.Private && !p.Generated
}

// seedLock is the lock a synchronized procedure holds for its whole
// body: its receiver, or the class object for static procedures.
func seedLock(p *ir.Procedure) (Lock, error) {
	if !p.Static && p.Recv != nil {
		if l, ok := LockFromExp(*p.Recv); ok {
			return l, nil
		}
	}
	if p.Class.IsZero() {
		return Lock{}, errors.Errorf("%s: synchronized procedure has neither a receiver nor an owner class", p.Name)
	}
	return ClassLock(p.Class), nil
}
