package analyzer

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/analysis"

	"github.com/pravinparker/infer/pkg/ir"
	"github.com/pravinparker/infer/pkg/starvation"
)

// LockRecord is the gob-encodable form of a lock identity.
type LockRecord struct {
	Kind      uint8
	Root      string
	Path      string
	OwnerPkg  string
	OwnerName string
}

// EventRecord is the gob-encodable form of a recorded event.
type EventRecord struct {
	Kind uint8
	Lock LockRecord
	Desc string
	Sev  uint8
}

// StepRecord is one trace step. Only file and line survive
// serialization; token positions are meaningless outside the file set
// that produced them.
type StepRecord struct {
	Depth int
	File  string
	Line  int
	Desc  string
}

// PairRecord is the gob-encodable form of a critical pair.
type PairRecord struct {
	Event EventRecord
	Acq   []LockRecord
	File  string
	Line  int
	Trace []StepRecord
}

// SummaryFact carries a procedure's summary across package
// boundaries, attached to its *types.Func. Downstream passes compose
// imported pairs into caller summaries and pair local critical pairs
// against them during lock inference.
type SummaryFact struct {
	ClassPkg  string
	ClassName string

	Pairs  []PairRecord
	OnUI   bool
	UIKind uint8
	UIDesc string
	UIFile string
	UILine int
}

func (*SummaryFact) AFact() {}

func (f *SummaryFact) String() string {
	return fmt.Sprintf("SummaryFact{pairs=%d onUI=%v}", len(f.Pairs), f.OnUI)
}

// importFacts loads upstream summaries into the store and indexes the
// imported procedures as siblings of their owner class. Skipped when
// the analyzer has no registered FactTypes (single-package tests).
func (st *passState) importFacts() {
	if len(st.pass.Analyzer.FactTypes) == 0 {
		return
	}
	for _, of := range st.pass.AllObjectFacts() {
		fact, ok := of.Fact.(*SummaryFact)
		if !ok {
			continue
		}
		fn, ok := of.Object.(*types.Func)
		if !ok || fn.Pkg() == st.pass.Pkg {
			continue
		}
		name := importedProcName(fn)
		st.store.Update(name, fact.summary())
		class := ir.TypeName{Pkg: fact.ClassPkg, Name: fact.ClassName}
		if !class.IsZero() {
			st.siblings[class] = append(st.siblings[class], name)
		}
	}
}

// exportFacts publishes the summaries of exported local functions.
// Skipped when the analyzer has no registered FactTypes.
func (st *passState) exportFacts() {
	if len(st.pass.Analyzer.FactTypes) == 0 {
		return
	}
	for _, name := range st.prog.Names() {
		proc, _ := st.prog.Proc(name)
		if proc.Private || proc.Generated {
			continue
		}
		obj, ok := st.objects[name.Qualified]
		if !ok || !obj.Exported() || obj.Pkg() != st.pass.Pkg {
			continue
		}
		sum, ok := st.store.Summary(name)
		if !ok {
			continue
		}
		st.pass.ExportObjectFact(obj, newSummaryFact(proc, sum))
	}
}

// importedProcName rebuilds the qualified name the SSA frontend gives
// the function, so imported and locally lowered identities line up.
func importedProcName(fn *types.Func) ir.ProcName {
	sig := fn.Type().(*types.Signature)
	if recv := sig.Recv(); recv != nil {
		return ir.ProcName{
			Qualified: "(" + types.TypeString(recv.Type(), nil) + ")." + fn.Name(),
			Short:     fn.Name(),
		}
	}
	qualified := fn.Name()
	if fn.Pkg() != nil {
		qualified = fn.Pkg().Path() + "." + fn.Name()
	}
	return ir.ProcName{Qualified: qualified, Short: fn.Name()}
}

func newSummaryFact(proc *ir.Procedure, sum *starvation.Summary) *SummaryFact {
	f := &SummaryFact{
		ClassPkg:  proc.Class.Pkg,
		ClassName: proc.Class.Name,
		OnUI:      sum.UI.OnUI,
	}
	if sum.UI.OnUI {
		f.UIKind = uint8(sum.UI.Expl.Kind)
		f.UIDesc = sum.UI.Expl.Desc
		f.UIFile = sum.UI.Expl.Loc.File
		f.UILine = sum.UI.Expl.Loc.Line
	}
	for _, p := range sum.Pairs.All() {
		f.Pairs = append(f.Pairs, newPairRecord(p))
	}
	return f
}

func newPairRecord(p starvation.CriticalPair) PairRecord {
	rec := PairRecord{
		Event: EventRecord{
			Kind: uint8(p.Event.Kind),
			Lock: newLockRecord(p.Event.Lock),
			Desc: p.Event.Desc,
			Sev:  uint8(p.Event.Sev),
		},
		File: p.Loc.File,
		Line: p.Loc.Line,
	}
	for _, l := range p.Acq {
		rec.Acq = append(rec.Acq, newLockRecord(l))
	}
	for _, s := range p.Trace {
		rec.Trace = append(rec.Trace, StepRecord{Depth: s.Depth, File: s.Loc.File, Line: s.Loc.Line, Desc: s.Desc})
	}
	return rec
}

func newLockRecord(l starvation.Lock) LockRecord {
	return LockRecord{
		Kind:      uint8(l.Kind),
		Root:      l.Root,
		Path:      l.Path,
		OwnerPkg:  l.Owner.Pkg,
		OwnerName: l.Owner.Name,
	}
}

func (f *SummaryFact) summary() *starvation.Summary {
	sum := &starvation.Summary{}
	for _, rec := range f.Pairs {
		sum.Pairs = sum.Pairs.Add(rec.pair())
	}
	if f.OnUI {
		sum.UI = starvation.UIThread{OnUI: true, Expl: starvation.UIExplanation{
			Kind: starvation.UIExplKind(f.UIKind),
			Desc: f.UIDesc,
			Loc:  ir.Location{File: f.UIFile, Line: f.UILine},
		}}
	}
	return sum
}

func (rec PairRecord) pair() starvation.CriticalPair {
	p := starvation.CriticalPair{
		Event: starvation.Event{
			Kind: starvation.EventKind(rec.Event.Kind),
			Lock: rec.Event.Lock.lock(),
			Desc: rec.Event.Desc,
			Sev:  starvation.Severity(rec.Event.Sev),
		},
		Loc: ir.Location{File: rec.File, Line: rec.Line},
	}
	for _, l := range rec.Acq {
		p.Acq = p.Acq.Push(l.lock())
	}
	for _, s := range rec.Trace {
		p.Trace = append(p.Trace, starvation.TraceStep{
			Depth: s.Depth,
			Loc:   ir.Location{File: s.File, Line: s.Line},
			Desc:  s.Desc,
		})
	}
	return p
}

func (rec LockRecord) lock() starvation.Lock {
	return starvation.Lock{
		Kind:  starvation.LockKind(rec.Kind),
		Root:  rec.Root,
		Path:  rec.Path,
		Owner: ir.TypeName{Pkg: rec.OwnerPkg, Name: rec.OwnerName},
	}
}

var _ analysis.Fact = (*SummaryFact)(nil)
