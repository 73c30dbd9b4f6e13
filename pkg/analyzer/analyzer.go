// Package analyzer adapts the starvation engine to Go packages: it
// lowers SSA into the analysis IR, models the sync package and common
// blocking calls, carries summaries across package boundaries as
// facts, and reports hazards as diagnostics.
package analyzer

import (
	"go/types"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/pravinparker/infer/pkg/config"
	"github.com/pravinparker/infer/pkg/ir"
	"github.com/pravinparker/infer/pkg/starvation"
)

var (
	configPath  string
	debug       bool
	deduplicate bool
)

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "", "YAML file extending the built-in call models")
	Analyzer.Flags.BoolVar(&debug, "debug", false, "log modeling gaps at debug level")
	Analyzer.Flags.BoolVar(&deduplicate, "deduplicate", true, "keep only the best report per location and category")
}

var Analyzer = &analysis.Analyzer{
	Name:      "starvation",
	Doc:       "report lock-order deadlocks, self-deadlocks, main-thread starvation and lock-contract violations",
	Run:       run,
	Requires:  []*analysis.Analyzer{buildssa.Analyzer},
	FactTypes: []analysis.Fact{(*SummaryFact)(nil)},
}

// passState carries everything a single pass accumulates between
// phases.
type passState struct {
	pass     *analysis.Pass
	srcFuncs []*ssa.Function
	cfg      *config.Config
	models   *callModels

	ann      *annotations
	prog     *ir.Program
	objects  map[string]*types.Func
	store    *starvation.MemStore
	siblings map[ir.TypeName][]ir.ProcName
	uiMarks  map[string]starvation.UIExplanation
}

func run(pass *analysis.Pass) (any, error) {
	ssaInput, ok := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	if !ok {
		return nil, nil
	}
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	models, err := newCallModels(cfg)
	if err != nil {
		return nil, err
	}

	st := &passState{
		pass:     pass,
		srcFuncs: ssaInput.SrcFuncs,
		cfg:      cfg,
		models:   models,
		store:    starvation.NewMemStore(),
		siblings: make(map[ir.TypeName][]ir.ProcName),
	}

	// Phase 1: parse //infer: directives.
	st.parseAnnotations()

	// Phase 2: lower SSA into the analysis IR.
	st.translate()

	// Phase 3: import summaries exported by upstream packages.
	st.importFacts()

	// Phase 4: propagate main-thread entry points down the call graph.
	st.propagateMainThread()

	// Phase 5: per-procedure summaries, then cross-procedure reports.
	eng := &starvation.Engine{
		Classifier: models,
		Annotator:  st.annotator(),
		Store:      st.store,
		Sink:       &diagnosticSink{pass: pass},
		Siblings:   st.siblings,
		MaxVisits:  cfg.MaxBlockVisits,
		Dedup:      st.dedup(),
	}
	if err := eng.Run(st.prog); err != nil {
		return nil, err
	}

	// Phase 6: export summaries for downstream packages.
	st.exportFacts()

	return nil, nil
}

func (st *passState) dedup() bool {
	if st.cfg.Deduplicate != nil {
		return *st.cfg.Deduplicate
	}
	return deduplicate
}

// diagnosticSink renders engine reports as diagnostics. The headline
// stays the report message; the multi-hop trace becomes related
// information, skipping steps imported from other file sets, which
// carry no usable position.
type diagnosticSink struct {
	mu   sync.Mutex
	pass *analysis.Pass
}

func (s *diagnosticSink) Report(r starvation.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !r.Loc.Pos.IsValid() {
		log.Debugf("dropping report without a position in %s: %s", r.Proc.Qualified, r.Msg)
		return
	}
	d := analysis.Diagnostic{
		Pos:      r.Loc.Pos,
		Category: r.Kind.String(),
		Message:  r.Msg,
	}
	for _, step := range r.Trace {
		if !step.Loc.Pos.IsValid() {
			continue
		}
		d.Related = append(d.Related, analysis.RelatedInformation{
			Pos:     step.Loc.Pos,
			Message: indent(step.Depth) + step.Desc,
		})
	}
	s.pass.Report(d)
}

func indent(depth int) string {
	out := ""
	for i := 0; i < depth; i++ {
		out += "  "
	}
	return out
}
