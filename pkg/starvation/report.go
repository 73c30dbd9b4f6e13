package starvation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pravinparker/infer/pkg/ir"
)

// candidate is a report before deduplication. prio ranks candidates of
// the same kind at the same location: trace depth for deadlock,
// lockless and strict reports, severity for starvation.
type candidate struct {
	kind  IssueKind
	sev   Severity
	loc   ir.Location
	trace Trace
	msg   string
	prio  int
}

// reportMap collects one procedure's candidates and deduplicates per
// location before anything reaches the sink. One instance per
// procedure, used from a single goroutine.
type reportMap struct {
	byLoc map[ir.Location][]candidate
}

func newReportMap() *reportMap {
	return &reportMap{byLoc: make(map[ir.Location][]candidate)}
}

func (rm *reportMap) add(c candidate) {
	rm.byLoc[c.loc] = append(rm.byLoc[c.loc], c)
}

var issueOrder = [...]IssueKind{IssueDeadlock, IssueLockless, IssueStarvation, IssueStrictMode}

// emit flushes the map. With dedup on, each (location, kind) keeps its
// highest-priority candidate and notes how many it shadowed; ties go
// to the lexicographically smaller message. Locations flush in source
// order and kinds in fixed category order, so output is deterministic
// regardless of inference order.
func (rm *reportMap) emit(sink Sink, proc ir.ProcName, dedup bool) {
	locs := make([]ir.Location, 0, len(rm.byLoc))
	for loc := range rm.byLoc {
		locs = append(locs, loc)
	}
	slices.SortFunc(locs, ir.Location.Compare)

	for _, loc := range locs {
		for _, kind := range issueOrder {
			var group []candidate
			for _, c := range rm.byLoc[loc] {
				if c.kind == kind {
					group = append(group, c)
				}
			}
			if len(group) == 0 {
				continue
			}
			slices.SortFunc(group, func(a, b candidate) int {
				if c := cmp.Compare(b.prio, a.prio); c != 0 {
					return c
				}
				return strings.Compare(a.msg, b.msg)
			})
			if !dedup {
				for _, c := range group {
					sink.Report(Report{Proc: proc, Kind: c.kind, Sev: c.sev, Loc: c.loc, Msg: c.msg, Trace: c.trace})
				}
				continue
			}
			top := group[0]
			msg := top.msg
			if n := len(group) - 1; n > 0 {
				msg += fmt.Sprintf(" (%d similar report(s) suppressed at this location)", n)
			}
			sink.Report(Report{Proc: proc, Kind: top.kind, Sev: top.sev, Loc: top.loc, Msg: msg, Trace: top.trace})
		}
	}
}

// Collector is a Sink that retains reports in memory. Used by tests
// and by frontends that render all diagnostics at the end of a run.
type Collector struct {
	mu      sync.Mutex
	reports []Report
}

func (c *Collector) Report(r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}

// Sorted returns the collected reports ordered by location, kind and
// message.
func (c *Collector) Sorted() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.reports)
	slices.SortFunc(out, func(a, b Report) int {
		if c := a.Loc.Compare(b.Loc); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Msg, b.Msg)
	})
	return out
}
