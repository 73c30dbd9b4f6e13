package starvation

import (
	"runtime"
	"slices"
	"strings"

	"github.com/twmb/algoimpl/go/graph"
	"golang.org/x/sync/errgroup"

	"github.com/pravinparker/infer/pkg/ir"
)

// Run analyzes every procedure of prog bottom-up over the call graph
// and then reports hazards. It is the whole-program entry point.
func (e *Engine) Run(prog *ir.Program) error {
	if err := e.computeSummaries(prog); err != nil {
		return err
	}
	return e.report(prog)
}

func (e *Engine) parallelism() int {
	if e.Parallelism > 0 {
		return e.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// computeSummaries schedules procedures so that callees are summarized
// before their callers: recursion is condensed into strongly connected
// components, components are layered by callee depth, and each layer
// runs concurrently.
func (e *Engine) computeSummaries(prog *ir.Program) error {
	names := prog.Names()
	callees := calleeEdges(prog, names)

	g := graph.New(graph.Directed)
	nodes := make(map[ir.ProcName]graph.Node, len(names))
	for _, name := range names {
		n := g.MakeNode()
		*n.Value = name
		nodes[name] = n
	}
	for _, name := range names {
		for _, callee := range callees[name] {
			if callee == name {
				continue
			}
			if err := g.MakeEdge(nodes[name], nodes[callee]); err != nil {
				return err
			}
		}
	}

	comps := g.StronglyConnectedComponents()
	members := make([][]ir.ProcName, len(comps))
	compOf := make(map[ir.ProcName]int, len(names))
	for i, comp := range comps {
		for _, n := range comp {
			name := (*n.Value).(ir.ProcName)
			members[i] = append(members[i], name)
			compOf[name] = i
		}
		sortProcNames(members[i])
	}

	// Layer components by the longest chain of components below them.
	depth := make([]int, len(comps))
	for i := range depth {
		depth[i] = -1
	}
	var depthOf func(i int) int
	depthOf = func(i int) int {
		if depth[i] >= 0 {
			return depth[i]
		}
		depth[i] = 0
		d := 0
		for _, name := range members[i] {
			for _, callee := range callees[name] {
				j := compOf[callee]
				if j == i {
					continue
				}
				if cd := depthOf(j) + 1; cd > d {
					d = cd
				}
			}
		}
		depth[i] = d
		return d
	}
	maxDepth := 0
	for i := range comps {
		if d := depthOf(i); d > maxDepth {
			maxDepth = d
		}
	}
	layers := make([][]int, maxDepth+1)
	for i := range comps {
		layers[depth[i]] = append(layers[depth[i]], i)
	}

	for _, layer := range layers {
		grp := new(errgroup.Group)
		grp.SetLimit(e.parallelism())
		for _, ci := range layer {
			procs := members[ci]
			grp.Go(func() error {
				// Members of one component are mutually recursive and
				// run in name order; summaries missing mid-cycle are
				// simply absent at their call sites.
				for _, name := range procs {
					proc, ok := prog.Proc(name)
					if !ok {
						continue
					}
					if err := e.AnalyzeProc(proc); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// calleeEdges collects, per procedure, the distinct callees defined in
// prog, in first-call order.
func calleeEdges(prog *ir.Program, names []ir.ProcName) map[ir.ProcName][]ir.ProcName {
	out := make(map[ir.ProcName][]ir.ProcName, len(names))
	for _, name := range names {
		proc, _ := prog.Proc(name)
		seen := make(map[ir.ProcName]bool)
		for _, b := range proc.Blocks {
			for _, ins := range b.Instrs {
				c, ok := ins.(ir.Call)
				if !ok || seen[c.Callee] {
					continue
				}
				if _, defined := prog.Proc(c.Callee); !defined {
					continue
				}
				seen[c.Callee] = true
				out[name] = append(out[name], c.Callee)
			}
		}
	}
	return out
}

func sortProcNames(names []ir.ProcName) {
	slices.SortFunc(names, func(a, b ir.ProcName) int {
		return strings.Compare(a.Qualified, b.Qualified)
	})
}
