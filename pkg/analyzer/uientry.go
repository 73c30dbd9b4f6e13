package analyzer

import (
	"slices"
	"strings"

	"github.com/pravinparker/infer/pkg/ir"
	"github.com/pravinparker/infer/pkg/starvation"
)

// propagateMainThread seeds main-thread entry points from directives
// and config, then walks the lowered call graph forward: whatever a
// main-thread procedure calls also runs on the main thread. Seeded
// procedures keep their own explanation; reached ones record the call
// edge that put them there. The engine later extends this through
// modeled calls such as LockOSThread.
func (st *passState) propagateMainThread() {
	marks := make(map[string]starvation.UIExplanation)
	var queue []ir.ProcName

	for fn := range st.ann.mainthread {
		name := procName(fn)
		marks[name.Qualified] = starvation.UIExplanation{
			Kind: starvation.UIAnnotation,
			Desc: "marked //infer:mainthread",
			Loc:  st.location(fn.Pos()),
		}
		queue = append(queue, name)
	}
	for _, name := range st.prog.Names() {
		if !slices.Contains(st.cfg.MainThread, name.Qualified) {
			continue
		}
		if _, ok := marks[name.Qualified]; ok {
			continue
		}
		proc, _ := st.prog.Proc(name)
		marks[name.Qualified] = starvation.UIExplanation{
			Kind: starvation.UIAnnotation,
			Desc: "configured as main thread",
			Loc:  proc.Loc,
		}
		queue = append(queue, name)
	}
	slices.SortFunc(queue, func(a, b ir.ProcName) int {
		return strings.Compare(a.Qualified, b.Qualified)
	})

	for head := 0; head < len(queue); head++ {
		caller := queue[head]
		proc, ok := st.prog.Proc(caller)
		if !ok {
			continue
		}
		for _, b := range proc.Blocks {
			for _, ins := range b.Instrs {
				call, ok := ins.(ir.Call)
				if !ok {
					continue
				}
				if _, local := st.prog.Proc(call.Callee); !local {
					continue
				}
				if _, seen := marks[call.Callee.Qualified]; seen {
					continue
				}
				marks[call.Callee.Qualified] = starvation.UIExplanation{
					Kind: starvation.UICallerContext,
					Desc: "called from " + caller.Short,
					Loc:  call.Loc,
				}
				queue = append(queue, call.Callee)
			}
		}
	}
	st.uiMarks = marks
}
