// Package fixpoint runs forward monotone dataflow analyses over ir
// control-flow graphs until convergence.
package fixpoint

import (
	"github.com/pkg/errors"

	"github.com/pravinparker/infer/pkg/ir"
)

// DefaultMaxVisits bounds how often a single block may be revisited
// before the analysis gives up on the procedure.
const DefaultMaxVisits = 1000

// Analysis describes one dataflow problem over a procedure. Transfer
// must not mutate its input state; Join must be commutative,
// associative and idempotent for the engine to converge.
type Analysis[S any] struct {
	Proc      *ir.Procedure
	Init      S
	Transfer  func(s S, b *ir.Block) S
	Join      func(a, b S) S
	Equal     func(a, b S) bool
	MaxVisits int // per-block revisit cap; 0 means DefaultMaxVisits
}

// Run iterates to a fixed point and returns the join of the exit
// states of every return block (blocks with no successors). When no
// return block is reachable, the join of every reached block's exit
// state is returned instead, so procedures that never return still
// yield the events recorded in their bodies. An error means a block
// exceeded the visit cap; callers treat that as "no summary" rather
// than a failure of the whole run.
func Run[S any](a Analysis[S]) (S, error) {
	var zero S
	maxVisits := a.MaxVisits
	if maxVisits <= 0 {
		maxVisits = DefaultMaxVisits
	}
	blocks := a.Proc.Blocks
	if len(blocks) == 0 {
		return a.Init, nil
	}

	preds := make([][]int, len(blocks))
	for _, b := range blocks {
		for _, s := range b.Succs {
			preds[s] = append(preds[s], b.Index)
		}
	}

	out := make([]S, len(blocks))
	done := make([]bool, len(blocks))
	visits := make([]int, len(blocks))

	work := []int{0}
	queued := make([]bool, len(blocks))
	queued[0] = true

	for len(work) > 0 {
		idx := work[0]
		work = work[1:]
		queued[idx] = false

		visits[idx]++
		if visits[idx] > maxVisits {
			return zero, errors.Errorf("%s: block %d revisited more than %d times without converging",
				a.Proc.Name, idx, maxVisits)
		}

		var in S
		have := false
		if idx == 0 {
			in = a.Init
			have = true
		}
		for _, p := range preds[idx] {
			if !done[p] {
				continue
			}
			if !have {
				in = out[p]
				have = true
				continue
			}
			in = a.Join(in, out[p])
		}
		if !have {
			continue // unreachable from the entry
		}

		next := a.Transfer(in, blocks[idx])
		if done[idx] && a.Equal(next, out[idx]) {
			continue
		}
		out[idx] = next
		done[idx] = true
		for _, s := range blocks[idx].Succs {
			if !queued[s] {
				queued[s] = true
				work = append(work, s)
			}
		}
	}

	var exit S
	have := false
	for _, b := range blocks {
		if !done[b.Index] || len(b.Succs) > 0 {
			continue
		}
		if !have {
			exit = out[b.Index]
			have = true
			continue
		}
		exit = a.Join(exit, out[b.Index])
	}
	if have {
		return exit, nil
	}
	for _, b := range blocks {
		if !done[b.Index] {
			continue
		}
		if !have {
			exit = out[b.Index]
			have = true
			continue
		}
		exit = a.Join(exit, out[b.Index])
	}
	if !have {
		return a.Init, nil
	}
	return exit, nil
}
