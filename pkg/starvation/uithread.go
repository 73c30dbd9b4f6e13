package starvation

import "github.com/pravinparker/infer/pkg/ir"

// UIExplKind ranks why a procedure is believed to run on the main
// thread; smaller is more authoritative.
type UIExplKind uint8

const (
	// UIAnnotation: the procedure, or an interface method it
	// implements, carries a main-thread annotation.
	UIAnnotation UIExplKind = iota + 1
	// UICallerContext: the procedure is reachable from a main-thread
	// procedure, or is a known main-thread entry point.
	UICallerContext
	// UIModeledCall: the body calls a function modeled as binding the
	// current thread to the main thread.
	UIModeledCall
)

// UIExplanation says why the main-thread fact holds.
type UIExplanation struct {
	Kind UIExplKind
	Desc string
	Loc  ir.Location
}

// UIThread is a two-point lattice: either nothing is known (the zero
// value) or the procedure is believed to run on the main thread,
// together with one explanation.
type UIThread struct {
	OnUI bool
	Expl UIExplanation
}

// Join prefers the more authoritative explanation and keeps the
// receiver on ties, so merges are stable.
func (u UIThread) Join(o UIThread) UIThread {
	switch {
	case !u.OnUI:
		return o
	case !o.OnUI:
		return u
	case o.Expl.Kind < u.Expl.Kind:
		return o
	}
	return u
}

func (u UIThread) Equal(o UIThread) bool { return u == o }
