package pkgb

import "crosspackage/pkga"

// UseReversed inverts the lock order TakeBoth established in the
// package that owns the locks.
func UseReversed() { // want UseReversed:`SummaryFact\{pairs=2 onUI=false\}`
	pkga.Shared.MuB.Lock()
	defer pkga.Shared.MuB.Unlock()
	pkga.Shared.MuA.Lock() // want `potential deadlock: UseReversed acquires Shared\.MuA while holding Shared\.MuB, TakeBoth acquires them in reverse order`
	defer pkga.Shared.MuA.Unlock()
}
