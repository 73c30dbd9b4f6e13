package pkga

import "sync"

type SharedLocks struct {
	MuA sync.Mutex
	MuB sync.Mutex
}

var Shared SharedLocks

func TakeBoth() { // want TakeBoth:`SummaryFact\{pairs=2 onUI=false\}`
	Shared.MuA.Lock()
	defer Shared.MuA.Unlock()
	Shared.MuB.Lock()
	defer Shared.MuB.Unlock()
}
