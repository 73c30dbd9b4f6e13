package globals

import "sync"

var (
	muA    sync.Mutex
	muB    sync.Mutex
	counts = map[string]int{}
	total  int
)

func Inc(name string) {
	muA.Lock()
	defer muA.Unlock()
	counts[name]++
	muB.Lock() // want `potential deadlock: Inc acquires muB while holding muA, Total acquires them in reverse order`
	defer muB.Unlock()
	total++
}

func Total() int {
	muB.Lock()
	defer muB.Unlock()
	muA.Lock()
	defer muA.Unlock()
	return total
}
