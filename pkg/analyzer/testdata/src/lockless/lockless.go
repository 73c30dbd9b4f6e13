package lockless

import "sync"

type Meter struct {
	mu     sync.Mutex
	counts map[string]int
}

//infer:lockless
func (m *Meter) Bump(name string) {
	m.mu.Lock() // want `lockless violation: Bump acquires Meter\.mu`
	defer m.mu.Unlock()
	m.counts[name]++
}

// Reader promises lock-free reads; implementations inherit the
// contract.
type Reader interface {
	//infer:lockless
	Read() int
}

type Gauge struct {
	mu sync.Mutex
	n  int
}

var _ Reader = (*Gauge)(nil)

func (g *Gauge) Read() int {
	g.mu.Lock() // want `lockless violation: Read acquires Gauge\.mu`
	defer g.mu.Unlock()
	return g.n
}

// Set is outside the interface contract and may lock.
func (g *Gauge) Set(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = n
}
