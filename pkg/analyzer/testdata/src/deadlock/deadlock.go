package deadlock

import "sync"

type Registry struct {
	mu      sync.Mutex
	statsMu sync.Mutex
	entries map[string]int
	hits    int
}

func (r *Registry) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name]++
	r.statsMu.Lock() // want `potential deadlock: Add acquires Registry\.statsMu while holding Registry\.mu, Snapshot acquires them in reverse order`
	defer r.statsMu.Unlock()
	r.hits++
}

// Snapshot takes the same two locks in the opposite order. Only the
// Add side is reported.
func (r *Registry) Snapshot() map[string]int {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

type Ledger struct {
	mu    sync.Mutex
	logMu sync.Mutex
	total int
	lines []string
}

// Append and Total agree on lock order, so the pair is clean.
func (l *Ledger) Append(line string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total += amount
	l.logMu.Lock()
	defer l.logMu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logMu.Lock()
	defer l.logMu.Unlock()
	l.lines = append(l.lines, "total")
	return l.total
}
