package quiet

import (
	"fmt"
	"sync"
	"time"
)

type Worker struct {
	mu sync.Mutex
	n  int
}

// Poll blocks while holding the lock, but nothing on the main thread
// contends for it.
func (w *Worker) Poll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	time.Sleep(time.Millisecond)
	fmt.Printf("worker at %d\n", w.n)
}

// Conditional acquisition through TryLock is never tracked.
func (w *Worker) TryBump() {
	if w.mu.TryLock() {
		w.n++
		w.mu.Unlock()
	}
}

// Audit is opted out entirely, double lock and all.
//
//infer:skip
func (w *Worker) Audit() {
	w.mu.Lock()
	w.mu.Lock()
	w.n++
}

func (w *Worker) Bump() {
	w.mu.Lock()
	w.n++
	w.mu.Unlock()
	w.mu.Lock()
	w.n--
	w.mu.Unlock()
}

// Cycle calls a balanced callee twice; no lock survives the calls.
func (w *Worker) Cycle() {
	w.Bump()
	w.Bump()
}

// Goroutine bodies are analyzed as their own procedures, not charged
// to the spawner.
func (w *Worker) Start() {
	go w.Poll()
}
