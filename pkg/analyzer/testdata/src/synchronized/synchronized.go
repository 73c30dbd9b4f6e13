package synchronized

import "sync"

type Queue struct {
	mu    sync.Mutex
	items []string
}

// Push holds the receiver monitor for its whole body.
//
//infer:synchronized
func (q *Queue) Push(item string) {
	q.items = append(q.items, item)
}

//infer:synchronized
func (q *Queue) PushAll(items []string) {
	for _, item := range items {
		q.Push(item) // want `potential self deadlock: PushAll reacquires q while already holding it`
	}
}

func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}
