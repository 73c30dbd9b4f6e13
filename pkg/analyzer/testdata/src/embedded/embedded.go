package embedded

import "sync"

// Store embeds its mutex, so the promoted Lock guards the value
// itself.
type Store struct {
	sync.Mutex
	data map[string]string
}

func (s *Store) Put(key, value string) {
	s.Lock()
	defer s.Unlock()
	s.data[key] = value
}

func (s *Store) PutAll(entries map[string]string) {
	s.Lock()
	defer s.Unlock()
	for key, value := range entries {
		s.Put(key, value) // want `potential self deadlock: PutAll reacquires s while already holding it`
	}
}

type Index struct {
	sync.RWMutex
	byName map[string]int
}

func (i *Index) Find(name string) int {
	i.RLock()
	defer i.RUnlock()
	return i.byName[name]
}

func (i *Index) Rebuild(names []string) {
	i.Lock()
	defer i.Unlock()
	for n, name := range names {
		i.byName[name] = n
	}
}
