// ABOUTME: Per-key mutual exclusion for task read-modify-write sequences
// ABOUTME: Lazily allocates one mutex per task id so unrelated tasks never serialize

package board

import "sync"

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function. Mutexes
// are never reclaimed; the board's working set of task ids is small.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
