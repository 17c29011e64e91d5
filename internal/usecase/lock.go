package usecase

import "sync"

// keyedMutex hands out one mutex per game id so every game has
// single-writer semantics across its load-mutate-store cycle.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (that *keyedMutex) Lock(key string) {
	that.mu.Lock()
	lock, ok := that.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[key] = lock
	}
	that.mu.Unlock()

	lock.Lock()
}

func (that *keyedMutex) Unlock(key string) {
	that.mu.Lock()
	lock := that.locks[key]
	that.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}
