package progression

import "sync"

// progressKey identifies the progression state a transition reads and
// writes. Exactly one of planID or cycleID is set.
type progressKey struct {
	profileID int64
	planID    int64
	cycleID   int64
}

// keyedMutex serializes transitions per progress key. Every transition
// read-modify-writes a small pointer, so an app-open racing a backfill on
// the same plan must not interleave. Different keys proceed in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[progressKey]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[progressKey]*sync.Mutex),
	}
}

// lock acquires the mutex for key and returns the unlock function.
func (km *keyedMutex) lock(key progressKey) func() {
	km.mu.Lock()
	lock, ok := km.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		km.locks[key] = lock
	}
	km.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
