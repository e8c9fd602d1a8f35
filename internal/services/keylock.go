package services

import "sync"

// KeyLock hands out at-most-one holds per string key. Lifecycle operations
// on the same booking, slot, or request take the key before touching the
// database; a second caller arriving mid-operation is rejected with
// ErrOperationInProgress rather than queued.
type KeyLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewKeyLock() *KeyLock {
	return &KeyLock{held: make(map[string]struct{})}
}

// TryLock acquires the key, or reports false if some operation already
// holds it.
func (l *KeyLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *KeyLock) Unlock(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}
