package messaging

import (
	"fmt"
	"sync"

	"Strimoid/models"
)

// keyLock is a set of mutexes keyed by string. Entries are dropped once no
// goroutine holds or waits for them.
type keyLock struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{slots: map[string]*slot{}}
}

// Acquire blocks until key is free and returns the release func.
func (k *keyLock) Acquire(key string) (release func()) {
	k.mu.Lock()
	s := k.slots[key]
	if s == nil {
		s = &slot{sem: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	s.sem <- struct{}{}
	return func() {
		<-s.sem
		k.mu.Lock()
		s.refs--
		if s.refs == 0 {
			delete(k.slots, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

// pairKey identifies the unordered pair {a, b}.
func pairKey(a, b uint) string {
	lo, hi := models.OrderedPair(a, b)
	return fmt.Sprintf("%d:%d", lo, hi)
}
