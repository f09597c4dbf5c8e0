package utils

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// KeyLock serializes mutating operations per position key. The reservation
// admission check and its insert are separate statements, so without this
// lock two concurrent requests can both read the same available quantity and
// oversell a position.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]chan struct{})}
}

func (k *KeyLock) channel(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	return ch
}

// Acquire takes the lock for key, waiting at most timeout. It reports false
// when the wait expires; the operation should then fail as transient.
func (k *KeyLock) Acquire(key string, timeout time.Duration) bool {
	ch := k.channel(key)
	select {
	case ch <- struct{}{}:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (k *KeyLock) Release(key string) {
	ch := k.channel(key)
	select {
	case <-ch:
	default:
	}
}

// AcquireAll takes several keys in sorted order so concurrent transfers in
// opposite directions cannot deadlock. On timeout it releases everything it
// already holds.
func (k *KeyLock) AcquireAll(keys []string, timeout time.Duration) bool {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	deadline := time.Now().Add(timeout)
	for i, key := range sorted {
		remaining := time.Until(deadline)
		if remaining <= 0 || !k.Acquire(key, remaining) {
			for j := 0; j < i; j++ {
				k.Release(sorted[j])
			}
			return false
		}
	}
	return true
}

func (k *KeyLock) ReleaseAll(keys []string) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for _, key := range sorted {
		k.Release(key)
	}
}
