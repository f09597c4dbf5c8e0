package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLockAcquireAndRelease(t *testing.T) {
	kl := NewKeyLock()

	require.True(t, kl.Acquire("a", time.Second))
	assert.False(t, kl.Acquire("a", 20*time.Millisecond))

	// a different key is independent
	assert.True(t, kl.Acquire("b", 20*time.Millisecond))

	kl.Release("a")
	assert.True(t, kl.Acquire("a", 20*time.Millisecond))
}

func TestKeyLockSerializesCounter(t *testing.T) {
	kl := NewKeyLock()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.True(t, kl.Acquire("counter", time.Second))
			defer kl.Release("counter")
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyLockAcquireAllReleasesOnTimeout(t *testing.T) {
	kl := NewKeyLock()

	require.True(t, kl.Acquire("b", time.Second))

	// "b" is held, so the batch times out and must give "a" back
	assert.False(t, kl.AcquireAll([]string{"a", "b"}, 30*time.Millisecond))
	assert.True(t, kl.Acquire("a", 20*time.Millisecond))

	kl.Release("a")
	kl.Release("b")

	require.True(t, kl.AcquireAll([]string{"a", "b"}, time.Second))
	kl.ReleaseAll([]string{"a", "b"})
	assert.True(t, kl.Acquire("a", 20*time.Millisecond))
}

func TestKeyLockAcquireAllDeduplicatesKeys(t *testing.T) {
	kl := NewKeyLock()

	require.True(t, kl.AcquireAll([]string{"a", "a"}, time.Second))
	kl.ReleaseAll([]string{"a", "a"})
	assert.True(t, kl.Acquire("a", 20*time.Millisecond))
}
