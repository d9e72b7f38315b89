package search

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigia-dou/vigia/errors"
)

func TestAcquireIsExclusive(t *testing.T) {
	l := NewLock()

	require.NoError(t, l.Acquire())
	assert.True(t, l.Held())

	err := l.Acquire()
	require.Error(t, err)
	assert.True(t, errors.IsBusyError(err))
	// A failed acquisition must not disturb the holder.
	assert.True(t, l.Held())

	l.Release()
	assert.False(t, l.Held())
	require.NoError(t, l.Acquire())
}

func TestReleaseOfFreeLockIsNoOp(t *testing.T) {
	l := NewLock()
	l.Release()
	l.Release()
	require.NoError(t, l.Acquire())
}

func TestDoReleasesOnError(t *testing.T) {
	l := NewLock()

	err := l.Do(func() error { return errors.New("boom") })
	require.Error(t, err)
	assert.False(t, l.Held())
}

func TestDoReleasesOnPanic(t *testing.T) {
	l := NewLock()

	assert.Panics(t, func() {
		_ = l.Do(func() error { panic("boom") })
	})
	assert.False(t, l.Held())
}

func TestConcurrentAcquireAdmitsOne(t *testing.T) {
	l := NewLock()

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, l.Held())
}
