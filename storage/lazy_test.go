package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_InitializesOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	lazy := NewLazy(func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "handle", nil
	})

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan string, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := lazy.Get(context.Background())
			assert.NoError(t, err)
			results <- v
		}()
	}

	// Give every caller a chance to join the in-flight attempt.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, "handle", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "handle", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLazy_FailureIsNotCached(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	lazy := NewLazy(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	})

	_, err := lazy.Get(context.Background())
	assert.ErrorIs(t, err, boom)

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLazy_Reset(t *testing.T) {
	var calls atomic.Int32
	lazy := NewLazy(func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	})

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	var released int32
	require.NoError(t, lazy.Reset(func(v int32) error {
		released = v
		return nil
	}))
	assert.Equal(t, int32(1), released)

	_, ok := lazy.Peek()
	assert.False(t, ok)

	v, err = lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestLazy_ResetWithoutValue(t *testing.T) {
	lazy := NewLazy(func(ctx context.Context) (int, error) { return 1, nil })

	called := false
	require.NoError(t, lazy.Reset(func(int) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestLazy_CallerStopsWaitingOnCancel(t *testing.T) {
	release := make(chan struct{})
	lazy := NewLazy(func(ctx context.Context) (int, error) {
		<-release
		return 3, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := lazy.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The initialization was not cancelled and still completes.
	close(release)
	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
