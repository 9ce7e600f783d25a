package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy holds a value created on first use.
//
// Concurrent Get calls share one in-flight initialization. A successful result
// is cached until Reset; a failed one is returned to every caller waiting on
// that attempt and the next Get tries again. A caller whose context ends
// stops waiting, but the initialization keeps running for the others.
type Lazy[T any] struct {
	init  func(ctx context.Context) (T, error)
	group singleflight.Group

	mu    sync.Mutex
	value T
	ready bool
}

// NewLazy returns a Lazy that builds its value with init.
func NewLazy[T any](init func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the cached value, initializing it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.cached(); ok {
		return v, nil
	}

	ch := l.group.DoChan("init", func() (any, error) {
		if v, ok := l.cached(); ok {
			return v, nil
		}
		v, err := l.init(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.value = v
		l.ready = true
		l.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Peek returns the cached value without initializing.
func (l *Lazy[T]) Peek() (T, bool) {
	return l.cached()
}

// Reset drops the cached value and hands it to release, if any was cached.
// The next Get initializes again.
func (l *Lazy[T]) Reset(release func(T) error) error {
	l.mu.Lock()
	v, ok := l.value, l.ready
	var zero T
	l.value = zero
	l.ready = false
	l.mu.Unlock()

	if !ok || release == nil {
		return nil
	}
	return release(v)
}

func (l *Lazy[T]) cached() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.ready
}
