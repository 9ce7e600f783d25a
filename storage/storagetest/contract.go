// Package storagetest provides a behavioral test suite shared by every
// storage.Store implementation.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/kss/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. Cleanup is the caller's business
// (t.Cleanup inside the factory).
type Factory func(t *testing.T) storage.Store

// RunContract exercises the common Store contract against stores built by
// newStore.
func RunContract(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		values := map[string]any{
			"string": "hello world",
			"number": float64(42.5),
			"bool":   true,
			"array":  []any{"a", float64(1), false},
			"object": map[string]any{
				"name":   "ada",
				"age":    float64(36),
				"nested": map[string]any{"tags": []any{"x", "y"}},
			},
		}
		for key, value := range values {
			require.NoError(t, store.Set(ctx, key, value), key)
		}
		for key, want := range values {
			got, err := store.Get(ctx, key)
			require.NoError(t, err, key)
			assert.Equal(t, want, got, key)
		}
	})

	t.Run("overwrite is last write wins", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "k", "first"))
		require.NoError(t, store.Set(ctx, "k", "second"))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		store := newStore(t)

		got, err := store.Get(context.Background(), "never-written")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("get after remove returns nil", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "gone", "soon"))
		require.NoError(t, store.Remove(ctx, "gone"))

		got, err := store.Get(ctx, "gone")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "twice", 1))
		require.NoError(t, store.Remove(ctx, "twice"))
		require.NoError(t, store.Remove(ctx, "twice"))
		require.NoError(t, store.Remove(ctx, "never-existed"))
	})

	t.Run("keys lists distinct keys", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "alpha", 1))
		require.NoError(t, store.Set(ctx, "beta", 2))
		require.NoError(t, store.Set(ctx, "gamma", 3))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, keys)
	})

	t.Run("clear empties the store", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "one", 1))
		require.NoError(t, store.Set(ctx, "two", 2))
		require.NoError(t, store.Clear(ctx))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)

		got, err := store.Get(ctx, "one")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("concurrent writes to different keys", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const n = 16
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.Set(ctx, fmt.Sprintf("key-%d", i), float64(i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, n)
		for i := range n {
			got, err := store.Get(ctx, fmt.Sprintf("key-%d", i))
			require.NoError(t, err)
			assert.Equal(t, float64(i), got)
		}
	})
}
