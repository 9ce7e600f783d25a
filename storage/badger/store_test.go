package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/kss/storage"
	"github.com/poiesic/kss/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	storagetest.RunContract(t, func(t *testing.T) storage.Store {
		s, err := NewMemoryStore(nil)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close(context.Background()) })
		return s
	})
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDBName, s.dbName)
	assert.Equal(t, DefaultStoreName, s.storeName)
	assert.Equal(t, uint64(DefaultVersion), s.version)
	assert.Equal(t, DefaultDBName, filepath.Base(s.Dir()))
	assert.Equal(t, DefaultDir, filepath.Base(filepath.Dir(s.Dir())))
}

func TestNew_InvalidVersion(t *testing.T) {
	_, err := New(storage.Options{storage.OptVersion: -1}, nil)
	assert.ErrorIs(t, err, storage.ErrConfig)

	_, err = New(storage.Options{storage.OptVersion: "latest"}, nil)
	assert.ErrorIs(t, err, storage.ErrConfig)
}

func TestStore_OpensLazilyOnce(t *testing.T) {
	s, err := NewMemoryStore(nil)
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, ok := s.backend.Peek()
	assert.False(t, ok)

	ctx := context.Background()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Keys(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	first, ok := s.backend.Peek()
	require.True(t, ok)
	_, err = s.Get(ctx, "x")
	require.NoError(t, err)
	again, _ := s.backend.Peek()
	assert.Same(t, first, again)
}

func TestStore_CloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	opts := storage.Options{storage.OptPath: dir, storage.OptDBName: "app"}
	ctx := context.Background()

	s, err := New(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app"), s.Dir())

	require.NoError(t, s.Set(ctx, "persisted", map[string]any{"n": float64(1)}))
	first, _ := s.backend.Peek()
	require.NoError(t, s.Close(ctx))
	assert.True(t, first.IsClosed())

	// Closing twice is harmless.
	require.NoError(t, s.Close(ctx))

	got, err := s.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1)}, got)
	require.NoError(t, s.Close(ctx))
}

func TestStore_StoresAreIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(storage.Options{storage.OptPath: dir, storage.OptStoreName: "first"}, nil)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "shared-name", "from first"))
	require.NoError(t, first.Set(ctx, "only-first", 1))
	require.NoError(t, first.Close(ctx))

	// A second store in the same database needs an upgrade to be created.
	second, err := New(storage.Options{
		storage.OptPath:      dir,
		storage.OptStoreName: "second",
		storage.OptVersion:   2,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, second.Set(ctx, "shared-name", "from second"))

	keys, err := second.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared-name"}, keys)

	require.NoError(t, second.Clear(ctx))
	require.NoError(t, second.Close(ctx))

	first, err = New(storage.Options{
		storage.OptPath:      dir,
		storage.OptStoreName: "first",
		storage.OptVersion:   2,
	}, nil)
	require.NoError(t, err)
	defer first.Close(ctx)

	keys, err = first.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only-first", "shared-name"}, keys)

	got, err := first.Get(ctx, "shared-name")
	require.NoError(t, err)
	assert.Equal(t, "from first", got)
}

func TestStore_MissingStoreAtSameVersion(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(storage.Options{storage.OptPath: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close(ctx))

	other, err := New(storage.Options{storage.OptPath: dir, storage.OptStoreName: "other"}, nil)
	require.NoError(t, err)
	_, err = other.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrStoreNotFound)

	// The failed open released the database, so the original store opens again.
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	require.NoError(t, s.Close(ctx))
}

func TestStore_VersionDowngradeFails(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(storage.Options{storage.OptPath: dir, storage.OptVersion: 3}, nil)
	require.NoError(t, err)
	_, err = s.Keys(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	old, err := New(storage.Options{storage.OptPath: dir, storage.OptVersion: 2}, nil)
	require.NoError(t, err)
	_, err = old.Keys(ctx)
	assert.ErrorIs(t, err, storage.ErrVersion)
}

func TestStore_KeysAreOrdered(t *testing.T) {
	s, err := NewMemoryStore(nil)
	require.NoError(t, err)
	defer s.Close(context.Background())
	ctx := context.Background()

	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.Set(ctx, k, k))
	}
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestStore_UnencodableValue(t *testing.T) {
	s, err := NewMemoryStore(nil)
	require.NoError(t, err)
	defer s.Close(context.Background())

	err = s.Set(context.Background(), "fn", func() {})
	assert.ErrorIs(t, err, storage.ErrSerialization)
}

func TestStore_SharedDatabase_SameStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	opts := storage.Options{storage.OptPath: dir}

	a, err := New(opts, nil)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "k", "from a"))

	b, err := New(opts, nil)
	require.NoError(t, err)
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from a", got)

	require.NoError(t, b.Set(ctx, "other", float64(2)))
	keys, err := a.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "other"}, keys)

	backendA, _ := a.backend.Peek()
	backendB, _ := b.backend.Peek()
	assert.Same(t, backendA, backendB)

	// Closing one instance leaves the database open for the other.
	require.NoError(t, a.Close(ctx))
	assert.False(t, backendB.IsClosed())
	got, err = b.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, float64(2), got)

	require.NoError(t, b.Close(ctx))
	assert.True(t, backendB.IsClosed())
}

func TestStore_SharedDatabase_DifferentStores(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	alpha, err := New(storage.Options{storage.OptPath: dir, storage.OptStoreName: "alpha"}, nil)
	require.NoError(t, err)
	defer alpha.Close(ctx)
	require.NoError(t, alpha.Set(ctx, "a1", "one"))
	require.NoError(t, alpha.Set(ctx, "shared-name", "alpha"))

	beta, err := New(storage.Options{
		storage.OptPath:      dir,
		storage.OptStoreName: "beta",
		storage.OptVersion:   2,
	}, nil)
	require.NoError(t, err)
	defer beta.Close(ctx)
	require.NoError(t, beta.Set(ctx, "shared-name", "beta"))
	require.NoError(t, beta.Set(ctx, "b1", "two"))

	require.NoError(t, beta.Clear(ctx))

	keys, err := beta.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = alpha.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "shared-name"}, keys)

	got, err := alpha.Get(ctx, "shared-name")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
}

func TestStore_SharedDatabase_ConcurrentOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	stores := make([]*Store, 8)
	for i := range stores {
		s, err := New(storage.Options{storage.OptPath: dir}, nil)
		require.NoError(t, err)
		stores[i] = s
	}

	var wg sync.WaitGroup
	for i, s := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, fmt.Sprintf("key-%d", i), float64(i)))
		}()
	}
	wg.Wait()

	keys, err := stores[0].Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, len(stores))

	for _, s := range stores {
		require.NoError(t, s.Close(ctx))
	}
	openBackends.Lock()
	assert.Empty(t, openBackends.byDir)
	openBackends.Unlock()
}
