package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/poiesic/kss/storage"
	"github.com/poiesic/kss/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// mongoURI returns the server used by integration tests, skipping the test
// when none is configured.
func mongoURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("KSS_MONGODB_URI")
	if uri == "" {
		t.Skip("KSS_MONGODB_URI not set")
	}
	return uri
}

func newIntegrationStore(t *testing.T, collection string) *Store {
	t.Helper()
	opts := storage.Options{
		storage.OptConnectionString: mongoURI(t),
		storage.OptDatabase:         fmt.Sprintf("kss_test_%d", time.Now().UnixNano()),
	}
	if collection != "" {
		opts[storage.OptCollection] = collection
	}
	s, err := New(opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		if c, err := s.conn.Get(ctx); err == nil {
			c.client.Database(s.database).Drop(ctx)
		}
		s.Close(ctx)
	})
	return s
}

func TestNew_RequiresConnectionString(t *testing.T) {
	s, err := New(storage.Options{storage.OptDatabase: "db"}, nil)
	assert.ErrorIs(t, err, storage.ErrConfig)
	assert.ErrorContains(t, err, "connection string is required")
	assert.Nil(t, s)
}

func TestNew_RequiresDatabase(t *testing.T) {
	s, err := New(storage.Options{storage.OptConnectionString: "mongodb://localhost:27017"}, nil)
	assert.ErrorIs(t, err, storage.ErrConfig)
	assert.ErrorContains(t, err, "database name is required")
	assert.Nil(t, s)
}

func TestNew_DefaultCollection(t *testing.T) {
	s, err := New(storage.Options{
		storage.OptConnectionString: "mongodb://localhost:27017",
		storage.OptDatabase:         "db",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollection, s.Collection())
	assert.Equal(t, "db", s.Database())

	// Construction performs no I/O.
	_, ok := s.conn.Peek()
	assert.False(t, ok)
}

func TestNew_CustomCollection(t *testing.T) {
	s, err := New(storage.Options{
		storage.OptConnectionString: "mongodb://localhost:27017",
		storage.OptDatabase:         "db",
		storage.OptCollection:       "sessions",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sessions", s.Collection())
}

func TestNormalize(t *testing.T) {
	in := bson.D{
		{Key: "name", Value: "ada"},
		{Key: "tags", Value: bson.A{"x", bson.D{{Key: "y", Value: int32(1)}}}},
		{Key: "meta", Value: bson.M{"nested": bson.A{}}},
	}
	want := map[string]any{
		"name": "ada",
		"tags": []any{"x", map[string]any{"y": float64(1)}},
		"meta": map[string]any{"nested": []any{}},
	}
	assert.Equal(t, want, normalize(in))
	assert.Equal(t, "plain", normalize("plain"))
	assert.Nil(t, normalize(nil))
}

func TestNormalize_IntegersBecomeFloats(t *testing.T) {
	assert.Equal(t, float64(42), normalize(int32(42)))
	assert.Equal(t, float64(-7), normalize(int64(-7)))
	assert.Equal(t, float64(1.5), normalize(float64(1.5)))
	assert.Equal(t, []any{float64(1), float64(2)}, normalize(bson.A{int32(1), int64(2)}))
}

func TestStore_Contract(t *testing.T) {
	mongoURI(t)
	storagetest.RunContract(t, func(t *testing.T) storage.Store {
		return newIntegrationStore(t, "")
	})
}

func TestStore_DefaultCollectionCRUD(t *testing.T) {
	s := newIntegrationStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", map[string]any{"n": float64(1)}))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1)}, got)

	c, err := s.conn.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollection, c.collection.Name())

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	require.NoError(t, s.Remove(ctx, "k"))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ClearIsScopedToCollection(t *testing.T) {
	s := newIntegrationStore(t, "first")
	ctx := context.Background()

	other, err := New(storage.Options{
		storage.OptConnectionString: s.uri,
		storage.OptDatabase:         s.database,
		storage.OptCollection:       "second",
	}, nil)
	require.NoError(t, err)
	defer other.Close(ctx)

	require.NoError(t, s.Set(ctx, "a", 1))
	require.NoError(t, other.Set(ctx, "b", 2))
	require.NoError(t, s.Clear(ctx))

	keys, err := other.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestStore_CloseAndReconnect(t *testing.T) {
	s := newIntegrationStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close(ctx))

	_, ok := s.conn.Peek()
	assert.False(t, ok)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestStore_ConnectionFailureSurfaces(t *testing.T) {
	s, err := New(storage.Options{
		storage.OptConnectionString: "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200",
		storage.OptDatabase:         "db",
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = s.Get(ctx, "k")
	assert.Error(t, err)
}
