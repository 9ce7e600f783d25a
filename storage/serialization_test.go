package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeString(t *testing.T) {
	t.Run("strings are stored as-is", func(t *testing.T) {
		s, err := EncodeString("plain text")
		require.NoError(t, err)
		assert.Equal(t, "plain text", s)
	})

	t.Run("other values are JSON encoded", func(t *testing.T) {
		s, err := EncodeString(map[string]any{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, s)

		s, err = EncodeString(42)
		require.NoError(t, err)
		assert.Equal(t, "42", s)
	})

	t.Run("unencodable values fail", func(t *testing.T) {
		_, err := EncodeString(make(chan int))
		assert.ErrorIs(t, err, ErrSerialization)
	})
}

func TestDecodeString(t *testing.T) {
	assert.Equal(t, "not json", DecodeString("not json"))
	assert.Equal(t, float64(42), DecodeString("42"))
	assert.Equal(t, []any{"a", true}, DecodeString(`["a",true]`))
	assert.Equal(t, map[string]any{"k": "v"}, DecodeString(`{"k":"v"}`))
}

func TestDecodeJSON_Malformed(t *testing.T) {
	_, err := DecodeJSON([]byte("{"))
	assert.ErrorIs(t, err, ErrSerialization)
}

type fixedStore struct {
	Store
	value any
}

func (f fixedStore) Get(ctx context.Context, key string) (any, error) {
	return f.value, nil
}

func TestGetInto(t *testing.T) {
	type profile struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	ctx := context.Background()

	t.Run("decodes JSON shaped values", func(t *testing.T) {
		s := fixedStore{value: map[string]any{"name": "ada", "age": float64(36)}}
		p, ok, err := GetInto[profile](ctx, s, "p")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, profile{Name: "ada", Age: 36}, p)
	})

	t.Run("numbers become ints", func(t *testing.T) {
		n, ok, err := GetInto[int](ctx, fixedStore{value: float64(12)}, "n")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 12, n)
	})

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := GetInto[profile](ctx, fixedStore{}, "p")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mismatched shape", func(t *testing.T) {
		_, _, err := GetInto[int](ctx, fixedStore{value: "text"}, "n")
		assert.ErrorIs(t, err, ErrSerialization)
	})
}
