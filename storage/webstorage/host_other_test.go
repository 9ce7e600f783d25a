//go:build !(js && wasm)

package webstorage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHost_OutsideBrowser(t *testing.T) {
	_, err := DefaultHost().Area(Local)
	assert.ErrorIs(t, err, ErrUnavailable)

	s, err := New(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, s.Fallback())
}
