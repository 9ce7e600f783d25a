//go:build !(js && wasm)

package webstorage

import "fmt"

// DefaultHost returns the host binding for the current platform. Outside a
// browser no web storage exists and every area is unavailable.
func DefaultHost() Host {
	return noHost{}
}

type noHost struct{}

func (noHost) Area(kind Kind) (Area, error) {
	return nil, fmt.Errorf("%w: %s is not available in this environment", ErrUnavailable, kind)
}
