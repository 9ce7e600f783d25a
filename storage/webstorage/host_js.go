//go:build js && wasm

package webstorage

import (
	"fmt"
	"syscall/js"
)

// DefaultHost returns the browser binding for window.localStorage and
// window.sessionStorage.
func DefaultHost() Host {
	return browserHost{}
}

type browserHost struct{}

func (browserHost) Area(kind Kind) (area Area, err error) {
	// Accessing storage throws in sandboxed frames and with storage disabled.
	defer func() {
		if r := recover(); r != nil {
			area, err = nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, kind, r)
		}
	}()

	window := js.Global().Get("window")
	if window.IsUndefined() || window.IsNull() {
		return nil, fmt.Errorf("%w: %s: no window", ErrUnavailable, kind)
	}
	storage := window.Get(string(kind))
	if storage.IsUndefined() || storage.IsNull() {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, kind)
	}
	return jsArea{v: storage}, nil
}

type jsArea struct {
	v js.Value
}

func (a jsArea) Item(key string) (string, bool) {
	v := a.v.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false
	}
	return v.String(), true
}

func (a jsArea) SetItem(key, value string) (err error) {
	// setItem throws QuotaExceededError when the area is full.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("setItem %q: %v", key, r)
		}
	}()
	a.v.Call("setItem", key, value)
	return nil
}

func (a jsArea) RemoveItem(key string) {
	a.v.Call("removeItem", key)
}

func (a jsArea) Clear() {
	a.v.Call("clear")
}

func (a jsArea) Keys() []string {
	n := a.v.Get("length").Int()
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k := a.v.Call("key", i)
		if k.IsNull() || k.IsUndefined() {
			continue
		}
		keys = append(keys, k.String())
	}
	return keys
}
