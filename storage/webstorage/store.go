// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package webstorage implements storage.Store on top of a web storage area
// (localStorage or sessionStorage).
//
// The area is supplied by a Host. DefaultHost binds to the browser when the
// program runs as WebAssembly; anywhere else, or when the browser refuses
// access, the store falls back to an in-memory area and logs the fallback.
//
// Keys are namespaced as prefix + ":" + key when a prefix is configured.
// String values are stored verbatim, all other values as JSON.
package webstorage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/kss/storage"
)

// Store implements storage.Store for a web storage area.
type Store struct {
	area     Area
	kind     Kind
	prefix   string
	fallback bool
	logger   *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New creates a Store on the area selected by the storageType option
// (localStorage when unset). If host is nil DefaultHost is used. When the
// host cannot provide the area an in-memory area is used instead.
func New(host Host, opts storage.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if host == nil {
		host = DefaultHost()
	}

	kind := Kind(opts.String(storage.OptStorageType, string(Local)))
	if kind != Local && kind != Session {
		return nil, fmt.Errorf("%w: storageType must be %q or %q, got %q",
			storage.ErrConfig, Local, Session, kind)
	}

	s := &Store{
		kind:   kind,
		prefix: opts.String(storage.OptPrefix, ""),
		logger: logger,
	}

	area, err := host.Area(kind)
	if err != nil {
		logger.Warn("web storage unavailable, using in-memory storage",
			"storage_type", string(kind), "err", err)
		area = NewMemoryArea()
		s.fallback = true
	}
	s.area = area

	return s, nil
}

// NewLocal creates a Store on the persistent area.
func NewLocal(host Host, opts storage.Options, logger *slog.Logger) (*Store, error) {
	return New(host, opts.With(storage.OptStorageType, string(Local)), logger)
}

// NewSession creates a Store on the session-scoped area.
func NewSession(host Host, opts storage.Options, logger *slog.Logger) (*Store, error) {
	return New(host, opts.With(storage.OptStorageType, string(Session)), logger)
}

// Kind returns the area the store was configured for.
func (s *Store) Kind() Kind {
	return s.kind
}

// Prefix returns the key namespace, empty when unscoped.
func (s *Store) Prefix() string {
	return s.prefix
}

// Fallback reports whether the store runs on the in-memory fallback area.
func (s *Store) Fallback() bool {
	return s.fallback
}

func (s *Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	raw, ok := s.area.Item(s.fullKey(key))
	if !ok {
		return nil, nil
	}
	return storage.DecodeString(raw), nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	encoded, err := storage.EncodeString(value)
	if err != nil {
		return err
	}
	return s.area.SetItem(s.fullKey(key), encoded)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	s.area.RemoveItem(s.fullKey(key))
	return nil
}

// Clear removes the scoped keys. Without a prefix the whole area is cleared.
func (s *Store) Clear(ctx context.Context) error {
	if s.prefix == "" {
		s.area.Clear()
		return nil
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the scoped keys with the prefix stripped.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	all := s.area.Keys()
	if s.prefix == "" {
		return all, nil
	}

	scope := s.prefix + ":"
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, scope); ok {
			keys = append(keys, rest)
		}
	}
	return keys, nil
}
