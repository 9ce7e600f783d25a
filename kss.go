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


// Package kss provides a key-value store whose backend is chosen by
// configuration.
//
//	store := kss.New(kss.Config{
//	    Type:    storage.FileSystem,
//	    Options: storage.Options{"path": "/var/lib/app"},
//	})
//	defer store.Close(ctx)
//
//	err := store.Set(ctx, "greeting", "hello")
//	value, err := store.Get(ctx, "greeting")
//
// The Store resolves its backend once. If that fails (unknown or reserved
// type, invalid options) every operation returns the same error; there is no
// fallback to another backend.
package kss

import (
	"context"
	"log/slog"

	"github.com/poiesic/kss/storage"
	"github.com/poiesic/kss/storage/webstorage"
)

// Store forwards every operation to the backend selected by its Config.
type Store struct {
	cfg     Config
	backend storage.Store
	err     error
	logger  *slog.Logger
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Closer = (*Store)(nil)
)

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	logger   *slog.Logger
	registry Registry
	webHost  webstorage.Host
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry replaces the backend registry.
// Default is DefaultRegistry().
func WithRegistry(r Registry) Option {
	return func(o *storeOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithWebHost sets the host providing localStorage and sessionStorage.
// Default is webstorage.DefaultHost().
func WithWebHost(h webstorage.Host) Option {
	return func(o *storeOptions) {
		o.webHost = h
	}
}

// New creates a Store for cfg. Resolution errors are reported by the first
// and every later operation.
func New(cfg Config, opts ...Option) *Store {
	options := &storeOptions{
		logger:   slog.Default(),
		registry: DefaultRegistry(),
		webHost:  webstorage.DefaultHost(),
	}
	for _, opt := range opts {
		opt(options)
	}

	s := &Store{
		cfg:    cfg,
		logger: options.logger,
	}

	env := Env{Logger: options.logger, WebHost: options.webHost}
	backend, err := options.registry.Resolve(cfg.Type, cfg.Options, env)
	if err != nil {
		s.logger.Error("failed to initialize store", "type", string(cfg.Type), "err", err)
		s.err = err
		return s
	}
	s.backend = backend
	return s
}

// Open creates a Store for cfg and returns resolution errors immediately.
func Open(cfg Config, opts ...Option) (*Store, error) {
	s := New(cfg, opts...)
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

// Type returns the configured backend type.
func (s *Store) Type() storage.Type {
	return s.cfg.Type
}

// Backend returns the resolved backend, or the resolution error.
func (s *Store) Backend() (storage.Store, error) {
	return s.backend, s.err
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.backend.Get(ctx, key)
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	if s.err != nil {
		return s.err
	}
	return s.backend.Set(ctx, key, value)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	return s.backend.Remove(ctx, key)
}

func (s *Store) Clear(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	return s.backend.Clear(ctx)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.backend.Keys(ctx)
}

// Close releases the backend's connection or handle, if it holds one.
// Closing a Store whose backend failed to resolve is a no-op.
func (s *Store) Close(ctx context.Context) error {
	if s.err != nil {
		return nil
	}
	if c, ok := s.backend.(storage.Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
