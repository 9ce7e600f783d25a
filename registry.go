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


package kss

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/poiesic/kss/storage"
	"github.com/poiesic/kss/storage/badger"
	"github.com/poiesic/kss/storage/filesystem"
	"github.com/poiesic/kss/storage/mongodb"
	"github.com/poiesic/kss/storage/webstorage"
)

// Env carries the dependencies a Factory may need besides its options.
type Env struct {
	Logger  *slog.Logger
	WebHost webstorage.Host
}

// Factory builds a backend from its options. Factories must not perform I/O;
// backends connect lazily on first use.
type Factory func(opts storage.Options, env Env) (storage.Store, error)

// Registry maps backend types to factories.
type Registry map[storage.Type]Factory

// DefaultRegistry returns a registry with every implemented backend. The
// SQLite, MySQL, PostgreSQL and Redis types are reserved and left
// unregistered.
func DefaultRegistry() Registry {
	return Registry{
		storage.LocalStorage: func(opts storage.Options, env Env) (storage.Store, error) {
			return webstorage.NewLocal(env.WebHost, opts, env.Logger)
		},
		storage.SessionStorage: func(opts storage.Options, env Env) (storage.Store, error) {
			return webstorage.NewSession(env.WebHost, opts, env.Logger)
		},
		storage.FileSystem: func(opts storage.Options, env Env) (storage.Store, error) {
			return filesystem.New(opts, env.Logger)
		},
		storage.IndexedDB: func(opts storage.Options, env Env) (storage.Store, error) {
			return badger.New(opts, env.Logger)
		},
		storage.MongoDB: func(opts storage.Options, env Env) (storage.Store, error) {
			return mongodb.New(opts, env.Logger)
		},
	}
}

// Register adds or replaces the factory for t.
func (r Registry) Register(t storage.Type, f Factory) {
	r[t] = f
}

// Types returns the registered types in sorted order.
func (r Registry) Types() []storage.Type {
	return slices.Sorted(maps.Keys(r))
}

// Resolve builds the backend registered for t.
func (r Registry) Resolve(t storage.Type, opts storage.Options, env Env) (storage.Store, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", storage.ErrStoreNotFound, storage.ErrUnknownType, string(t))
	}
	factory, ok := r[t]
	if !ok {
		return nil, fmt.Errorf("%w for type %s", storage.ErrStoreNotFound, t)
	}
	return factory(opts, env)
}
