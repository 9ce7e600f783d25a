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


// Package badger implements storage.Store on an embedded BadgerDB database,
// serving the IndexedDB backend type.
//
// A database is identified by dbName and holds any number of named object
// stores. Opening a database at a schema version follows IndexedDB rules:
// a newer version runs the upgrade step, which creates the requested store
// when it is missing; an older version is rejected with storage.ErrVersion.
//
// The database is opened lazily on first use and released with Close; the
// next operation after Close opens it again. Stores of one process that
// point at the same directory share a single database handle, so any number
// of them, for the same or different object stores, can be open at once.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kss/storage"
)

const (
	DefaultDBName    = "kss-store"
	DefaultStoreName = "kss-data"
	DefaultVersion   = 1
	DefaultDir       = ".kss-indexeddb"
)

// Store implements storage.Store for one object store of a BadgerDB database.
type Store struct {
	dir       string
	inMemory  bool
	dbName    string
	storeName string
	version   uint64
	backend   *storage.Lazy[*Backend]
	logger    *slog.Logger
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Closer = (*Store)(nil)
)

// New creates a Store from the dbName, storeName, version, path and
// inMemory options. Nothing is opened until the first operation.
func New(opts storage.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	version, err := opts.Int(storage.OptVersion, DefaultVersion)
	if err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, fmt.Errorf("%w: version must be positive, got %d", storage.ErrConfig, version)
	}
	inMemory, err := opts.Bool(storage.OptInMemory, false)
	if err != nil {
		return nil, err
	}

	s := &Store{
		inMemory:  inMemory,
		dbName:    opts.String(storage.OptDBName, DefaultDBName),
		storeName: opts.String(storage.OptStoreName, DefaultStoreName),
		version:   uint64(version),
		logger:    logger,
	}

	if !inMemory {
		parent := opts.String(storage.OptPath, "")
		if parent == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("resolve working directory: %w", err)
			}
			parent = filepath.Join(cwd, DefaultDir)
		}
		s.dir = filepath.Join(parent, s.dbName)
	}

	s.backend = storage.NewLazy(s.open)
	return s, nil
}

func (s *Store) open(ctx context.Context) (*Backend, error) {
	var (
		backend *Backend
		err     error
	)
	if s.inMemory {
		backend, err = OpenBackend("", true, s.logger)
	} else {
		backend, err = acquireBackend(s.dir, s.logger)
	}
	if err != nil {
		s.logger.Error("failed to open indexed database", "db", s.dbName, "err", err)
		return nil, fmt.Errorf("open indexed database %q: %w", s.dbName, err)
	}
	if err := backend.Upgrade(s.storeName, s.version); err != nil {
		releaseBackend(backend)
		return nil, fmt.Errorf("open indexed database %q: %w", s.dbName, err)
	}
	return backend, nil
}

// Dir returns the database directory, empty for in-memory databases.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the database handle. The database itself is closed once no
// other Store in this process uses it. A later operation re-opens it.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Reset(releaseBackend)
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	backend, err := s.backend.Get(ctx)
	if err != nil {
		return nil, err
	}

	var rec *record
	err = backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(s.storeName, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			rec, unmarshalErr = unmarshalRecord(val)
			return unmarshalErr
		})
	}, false)
	if err != nil || rec == nil {
		return nil, err
	}

	return storage.DecodeJSON(rec.Value)
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	backend, err := s.backend.Get(ctx)
	if err != nil {
		return err
	}

	encoded, err := storage.EncodeJSON(value)
	if err != nil {
		return err
	}
	rec := &record{
		Key:       key,
		Value:     encoded,
		UpdatedAt: time.Now().UTC(),
	}

	return backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRecordKey(s.storeName, key), marshalRecord(rec)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	backend, err := s.backend.Get(ctx)
	if err != nil {
		return err
	}

	return backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeRecordKey(s.storeName, key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Clear deletes every record of the object store. Other stores of the same
// database are untouched.
func (s *Store) Clear(ctx context.Context) error {
	backend, err := s.backend.Get(ctx)
	if err != nil {
		return err
	}
	return backend.DeletePrefix(makeStorePrefix(s.storeName))
}

// Keys returns the keys of the object store in ascending byte order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	backend, err := s.backend.Get(ctx)
	if err != nil {
		return nil, err
	}

	prefix := makeStorePrefix(s.storeName)
	keys := []string{}
	err = backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := iter.Item().Key()
			keys = append(keys, string(bytes.TrimPrefix(key, prefix)))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return keys, nil
}
