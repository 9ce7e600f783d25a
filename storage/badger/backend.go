package badger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/kss/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger

	// dir is set for backends shared through acquireBackend.
	dir string

	upgradeMu sync.Mutex
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// DeletePrefix deletes every key starting with prefix. Keys are collected
// from a read snapshot and removed through a write batch, so large stores do
// not hit the transaction size limit.
func (b *Backend) DeletePrefix(prefix []byte) error {
	var keys [][]byte
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Version returns the schema version recorded in the database, 0 for a
// database that has never been upgraded.
func (b *Backend) Version() (uint64, error) {
	var version uint64
	err := b.WithTx(func(tx *badger.Txn) error {
		var err error
		version, err = readVersion(tx)
		return err
	}, false)
	return version, err
}

// Upgrade brings the database to version and makes sure storeName exists,
// mirroring an IndexedDB open request: a lower version than the stored one
// is rejected, a higher one runs the upgrade step which creates the object
// store if absent, and an equal one requires the store to exist already.
func (b *Backend) Upgrade(storeName string, version uint64) error {
	b.upgradeMu.Lock()
	defer b.upgradeMu.Unlock()

	return b.WithTx(func(tx *badger.Txn) error {
		current, err := readVersion(tx)
		if err != nil {
			return err
		}

		switch {
		case version < current:
			return fmt.Errorf("%w: requested %d, existing %d", storage.ErrVersion, version, current)

		case version > current:
			if err := tx.Set(makeStoreKey(storeName), nil); err != nil {
				return err
			}
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, version)
			if err := tx.Set([]byte(metaVersionKey), buf); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			b.logger.Info("upgraded indexed database",
				"from_version", current, "to_version", version, "store", storeName)
			return nil

		default:
			_, err := tx.Get(makeStoreKey(storeName))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: object store %q", storage.ErrStoreNotFound, storeName)
			}
			return err
		}
	}, true)
}

func readVersion(tx *badger.Txn) (uint64, error) {
	item, err := tx.Get([]byte(metaVersionKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var version uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: version value has %d bytes", storage.ErrSerialization, len(val))
		}
		version = binary.BigEndian.Uint64(val)
		return nil
	})
	return version, err
}
