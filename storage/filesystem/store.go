// Package filesystem implements storage.Store as one JSON file per key in a
// directory.
//
// File names are derived from keys by replacing every character outside
// [A-Za-z0-9_-] with an underscore and appending ".json". The original key
// is kept inside the file, so Keys reports logical keys rather than file
// names. Two keys that sanitize to the same name share a file and the last
// write wins; Set logs a warning when that happens.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kss/storage"
)

const (
	// Extension is appended to every sanitized key.
	Extension = ".json"

	// DefaultDir is the directory used under the working directory when no
	// path option is given.
	DefaultDir = ".kss-store"
)

// Store implements storage.Store on a directory.
type Store struct {
	root    string
	workers int
	ready   *storage.Lazy[struct{}]
	logger  *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New creates a Store rooted at the path option. The directory is created on
// first use.
func New(opts storage.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	root := opts.String(storage.OptPath, "")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		root = filepath.Join(cwd, DefaultDir)
	}

	workers, err := opts.Int(storage.OptWorkers, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	s := &Store{
		root:    root,
		workers: workers,
		logger:  logger,
	}
	s.ready = storage.NewLazy(s.init)
	return s, nil
}

// Root returns the directory holding the records.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) init(ctx context.Context) (struct{}, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		s.logger.Error("failed to initialize filesystem store", "path", s.root, "err", err)
		return struct{}{}, err
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return struct{}{}, err
	}
	if !info.IsDir() {
		return struct{}{}, fmt.Errorf("%s is not a directory", s.root)
	}
	return struct{}{}, nil
}

// FileName returns the file name used to store key.
func FileName(key string) string {
	var b strings.Builder
	b.Grow(len(key) + len(Extension))
	for _, r := range key {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString(Extension)
	return b.String()
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, FileName(key))
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	if _, err := s.ready.Get(ctx); err != nil {
		return nil, err
	}

	record, err := readRecord(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return record.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	if _, err := s.ready.Get(ctx); err != nil {
		return err
	}

	path := s.path(key)
	if existing, err := readRecord(path); err == nil && existing.Key != "" && existing.Key != key {
		s.logger.Warn("key collision: overwriting record stored under a different key",
			"key", key, "previous_key", existing.Key, "file", filepath.Base(path))
	}

	data, err := json.MarshalIndent(storage.NewRecord(key, value), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrSerialization, key, err)
	}
	return writeFile(s.root, path, data)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.ready.Get(ctx); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear deletes every record file. Files without the record extension are
// left alone.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.ready.Get(ctx); err != nil {
		return err
	}

	names, err := s.recordFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Keys returns the original keys of every record file. Record files are read
// concurrently.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if _, err := s.ready.Get(ctx); err != nil {
		return nil, err
	}

	names, err := s.recordFiles()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []string{}, nil
	}

	pool, err := ants.NewPool(min(s.workers, len(names)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	keys := make([]string, len(names))
	found := make([]bool, len(names))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, name := range names {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			record, err := readRecord(filepath.Join(s.root, name))
			switch {
			case errors.Is(err, fs.ErrNotExist):
				// Removed since the directory was listed.
			case err != nil:
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			case record.Key == "":
				keys[i] = strings.TrimSuffix(name, Extension)
				found[i] = true
			default:
				keys[i] = record.Key
				found[i] = true
			}
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]string, 0, len(keys))
	for i, k := range keys {
		if found[i] {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *Store) recordFiles() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func readRecord(path string) (*storage.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record storage.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", storage.ErrSerialization, filepath.Base(path), err)
	}
	return &record, nil
}

// writeFile replaces path atomically through a temp file in dir.
func writeFile(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
