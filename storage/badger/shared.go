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


package badger

import (
	"log/slog"
	"path/filepath"
	"sync"
)

// Badger holds an exclusive lock on its directory, so every Store of the
// process opening the same directory goes through one reference-counted
// Backend.
var openBackends = struct {
	sync.Mutex
	byDir map[string]*sharedBackend
}{byDir: make(map[string]*sharedBackend)}

type sharedBackend struct {
	backend *Backend
	refs    int
}

func backendKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// acquireBackend returns the open Backend for dir, opening it if needed.
// Every successful call must be paired with releaseBackend.
func acquireBackend(dir string, logger *slog.Logger) (*Backend, error) {
	key := backendKey(dir)

	openBackends.Lock()
	defer openBackends.Unlock()

	if shared, ok := openBackends.byDir[key]; ok {
		shared.refs++
		return shared.backend, nil
	}

	backend, err := OpenBackend(key, false, logger)
	if err != nil {
		return nil, err
	}
	backend.dir = key
	openBackends.byDir[key] = &sharedBackend{backend: backend, refs: 1}
	return backend, nil
}

// releaseBackend drops one reference to b and closes it with the last one.
// Private (in-memory) backends are closed immediately.
func releaseBackend(b *Backend) error {
	if b.dir == "" {
		return b.Close()
	}

	openBackends.Lock()
	defer openBackends.Unlock()

	shared, ok := openBackends.byDir[b.dir]
	if !ok || shared.backend != b {
		return nil
	}
	shared.refs--
	if shared.refs > 0 {
		return nil
	}
	delete(openBackends.byDir, b.dir)
	b.logger.Debug("closing shared indexed database", "dir", b.dir)
	return b.Close()
}
