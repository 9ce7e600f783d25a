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


// Package storage defines the key-value contract shared by every kss backend.
//
// Application code depends on the Store interface while the concrete backend
// (browser storage, filesystem, MongoDB, or the embedded indexed database) is
// selected through configuration. The subpackages implement the contract:
//
//   - webstorage: localStorage / sessionStorage areas, with an in-memory fallback
//   - filesystem: one pretty-printed JSON file per key
//   - mongodb: one document per key in a MongoDB collection
//   - badger: a named object store inside an embedded BadgerDB database
//
// # Contract
//
// Every Store supports Get, Set, Remove, Clear and Keys:
//
//	value, err := store.Get(ctx, "user:42")  // nil, nil when the key is absent
//	err = store.Set(ctx, "user:42", map[string]any{"name": "ada"})
//	err = store.Remove(ctx, "user:42")       // removing an absent key is not an error
//	err = store.Clear(ctx)                   // only the configured scope is cleared
//	keys, err := store.Keys(ctx)
//
// Values are arbitrary Go values that survive a round trip through the
// backend's native representation. Substrates that store text or bytes go
// through JSON, so a stored value comes back in its JSON shape (float64,
// map[string]any, []any). Use GetInto to decode into a concrete type.
//
// # Errors
//
// A missing key is never an error for Get. Every other substrate failure is
// returned to the caller unchanged or wrapped with one of the sentinel errors
// of this package; nothing is retried.
//
// # Initialization
//
// Backends that need a connection or a handle open it lazily on first use.
// Concurrent callers share a single in-flight initialization (see Lazy).
//
// # Thread Safety
//
// All Store implementations are safe for concurrent use. Concurrent writes
// to the same key are last-write-wins in whatever order the substrate
// serializes them.
package storage
