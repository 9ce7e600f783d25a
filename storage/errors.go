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


package storage

import "errors"

var (
	// ErrConfig indicates a required option is missing or invalid.
	ErrConfig = errors.New("invalid store configuration")

	// ErrStoreNotFound indicates no implementation is registered for the
	// requested backend type, or a named object store does not exist.
	ErrStoreNotFound = errors.New("store implementation not found")

	// ErrUnknownType indicates a backend type name outside the known set.
	ErrUnknownType = errors.New("unknown store type")

	// ErrClosed indicates that the store has been closed.
	ErrClosed = errors.New("store is closed")

	// ErrSerialization indicates a value could not be encoded or decoded.
	ErrSerialization = errors.New("serialization failed")

	// ErrVersion indicates a database was opened with a schema version lower
	// than the one already on disk.
	ErrVersion = errors.New("requested version is lower than existing version")
)
