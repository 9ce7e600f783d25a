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

import "github.com/poiesic/kss/storage"

// NewMemoryStore creates a Store on a private in-memory database for testing.
// Extra options (storeName, version) are applied on top.
// Caller must Close the store when done.
func NewMemoryStore(opts storage.Options) (*Store, error) {
	return New(opts.With(storage.OptInMemory, true), nil)
}
