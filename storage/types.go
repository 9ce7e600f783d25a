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

import (
	"fmt"
	"slices"
	"strings"
)

// Type identifies a backend.
type Type string

const (
	LocalStorage   Type = "localStorage"
	SessionStorage Type = "sessionStorage"
	IndexedDB      Type = "IndexedDB"
	MongoDB        Type = "MongoDB"
	SQLite         Type = "SQLite"
	FileSystem     Type = "FileSystem"
	MySQL          Type = "MySQL"
	PostgreSQL     Type = "PostgreSQL"
	Redis          Type = "Redis"
)

// Types lists every known backend identifier, including the reserved ones
// that have no implementation.
func Types() []Type {
	return []Type{
		LocalStorage,
		SessionStorage,
		IndexedDB,
		MongoDB,
		SQLite,
		FileSystem,
		MySQL,
		PostgreSQL,
		Redis,
	}
}

// ParseType resolves a backend name case-insensitively.
func ParseType(name string) (Type, error) {
	for _, t := range Types() {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Valid reports whether t is one of the known identifiers.
func (t Type) Valid() bool {
	return slices.Contains(Types(), t)
}

func (t Type) String() string {
	return string(t)
}
