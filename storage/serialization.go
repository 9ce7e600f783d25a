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
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record is the persisted form of a key-value pair for substrates that keep
// the key next to the value. UpdatedAt is set on every write and never read
// back by the contract.
type Record struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord builds a Record stamped with the current time.
func NewRecord(key string, value any) Record {
	return Record{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
}

// EncodeString converts a value for a string-based substrate.
// Strings are stored as-is; every other value is JSON-encoded.
func EncodeString(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(data), nil
}

// DecodeString reverses EncodeString. Text that is not valid JSON is
// returned as the raw string.
func DecodeString(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// EncodeJSON encodes a value for a byte-oriented substrate.
func EncodeJSON(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// DecodeJSON reverses EncodeJSON.
func DecodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return v, nil
}

// GetInto fetches key from s and decodes the stored value into T.
// The boolean result is false when the key does not exist.
func GetInto[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	value, err := s.Get(ctx, key)
	if err != nil {
		return out, false, err
	}
	if value == nil {
		return out, false, nil
	}
	if typed, ok := value.(T); ok {
		return typed, true, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return out, false, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return out, true, nil
}
