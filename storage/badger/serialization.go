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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/kss/storage"
)

// record is the stored form of a key-value pair. Value holds the JSON
// encoding of the caller's value.
type record struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// marshalRecord serializes a record to bytes.
// Layout: key (string), value (byte slice), updatedAt (varint unix micros).
func marshalRecord(r *record) []byte {
	updated := r.UpdatedAt.UnixMicro()
	size := ord.String.Size(r.Key) + ord.ByteSlice.Size(r.Value) + varint.Int64.Size(updated)
	buf := make([]byte, size)
	n := ord.String.Marshal(r.Key, buf)
	n += ord.ByteSlice.Marshal(r.Value, buf[n:])
	varint.Int64.Marshal(updated, buf[n:])
	return buf
}

// unmarshalRecord deserializes a record from bytes.
func unmarshalRecord(data []byte) (*record, error) {
	key, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: record key: %v", storage.ErrSerialization, err)
	}
	value, n1, err := ord.ByteSlice.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: record value: %v", storage.ErrSerialization, err)
	}
	n += n1
	updated, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: record timestamp: %v", storage.ErrSerialization, err)
	}
	return &record{
		Key:       key,
		Value:     value,
		UpdatedAt: time.UnixMicro(updated).UTC(),
	}, nil
}
