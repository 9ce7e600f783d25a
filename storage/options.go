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
	"maps"
	"strconv"
)

// Recognized option keys. Backends ignore keys they do not use; unknown keys
// are kept and passed through untouched.
const (
	OptPrefix           = "prefix"
	OptPath             = "path"
	OptConnectionString = "connectionString"
	OptDatabase         = "database"
	OptCollection       = "collection"
	OptDBName           = "dbName"
	OptStoreName        = "storeName"
	OptVersion          = "version"
	OptStorageType      = "storageType"
	OptInMemory         = "inMemory"
	OptWorkers          = "workers"
)

// Options holds backend configuration.
type Options map[string]any

// Clone returns a shallow copy of o. A nil Options clones to an empty map.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	maps.Copy(out, o)
	return out
}

// With returns a copy of o with key set to value.
func (o Options) With(key string, value any) Options {
	out := o.Clone()
	out[key] = value
	return out
}

// String returns the string option stored under key, or def when it is
// missing or empty.
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	if s == "" {
		return def
	}
	return s
}

// Int returns the integer option stored under key, or def when it is missing
// or zero. Numeric strings are accepted since values may come from the
// environment or a config file.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	var n int
	switch val := v.(type) {
	case int:
		n = val
	case int32:
		n = int(val)
	case int64:
		n = int(val)
	case uint:
		n = int(val)
	case uint32:
		n = int(val)
	case uint64:
		n = int(val)
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("%w: option %s is not an integer: %v", ErrConfig, key, val)
		}
		n = int(val)
	case string:
		if val == "" {
			return def, nil
		}
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%w: option %s: %v", ErrConfig, key, err)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: option %s has unsupported type %T", ErrConfig, key, v)
	}
	if n == 0 {
		return def, nil
	}
	return n, nil
}

// Bool returns the boolean option stored under key, or def when it is missing.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		if val == "" {
			return def, nil
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("%w: option %s: %v", ErrConfig, key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: option %s has unsupported type %T", ErrConfig, key, v)
	}
}
