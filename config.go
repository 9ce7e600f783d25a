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


package kss

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/poiesic/kss/storage"
	"gopkg.in/yaml.v3"
)

// Config selects a backend and carries its options.
type Config struct {
	Type    storage.Type    `yaml:"type"`
	Options storage.Options `yaml:"options"`
}

// envConfig lists the environment variables understood by ConfigFromEnv.
type envConfig struct {
	Type             string `env:"KSS_TYPE,required"`
	Prefix           string `env:"KSS_PREFIX"`
	Path             string `env:"KSS_PATH"`
	ConnectionString string `env:"KSS_CONNECTION_STRING"`
	Database         string `env:"KSS_DATABASE"`
	Collection       string `env:"KSS_COLLECTION"`
	DBName           string `env:"KSS_DB_NAME"`
	StoreName        string `env:"KSS_STORE_NAME"`
	Version          int    `env:"KSS_VERSION"`
	StorageType      string `env:"KSS_STORAGE_TYPE"`
	InMemory         bool   `env:"KSS_IN_MEMORY"`
}

// ConfigFromEnv builds a Config from KSS_* environment variables.
// KSS_TYPE is required; unset variables leave their option out.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %v", storage.ErrConfig, err)
	}

	typ, err := storage.ParseType(ec.Type)
	if err != nil {
		return Config{}, err
	}

	opts := storage.Options{}
	setString := func(key, value string) {
		if value != "" {
			opts[key] = value
		}
	}
	setString(storage.OptPrefix, ec.Prefix)
	setString(storage.OptPath, ec.Path)
	setString(storage.OptConnectionString, ec.ConnectionString)
	setString(storage.OptDatabase, ec.Database)
	setString(storage.OptCollection, ec.Collection)
	setString(storage.OptDBName, ec.DBName)
	setString(storage.OptStoreName, ec.StoreName)
	setString(storage.OptStorageType, ec.StorageType)
	if ec.Version != 0 {
		opts[storage.OptVersion] = ec.Version
	}
	if ec.InMemory {
		opts[storage.OptInMemory] = true
	}

	return Config{Type: typ, Options: opts}, nil
}

// LoadConfig reads a YAML config file:
//
//	type: FileSystem
//	options:
//	  path: ./data
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML config document.
func ParseConfig(data []byte) (Config, error) {
	var raw struct {
		Type    string         `yaml:"type"`
		Options map[string]any `yaml:"options"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", storage.ErrConfig, err)
	}

	typ, err := storage.ParseType(raw.Type)
	if err != nil {
		return Config{}, err
	}

	opts := storage.Options(raw.Options)
	if opts == nil {
		opts = storage.Options{}
	}
	return Config{Type: typ, Options: opts}, nil
}
