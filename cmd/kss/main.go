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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/kss"
	"github.com/poiesic/kss/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "kss",
		Usage: "Inspect and edit a kss key-value store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (type + options)",
			},
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Backend type (FileSystem, IndexedDB, MongoDB, localStorage, sessionStorage); falls back to KSS_TYPE",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Key namespace for browser storage",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Root directory for FileSystem, parent directory for IndexedDB",
			},
			&cli.StringFlag{
				Name:  "connection-string",
				Usage: "MongoDB connection string",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "MongoDB database name",
			},
			&cli.StringFlag{
				Name:  "collection",
				Usage: "MongoDB collection name",
			},
			&cli.StringFlag{
				Name:  "db-name",
				Usage: "IndexedDB database name",
			},
			&cli.StringFlag{
				Name:  "store-name",
				Usage: "IndexedDB object store name",
			},
			&cli.IntFlag{
				Name:  "schema-version",
				Usage: "IndexedDB schema version",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print the value stored under a key as JSON",
				ArgsUsage: "KEY",
				Action:    getCommand,
			},
			{
				Name:      "set",
				Usage:     "Store a value; VALUE is parsed as JSON when valid, otherwise stored as a string",
				ArgsUsage: "KEY VALUE",
				Action:    setCommand,
			},
			{
				Name:      "rm",
				Usage:     "Remove a key",
				ArgsUsage: "KEY",
				Action:    removeCommand,
			},
			{
				Name:   "clear",
				Usage:  "Remove every key in scope",
				Action: clearCommand,
			},
			{
				Name:   "keys",
				Usage:  "List keys in scope, one per line",
				Action: keysCommand,
			},
			{
				Name:      "import",
				Usage:     "Store every entry of a JSON object file",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent writes",
						Value: runtime.NumCPU(),
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
					&cli.IntFlag{
						Name:  "report-every",
						Usage: "Report progress every N entries",
						Value: 100,
					},
				},
			},
		},
	}
}

// loadConfig resolves the store configuration from --config, --type or the
// environment, in that order, then applies backend flags on top.
func loadConfig(c *cli.Context) (kss.Config, error) {
	var (
		cfg kss.Config
		err error
	)
	switch {
	case c.String("config") != "":
		cfg, err = kss.LoadConfig(c.String("config"))
	case c.String("type") != "":
		var typ storage.Type
		typ, err = storage.ParseType(c.String("type"))
		cfg = kss.Config{Type: typ, Options: storage.Options{}}
	default:
		cfg, err = kss.ConfigFromEnv()
	}
	if err != nil {
		return kss.Config{}, err
	}
	if cfg.Options == nil {
		cfg.Options = storage.Options{}
	}

	stringFlags := map[string]string{
		"prefix":            storage.OptPrefix,
		"path":              storage.OptPath,
		"connection-string": storage.OptConnectionString,
		"database":          storage.OptDatabase,
		"collection":        storage.OptCollection,
		"db-name":           storage.OptDBName,
		"store-name":        storage.OptStoreName,
	}
	for flag, opt := range stringFlags {
		if c.IsSet(flag) {
			cfg.Options[opt] = c.String(flag)
		}
	}
	if c.IsSet("schema-version") {
		cfg.Options[storage.OptVersion] = c.Int("schema-version")
	}

	return cfg, nil
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(c *cli.Context, fn func(ctx context.Context, store *kss.Store) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := kss.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Type, err)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			slog.Error("error closing store", "err", err)
		}
	}()

	return fn(ctx, store)
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s expects %d argument(s): %s", c.Command.Name, n, c.Command.ArgsUsage)
	}
	return nil
}

func getCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return withStore(c, func(ctx context.Context, store *kss.Store) error {
		value, err := store.Get(ctx, c.Args().First())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(data))
		return nil
	})
}

func setCommand(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	return withStore(c, func(ctx context.Context, store *kss.Store) error {
		return store.Set(ctx, c.Args().Get(0), storage.DecodeString(c.Args().Get(1)))
	})
}

func removeCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	return withStore(c, func(ctx context.Context, store *kss.Store) error {
		return store.Remove(ctx, c.Args().First())
	})
}

func clearCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *kss.Store) error {
		return store.Clear(ctx)
	})
}

func keysCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *kss.Store) error {
		keys, err := store.Keys(ctx)
		if err != nil {
			return err
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintln(c.App.Writer, k)
		}
		return nil
	})
}

func importCommand(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	workers := c.Int("workers")
	if workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	var entries map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("import file must contain a JSON object: %w", err)
	}

	return withStore(c, func(ctx context.Context, store *kss.Store) error {
		pool, err := ants.NewPool(workers)
		if err != nil {
			return err
		}
		defer pool.Release()

		var progressOut io.Writer
		if c.Bool("progress") {
			progressOut = c.App.ErrWriter
		}
		progress := newImportProgress(progressOut, len(entries), c.Int("report-every"))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []string
		)
		for key, value := range entries {
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				err := store.Set(ctx, key, value)
				if err != nil {
					mu.Lock()
					errs = append(errs, fmt.Sprintf("%s: %v", key, err))
					mu.Unlock()
				}
				progress.record(err)
			})
			if submitErr != nil {
				wg.Done()
				return submitErr
			}
		}
		wg.Wait()
		progress.finish()

		done, failed := progress.counts()
		if failed > 0 {
			slices.Sort(errs)
			return fmt.Errorf("failed to import %d of %d entries: %s",
				failed, done, strings.Join(errs, "; "))
		}
		slog.Info("import complete", "entries", done)
		return nil
	})
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
