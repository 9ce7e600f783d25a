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


// Package mongodb implements storage.Store as one document per key in a
// MongoDB collection.
//
// Documents have the shape { key, value, updatedAt }. Values are stored as
// native BSON and normalized back to plain Go maps and slices on read.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/kss/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is used when no collection option is given.
const DefaultCollection = "kss_store"

// document is the stored form of a key-value pair.
type document struct {
	Key       string    `bson:"key"`
	Value     any       `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type connection struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Store implements storage.Store for a MongoDB collection.
type Store struct {
	uri        string
	database   string
	collection string
	conn       *storage.Lazy[*connection]
	logger     *slog.Logger
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Closer = (*Store)(nil)
)

// New validates the options and returns a Store. The connectionString and
// database options are required; a missing one fails here, before any
// network I/O. The connection is established on first use.
func New(opts storage.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	uri := opts.String(storage.OptConnectionString, "")
	if uri == "" {
		return nil, fmt.Errorf("%w: MongoDB connection string is required", storage.ErrConfig)
	}
	database := opts.String(storage.OptDatabase, "")
	if database == "" {
		return nil, fmt.Errorf("%w: MongoDB database name is required", storage.ErrConfig)
	}

	s := &Store{
		uri:        uri,
		database:   database,
		collection: opts.String(storage.OptCollection, DefaultCollection),
		logger:     logger,
	}
	s.conn = storage.NewLazy(s.connect)
	return s, nil
}

// Database returns the configured database name.
func (s *Store) Database() string {
	return s.database
}

// Collection returns the configured collection name.
func (s *Store) Collection() string {
	return s.collection
}

func (s *Store) connect(ctx context.Context) (*connection, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(s.uri))
	if err != nil {
		s.logger.Error("failed to connect to MongoDB", "database", s.database, "err", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		s.logger.Error("failed to connect to MongoDB", "database", s.database, "err", err)
		client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	return &connection{
		client:     client,
		collection: client.Database(s.database).Collection(s.collection),
	}, nil
}

// Close disconnects the client. A later operation reconnects.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Reset(func(c *connection) error {
		return c.client.Disconnect(ctx)
	})
}

func (s *Store) coll(ctx context.Context) (*mongo.Collection, error) {
	c, err := s.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	return c.collection, nil
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	coll, err := s.coll(ctx)
	if err != nil {
		return nil, err
	}

	var doc document
	err = coll.FindOne(ctx, bson.D{{Key: "key", Value: key}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return normalize(doc.Value), nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "value", Value: value},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	_, err = coll.UpdateOne(ctx, bson.D{{Key: "key", Value: key}}, update,
		options.UpdateOne().SetUpsert(true))
	return err
}

func (s *Store) Remove(ctx context.Context, key string) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}
	_, err = coll.DeleteOne(ctx, bson.D{{Key: "key", Value: key}})
	return err
}

// Clear deletes every document of the collection.
func (s *Store) Clear(ctx context.Context) error {
	coll, err := s.coll(ctx)
	if err != nil {
		return err
	}
	_, err = coll.DeleteMany(ctx, bson.D{})
	return err
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	coll, err := s.coll(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.D{},
		options.Find().SetProjection(bson.D{{Key: "key", Value: 1}, {Key: "_id", Value: 0}}))
	if err != nil {
		return nil, err
	}

	var docs []struct {
		Key string `bson:"key"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = d.Key
	}
	return keys, nil
}

// normalize converts the driver's BSON containers into plain Go values and
// integers into float64, giving the same shapes as the JSON-backed stores.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalize(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalize(e)
		}
		return m
	case bson.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}
		return out
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return v
	}
}
