package storage

import "context"

// Store is the key-value contract implemented by every backend.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key.
	// Returns nil, nil if the key does not exist.
	Get(ctx context.Context, key string) (any, error)

	// Set creates or overwrites the value stored under key.
	Set(ctx context.Context, key string, value any) error

	// Remove deletes the value stored under key.
	// Removing a key that does not exist is not an error.
	Remove(ctx context.Context, key string) error

	// Clear removes every record within the store's scope. Records outside
	// the scope (another prefix, another collection, foreign files) survive.
	Clear(ctx context.Context) error

	// Keys returns every key currently in scope. Order is backend specific.
	Keys(ctx context.Context) ([]string, error)
}

// Closer is implemented by stores that hold a connection or handle.
// After Close the next operation re-opens the handle.
type Closer interface {
	Close(ctx context.Context) error
}
