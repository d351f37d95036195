// Package kv provides the durable key/value medium used by the session
// and document stores. Records are opaque bytes addressed by a namespace
// and a key; interpretation of the bytes belongs to the caller.
package kv

import "context"

// Store defines the operations every storage driver implements.
type Store interface {
	// Get returns the record stored under namespace/key.
	// Returns nil if the record or the namespace does not exist (not an error).
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Put stores value under namespace/key, replacing any previous record.
	// The write is durable when Put returns.
	Put(ctx context.Context, namespace, key string, value []byte) error

	// Delete removes namespace/key. Deleting a missing record is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// List returns every record in namespace. An unknown namespace yields
	// an empty slice. Order is unspecified.
	List(ctx context.Context, namespace string) ([]Record, error)

	// Close releases the underlying medium.
	Close() error
}

// Record is one key/value pair returned by List
type Record struct {
	Key   string
	Value []byte
}
