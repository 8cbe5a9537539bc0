// Package blob stores opaque byte blobs under string keys.
//
// Bookmark collections are persisted as one blob per storage key; the
// backends know nothing about their content.
package blob

import "context"

// Store is the write collaborator of the persistence gateway.
type Store interface {
	// Get returns the blob and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the blob stored under key.
	Set(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
