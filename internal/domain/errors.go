package domain

import "errors"

// Persistence errors
var (
	// ErrDecryption indicates that a persisted blob cannot be read under the
	// current key, or does not hold a bookmark collection. Callers recover
	// by treating the record as empty.
	ErrDecryption = errors.New("decryption failed")

	// ErrIO indicates that the blob store rejected a write. The in-memory
	// collection stays the source of truth until a later save succeeds.
	ErrIO = errors.New("storage write failed")

	// ErrInvalidScope indicates an unknown storage scope value.
	ErrInvalidScope = errors.New("invalid storage scope")
)

// Bookmark errors
var (
	// ErrNotFound indicates that no bookmark has the requested ID.
	// Store methods treat this as a no-op; only outer layers report it.
	ErrNotFound = errors.New("bookmark not found")

	// ErrUnresolvableLocation indicates that a bookmark's file (or line)
	// cannot be opened.
	ErrUnresolvableLocation = errors.New("location cannot be resolved")
)

// Exchange errors
var (
	// ErrUnknownFormat indicates an unsupported export/import format.
	ErrUnknownFormat = errors.New("unknown exchange format")
)
