package adapters

import "context"

// KeyValueStore is an interface for the small amount of state kept across app runs
// (the session counter and the transaction counter).
// Implement this interface to use custom storage backends (database, Redis, S3, etc.).
type KeyValueStore interface {
	// GetInt retrieves the integer stored under key.
	//
	// Returns ok=false with a nil error when the key has never been written.
	GetInt(ctx context.Context, key string) (value int, ok bool, err error)

	// SetInt stores value under key, replacing any previous value.
	//
	// Returns error if the write fails.
	SetInt(ctx context.Context, key string, value int) error
}
