// Package storage is the durable key/value store that backs persisted client
// state: session fields, address history and the push device token.
package storage

import "context"

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// SetMany writes all pairs or none.
	SetMany(ctx context.Context, values map[string]string) error
	// Delete removes all keys or none. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
