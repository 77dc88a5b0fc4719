// Package kvstore is the durable string-keyed store holding the client session.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrNotFound for absent keys.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// RemoveMany deletes keys; absent keys are ignored.
	RemoveMany(ctx context.Context, keys ...string) error
}
