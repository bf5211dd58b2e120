// Package kv provides the durable key-value store the builder persists
// drafts into. The store is an injected dependency so tests run against the
// in-memory implementation with a deterministic lifecycle.
package kv

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
