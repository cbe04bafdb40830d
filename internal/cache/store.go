package cache

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("cache store closed")

// Store is a durable key/value store for encoded cache entries. All methods
// must be safe for concurrent use.
type Store interface {
	// Get returns the value stored at key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores val at key, replacing any previous value.
	Put(ctx context.Context, key string, val []byte) error
	// DeletePrefix removes every key starting with prefix and returns how
	// many were removed. An empty prefix removes everything.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Count returns the number of keys starting with prefix.
	Count(ctx context.Context, prefix string) (int, error)
	Close() error
}
