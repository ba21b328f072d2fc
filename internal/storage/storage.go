package storage

import (
	"context"
	"errors"
)

// Collection keys. Each key holds one JSON array of entities.
const (
	KeyBooks        = "books"
	KeyLibraries    = "libraries"
	KeyUsers        = "users"
	KeyTransactions = "transactions"
)

// ErrPersistence wraps any store read/write failure so callers can
// distinguish infrastructure faults from domain errors.
var ErrPersistence = errors.New("persistence failure")

// KeyValueStore is the minimal contract the circulation engine needs from
// its backing store: JSON blobs keyed by collection name.
//
// Get returns (nil, nil) when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
