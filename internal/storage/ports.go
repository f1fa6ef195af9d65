// Package storage defines the key-value ports the ledger persists through.
//
// The whole ledger state is one serialized blob stored under a single key,
// so backends only need to get and put opaque byte slices. Implementations
// live in the memory, file, sqlite and redisstore subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Ports for outbound adapters.
type (
	BlobReader interface {
		// Get returns the value stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
	}

	BlobWriter interface {
		// Put replaces the value stored under key. A failed Put must leave
		// the previous value readable.
		Put(ctx context.Context, key string, value []byte) error
	}

	BlobStore interface {
		BlobReader
		BlobWriter
	}
)
