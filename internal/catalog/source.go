package catalog

import (
	"context"
	"fmt"
)

// Source loads the trusted catalog from durable storage. Every call returns
// a fresh, independent Catalog value: callers must not assume identity or
// caching across calls, so concurrent requests never observe each other's
// reads.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// StorageError reports that the catalog storage was unreadable or malformed.
// It is fatal for the request that triggered the load and is never folded
// into an empty catalog, which would mask the real fault behind a wall of
// unknown-item rejections.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
