package tilestore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a tile does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for storing encoded tiles.
type Store interface {
	// Get returns the stored bytes of a tile.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a tile atomically, replacing any previous version.
	Put(ctx context.Context, name string, data []byte) error
	// Create opens a tile for streaming writes. The tile becomes visible
	// when the returned WritableBlob is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Delete removes a tile. Deleting a missing tile is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all tiles under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// WritableBlob is a streaming write handle returned by Store.Create.
type WritableBlob interface {
	io.Writer
	// Close commits the written data.
	Close() error
	// Abort discards the written data. It is a no-op after Close.
	Abort() error
}
