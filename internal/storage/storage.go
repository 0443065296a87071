package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Open when the stored file is gone even
// though its database row still exists. Handlers surface it as a 404
// distinct from a missing row.
var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage defines the interface for persisted file operations. Keys
// are opaque, slash-separated paths generated by the services (e.g.
// "materials/<uuid>.pdf"); the original filename is metadata, never part
// of the key.
type FileStorage interface {
	// Save streams the content to the backend under key, overwriting any
	// existing object.
	Save(ctx context.Context, key string, content io.Reader, size int64) error

	// Open returns a reader over the stored object. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
