package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrAccessDenied is returned when the store rejects the caller's
// credentials for a blob that may well exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrAccessDenied)`. The default maps to
// `os.ErrPermission`.
var ErrAccessDenied = os.ErrPermission

// BlobStore is an abstraction for reading and writing immutable data
// blobs.
type BlobStore interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a new blob for streaming writes. The blob becomes
	// visible only once the returned WritableBlob is closed without
	// error.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a small blob in one call. The write is atomic: readers
	// observe either the previous content or the full new content.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs under the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over [off, off+length). Short ranges at
	// the end of the blob are truncated, not an error.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a streaming write handle returned by Create.
type WritableBlob interface {
	io.Writer
	io.Closer

	// Sync flushes buffered data to stable storage where the backend
	// supports it; remote stores commit on Close instead.
	Sync() error
}

// ReadAll reads an entire blob into memory.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data := make([]byte, blob.Size())
	if len(data) == 0 {
		return data, nil
	}
	if _, err := blob.ReadAt(ctx, data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}
