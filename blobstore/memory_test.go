package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("hello blob")
	require.NoError(t, store.Put(ctx, "a/b", data))

	blob, err := store.Open(ctx, "a/b")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	// Mutating the store after Open must not affect the open blob.
	require.NoError(t, store.Put(ctx, "a/b", []byte("overwritten")))

	buf := make([]byte, len(data))
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, data, buf)
	require.NoError(t, blob.Close())
}

func TestMemoryStoreCreateVisibleOnClose(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "streamed")
	require.NoError(t, err)
	_, err = w.Write([]byte("part one, "))
	require.NoError(t, err)
	_, err = w.Write([]byte("part two"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "streamed")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())

	got, err := ReadAll(ctx, store, "streamed")
	require.NoError(t, err)
	require.Equal(t, "part one, part two", string(got))
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns/ds/0000/a.mp4", nil))
	require.NoError(t, store.Put(ctx, "ns/ds/0000/metadata.jsonl", nil))
	require.NoError(t, store.Put(ctx, "ns/other/x", nil))

	names, err := store.List(ctx, "ns/ds/")
	require.NoError(t, err)
	require.Equal(t, []string{"ns/ds/0000/a.mp4", "ns/ds/0000/metadata.jsonl"}, names)

	require.Equal(t, 3, store.Len())
}

func TestMemoryBlobReadRange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "r", []byte("0123456789")))
	blob, err := store.Open(ctx, "r")
	require.NoError(t, err)
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 3, 4)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "3456", string(got))

	// Range past the end is truncated.
	rc, err = blob.ReadRange(ctx, 8, 100)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "89", string(got))

	// Range fully past the end yields an empty reader.
	rc, err = blob.ReadRange(ctx, 50, 10)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.Empty(t, got)
}
