package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huggingface/videoset/blobstore"
	"github.com/huggingface/videoset/metadata"
)

func testManifest() *Manifest {
	return &Manifest{
		Schema:     metadata.Schema{"label": metadata.FieldTypeString},
		Codec:      "go-json",
		Compressor: "none",
		Shards: []ShardInfo{
			{Path: "0000", MetadataFile: "metadata.jsonl", RecordCount: 2},
		},
		RecordCount: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ms := NewStore(store, "ns/ds")
	ctx := context.Background()

	m := testManifest()
	require.NoError(t, ms.Save(ctx, m))

	require.Equal(t, CurrentVersion, m.Version)
	require.Equal(t, uint64(1), m.ID)
	require.NotEmpty(t, m.CommitID)
	require.False(t, m.CreatedAt.IsZero())

	loaded, err := ms.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, m.CommitID, loaded.CommitID)
	require.True(t, m.Schema.Equal(loaded.Schema))
	require.Equal(t, m.Shards, loaded.Shards)
	require.Equal(t, 2, loaded.RecordCount)

	// The blobs land under the dataset prefix.
	names, err := store.List(ctx, "ns/ds/")
	require.NoError(t, err)
	require.Equal(t, []string{"ns/ds/CURRENT", "ns/ds/MANIFEST-000001.json"}, names)
}

func TestStoreSaveIncrementsID(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ms := NewStore(store, "ns/ds")
	ctx := context.Background()

	m := testManifest()
	require.NoError(t, ms.Save(ctx, m))

	m2 := testManifest()
	m2.ID = m.ID
	require.NoError(t, ms.Save(ctx, m2))
	require.Equal(t, uint64(2), m2.ID)

	loaded, err := ms.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, m2.CommitID, loaded.CommitID)

	// Both manifest files remain; CURRENT names the newest.
	pointer, err := blobstore.ReadAll(ctx, store, "ns/ds/CURRENT")
	require.NoError(t, err)
	require.Equal(t, "MANIFEST-000002.json", string(pointer))
}

func TestStoreLoadMissing(t *testing.T) {
	ms := NewStore(blobstore.NewMemoryStore(), "ns/absent")

	_, err := ms.Load(context.Background())
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStoreLoadUnsupportedVersion(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns/ds/MANIFEST-000001.json", []byte(`{"version": 99}`)))
	require.NoError(t, store.Put(ctx, "ns/ds/CURRENT", []byte("MANIFEST-000001.json")))

	_, err := NewStore(store, "ns/ds").Load(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported manifest version")
}

func TestStoreLoadCorruptManifest(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns/ds/MANIFEST-000001.json", []byte("not json")))
	require.NoError(t, store.Put(ctx, "ns/ds/CURRENT", []byte("MANIFEST-000001.json")))

	_, err := NewStore(store, "ns/ds").Load(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode manifest")
}
