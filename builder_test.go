package videoset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huggingface/videoset/metadata"
)

// writePair drops a fake video and its metadata file into the two dirs.
func writePair(t *testing.T, videoDir, metaDir, base, metaJSON string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(videoDir, base+".mp4"), []byte("video:"+base), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, base+".json"), []byte(metaJSON), 0o600))
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("pairs videos with metadata in sorted order", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "b", `{"animal":"dog","score":2}`)
		writePair(t, videoDir, metaDir, "a", `{"animal":"cat","score":1}`)

		ds, err := Build(ctx, videoDir, metaDir)
		require.NoError(t, err)
		require.Equal(t, 2, ds.Len())

		recs := ds.Records()
		require.Equal(t, "a.mp4", recs[0].FileName)
		require.Equal(t, "b.mp4", recs[1].FileName)
		require.Equal(t, "cat", recs[0].Metadata["animal"])
		require.Equal(t, "dog", recs[1].Metadata["animal"])
		require.Equal(t, filepath.Join(videoDir, "a.mp4"), recs[0].SourcePath)
	})

	t.Run("infers schema from first record", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"animal":"cat","score":1}`)

		ds, err := Build(ctx, videoDir, metaDir)
		require.NoError(t, err)
		require.Equal(t, metadata.Schema{
			"animal": metadata.FieldTypeString,
			"score":  metadata.FieldTypeInt,
		}, ds.Schema())
	})

	t.Run("numeric fields widen to float regardless of record order", func(t *testing.T) {
		for name, pairs := range map[string][2]string{
			"integral first":   {`{"score":2}`, `{"score":0.5}`},
			"fractional first": {`{"score":0.5}`, `{"score":2}`},
		} {
			t.Run(name, func(t *testing.T) {
				videoDir, metaDir := t.TempDir(), t.TempDir()
				writePair(t, videoDir, metaDir, "a", pairs[0])
				writePair(t, videoDir, metaDir, "b", pairs[1])

				ds, err := Build(ctx, videoDir, metaDir)
				require.NoError(t, err)
				require.Equal(t, 2, ds.Len())
				require.Equal(t, metadata.FieldTypeFloat, ds.Schema()["score"])
			})
		}
	})

	t.Run("pinned int schema stays strict", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"score":0.5}`)

		_, err := Build(ctx, videoDir, metaDir, WithSchema(metadata.Schema{
			"score": metadata.FieldTypeInt,
		}))

		var mismatch *ErrSchemaMismatch
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, "a.mp4", mismatch.FileName)
	})

	t.Run("video without metadata", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"animal":"cat"}`)
		require.NoError(t, os.WriteFile(filepath.Join(videoDir, "orphan.mp4"), []byte("x"), 0o600))

		_, err := Build(ctx, videoDir, metaDir)

		var missing *ErrMissingAssociation
		require.ErrorAs(t, err, &missing)
		require.Equal(t, []string{"orphan.mp4"}, missing.VideosWithoutMetadata)
		require.Empty(t, missing.MetadataWithoutVideo)
	})

	t.Run("metadata without video", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"animal":"cat"}`)
		require.NoError(t, os.WriteFile(filepath.Join(metaDir, "ghost.json"), []byte(`{}`), 0o600))

		_, err := Build(ctx, videoDir, metaDir)

		var missing *ErrMissingAssociation
		require.ErrorAs(t, err, &missing)
		require.Equal(t, []string{"ghost.json"}, missing.MetadataWithoutVideo)
		require.Empty(t, missing.VideosWithoutMetadata)
	})

	t.Run("missing pairs on both sides are reported together", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(videoDir, "only-video.mp4"), []byte("x"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(metaDir, "only-meta.json"), []byte(`{}`), 0o600))

		_, err := Build(ctx, videoDir, metaDir)

		var missing *ErrMissingAssociation
		require.ErrorAs(t, err, &missing)
		require.Equal(t, []string{"only-video.mp4"}, missing.VideosWithoutMetadata)
		require.Equal(t, []string{"only-meta.json"}, missing.MetadataWithoutVideo)
	})

	t.Run("schema mismatch across records", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"animal":"cat","score":1}`)
		writePair(t, videoDir, metaDir, "b", `{"animal":"dog"}`)

		_, err := Build(ctx, videoDir, metaDir)

		var mismatch *ErrSchemaMismatch
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, "b.mp4", mismatch.FileName)
	})

	t.Run("pinned schema rejects the first record too", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"animal":"cat"}`)

		_, err := Build(ctx, videoDir, metaDir, WithSchema(metadata.Schema{
			"animal": metadata.FieldTypeString,
			"score":  metadata.FieldTypeInt,
		}))

		var mismatch *ErrSchemaMismatch
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, "a.mp4", mismatch.FileName)
	})

	t.Run("reserved file_name field", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"file_name":"evil.mp4","animal":"cat"}`)

		_, err := Build(ctx, videoDir, metaDir)
		require.ErrorContains(t, err, "reserved field")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Build(ctx, t.TempDir(), t.TempDir())
		require.ErrorContains(t, err, "no video/metadata pairs")
	})

	t.Run("missing video dir", func(t *testing.T) {
		_, err := Build(ctx, filepath.Join(t.TempDir(), "nope"), t.TempDir())
		require.Error(t, err)
		require.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("records per shard out of range", func(t *testing.T) {
		_, err := Build(ctx, t.TempDir(), t.TempDir(), WithRecordsPerShard(0))
		require.ErrorContains(t, err, "records per shard")

		_, err = Build(ctx, t.TempDir(), t.TempDir(), WithRecordsPerShard(MaxRecordsPerShard+1))
		require.ErrorContains(t, err, "records per shard")
	})

	t.Run("max records caps the dataset", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"n":1}`)
		writePair(t, videoDir, metaDir, "b", `{"n":2}`)
		writePair(t, videoDir, metaDir, "c", `{"n":3}`)

		ds, err := Build(ctx, videoDir, metaDir, WithMaxRecords(2))
		require.NoError(t, err)
		require.Equal(t, 2, ds.Len())
		require.Equal(t, "a.mp4", ds.Records()[0].FileName)
		require.Equal(t, "b.mp4", ds.Records()[1].FileName)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"n":1}`)
		require.NoError(t, os.WriteFile(filepath.Join(videoDir, "notes.txt"), []byte("x"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(metaDir, "README.md"), []byte("x"), 0o600))

		ds, err := Build(ctx, videoDir, metaDir)
		require.NoError(t, err)
		require.Equal(t, 1, ds.Len())
	})

	t.Run("canceled context", func(t *testing.T) {
		videoDir, metaDir := t.TempDir(), t.TempDir()
		writePair(t, videoDir, metaDir, "a", `{"n":1}`)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Build(canceled, videoDir, metaDir)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestDatasetShards(t *testing.T) {
	ctx := context.Background()
	videoDir, metaDir := t.TempDir(), t.TempDir()
	for _, base := range []string{"a", "b", "c", "d", "e"} {
		writePair(t, videoDir, metaDir, base, `{"n":1}`)
	}

	ds, err := Build(ctx, videoDir, metaDir, WithRecordsPerShard(2))
	require.NoError(t, err)

	shards := ds.shards()
	require.Len(t, shards, 3)
	require.Len(t, shards[0], 2)
	require.Len(t, shards[1], 2)
	require.Len(t, shards[2], 1)
	require.Equal(t, "a.mp4", shards[0][0].FileName)
	require.Equal(t, "e.mp4", shards[2][0].FileName)
}
