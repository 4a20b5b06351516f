package videoset

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/huggingface/videoset/blobstore"
	"github.com/huggingface/videoset/codec"
	"github.com/huggingface/videoset/compress"
	"github.com/huggingface/videoset/manifest"
	"github.com/huggingface/videoset/metadata"
	"github.com/huggingface/videoset/model"
)

// RemoteDataset is a read-only view of a published dataset. It holds the
// resolved manifest; record metadata and video bytes are fetched lazily.
type RemoteDataset struct {
	store    blobstore.BlobStore
	handle   model.Handle
	manifest *manifest.Manifest
	codec    codec.Codec
	comp     compress.Compressor
	logger   *Logger
}

// Open fetches the dataset published under the handle.
//
// An unknown handle fails with ErrNotFound; a store that rejects the
// caller's credentials fails with ErrAccessDenied. Both satisfy
// errors.Is against the package sentinels.
func Open(ctx context.Context, store blobstore.BlobStore, handle model.Handle, opts ...Option) (*RemoteDataset, error) {
	if handle.IsZero() {
		return nil, fmt.Errorf("open: empty dataset handle")
	}
	o := applyOptions(opts)

	m, err := manifest.NewStore(store, handle.Prefix()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", handle, err)
	}

	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, fmt.Errorf("open %s: unknown codec %q in manifest", handle, m.Codec)
	}
	comp, ok := compress.ByName(m.Compressor)
	if !ok {
		return nil, fmt.Errorf("open %s: unknown compressor %q in manifest", handle, m.Compressor)
	}

	o.logger.WithHandle(handle).Debug("dataset opened",
		"records", m.RecordCount,
		"shards", len(m.Shards),
		"commit", m.CommitID,
	)

	return &RemoteDataset{
		store:    store,
		handle:   handle,
		manifest: m,
		codec:    c,
		comp:     comp,
		logger:   o.logger,
	}, nil
}

// Handle returns the dataset's handle.
func (d *RemoteDataset) Handle() model.Handle {
	return d.handle
}

// Len returns the total record count from the manifest.
func (d *RemoteDataset) Len() int {
	return d.manifest.RecordCount
}

// Schema returns the dataset's metadata schema from the manifest.
func (d *RemoteDataset) Schema() metadata.Schema {
	return d.manifest.Schema
}

// Manifest returns the resolved manifest.
func (d *RemoteDataset) Manifest() *manifest.Manifest {
	return d.manifest
}

// Records returns an iterator over the dataset's records in publication
// order. Each call returns a fresh iterator starting at the first
// record, so one dataset can be scanned any number of times.
func (d *RemoteDataset) Records(ctx context.Context) *Iterator {
	return &Iterator{ctx: ctx, dataset: d}
}

// Iterator is a lazy cursor over a dataset's records. Shard metadata is
// fetched and decoded one shard at a time.
//
//	for it := remote.Records(ctx); it.Next(); {
//	    rec := it.Record()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	ctx     context.Context
	dataset *RemoteDataset

	shardIdx int
	buf      []model.Record
	bufPos   int
	shard    string // shard path of the buffered records
	cur      Record
	err      error
	done     bool
}

// Next advances to the next record. It returns false at the end of the
// dataset or on the first error; Err distinguishes the two.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	for it.bufPos >= len(it.buf) {
		if it.shardIdx >= len(it.dataset.manifest.Shards) {
			it.done = true
			return false
		}
		if err := it.loadShard(it.dataset.manifest.Shards[it.shardIdx]); err != nil {
			it.err = err
			return false
		}
		it.shardIdx++
	}

	rec := it.buf[it.bufPos]
	it.bufPos++
	it.cur = Record{
		FileName: rec.FileName,
		Metadata: rec.Metadata,
		dataset:  it.dataset,
		shard:    it.shard,
	}
	return true
}

// Record returns the current record. Valid only after a true Next.
func (it *Iterator) Record() Record {
	return it.cur
}

// Err returns the first error the iterator hit, if any.
func (it *Iterator) Err() error {
	return it.err
}

// loadShard fetches and decodes one shard's metadata blob.
func (it *Iterator) loadShard(info manifest.ShardInfo) error {
	d := it.dataset
	name := path.Join(d.handle.Prefix(), info.Path, info.MetadataFile)

	data, err := blobstore.ReadAll(it.ctx, d.store, name)
	if err != nil {
		return fmt.Errorf("fetch shard %s: %w", info.Path, err)
	}

	recs, err := decodeShardMetadata(data, d.codec, d.comp, d.manifest.Schema)
	if err != nil {
		return fmt.Errorf("shard %s: %w", info.Path, err)
	}
	if len(recs) != info.RecordCount {
		return fmt.Errorf("shard %s: manifest says %d records, metadata has %d",
			info.Path, info.RecordCount, len(recs))
	}

	it.buf = recs
	it.bufPos = 0
	it.shard = info.Path
	return nil
}

// Record is one record of a remote dataset. Metadata is already
// materialized; video content loads on demand.
type Record struct {
	// FileName is the shard-relative video file name.
	FileName string
	// Metadata holds the record's fields.
	Metadata metadata.Document

	dataset *RemoteDataset
	shard   string
}

// blobName returns the store-level name of the record's video.
func (r Record) blobName() string {
	return path.Join(r.dataset.handle.Prefix(), r.shard, r.FileName)
}

// Open returns a streaming reader over the video content.
func (r Record) Open(ctx context.Context) (io.ReadCloser, error) {
	blob, err := r.dataset.store.Open(ctx, r.blobName())
	if err != nil {
		return nil, fmt.Errorf("open video %q: %w", r.FileName, err)
	}
	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		blob.Close()
		return nil, fmt.Errorf("read video %q: %w", r.FileName, err)
	}
	return &blobReadCloser{rc: rc, blob: blob}, nil
}

// Bytes loads the full video content into memory.
func (r Record) Bytes(ctx context.Context) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, r.dataset.store, r.blobName())
	if err != nil {
		return nil, fmt.Errorf("read video %q: %w", r.FileName, err)
	}
	return data, nil
}

// blobReadCloser closes the underlying blob together with its range
// reader.
type blobReadCloser struct {
	rc   io.ReadCloser
	blob blobstore.Blob
}

func (b *blobReadCloser) Read(p []byte) (int, error) {
	return b.rc.Read(p)
}

func (b *blobReadCloser) Close() error {
	err := b.rc.Close()
	if cerr := b.blob.Close(); err == nil {
		err = cerr
	}
	return err
}
