package videoset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/huggingface/videoset/blobstore"
	"github.com/huggingface/videoset/manifest"
	"github.com/huggingface/videoset/model"
)

// Publish uploads the dataset to the store under the handle and commits
// its manifest.
//
// All shard content (videos streamed from disk, encoded metadata shards)
// is uploaded first; the manifest and CURRENT pointer are written only
// after every upload succeeded, so readers never observe a
// half-published dataset. Any upload failure aborts the run and is
// returned; already-uploaded blobs are left for the next publish attempt
// to overwrite.
//
// Publishing the same handle again replaces the dataset: the new
// manifest gets the next ID and CURRENT flips to it.
func Publish(ctx context.Context, store blobstore.BlobStore, handle model.Handle, ds *Dataset, opts ...Option) (*manifest.Manifest, error) {
	if handle.IsZero() {
		return nil, fmt.Errorf("publish: empty dataset handle")
	}
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("publish %s: dataset is empty", handle)
	}

	o := ds.opts
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.WithHandle(handle)

	var limiter *rate.Limiter
	if o.uploadBytesPerSec > 0 {
		burst := max(int(o.uploadBytesPerSec), 64*1024)
		limiter = rate.NewLimiter(rate.Limit(o.uploadBytesPerSec), burst)
	}

	shards := ds.shards()
	infos := make([]manifest.ShardInfo, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.uploadConcurrency)

	for i, recs := range shards {
		g.Go(func() error {
			shardPath := model.ShardID(i).ShardDir()
			info, err := uploadShard(gctx, store, handle, shardPath, recs, o, limiter)
			if err != nil {
				return fmt.Errorf("shard %s: %w", shardPath, err)
			}
			infos[i] = info
			log.WithShard(shardPath).Info("shard uploaded", "records", info.RecordCount, "bytes", info.Bytes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("publish %s: %w", handle, err)
	}

	ms := manifest.NewStore(store, handle.Prefix())

	var totalBytes int64
	for _, info := range infos {
		totalBytes += info.Bytes
	}

	m := &manifest.Manifest{
		Schema:      ds.schema,
		Codec:       o.codec.Name(),
		Compressor:  o.compressor.Name(),
		Shards:      infos,
		RecordCount: ds.Len(),
		TotalBytes:  totalBytes,
	}

	// Continue the dataset's ID sequence when republishing.
	if prev, err := ms.Load(ctx); err == nil {
		m.ID = prev.ID
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("publish %s: load previous manifest: %w", handle, err)
	}

	if err := ms.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("publish %s: commit manifest: %w", handle, err)
	}

	log.Info("dataset published",
		"records", m.RecordCount,
		"shards", len(m.Shards),
		"bytes", m.TotalBytes,
		"commit", m.CommitID,
	)
	return m, nil
}

// uploadShard uploads one shard's videos and its metadata blob.
func uploadShard(
	ctx context.Context,
	store blobstore.BlobStore,
	handle model.Handle,
	shardPath string,
	recs []model.Record,
	o options,
	limiter *rate.Limiter,
) (manifest.ShardInfo, error) {
	var shardBytes int64
	for _, rec := range recs {
		name := path.Join(handle.Prefix(), shardPath, rec.FileName)
		n, err := uploadVideo(ctx, store, name, rec.SourcePath, limiter)
		if err != nil {
			return manifest.ShardInfo{}, err
		}
		shardBytes += n
	}

	data, metaName, err := encodeShardMetadata(recs, o.codec, o.compressor)
	if err != nil {
		return manifest.ShardInfo{}, err
	}
	if err := store.Put(ctx, path.Join(handle.Prefix(), shardPath, metaName), data); err != nil {
		return manifest.ShardInfo{}, fmt.Errorf("upload %s: %w", metaName, err)
	}
	shardBytes += int64(len(data))

	return manifest.ShardInfo{
		Path:         shardPath,
		MetadataFile: metaName,
		RecordCount:  len(recs),
		Bytes:        shardBytes,
	}, nil
}

// uploadVideo streams one local video into the store and reports the
// bytes written.
func uploadVideo(ctx context.Context, store blobstore.BlobStore, name, sourcePath string, limiter *rate.Limiter) (int64, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("open video %q: %w", sourcePath, err)
	}
	defer src.Close()

	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create blob %q: %w", name, err)
	}

	var dst io.Writer = w
	if limiter != nil {
		dst = &limitedWriter{ctx: ctx, w: w, limiter: limiter}
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		w.Close()
		return n, fmt.Errorf("upload video %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("finalize blob %q: %w", name, err)
	}
	return n, nil
}

// limitedWriter throttles writes against a shared byte-rate limiter.
type limitedWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		chunk := p
		if burst := lw.limiter.Burst(); len(chunk) > burst {
			chunk = chunk[:burst]
		}
		if err := lw.limiter.WaitN(lw.ctx, len(chunk)); err != nil {
			return written, err
		}
		n, err := lw.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, blobstore.ErrNotFound)
}
