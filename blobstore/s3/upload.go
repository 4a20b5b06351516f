package s3

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadConfig tunes the multipart uploader used for video blobs.
type UploadConfig struct {
	// PartSize is the multipart part size in bytes.
	// Default: 8MB (larger than the SDK default of 5MB; video blobs are
	// big and fewer parts means fewer round trips).
	PartSize int64

	// Concurrency is the number of concurrent part uploads per blob.
	// Default: 5 (matches the SDK default).
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation on uploads.
	// Default: true.
	EnableChecksum bool
}

// DefaultUploadConfig returns the production upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})
}

// streamingBlob implements blobstore.WritableBlob by piping writes into a
// background multipart upload. The upload commits on Close; a Close after
// a failed upload surfaces the upload error.
type streamingBlob struct {
	pw   *io.PipeWriter
	done chan error

	closed   atomic.Bool
	closeErr error
	closeMu  sync.Mutex
}

func newStreamingBlob(ctx context.Context, client Client, bucket, key string, cfg UploadConfig) *streamingBlob {
	pr, pw := io.Pipe()
	blob := &streamingBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	uploader := newUploader(client, cfg)

	go func() {
		input := &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		}
		if cfg.EnableChecksum {
			input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
		}

		_, err := uploader.Upload(ctx, input)
		err = translateError(err)

		// Close the read end so a writer blocked in Write unblocks.
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob
}

func (b *streamingBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

func (b *streamingBlob) Close() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()

	if !b.closed.CompareAndSwap(false, true) {
		return b.closeErr
	}

	if err := b.pw.Close(); err != nil {
		b.closeErr = err
		return err
	}
	b.closeErr = <-b.done
	return b.closeErr
}

// Sync is a no-op: S3 only commits data on Close.
func (b *streamingBlob) Sync() error {
	return nil
}

// putObject uploads a small blob with a single PutObject call.
func putObject(ctx context.Context, client Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}
