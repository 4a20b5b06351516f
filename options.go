package videoset

import (
	"github.com/huggingface/videoset/codec"
	"github.com/huggingface/videoset/compress"
	"github.com/huggingface/videoset/metadata"
)

const (
	// DefaultRecordsPerShard matches the folder convention's default.
	DefaultRecordsPerShard = 9500
	// MaxRecordsPerShard is the hard cap of the folder convention.
	MaxRecordsPerShard = 10000
	// DefaultUploadConcurrency bounds parallel shard uploads.
	DefaultUploadConcurrency = 4
)

type options struct {
	recordsPerShard   int
	maxRecords        int
	schema            metadata.Schema
	codec             codec.Codec
	compressor        compress.Compressor
	logger            *Logger
	uploadConcurrency int
	uploadBytesPerSec float64
}

func defaultOptions() options {
	return options{
		recordsPerShard:   DefaultRecordsPerShard,
		codec:             codec.Default,
		compressor:        compress.Default,
		logger:            NoopLogger(),
		uploadConcurrency: DefaultUploadConcurrency,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures Build, Publish and Open behavior.
type Option func(*options)

// WithRecordsPerShard sets the number of records per shard folder.
// Values must be in [1, MaxRecordsPerShard]; Build rejects anything else.
func WithRecordsPerShard(n int) Option {
	return func(o *options) {
		o.recordsPerShard = n
	}
}

// WithMaxRecords caps the total number of records Build takes from the
// input directories. Zero means no cap.
func WithMaxRecords(n int) Option {
	return func(o *options) {
		o.maxRecords = n
	}
}

// WithSchema pins the metadata schema instead of inferring it from the
// first record. Every record is validated against it.
func WithSchema(s metadata.Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithCodec configures the codec used for metadata shards.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompressor configures the compressor applied to metadata shards.
//
// If nil is passed, compress.Default is used.
func WithCompressor(c compress.Compressor) Option {
	return func(o *options) {
		if c == nil {
			c = compress.Default
		}
		o.compressor = c
	}
}

// WithLogger injects a logger. The default discards everything.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithUploadConcurrency bounds the number of shards uploaded in
// parallel. Values below 1 fall back to serial upload.
func WithUploadConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.uploadConcurrency = n
	}
}

// WithUploadRateLimit throttles the aggregate upload throughput in bytes
// per second. Zero means unlimited.
func WithUploadRateLimit(bytesPerSec float64) Option {
	return func(o *options) {
		o.uploadBytesPerSec = bytesPerSec
	}
}
