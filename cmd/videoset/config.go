package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pelletier/go-toml/v2"

	"github.com/huggingface/videoset"
	"github.com/huggingface/videoset/blobstore"
	miniostore "github.com/huggingface/videoset/blobstore/minio"
	"github.com/huggingface/videoset/blobstore/s3"
	"github.com/huggingface/videoset/codec"
	"github.com/huggingface/videoset/compress"
)

// Config is the TOML configuration of the CLI.
type Config struct {
	// Store selects the backend: "local", "s3" or "minio".
	Store string `toml:"store"`

	Local  LocalConfig  `toml:"local"`
	S3     S3Config     `toml:"s3"`
	Minio  MinioConfig  `toml:"minio"`
	Upload UploadConfig `toml:"upload"`
}

// LocalConfig configures the directory-backed store.
type LocalConfig struct {
	Root string `toml:"root"`
}

// S3Config configures the S3 store. Credentials and region come from
// the standard AWS environment.
type S3Config struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
	// CommitTable is an optional DynamoDB table name. When set, dataset
	// pointer updates go through conditional writes so concurrent
	// publishers cannot clobber each other.
	CommitTable string `toml:"commit_table"`
}

// MinioConfig configures the MinIO store.
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// UploadConfig tunes publishing.
type UploadConfig struct {
	Concurrency     int    `toml:"concurrency"`
	RecordsPerShard int    `toml:"records_per_shard"`
	// RateLimit caps aggregate upload throughput, e.g. "10 MiB". Empty
	// means unlimited.
	RateLimit  string `toml:"rate_limit"`
	Codec      string `toml:"codec"`
	Compressor string `toml:"compressor"`
}

// loadConfig reads the config file. Without --config it tries
// videoset.toml in the working directory, then
// $HOME/.config/videoset/config.toml; a missing file falls back to the
// local store rooted in the working directory.
func loadConfig() (*Config, error) {
	cfg := &Config{Store: "local", Local: LocalConfig{Root: "."}}

	path := configPath
	if path == "" {
		for _, candidate := range defaultConfigPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

func defaultConfigPaths() []string {
	paths := []string{"videoset.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "videoset", "config.toml"))
	}
	return paths
}

// openStore builds the configured blob store backend.
func (c *Config) openStore(ctx context.Context) (blobstore.BlobStore, error) {
	switch c.Store {
	case "", "local":
		root := c.Local.Root
		if root == "" {
			root = "."
		}
		return blobstore.NewLocalStore(root), nil

	case "s3":
		if c.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 store requires a bucket")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		store := s3.NewStore(awss3.NewFromConfig(awsCfg), c.S3.Bucket, s3.WithPrefix(c.S3.Prefix))
		if c.S3.CommitTable != "" {
			return s3.NewCommitStore(store, dynamodb.NewFromConfig(awsCfg), c.S3.CommitTable), nil
		}
		return store, nil

	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return nil, fmt.Errorf("minio store requires an endpoint and a bucket")
		}
		client, err := minio.New(c.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
			Secure: c.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, c.Minio.Bucket, c.Minio.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q (expected local, s3 or minio)", c.Store)
	}
}

// buildOptions turns the upload section into library options.
func (c *Config) buildOptions() ([]videoset.Option, error) {
	opts := []videoset.Option{videoset.WithLogger(cliLogger())}

	if n := c.Upload.RecordsPerShard; n > 0 {
		opts = append(opts, videoset.WithRecordsPerShard(n))
	}
	if n := c.Upload.Concurrency; n > 0 {
		opts = append(opts, videoset.WithUploadConcurrency(n))
	}
	if s := c.Upload.RateLimit; s != "" {
		bytesPerSec, err := humanize.ParseBytes(s)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit %q: %w", s, err)
		}
		opts = append(opts, videoset.WithUploadRateLimit(float64(bytesPerSec)))
	}
	if name := c.Upload.Codec; name != "" {
		cd, ok := codec.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown codec %q", name)
		}
		opts = append(opts, videoset.WithCodec(cd))
	}
	if name := c.Upload.Compressor; name != "" {
		cmp, ok := compress.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown compressor %q", name)
		}
		opts = append(opts, videoset.WithCompressor(cmp))
	}
	return opts, nil
}
