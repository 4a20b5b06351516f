// Package manifest defines the published description of a dataset.
//
// A dataset prefix holds numbered MANIFEST-%06d.json files plus a CURRENT
// blob naming the live one. Readers resolve CURRENT first, so a publish
// becomes visible only when the pointer flips; how atomically that
// happens is the blob store's concern (rename locally, conditional
// DynamoDB write on S3).
//
// Manifests are always encoded with stdlib JSON: the manifest is what
// names the codec used for everything else, so it cannot depend on one.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/huggingface/videoset/blobstore"
	"github.com/huggingface/videoset/metadata"
)

const (
	// CurrentFileName is the pointer blob naming the live manifest.
	CurrentFileName = "CURRENT"
	// ManifestFileName is the base name of manifest blobs.
	ManifestFileName = "MANIFEST"
	// CurrentVersion is the manifest format version this code writes.
	CurrentVersion = 1
)

// Manifest describes one published state of a dataset.
type Manifest struct {
	// Version is the manifest format version.
	Version int `json:"version"`
	// ID increments with every publish of the dataset.
	ID uint64 `json:"id"`
	// CommitID uniquely identifies the publish run that wrote this
	// manifest.
	CommitID string `json:"commit_id"`
	// CreatedAt is the publish time in UTC.
	CreatedAt time.Time `json:"created_at"`

	// Schema is the uniform metadata schema of all records.
	Schema metadata.Schema `json:"schema"`
	// Codec is the stable name of the codec that encoded the metadata
	// shards ("json", "go-json").
	Codec string `json:"codec"`
	// Compressor is the stable name of the compressor applied to the
	// metadata shards ("none", "zstd", "lz4").
	Compressor string `json:"compressor"`

	// Shards lists the dataset's shards in record order.
	Shards []ShardInfo `json:"shards"`
	// RecordCount is the total number of records across all shards.
	RecordCount int `json:"record_count"`
	// TotalBytes is the uploaded size of the dataset (videos plus
	// metadata shards, manifest excluded).
	TotalBytes int64 `json:"total_bytes"`
}

// ShardInfo describes a single shard.
type ShardInfo struct {
	// Path is the shard directory relative to the dataset prefix
	// ("0000").
	Path string `json:"path"`
	// MetadataFile is the shard-relative name of the metadata shard
	// ("metadata.jsonl", "metadata.jsonl.zst").
	MetadataFile string `json:"metadata_file"`
	// RecordCount is the number of records in the shard.
	RecordCount int `json:"record_count"`
	// Bytes is the uploaded size of the shard (videos plus the metadata
	// shard).
	Bytes int64 `json:"bytes"`
}

// Store manages the manifests of one dataset prefix on a blob store.
type Store struct {
	store  blobstore.BlobStore
	prefix string
}

// NewStore creates a manifest store for the dataset at the given prefix.
func NewStore(store blobstore.BlobStore, prefix string) *Store {
	return &Store{
		store:  store,
		prefix: prefix,
	}
}

func (s *Store) name(file string) string {
	return path.Join(s.prefix, file)
}

// Load resolves CURRENT and loads the live manifest.
//
// A dataset without any committed manifest reports blobstore.ErrNotFound.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	pointer, err := blobstore.ReadAll(ctx, s.store, s.name(CurrentFileName))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", CurrentFileName, err)
	}

	data, err := blobstore.ReadAll(ctx, s.store, s.name(string(pointer)))
	if err != nil {
		return nil, fmt.Errorf("load manifest %q: %w", string(pointer), err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %q: %w", string(pointer), err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion)
	}
	return &m, nil
}

// Save writes the manifest as the next numbered file and flips CURRENT
// to it. The manifest's ID, Version, CommitID and CreatedAt are assigned
// here.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	m.Version = CurrentVersion
	m.ID++
	if m.CommitID == "" {
		m.CommitID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	filename := fmt.Sprintf("%s-%06d.json", ManifestFileName, m.ID)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, s.name(filename), data); err != nil {
		return fmt.Errorf("write manifest %q: %w", filename, err)
	}

	// Flip the pointer last; readers never observe a half-published
	// dataset.
	if err := s.store.Put(ctx, s.name(CurrentFileName), []byte(filename)); err != nil {
		return fmt.Errorf("update %s: %w", CurrentFileName, err)
	}
	return nil
}
