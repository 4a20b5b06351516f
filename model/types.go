package model

import (
	"fmt"
	"strings"

	"github.com/huggingface/videoset/metadata"
)

// ShardID is the zero-based index of a shard within a dataset.
type ShardID uint32

// ShardDir returns the directory name of the shard ("0000", "0001", ...).
// The four-digit form is part of the on-wire layout and must not change.
func (id ShardID) ShardDir() string {
	return fmt.Sprintf("%04d", uint32(id))
}

// Record is one logical unit of a dataset: a video reference plus its
// metadata fields.
type Record struct {
	// FileName is the shard-relative name of the video ("clip.mp4").
	FileName string

	// Metadata holds the record's fields. All records of a dataset share
	// the same field set.
	Metadata metadata.Document

	// SourcePath is the local path the video is read from at publish time.
	// It is empty for records materialized by a reader.
	SourcePath string
}

// Handle identifies a published dataset on the remote store as
// "namespace/name". It is created by Publish and consumed by Open.
type Handle struct {
	Namespace string
	Name      string
}

// ParseHandle parses "namespace/name" into a Handle.
func ParseHandle(s string) (Handle, error) {
	ns, name, ok := strings.Cut(s, "/")
	if !ok || ns == "" || name == "" || strings.Contains(name, "/") {
		return Handle{}, fmt.Errorf("invalid dataset handle %q: expected namespace/name", s)
	}
	return Handle{Namespace: ns, Name: name}, nil
}

// Prefix returns the blob name prefix all of the dataset's objects live
// under.
func (h Handle) Prefix() string {
	return h.Namespace + "/" + h.Name
}

// String returns the canonical "namespace/name" form.
func (h Handle) String() string {
	return h.Prefix()
}

// IsZero reports whether the handle is unset.
func (h Handle) IsZero() bool {
	return h.Namespace == "" && h.Name == ""
}
