package videoset

import (
	"fmt"
	"strings"

	"github.com/huggingface/videoset/blobstore"
)

// ErrNotFound is returned when a dataset handle or blob does not exist.
// It aliases the blobstore sentinel so store errors satisfy it directly.
var ErrNotFound = blobstore.ErrNotFound

// ErrAccessDenied is returned when the remote store rejects the caller's
// credentials.
var ErrAccessDenied = blobstore.ErrAccessDenied

// ErrMissingAssociation indicates an incomplete video/metadata pairing:
// at least one video has no metadata entry, or vice versa. Nothing is
// published when it is returned.
type ErrMissingAssociation struct {
	// VideosWithoutMetadata lists video base names lacking a metadata
	// file.
	VideosWithoutMetadata []string
	// MetadataWithoutVideo lists metadata base names lacking a video
	// file.
	MetadataWithoutVideo []string
}

func (e *ErrMissingAssociation) Error() string {
	var parts []string
	if len(e.VideosWithoutMetadata) > 0 {
		parts = append(parts, fmt.Sprintf("videos without metadata: %s", strings.Join(e.VideosWithoutMetadata, ", ")))
	}
	if len(e.MetadataWithoutVideo) > 0 {
		parts = append(parts, fmt.Sprintf("metadata without video: %s", strings.Join(e.MetadataWithoutVideo, ", ")))
	}
	return "missing association: " + strings.Join(parts, "; ")
}

// ErrSchemaMismatch indicates a record whose metadata deviates from the
// dataset schema.
//
// The underlying field-level error can be accessed via errors.Unwrap.
type ErrSchemaMismatch struct {
	// FileName is the video file name of the offending record.
	FileName string
	cause    error
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("schema mismatch in record %q: %v", e.FileName, e.cause)
}

func (e *ErrSchemaMismatch) Unwrap() error { return e.cause }
