// Package metadata provides the metadata document model and schema
// validation for video datasets.
//
// A Document is the decoded form of one metadata.jsonl line (minus the
// file_name column). A Schema pins the field set and field types all
// documents of a dataset must share.
package metadata
