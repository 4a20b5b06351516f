// Package blobstore abstracts the object store a dataset is published to
// and read from.
//
// A published dataset is a set of immutable blobs (videos, metadata
// shards, manifests) under a handle-derived prefix. Stores differ only in
// where those blobs live: local filesystem, process memory (tests), S3 or
// any S3-compatible endpoint via MinIO.
//
// Blob names always use forward slashes; stores translate to their native
// separator where needed.
package blobstore
