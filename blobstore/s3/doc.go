// Package s3 implements blobstore.BlobStore on Amazon S3.
//
// Video blobs are streamed through the SDK's multipart uploader; small
// control blobs (manifests, CURRENT) go through single PutObject calls.
// Because S3 has no atomic rename, the optional CommitStore pairs the
// bucket with a DynamoDB table whose conditional writes make the CURRENT
// pointer flip atomic even with concurrent publishers.
package s3
