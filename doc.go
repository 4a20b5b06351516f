// Package videoset builds, publishes and reads video datasets.
//
// A dataset pairs local video files with per-video JSON metadata,
// validates that the pairing is complete and the metadata schema uniform,
// and publishes the result to a blob store as an immutable, sharded
// layout:
//
//	<namespace>/<name>/
//	    CURRENT                  -> "MANIFEST-000001.json"
//	    MANIFEST-000001.json
//	    0000/
//	        metadata.jsonl       one JSON object per record, file_name first
//	        clip-a.mp4
//	        clip-b.mp4
//	    0001/
//	        ...
//
// # Quick Start
//
// Publish:
//
//	ds, _ := videoset.Build(ctx, "./videos", "./metadata")
//	handle, _ := model.ParseHandle("team/traffic-cams")
//	_, _ = videoset.Publish(ctx, store, handle, ds)
//
// Read back:
//
//	remote, _ := videoset.Open(ctx, store, handle)
//	for it := remote.Records(ctx); it.Next(); {
//	    rec := it.Record()
//	    video, _ := rec.Bytes(ctx)
//	    _ = rec.Metadata.String("label")
//	}
//	// it.Err() reports decode/schema failures
//
// The store may be a local directory, S3, MinIO or an in-memory store;
// see the blobstore package. Publish and Open are inverses: reading a
// published dataset yields the records that built it, in stable order.
package videoset
