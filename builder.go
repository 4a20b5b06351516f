package videoset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huggingface/videoset/codec"
	"github.com/huggingface/videoset/metadata"
	"github.com/huggingface/videoset/model"
)

// videoExt is the video container extension the pairing convention
// expects alongside each <base>.json metadata file.
const videoExt = ".mp4"

// Build pairs the videos in videoDir with the metadata files in
// metadataDir and assembles them into a schema-uniform Dataset.
//
// Pairing is by base name: "clip.mp4" belongs to "clip.json". The
// pairing must be complete in both directions or Build fails with
// *ErrMissingAssociation. The schema is inferred from the first record
// (or pinned via WithSchema) and every record is validated against it;
// divergence fails with *ErrSchemaMismatch. Nothing is uploaded here.
func Build(ctx context.Context, videoDir, metadataDir string, opts ...Option) (*Dataset, error) {
	o := applyOptions(opts)
	if o.recordsPerShard < 1 || o.recordsPerShard > MaxRecordsPerShard {
		return nil, fmt.Errorf("records per shard must be in [1, %d], got %d", MaxRecordsPerShard, o.recordsPerShard)
	}

	videos, err := scanDir(videoDir, videoExt)
	if err != nil {
		return nil, fmt.Errorf("scan video dir: %w", err)
	}
	metas, err := scanDir(metadataDir, ".json")
	if err != nil {
		return nil, fmt.Errorf("scan metadata dir: %w", err)
	}

	if err := checkAssociations(videos, metas); err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no video/metadata pairs found in %s", videoDir)
	}

	// Deterministic dataset order: sorted base names.
	bases := make([]string, 0, len(videos))
	for base := range videos {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	if o.maxRecords > 0 && len(bases) > o.maxRecords {
		bases = bases[:o.maxRecords]
	}

	schema := o.schema
	inferred := schema == nil
	records := make([]model.Record, 0, len(bases))
	for _, base := range bases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := readMetadataFile(metas[base])
		if err != nil {
			return nil, err
		}
		if _, reserved := doc[fileNameField]; reserved {
			return nil, fmt.Errorf("metadata %q declares reserved field %q", metas[base], fileNameField)
		}

		if schema == nil {
			schema = metadata.Infer(doc)
		} else {
			if inferred {
				// An integral sample infers Int; a fractional value in
				// the same field widens it to Float instead of failing,
				// keeping the result independent of record order.
				schema.PromoteNumeric(doc)
			}
			if err := schema.Validate(doc); err != nil {
				return nil, &ErrSchemaMismatch{FileName: base + videoExt, cause: err}
			}
		}

		records = append(records, model.Record{
			FileName:   base + videoExt,
			Metadata:   doc,
			SourcePath: videos[base],
		})
	}

	o.logger.Info("dataset built",
		"records", len(records),
		"fields", len(schema),
		"shards", (len(records)+o.recordsPerShard-1)/o.recordsPerShard,
	)

	return &Dataset{records: records, schema: schema, opts: o}, nil
}

// scanDir maps base names to full paths for all files with the given
// extension directly under dir.
func scanDir(dir, ext string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		out[base] = filepath.Join(dir, name)
	}
	return out, nil
}

// checkAssociations verifies the pairing is complete in both directions.
func checkAssociations(videos, metas map[string]string) error {
	var noMeta, noVideo []string
	for base := range videos {
		if _, ok := metas[base]; !ok {
			noMeta = append(noMeta, base+videoExt)
		}
	}
	for base := range metas {
		if _, ok := videos[base]; !ok {
			noVideo = append(noVideo, base+".json")
		}
	}
	if len(noMeta) > 0 || len(noVideo) > 0 {
		sort.Strings(noMeta)
		sort.Strings(noVideo)
		return &ErrMissingAssociation{
			VideosWithoutMetadata: noMeta,
			MetadataWithoutVideo:  noVideo,
		}
	}
	return nil
}

// readMetadataFile decodes one metadata JSON file into a Document.
func readMetadataFile(path string) (metadata.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %q: %w", path, err)
	}

	var doc metadata.Document
	if err := codec.Default.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("metadata %q: %w", path, err)
	}
	return doc, nil
}
