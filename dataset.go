package videoset

import (
	"bytes"
	"fmt"

	"github.com/huggingface/videoset/codec"
	"github.com/huggingface/videoset/compress"
	"github.com/huggingface/videoset/metadata"
	"github.com/huggingface/videoset/model"
)

// fileNameField is the reserved metadata.jsonl column holding the video
// file name. User metadata must not declare it.
const fileNameField = "file_name"

// metadataBaseName is the metadata shard file name before the
// compressor's extension is appended.
const metadataBaseName = "metadata.jsonl"

// Dataset is an immutable, schema-uniform collection of records built
// from local videos and metadata, ready to publish.
type Dataset struct {
	records []model.Record
	schema  metadata.Schema
	opts    options
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Schema returns the uniform metadata schema of all records.
func (d *Dataset) Schema() metadata.Schema {
	return d.schema
}

// Records returns the records in dataset order. The slice is shared;
// callers must not mutate it.
func (d *Dataset) Records() []model.Record {
	return d.records
}

// shards splits the records into shard-sized groups, preserving order.
func (d *Dataset) shards() [][]model.Record {
	size := d.opts.recordsPerShard
	var out [][]model.Record
	for start := 0; start < len(d.records); start += size {
		end := min(start+size, len(d.records))
		out = append(out, d.records[start:end])
	}
	return out
}

// encodeShardMetadata renders one shard's metadata.jsonl: one object per
// record with file_name leading, encoded with the dataset codec and then
// compressed. Returns the blob content and its file name.
func encodeShardMetadata(recs []model.Record, c codec.Codec, comp compress.Compressor) ([]byte, string, error) {
	var buf bytes.Buffer
	for _, rec := range recs {
		line, err := encodeRecordLine(rec, c)
		if err != nil {
			return nil, "", err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	packed, err := comp.Compress(buf.Bytes())
	if err != nil {
		return nil, "", fmt.Errorf("compress metadata shard: %w", err)
	}
	return packed, metadataBaseName + comp.Ext(), nil
}

// encodeRecordLine encodes one record as a JSON object whose first field
// is file_name, per the folder convention. Field order is cosmetic for
// JSON but keeps published shards greppable by eye.
func encodeRecordLine(rec model.Record, c codec.Codec) ([]byte, error) {
	name, err := c.Marshal(rec.FileName)
	if err != nil {
		return nil, err
	}
	rest, err := c.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata for %q: %w", rec.FileName, err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + fileNameField + `":`)
	buf.Write(name)
	if !bytes.Equal(rest, []byte("{}")) && !bytes.Equal(rest, []byte("null")) {
		buf.WriteByte(',')
		buf.Write(rest[1 : len(rest)-1])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeShardMetadata parses a metadata shard back into records,
// validating each against the dataset schema.
func decodeShardMetadata(data []byte, c codec.Codec, comp compress.Compressor, schema metadata.Schema) ([]model.Record, error) {
	raw, err := comp.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress metadata shard: %w", err)
	}

	var recs []model.Record
	for i, line := range bytes.Split(raw, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var doc metadata.Document
		if err := c.Unmarshal(line, &doc); err != nil {
			return nil, fmt.Errorf("decode metadata line %d: %w", i+1, err)
		}

		name, ok := doc[fileNameField].(string)
		if !ok || name == "" {
			return nil, &ErrSchemaMismatch{
				FileName: fmt.Sprintf("line %d", i+1),
				cause:    fmt.Errorf("missing %s field", fileNameField),
			}
		}
		delete(doc, fileNameField)

		if err := schema.Validate(doc); err != nil {
			return nil, &ErrSchemaMismatch{FileName: name, cause: err}
		}

		recs = append(recs, model.Record{FileName: name, Metadata: doc})
	}
	return recs, nil
}
