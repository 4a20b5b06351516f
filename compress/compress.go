// Package compress provides the compressors applied to metadata shards.
//
// Like codecs, compressor selection is recorded by name in the dataset
// manifest so readers can decompress shards written by any configuration.
// Videos are never compressed; they are already encoded media.
package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor compresses and decompresses whole metadata shards.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Name is the stable identifier stored in the manifest.
	Name() string
	// Ext is appended to shard file names ("" or ".zst"/".lz4").
	Ext() string
}

// ByName returns a built-in compressor by its stable name.
func ByName(name string) (Compressor, bool) {
	switch name {
	case "none":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Default is the compressor used when none is configured. Metadata shards
// are plain text by default so the published layout stays inspectable
// with standard tooling.
var Default Compressor = None{}

// None stores shards uncompressed.
type None struct{}

func (None) Compress(data []byte) ([]byte, error)   { return data, nil }
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }
func (None) Name() string                           { return "none" }
func (None) Ext() string                            { return "" }

// Zstd compresses shards with zstd at the default level. Good ratio for
// large metadata shards at acceptable speed.
type Zstd struct{}

var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
)

func (Zstd) Compress(data []byte) ([]byte, error) {
	zstdEncOnce.Do(func() {
		zstdEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	if zstdEnc == nil {
		return nil, fmt.Errorf("zstd encoder unavailable")
	}
	return zstdEnc.EncodeAll(data, nil), nil
}

func (Zstd) Decompress(data []byte) ([]byte, error) {
	zstdDecOnce.Do(func() {
		zstdDec, _ = zstd.NewReader(nil)
	})
	if zstdDec == nil {
		return nil, fmt.Errorf("zstd decoder unavailable")
	}
	return zstdDec.DecodeAll(data, nil)
}

func (Zstd) Name() string { return "zstd" }
func (Zstd) Ext() string  { return ".zst" }

// LZ4 compresses shards with LZ4 block compression. Faster than zstd,
// weaker ratio.
type LZ4 struct{}

func (LZ4) Compress(data []byte) ([]byte, error) {
	// Self-framing: the uncompressed size is needed for decompression,
	// so prepend it as a fixed-width header.
	buf := make([]byte, 8+lz4.CompressBlockBound(len(data)))
	putUint64(buf, uint64(len(data)))

	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf[8:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 {
		// Incompressible input is stored raw, signalled by size 0.
		out := make([]byte, 8+len(data))
		copy(out[8:], data)
		return out, nil
	}
	return buf[:8+n], nil
}

func (LZ4) Decompress(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("lz4 decompress: truncated header")
	}
	size := getUint64(data)
	if size == 0 {
		out := make([]byte, len(data)-8)
		copy(out, data[8:])
		return out, nil
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[8:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out[:n], nil
}

func (LZ4) Name() string { return "lz4" }
func (LZ4) Ext() string  { return ".lz4" }

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
