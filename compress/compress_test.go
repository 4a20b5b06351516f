package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"none", "zstd", "lz4"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		require.Equal(t, name, c.Name())
	}

	_, ok := ByName("brotli")
	require.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":          nil,
		"small":          []byte(`{"file_name":"a.mp4","label":"cat"}`),
		"repetitive":     bytes.Repeat([]byte(`{"file_name":"a.mp4","label":"cat"}`+"\n"), 500),
		"incompressible": {0x7f, 0x3a, 0x91, 0x04, 0xde, 0xad, 0xbe, 0xef, 0x01, 0x23},
	}

	for _, c := range []Compressor{None{}, Zstd{}, LZ4{}} {
		for name, in := range inputs {
			t.Run(c.Name()+"/"+name, func(t *testing.T) {
				packed, err := c.Compress(in)
				require.NoError(t, err)

				out, err := c.Decompress(packed)
				require.NoError(t, err)
				require.Equal(t, len(in), len(out))
				require.True(t, bytes.Equal(in, out))
			})
		}
	}
}

func TestCompressionShrinksRepetitiveInput(t *testing.T) {
	in := bytes.Repeat([]byte(`{"file_name":"a.mp4","label":"cat"}`+"\n"), 1000)

	for _, c := range []Compressor{Zstd{}, LZ4{}} {
		packed, err := c.Compress(in)
		require.NoError(t, err)
		require.Less(t, len(packed), len(in), c.Name())
	}
}

func TestLZ4TruncatedInput(t *testing.T) {
	_, err := LZ4{}.Decompress([]byte{1, 2, 3})
	require.Error(t, err)
}
