package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		require.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	require.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	in := map[string]any{"label": "cat", "frames": float64(120)}

	stdlib := MustMarshal(JSON{}, in)
	goccy := MustMarshal(GoJSON{}, in)
	require.JSONEq(t, string(stdlib), string(goccy))

	var out map[string]any
	require.NoError(t, GoJSON{}.Unmarshal(stdlib, &out))
	require.Equal(t, in, out)
}
