// Package codec centralizes metadata encoding for dataset artifacts.
//
// Codec selection is a compatibility boundary: the manifest of a published
// dataset records the codec name, and readers select the codec by that
// name. Changing a codec's wire format breaks previously published
// datasets.
package codec

import "fmt"

// Codec encodes/decodes metadata documents and manifest sections.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Readers use this to pick the codec named in a dataset's manifest.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
//
// Published datasets are self-describing: the manifest stores the codec
// name, so changing the default never breaks existing datasets.
var Default Codec = GoJSON{}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
