package metadata

import (
	"maps"
	"slices"
)

// Document is a mapping of metadata field names to values, as decoded
// from JSON. Values are the usual JSON shapes: string, bool, float64,
// integer kinds, []any and map[string]any.
type Document map[string]any

// Fields returns the document's field names in sorted order.
func (d Document) Fields() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// String returns the string value of a field, or "" if the field is
// absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Bool returns the bool value of a field, or false if the field is
// absent or not a bool.
func (d Document) Bool(field string) bool {
	b, _ := d[field].(bool)
	return b
}

// Float returns the numeric value of a field as a float64.
func (d Document) Float(field string) (float64, bool) {
	switch v := d[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns the integral value of a field. JSON numbers arrive as
// float64; only values without a fractional part qualify.
func (d Document) Int(field string) (int64, bool) {
	switch v := d[field].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}
