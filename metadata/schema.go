package metadata

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FieldType defines the data type of a metadata field.
type FieldType uint8

const (
	FieldTypeAny FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeString
	FieldTypeBool
	FieldTypeArray
	FieldTypeObject
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeAny:
		return "Any"
	case FieldTypeInt:
		return "Int"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeString:
		return "String"
	case FieldTypeBool:
		return "Bool"
	case FieldTypeArray:
		return "Array"
	case FieldTypeObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the FieldType as its stable name. The names are
// part of the manifest format.
func (t FieldType) MarshalText() ([]byte, error) {
	if t > FieldTypeObject {
		return nil, fmt.Errorf("unknown field type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a FieldType from its stable name.
func (t *FieldType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Any":
		*t = FieldTypeAny
	case "Int":
		*t = FieldTypeInt
	case "Float":
		*t = FieldTypeFloat
	case "String":
		*t = FieldTypeString
	case "Bool":
		*t = FieldTypeBool
	case "Array":
		*t = FieldTypeArray
	case "Object":
		*t = FieldTypeObject
	default:
		return fmt.Errorf("unknown field type %q", text)
	}
	return nil
}

// Schema defines the uniform structure shared by all records of a
// dataset: the complete field set and the type of each field.
type Schema map[string]FieldType

// Infer derives a Schema from a sample document. Null fields map to
// FieldTypeAny so later documents may carry any type there.
func Infer(doc Document) Schema {
	s := make(Schema, len(doc))
	for k, v := range doc {
		s[k] = typeOf(v)
	}
	return s
}

func typeOf(v any) FieldType {
	switch val := v.(type) {
	case nil:
		return FieldTypeAny
	case bool:
		return FieldTypeBool
	case string:
		return FieldTypeString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return FieldTypeInt
	case float64:
		// JSON unmarshals every number as float64. Keep integral values
		// as Int so metadata written as {"count": 3} stays an Int.
		if val == float64(int64(val)) {
			return FieldTypeInt
		}
		return FieldTypeFloat
	case float32:
		return FieldTypeFloat
	case []any, []string, []int, []float64, []bool:
		return FieldTypeArray
	case map[string]any:
		return FieldTypeObject
	default:
		return FieldTypeAny
	}
}

// PromoteNumeric widens Int fields to Float where the document carries a
// fractional value. JSON has a single number type, so a schema inferred
// from an integral sample must accept fractional values in the same
// field no matter which record came first.
func (s Schema) PromoteNumeric(doc Document) {
	for k, v := range doc {
		if s[k] != FieldTypeInt {
			continue
		}
		if f, ok := v.(float64); ok && f != float64(int64(f)) {
			s[k] = FieldTypeFloat
		}
	}
}

// Fields returns the schema's field names in sorted order.
func (s Schema) Fields() []string {
	return slices.Sorted(maps.Keys(s))
}

// Equal reports whether two schemas declare the same field set with the
// same types.
func (s Schema) Equal(other Schema) bool {
	return maps.Equal(s, other)
}

// Validate checks that the document carries exactly the schema's field
// set and that every value is compatible with its declared type. A nil
// schema accepts anything.
func (s Schema) Validate(doc Document) error {
	if s == nil {
		return nil
	}
	for k, v := range doc {
		expected, ok := s[k]
		if !ok {
			return fmt.Errorf("unexpected field %q (schema fields: %s)", k, strings.Join(s.Fields(), ", "))
		}
		if !checkType(v, expected) {
			return fmt.Errorf("field %q has invalid type %T, expected %s", k, v, expected)
		}
	}
	for k := range s {
		if _, ok := doc[k]; !ok {
			return fmt.Errorf("missing field %q", k)
		}
	}
	return nil
}

func checkType(v any, expected FieldType) bool {
	if v == nil {
		return true // fields are nullable
	}

	switch expected {
	case FieldTypeAny:
		return true
	case FieldTypeInt:
		switch val := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			// JSON unmarshals numbers as float64. Check if it's an integer.
			return val == float64(int64(val))
		}
	case FieldTypeFloat:
		switch v.(type) {
		case float32, float64:
			return true
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true // allow upgrading Int to Float
		}
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	case FieldTypeBool:
		_, ok := v.(bool)
		return ok
	case FieldTypeArray:
		switch v.(type) {
		case []any, []string, []int, []float64, []bool:
			return true
		}
	case FieldTypeObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}
