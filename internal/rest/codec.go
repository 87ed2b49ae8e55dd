package rest

import (
	"encoding/json"

	"github.com/petrijr/drip/pkg/api"
)

// Document is a parsed JSON response body. The API is not locally
// schema-validated, so every field read tolerates a missing or wrong-typed
// value by returning a caller-supplied default.
type Document map[string]any

// Str returns the string at key, or def when the field is missing or not a
// string.
func (d Document) Str(key, def string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return def
}

// Int returns the number at key truncated to int, or def when the field is
// missing or not a number.
func (d Document) Int(key string, def int) int {
	if v, ok := d[key].(float64); ok {
		return int(v)
	}
	return def
}

// Float returns the number at key, or def when the field is missing or not
// a number.
func (d Document) Float(key string, def float64) float64 {
	if v, ok := d[key].(float64); ok {
		return v
	}
	return def
}

// Bool returns the boolean at key, or def when the field is missing or not
// a boolean.
func (d Document) Bool(key string, def bool) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return def
}

// Array returns the object elements of the JSON array at key. Missing keys,
// non-arrays, and non-object elements yield no entries.
func (d Document) Array(key string) []Document {
	raw, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Document, 0, len(raw))
	for _, el := range raw {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, Document(obj))
		}
	}
	return out
}

// Metadata returns the metadata object at key decoded into an api.Metadata.
//
// String values are copied verbatim. Non-string values are stored as their
// JSON serialization, so round-tripping a non-string value yields a string;
// this lossy conversion is part of the contract, not an error.
func (d Document) Metadata(key string) api.Metadata {
	obj, ok := d[key].(map[string]any)
	if !ok {
		return nil
	}
	m := make(api.Metadata, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			m[k] = s
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			// Values decoded from JSON always re-encode.
			continue
		}
		m[k] = string(raw)
	}
	return m
}
