package rest

import (
	"encoding/json"
	"testing"

	"github.com/petrijr/drip/pkg/api"
)

func parse(t *testing.T, raw string) Document {
	t.Helper()
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestDocument_TolerantReaders(t *testing.T) {
	doc := parse(t, `{
		"name": "run",
		"count": 3,
		"ratio": 0.5,
		"ok": true,
		"wrong": "not-a-number"
	}`)

	if got := doc.Str("name", "fallback"); got != "run" {
		t.Fatalf("Str: got %q", got)
	}
	if got := doc.Str("missing", "fallback"); got != "fallback" {
		t.Fatalf("Str default: got %q", got)
	}
	if got := doc.Str("count", "fallback"); got != "fallback" {
		t.Fatalf("Str wrong type: got %q", got)
	}

	if got := doc.Int("count", -1); got != 3 {
		t.Fatalf("Int: got %d", got)
	}
	if got := doc.Int("wrong", -1); got != -1 {
		t.Fatalf("Int wrong type: got %d", got)
	}

	if got := doc.Float("ratio", -1); got != 0.5 {
		t.Fatalf("Float: got %v", got)
	}
	if got := doc.Float("missing", 2.5); got != 2.5 {
		t.Fatalf("Float default: got %v", got)
	}

	if got := doc.Bool("ok", false); !got {
		t.Fatalf("Bool: got %v", got)
	}
	if got := doc.Bool("wrong", true); !got {
		t.Fatalf("Bool wrong type: got %v", got)
	}
}

func TestDocument_Array(t *testing.T) {
	doc := parse(t, `{"data": [{"id": "a"}, "junk", {"id": "b"}], "count": 2}`)

	items := doc.Array("data")
	if len(items) != 2 {
		t.Fatalf("expected 2 object elements, got %d", len(items))
	}
	if items[0].Str("id", "") != "a" || items[1].Str("id", "") != "b" {
		t.Fatalf("unexpected elements: %v", items)
	}
	if doc.Array("count") != nil {
		t.Fatalf("non-array key should yield nil")
	}
}

// String metadata round-trips unchanged through JSON.
func TestDocument_Metadata_StringRoundTrip(t *testing.T) {
	in := api.Metadata{"model": "transformer", "phase": "train"}
	raw, err := json.Marshal(map[string]any{"metadata": in})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out := parse(t, string(raw)).Metadata("metadata")
	if len(out) != len(in) {
		t.Fatalf("expected %d entries, got %d", len(in), len(out))
	}
	for k, v := range in {
		if out[k] != v {
			t.Fatalf("key %q: expected %q, got %q", k, v, out[k])
		}
	}
}

// Non-string metadata values come back as their JSON serialization. The
// conversion is lossy on purpose; it must not fail.
func TestDocument_Metadata_NonStringValuesAreSerialized(t *testing.T) {
	doc := parse(t, `{"metadata": {"plain": "text", "count": 7, "nested": {"a": 1}}}`)

	m := doc.Metadata("metadata")
	if m["plain"] != "text" {
		t.Fatalf("string value mangled: %q", m["plain"])
	}
	if m["count"] != "7" {
		t.Fatalf("expected serialized number, got %q", m["count"])
	}
	if m["nested"] != `{"a":1}` {
		t.Fatalf("expected serialized object, got %q", m["nested"])
	}
}

func TestDocument_Metadata_MissingOrWrongType(t *testing.T) {
	doc := parse(t, `{"metadata": "oops"}`)
	if doc.Metadata("metadata") != nil {
		t.Fatalf("non-object metadata should yield nil")
	}
	if doc.Metadata("missing") != nil {
		t.Fatalf("missing metadata should yield nil")
	}
}
