package repo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeMeasures(t *testing.T) {
	data := []byte(`{"label": "ingest", "doc_count": 100, "took": 12.5, "ok": true, "recall@10": 1.0, "custom_name": "123"}`)

	got, err := decodeMeasures(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"label":       "ingest",
		"doc_count":   100,
		"took":        12.5,
		"ok":          true,
		"recall@10":   1.0,
		"custom_name": "123",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeMeasures mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMeasures_Invalid(t *testing.T) {
	if _, err := decodeMeasures([]byte(`[1, 2]`)); err == nil {
		t.Error("expected error for non-object measures")
	}
}

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("expected nil for empty string")
	}
	if s := nullString("x"); s == nil || *s != "x" {
		t.Errorf("expected pointer to x, got %v", s)
	}
}
