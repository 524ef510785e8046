package yupee

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncoderSealsModel(t *testing.T) {
	enc, err := NewEncoder(sealKey)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	src := NewModel(map[string]any{"items": []any{"milk"}})
	src.Sub("notes").Set("title", "groceries")

	for _, sensitive := range []bool{false, true} {
		blob, err := enc.Encode(src, sensitive)
		if err != nil {
			t.Fatalf("Encode(sensitive=%v) error = %v", sensitive, err)
		}

		dst := NewModel(nil)
		notes := dst.Sub("notes")
		if err := enc.Decode(blob, sensitive, dst); err != nil {
			t.Fatalf("Decode(sensitive=%v) error = %v", sensitive, err)
		}
		if diff := cmp.Diff(src.Content(), dst.Content()); diff != "" {
			t.Errorf("content (sensitive=%v) mismatch (-want +got):\n%s", sensitive, diff)
		}
		if v, _ := notes.Get("title"); v != "groceries" {
			t.Errorf("sub-model title (sensitive=%v) = %v, want groceries", sensitive, v)
		}
	}

	other, err := NewEncoder([]byte("another key of at least 32 bytes"))
	if err != nil {
		t.Fatal(err)
	}
	blob, err := enc.Encode(src, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Decode(blob, false, NewModel(nil)); !errors.Is(wrapLibError(err), ErrSignatureInvalid) {
		t.Errorf("Decode() with another key error = %v, want signature error", err)
	}
}
