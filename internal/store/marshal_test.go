package store

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/roach88/fieldkit/internal/schema"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	refs := schema.Refs{"zeta": "z", "alpha": "a", "mid": "m"}

	out, err := marshalCanonical(refs)
	if err != nil {
		t.Fatalf("marshalCanonical() failed: %v", err)
	}
	want := `{"alpha":"a","mid":"m","zeta":"z"}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	refs := schema.Refs{"b": int64(2), "a": int64(1), "c": "three"}

	first, err := marshalCanonical(refs)
	if err != nil {
		t.Fatalf("marshalCanonical() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := marshalCanonical(refs)
		if err != nil {
			t.Fatalf("marshalCanonical() failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("iteration %d produced different bytes: %s vs %s", i, first, again)
		}
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := marshalCanonical(schema.Refs{"prompt": "a < b && c > d"})
	if err != nil {
		t.Fatalf("marshalCanonical() failed: %v", err)
	}
	if bytes.Contains(out, []byte(`<`)) {
		t.Errorf("output HTML-escaped: %s", out)
	}
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as e + combining acute (NFD) must normalize to the single
	// precomposed code point (NFC).
	decomposed := "é"
	out, err := marshalCanonical(schema.Refs{"title": decomposed})
	if err != nil {
		t.Fatalf("marshalCanonical() failed: %v", err)
	}
	if !bytes.Contains(out, []byte("é")) {
		t.Errorf("output not NFC-normalized: %q", out)
	}
}

func TestMarshalCanonical_NoTrailingNewline(t *testing.T) {
	out, err := marshalCanonical(schema.Refs{})
	if err != nil {
		t.Fatalf("marshalCanonical() failed: %v", err)
	}
	if bytes.HasSuffix(out, []byte("\n")) {
		t.Error("output has trailing newline")
	}
}

func TestUnmarshalRefs_IntegerFidelity(t *testing.T) {
	// Large enough to lose precision through float64.
	in := []byte(`{"amount":9007199254740993}`)

	refs, err := unmarshalRefs(in)
	if err != nil {
		t.Fatalf("unmarshalRefs() failed: %v", err)
	}
	got, ok := refs.Int64("amount")
	if !ok {
		t.Fatal("amount not readable as int64")
	}
	if got != 9007199254740993 {
		t.Errorf("amount = %d, lost integer fidelity", got)
	}
	if _, isNumber := refs["amount"].(json.Number); !isNumber {
		t.Errorf("amount decoded as %T, want json.Number", refs["amount"])
	}
}
