package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fieldkit/internal/schema"
)

// marshalCanonical serializes v to the byte form stored in record columns:
// map keys sorted, HTML escaping off, strings NFC-normalized. The same value
// always serializes to the same bytes, so replays and golden traces compare
// byte-for-byte.
func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	// Encoder appends a newline; strip it so records are single-line.
	out := bytes.TrimRight(buf.Bytes(), "\n")
	// Structural JSON characters are ASCII, so NFC over the whole document
	// only touches string content.
	return norm.NFC.Bytes(out), nil
}

// unmarshalRefs decodes a refs column preserving integer fidelity: numbers
// come back as json.Number rather than float64.
func unmarshalRefs(data []byte) (schema.Refs, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var refs schema.Refs
	if err := dec.Decode(&refs); err != nil {
		return nil, fmt.Errorf("decode refs: %w", err)
	}
	return refs, nil
}

// unmarshalRecord decodes an entity record column into out.
func unmarshalRecord(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
