// Package jcs implements RFC 8785 JSON Canonicalization Scheme (JCS) and
// exposes the two public entry points this module is built around:
// Canonicalize, for a value already held in memory, and CanonicalizeText,
// for raw JSON bytes that still need parsing.
//
// Canonicalization never mutates shared state and is safe to call from
// multiple goroutines simultaneously: a Value tree passed to Canonicalize
// is only read, never written, and CanonicalizeText's parser allocates a
// fresh tree per call.
package jcs

import (
	"bytes"

	"github.com/lattice-canon/jcs-go/encoder"
	"github.com/lattice-canon/jcs-go/jsonparse"
	"github.com/lattice-canon/jcs-go/jsonvalue"
)

// Canonicalize returns the canonical byte sequence for an in-memory value.
func Canonicalize(v jsonvalue.Value) ([]byte, error) {
	return encoder.Encode(v)
}

// CanonicalizeWithOptions is like Canonicalize but accepts encoder bounds.
func CanonicalizeWithOptions(v jsonvalue.Value, opts *encoder.Options) ([]byte, error) {
	return encoder.EncodeWithOptions(v, opts)
}

// CanonicalizeText parses jsonBytes as strict JSON and returns the
// canonical byte sequence for it, under the default parser and encoder
// options.
func CanonicalizeText(jsonBytes []byte) ([]byte, error) {
	return CanonicalizeTextWithOptions(jsonBytes, nil)
}

// CanonicalizeTextWithOptions is like CanonicalizeText but accepts parser
// configuration (duplicate-key policy, depth and size bounds).
func CanonicalizeTextWithOptions(jsonBytes []byte, opts *jsonparse.Options) ([]byte, error) {
	v, err := jsonparse.ParseWithOptions(jsonBytes, opts)
	if err != nil {
		return nil, err
	}
	return encoder.Encode(v)
}

// IsCanonical reports whether jsonBytes is already exactly its own
// canonical form: parsing then re-encoding it reproduces the same bytes.
func IsCanonical(jsonBytes []byte) (bool, error) {
	canonical, err := CanonicalizeText(jsonBytes)
	if err != nil {
		return false, err
	}
	return bytes.Equal(jsonBytes, canonical), nil
}
