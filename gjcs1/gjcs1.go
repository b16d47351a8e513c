// Package gjcs1 implements the GJCS1 governed JSON file envelope:
//
//	GJCS1 = JCS(value) || 0x0A
//
// A GJCS1 file is exactly one line of canonical JSON plus a single
// trailing LF. That makes it diffable, greppable, and safe to concatenate,
// while still being byte-identical to what canonicalize_text produces —
// so two parties holding the same governed file can independently re-derive
// the same cryptographic digest of its JCS body.
//
// File-level constraints (no BOM, no CR, no LF inside the body, exactly
// one trailing LF) are checked before the body is ever handed to the JSON
// parser, so a malformed envelope is diagnosed as an envelope problem, not
// misreported as a parse error.
package gjcs1

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/lattice-canon/jcs-go/jcs"
	"github.com/lattice-canon/jcs-go/jsonparse"
)

// EnvelopeError indicates a file-level constraint violation detected
// before JSON parsing.
type EnvelopeError struct {
	Msg string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("gjcs1: envelope: %s", e.Msg)
}

// CanonError indicates the body parsed as JSON but its bytes are not the
// canonical re-serialization of their own value.
type CanonError struct {
	Msg string
}

func (e *CanonError) Error() string {
	return fmt.Sprintf("gjcs1: non-canonical: %s", e.Msg)
}

// Envelope wraps JCS canonical bytes with a single trailing LF to form
// GJCS1. It does not verify that jcsBody is actually canonical; callers
// that build the body themselves should run it through jcs.Canonicalize
// first, or call WriteGoverned/Canonicalize which do that for them.
func Envelope(jcsBody []byte) []byte {
	result := make([]byte, len(jcsBody)+1)
	copy(result, jcsBody)
	result[len(jcsBody)] = 0x0A
	return result
}

// Verify validates that data is a conforming GJCS1 file: file-level
// constraints first, then strict JSON parsing, then a byte comparison of
// the body against its own re-serialization.
func Verify(data []byte) error {
	body, err := checkEnvelope(data)
	if err != nil {
		return err
	}

	v, err := jsonparse.Parse(body)
	if err != nil {
		return fmt.Errorf("gjcs1: parse body: %w", err)
	}

	canonical, err := jcs.Canonicalize(v)
	if err != nil {
		return fmt.Errorf("gjcs1: internal: re-serialization failed: %w", err)
	}

	if !bytes.Equal(body, canonical) {
		return &CanonError{Msg: "JCS body bytes differ from canonical re-serialization"}
	}
	return nil
}

func checkEnvelope(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, &EnvelopeError{Msg: "file is empty"}
	}
	if data[len(data)-1] != 0x0A {
		return nil, &EnvelopeError{Msg: "missing trailing LF"}
	}
	if len(data) >= 2 && data[len(data)-2] == 0x0A {
		return nil, &EnvelopeError{Msg: "multiple trailing LFs"}
	}

	body := data[:len(data)-1]
	if len(body) == 0 {
		return nil, &EnvelopeError{Msg: "empty JCS body (file contains only LF)"}
	}
	if len(body) >= 3 && body[0] == 0xEF && body[1] == 0xBB && body[2] == 0xBF {
		return nil, &EnvelopeError{Msg: "UTF-8 BOM detected"}
	}
	for i, b := range data {
		if b == 0x0D {
			return nil, &EnvelopeError{Msg: fmt.Sprintf("CR byte (0x0D) at offset %d", i)}
		}
	}
	for i, b := range body {
		if b == 0x0A {
			return nil, &EnvelopeError{Msg: fmt.Sprintf("LF byte in JCS body at offset %d", i)}
		}
	}
	if !utf8.Valid(body) {
		return nil, &EnvelopeError{Msg: fmt.Sprintf("invalid UTF-8 at offset %d", findInvalidUTF8(body))}
	}
	return body, nil
}

func findInvalidUTF8(data []byte) int {
	i := 0
	for i < len(data) {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// Canonicalize parses JSON text and returns its JCS canonical bytes.
// It does not append a trailing LF; use Envelope or WriteGoverned for that.
func Canonicalize(input []byte) ([]byte, error) {
	return CanonicalizeWithOptions(input, nil)
}

// CanonicalizeWithOptions is like Canonicalize but accepts parser options.
func CanonicalizeWithOptions(input []byte, opts *jsonparse.Options) ([]byte, error) {
	canonical, err := jcs.CanonicalizeTextWithOptions(input, opts)
	if err != nil {
		return nil, fmt.Errorf("gjcs1: canonicalize input: %w", err)
	}
	return canonical, nil
}

// WriteGoverned canonicalizes JSON input and writes it as a GJCS1 file
// atomically.
func WriteGoverned(path string, input []byte) error {
	canonical, err := Canonicalize(input)
	if err != nil {
		return fmt.Errorf("gjcs1: canonicalize governed input: %w", err)
	}
	return WriteAtomic(path, Envelope(canonical))
}

// WriteAtomic writes GJCS1 bytes to path using temp file + rename, so a
// reader never observes a partially-written file. Only Linux is
// supported: the atomicity guarantee relies on rename(2) within the same
// mount.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".gjcs1-*.tmp")
	if err != nil {
		return fmt.Errorf("gjcs1: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("gjcs1: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("gjcs1: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("gjcs1: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("gjcs1: rename temp to final: %w", err)
	}
	success = true

	syncDir(dir)
	return nil
}

// syncDir best-effort fsyncs dir for crash-consistent durability. Errors
// are ignored: this is a SHOULD, not a MUST.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// VerifyReader reads all of r and verifies it as GJCS1.
func VerifyReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("gjcs1: read error: %w", err)
	}
	return Verify(data)
}
