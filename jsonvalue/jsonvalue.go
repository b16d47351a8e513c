// Package jsonvalue is the tagged-union representation of a JSON value
// used throughout this module. It preserves exactly the distinctions the
// encoder needs and no more: object-vs-array for empty containers, and
// integer-vs-float so a plain integer token never has to round-trip
// through the binary64 formatter.
//
// A Value is immutable once constructed. It carries no resources and does
// not need to be released.
package jsonvalue

import (
	"math"
	"unicode/utf8"

	"github.com/lattice-canon/jcs-go/jcserr"
)

// Kind discriminates the seven JSON value types.
type Kind int

const (
	// KindNull is the JSON null literal.
	KindNull Kind = iota
	// KindBool is a JSON boolean literal.
	KindBool
	// KindInteger is a mathematical integer in signed 64-bit range that
	// came from an integer-shaped source token, or was constructed
	// directly as one.
	KindInteger
	// KindNumber is a binary64 value, used when the value does not have
	// (or does not need) an exact integer representation.
	KindNumber
	// KindString is a sequence of Unicode scalar values.
	KindString
	// KindArray is an ordered sequence of values.
	KindArray
	// KindObject is a collection of uniquely-keyed members; insertion
	// order is not semantic.
	KindObject
)

// Member is a single (key, value) pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Value is one JSON value. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Num     float64
	Str     string
	Elems   []Value
	Members []Member
}

// Null returns the JSON null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a JSON boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Integer returns a JSON value tagged as a mathematical integer within
// signed 64-bit range. The encoder formats it without going through the
// binary64 shortest-round-trip formatter.
func Integer(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// Number returns a JSON value holding a binary64. It rejects NaN and
// ±Infinity, which have no JSON representation.
func Number(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, jcserr.New(jcserr.UnrepresentableNumber, "value is not finite (NaN or Infinity)")
	}
	return Value{Kind: KindNumber, Num: f}, nil
}

// String returns a JSON string value. It rejects strings containing an
// unpaired UTF-16 surrogate, which cannot occur in valid parsed JSON but
// can occur when a caller builds a Value directly (e.g. from a Go string
// assembled by hand, or one that round-tripped through a lossy encoding).
func String(s string) (Value, error) {
	if err := validateNoLoneSurrogate(s); err != nil {
		return Value{}, err
	}
	return Value{Kind: KindString, Str: s}, nil
}

// Array returns a JSON array value. Element order is semantic and is
// preserved exactly as given.
func Array(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

// Object returns a JSON object value from an ordered list of members.
// Insertion order here is not semantic — the encoder imposes its own
// UTF-16 code-unit order on output — but is preserved as given so a
// caller inspecting Members before encoding sees what they passed in.
// Object does not itself reject duplicate keys: a Value built by
// composing partial objects can still end up with one, so the single
// place that enforces key uniqueness is Encode, not construction.
func Object(members ...Member) Value {
	return Value{Kind: KindObject, Members: members}
}

// validateNoLoneSurrogate fails if s holds a surrogate code point or is not
// valid UTF-8. A Go string can carry a surrogate only as its raw three-byte
// encoding (e.g. 0xED 0xA0 0x80), which is not valid UTF-8: ranging over it
// yields U+FFFD, so it is the utf8.ValidString check that rejects it.
// string(rune(0xD800)) does not produce a surrogate; Go converts it to U+FFFD.
func validateNoLoneSurrogate(s string) *jcserr.Error {
	for _, r := range s {
		if r >= 0xD800 && r <= 0xDFFF {
			return jcserr.New(jcserr.InvalidString, "string contains an unpaired UTF-16 surrogate")
		}
	}
	if !utf8.ValidString(s) {
		return jcserr.New(jcserr.InvalidString, "string is not valid UTF-8")
	}
	return nil
}
