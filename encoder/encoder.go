// Package encoder produces the RFC 8785 JSON Canonicalization Scheme byte
// sequence for a jsonvalue.Value tree.
//
// Encoding is a two-pass operation: a validation pass walks the whole tree
// first and rejects anything the canonical form cannot represent (a
// non-finite number, an invalid string, a duplicate object key, excessive
// nesting), then a second pass appends bytes. Validating up front means a
// caller never receives a partially-written canonical prefix for an input
// that turns out to be invalid three levels deep.
package encoder

import (
	"fmt"
	"sort"

	"github.com/lattice-canon/jcs-go/jcserr"
	"github.com/lattice-canon/jcs-go/jsonvalue"
	"github.com/lattice-canon/jcs-go/keyorder"
	"github.com/lattice-canon/jcs-go/numfmt"
	"github.com/lattice-canon/jcs-go/strescape"
)

// Limits guarding against pathological value trees built directly through
// the jsonvalue API (a parsed tree is already bounded by jsonparse.Options).
const (
	DefaultMaxDepth        = 1000
	DefaultMaxArrayElems   = 1 << 20
	DefaultMaxObjectFields = 1 << 20
)

// Options controls encoder bounds. A nil *Options, or a zero field, uses the
// corresponding Default* limit above.
type Options struct {
	MaxDepth        int
	MaxArrayElems   int
	MaxObjectFields int
}

func (o *Options) maxDepth() int {
	if o != nil && o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o *Options) maxArrayElems() int {
	if o != nil && o.MaxArrayElems > 0 {
		return o.MaxArrayElems
	}
	return DefaultMaxArrayElems
}

func (o *Options) maxObjectFields() int {
	if o != nil && o.MaxObjectFields > 0 {
		return o.MaxObjectFields
	}
	return DefaultMaxObjectFields
}

// Encode returns the canonical byte sequence for v.
func Encode(v jsonvalue.Value) ([]byte, error) {
	return EncodeWithOptions(v, nil)
}

// EncodeWithOptions is like Encode but accepts configuration.
func EncodeWithOptions(v jsonvalue.Value, opts *Options) ([]byte, error) {
	if err := validate(v, 0, opts); err != nil {
		return nil, err
	}
	return appendValue(nil, v), nil
}

func validate(v jsonvalue.Value, depth int, opts *Options) error {
	if depth > opts.maxDepth() {
		return jcserr.New(jcserr.InvalidGrammar, fmt.Sprintf("nesting depth exceeds maximum %d", opts.maxDepth()))
	}

	switch v.Kind {
	case jsonvalue.KindNull, jsonvalue.KindBool, jsonvalue.KindInteger:
		return nil
	case jsonvalue.KindNumber:
		if _, err := numfmt.FormatFloat64(v.Num); err != nil {
			return jcserr.Wrap(jcserr.UnrepresentableNumber, "number cannot be canonically formatted", err)
		}
		return nil
	case jsonvalue.KindString:
		return validateString(v.Str)
	case jsonvalue.KindArray:
		if len(v.Elems) > opts.maxArrayElems() {
			return jcserr.New(jcserr.InvalidGrammar, fmt.Sprintf("array element count exceeds maximum %d", opts.maxArrayElems()))
		}
		for i := range v.Elems {
			if err := validate(v.Elems[i], depth+1, opts); err != nil {
				return err
			}
		}
		return nil
	case jsonvalue.KindObject:
		if len(v.Members) > opts.maxObjectFields() {
			return jcserr.New(jcserr.InvalidGrammar, fmt.Sprintf("object member count exceeds maximum %d", opts.maxObjectFields()))
		}
		seen := make(map[string]struct{}, len(v.Members))
		for i := range v.Members {
			key := v.Members[i].Key
			if err := validateString(key); err != nil {
				return err
			}
			if _, dup := seen[key]; dup {
				return jcserr.New(jcserr.DuplicateKey, fmt.Sprintf("duplicate object key %q", key))
			}
			seen[key] = struct{}{}
			if err := validate(v.Members[i].Value, depth+1, opts); err != nil {
				return err
			}
		}
		return nil
	default:
		return jcserr.New(jcserr.InternalError, fmt.Sprintf("unknown value kind %d", v.Kind))
	}
}

func validateString(s string) error {
	if _, err := jsonvalue.String(s); err != nil {
		return err
	}
	return nil
}

func appendValue(dst []byte, v jsonvalue.Value) []byte {
	switch v.Kind {
	case jsonvalue.KindNull:
		return append(dst, "null"...)
	case jsonvalue.KindBool:
		if v.Bool {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case jsonvalue.KindInteger:
		return append(dst, numfmt.FormatInteger(v.Int)...)
	case jsonvalue.KindNumber:
		s, _ := numfmt.FormatFloat64(v.Num) // already validated
		return append(dst, s...)
	case jsonvalue.KindString:
		return strescape.AppendString(dst, v.Str)
	case jsonvalue.KindArray:
		return appendArray(dst, v)
	case jsonvalue.KindObject:
		return appendObject(dst, v)
	default:
		return dst
	}
}

func appendArray(dst []byte, v jsonvalue.Value) []byte {
	dst = append(dst, '[')
	for i := range v.Elems {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendValue(dst, v.Elems[i])
	}
	return append(dst, ']')
}

// appendObject sorts members by key under UTF-16 code-unit order before
// appending, per RFC 8785 §3.2.3.
func appendObject(dst []byte, v jsonvalue.Value) []byte {
	members := make([]jsonvalue.Member, len(v.Members))
	copy(members, v.Members)
	sortMembers(members)

	dst = append(dst, '{')
	for i := range members {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strescape.AppendString(dst, members[i].Key)
		dst = append(dst, ':')
		dst = appendValue(dst, members[i].Value)
	}
	return append(dst, '}')
}

func sortMembers(members []jsonvalue.Member) {
	sort.Slice(members, func(i, j int) bool {
		return keyorder.Less(members[i].Key, members[j].Key)
	})
}
