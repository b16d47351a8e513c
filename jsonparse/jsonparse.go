// Package jsonparse implements a strict RFC 8259 JSON parser whose output
// feeds directly into canonical re-encoding.
//
// It is not a general-purpose JSON parser: it enforces the input domain
// that a canonicalizer can faithfully round-trip. Object member names are
// decoded and checked for duplicates as they are parsed (policy-selectable,
// see DuplicateKeyPolicy); strings reject lone surrogates; numeric tokens
// accept the full range RFC 8259's grammar allows, including "-0" and
// tokens that underflow to zero, and are rejected only when their
// magnitude overflows binary64's finite range.
package jsonparse

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lattice-canon/jcs-go/jcserr"
	"github.com/lattice-canon/jcs-go/jsonvalue"
)

// Limits guarding against pathological input. Mirrors the bound constants
// the upstream tokenizer referenced but never defined.
const (
	DefaultMaxDepth        = 1000
	DefaultMaxInputSize    = 64 * 1024 * 1024
	DefaultMaxValues       = 1 << 20
	DefaultMaxArrayElems   = 1 << 20
	DefaultMaxObjectFields = 1 << 20
	DefaultMaxStringBytes  = 16 * 1024 * 1024
)

// DuplicateKeyPolicy selects how a parser handles a repeated object member
// name.
type DuplicateKeyPolicy int

const (
	// RejectDuplicateKeys fails parsing the first time a member name
	// repeats within the same object. This is the default: RFC 8785 leaves
	// duplicate-key handling to the input producer, and refusing to guess
	// is the only choice that can't silently change meaning.
	RejectDuplicateKeys DuplicateKeyPolicy = iota
	// LastKeyWins keeps the last occurrence of a repeated member name and
	// drops earlier ones, matching the behavior of most JSON decoders.
	LastKeyWins
)

// Options controls parser behavior. A nil *Options, or a zero field, uses the
// corresponding Default* limit above; the zero DuplicateKeys is
// RejectDuplicateKeys.
type Options struct {
	MaxDepth        int
	MaxInputSize    int
	MaxValues       int
	MaxArrayElems   int
	MaxObjectFields int
	MaxStringBytes  int
	DuplicateKeys   DuplicateKeyPolicy
}

func (o *Options) maxDepth() int {
	if o != nil && o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o *Options) maxInputSize() int {
	if o != nil && o.MaxInputSize > 0 {
		return o.MaxInputSize
	}
	return DefaultMaxInputSize
}

func (o *Options) maxValues() int {
	if o != nil && o.MaxValues > 0 {
		return o.MaxValues
	}
	return DefaultMaxValues
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

func (o *Options) maxStringBytes() int {
	if o != nil && o.MaxStringBytes > 0 {
		return o.MaxStringBytes
	}
	return DefaultMaxStringBytes
}

func (o *Options) duplicateKeys() DuplicateKeyPolicy {
	if o == nil {
		return RejectDuplicateKeys
	}
	return o.DuplicateKeys
}

// Parse parses a complete JSON text under the default limits and
// duplicate-key policy.
func Parse(data []byte) (jsonvalue.Value, error) {
	return ParseWithOptions(data, nil)
}

// ParseWithOptions is like Parse but accepts configuration.
func ParseWithOptions(data []byte, opts *Options) (jsonvalue.Value, error) {
	maxInput := opts.maxInputSize()
	if len(data) > maxInput {
		return jsonvalue.Value{}, jcserr.NewAt(jcserr.InvalidGrammar, 0,
			fmt.Sprintf("input size %d exceeds maximum %d", len(data), maxInput))
	}

	p := &parser{
		data:     data,
		opts:     opts,
		maxDepth: opts.maxDepth(),
		values:   0,
	}

	p.skipWhitespace()
	v, err := p.parseValue()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	p.skipWhitespace()
	if p.pos != len(p.data) {
		return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "trailing content after JSON value")
	}
	return v, nil
}

type parser struct {
	data     []byte
	opts     *Options
	pos      int
	depth    int
	maxDepth int
	values   int
}

func (p *parser) errorf(class jcserr.FailureClass, format string, args ...any) *jcserr.Error {
	return jcserr.NewAt(class, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *parser) next() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	b := p.data[p.pos]
	p.pos++
	return b, true
}

func (p *parser) expect(b byte) error {
	c, ok := p.next()
	if !ok {
		return p.errorf(jcserr.InvalidGrammar, "unexpected end of input, expected %q", string(b))
	}
	if c != b {
		return p.errorf(jcserr.InvalidGrammar, "expected %q, got %q", string(b), string(c))
	}
	return nil
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) pushDepth() error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf(jcserr.InvalidGrammar, "nesting depth %d exceeds maximum %d", p.depth, p.maxDepth)
	}
	return nil
}

func (p *parser) popDepth() { p.depth-- }

func (p *parser) countValue() error {
	p.values++
	if p.values > p.opts.maxValues() {
		return p.errorf(jcserr.InvalidGrammar, "value count exceeds maximum %d", p.opts.maxValues())
	}
	return nil
}

func (p *parser) parseValue() (jsonvalue.Value, error) {
	if err := p.countValue(); err != nil {
		return jsonvalue.Value{}, err
	}
	c, ok := p.peek()
	if !ok {
		return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unexpected end of input")
	}
	switch c {
	case '{':
		return p.parseObject()
	case '[':
		return p.parseArray()
	case '"':
		return p.parseString()
	case 't', 'f':
		return p.parseBool()
	case 'n':
		return p.parseNull()
	default:
		return p.parseNumber()
	}
}

func (p *parser) parseObject() (jsonvalue.Value, error) {
	if err := p.pushDepth(); err != nil {
		return jsonvalue.Value{}, err
	}
	defer p.popDepth()

	if err := p.expect('{'); err != nil {
		return jsonvalue.Value{}, err
	}
	p.skipWhitespace()

	var members []jsonvalue.Member
	seen := make(map[string]int)

	c, ok := p.peek()
	if !ok {
		return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unexpected end of input in object")
	}
	if c == '}' {
		p.pos++
		return jsonvalue.Object(members...), nil
	}

	for {
		p.skipWhitespace()
		keyStart := p.pos
		keyVal, err := p.parseString()
		if err != nil {
			return jsonvalue.Value{}, err
		}
		key := keyVal.Str

		p.skipWhitespace()
		if err := p.expect(':'); err != nil {
			return jsonvalue.Value{}, err
		}
		p.skipWhitespace()

		val, err := p.parseValue()
		if err != nil {
			return jsonvalue.Value{}, err
		}

		if idx, dup := seen[key]; dup {
			switch p.opts.duplicateKeys() {
			case LastKeyWins:
				members[idx] = jsonvalue.Member{Key: key, Value: val}
			default:
				return jsonvalue.Value{}, jcserr.NewAt(jcserr.DuplicateKey, keyStart,
					fmt.Sprintf("duplicate object key %q", key))
			}
		} else {
			seen[key] = len(members)
			members = append(members, jsonvalue.Member{Key: key, Value: val})
			if len(members) > p.opts.maxObjectFields() {
				return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar,
					"object member count exceeds maximum %d", p.opts.maxObjectFields())
			}
		}

		p.skipWhitespace()
		c, ok := p.peek()
		if !ok {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unexpected end of input in object")
		}
		if c == '}' {
			p.pos++
			return jsonvalue.Object(members...), nil
		}
		if c == ',' {
			p.pos++
			continue
		}
		return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "expected ',' or '}' in object, got %q", string(c))
	}
}

func (p *parser) parseArray() (jsonvalue.Value, error) {
	if err := p.pushDepth(); err != nil {
		return jsonvalue.Value{}, err
	}
	defer p.popDepth()

	if err := p.expect('['); err != nil {
		return jsonvalue.Value{}, err
	}
	p.skipWhitespace()

	var elems []jsonvalue.Value

	c, ok := p.peek()
	if !ok {
		return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unexpected end of input in array")
	}
	if c == ']' {
		p.pos++
		return jsonvalue.Array(elems...), nil
	}

	for {
		p.skipWhitespace()
		elem, err := p.parseValue()
		if err != nil {
			return jsonvalue.Value{}, err
		}
		elems = append(elems, elem)
		if len(elems) > p.opts.maxArrayElems() {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar,
				"array element count exceeds maximum %d", p.opts.maxArrayElems())
		}

		p.skipWhitespace()
		c, ok := p.peek()
		if !ok {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unexpected end of input in array")
		}
		if c == ']' {
			p.pos++
			return jsonvalue.Array(elems...), nil
		}
		if c == ',' {
			p.pos++
			continue
		}
		return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "expected ',' or ']' in array, got %q", string(c))
	}
}

func (p *parser) parseString() (jsonvalue.Value, error) {
	start := p.pos
	if err := p.expect('"'); err != nil {
		return jsonvalue.Value{}, err
	}

	var buf []byte
	for {
		if p.pos >= len(p.data) {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unterminated string")
		}
		b := p.data[p.pos]
		if b == '"' {
			p.pos++
			if len(buf) > p.opts.maxStringBytes() {
				return jsonvalue.Value{}, jcserr.NewAt(jcserr.InvalidGrammar, start,
					fmt.Sprintf("string length exceeds maximum %d bytes", p.opts.maxStringBytes()))
			}
			s := string(buf)
			v, err := jsonvalue.String(s)
			if err != nil {
				if je, ok := err.(*jcserr.Error); ok {
					return jsonvalue.Value{}, jcserr.NewAt(je.Class, start, je.Message)
				}
				return jsonvalue.Value{}, err
			}
			return v, nil
		}
		if b == '\\' {
			if err := p.consumeEscape(&buf); err != nil {
				return jsonvalue.Value{}, err
			}
			continue
		}
		if b < 0x20 {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "unescaped control character 0x%02X in string", b)
		}
		size := utf8SeqLen(b)
		if p.pos+size > len(p.data) {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "truncated UTF-8 sequence")
		}
		r, decodedSize := utf8.DecodeRune(p.data[p.pos : p.pos+size])
		if r == utf8.RuneError && decodedSize <= 1 {
			return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "invalid UTF-8 byte 0x%02X in string", b)
		}
		buf = append(buf, p.data[p.pos:p.pos+size]...)
		p.pos += size
	}
}

func (p *parser) consumeEscape(buf *[]byte) error {
	p.pos++ // consume '\'
	if p.pos >= len(p.data) {
		return p.errorf(jcserr.InvalidGrammar, "unterminated escape sequence")
	}
	b := p.data[p.pos]
	p.pos++

	if b == 'u' {
		r, err := p.parseUnicodeEscape()
		if err != nil {
			return err
		}
		var tmp [4]byte
		n := utf8.EncodeRune(tmp[:], r)
		*buf = append(*buf, tmp[:n]...)
		return nil
	}

	r, ok := escapedRune(b)
	if !ok {
		return p.errorf(jcserr.InvalidGrammar, "invalid escape character %q", string(b))
	}
	*buf = append(*buf, byte(r))
	return nil
}

func escapedRune(b byte) (rune, bool) {
	switch b {
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	case '/':
		return '/', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	default:
		return 0, false
	}
}

// parseUnicodeEscape parses \uXXXX, decoding a following \uXXXX low
// surrogate if the first unit is a high surrogate.
func (p *parser) parseUnicodeEscape() (rune, error) {
	r1, err := p.readHex4()
	if err != nil {
		return 0, err
	}

	if !utf16.IsSurrogate(rune(r1)) {
		return rune(r1), nil
	}
	if r1 >= 0xDC00 {
		return 0, p.errorf(jcserr.LoneSurrogate, "lone low surrogate U+%04X", r1)
	}

	if p.pos+1 >= len(p.data) || p.data[p.pos] != '\\' || p.data[p.pos+1] != 'u' {
		return 0, p.errorf(jcserr.LoneSurrogate, "lone high surrogate U+%04X (no following \\u)", r1)
	}
	p.pos += 2

	r2, err := p.readHex4()
	if err != nil {
		return 0, err
	}
	if r2 < 0xDC00 || r2 > 0xDFFF {
		return 0, p.errorf(jcserr.LoneSurrogate,
			"high surrogate U+%04X followed by non-low-surrogate U+%04X", r1, r2)
	}

	decoded := utf16.DecodeRune(rune(r1), rune(r2))
	if decoded == utf8.RuneError {
		return 0, p.errorf(jcserr.LoneSurrogate, "invalid surrogate pair U+%04X U+%04X", r1, r2)
	}
	return decoded, nil
}

func (p *parser) readHex4() (uint32, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.errorf(jcserr.InvalidGrammar, "incomplete \\u escape")
	}
	hex := string(p.data[p.pos : p.pos+4])
	p.pos += 4
	val, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, jcserr.NewAt(jcserr.InvalidGrammar, p.pos-4, fmt.Sprintf("invalid hex in \\u escape: %q", hex))
	}
	return uint32(val), nil
}

func utf8SeqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

func (p *parser) parseNumber() (jsonvalue.Value, error) {
	start := p.pos

	neg := false
	if p.pos < len(p.data) && p.data[p.pos] == '-' {
		neg = true
		p.pos++
	}
	if err := p.scanIntegerPart(); err != nil {
		return jsonvalue.Value{}, err
	}
	intEnd := p.pos
	hasFraction, err := p.scanFractionPart()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	hasExponent, err := p.scanExponentPart()
	if err != nil {
		return jsonvalue.Value{}, err
	}

	raw := string(p.data[start:p.pos])

	if !hasFraction && !hasExponent {
		digits := string(p.data[start:intEnd])
		if neg {
			digits = digits[1:]
		}
		if neg && digits == "0" {
			// "-0" has no fractional or exponent part, so without this
			// case it would take the int64 fast path below — but int64
			// has no negative zero distinct from zero, and the number
			// formatter needs the actual sign bit to canonicalize this
			// value correctly. RFC 8259's grammar accepts the token, so
			// route it through the float path instead of rejecting it.
			v, verr := jsonvalue.Number(math.Copysign(0, -1))
			return v, verr
		}
		if n, ok := parseExactInt64(neg, digits); ok {
			return jsonvalue.Integer(n), nil
		}
	}

	f, perr := strconv.ParseFloat(raw, 64)
	if perr != nil {
		return jsonvalue.Value{}, jcserr.NewAt(jcserr.InvalidGrammar, start, fmt.Sprintf("invalid number: %v", perr))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return jsonvalue.Value{}, jcserr.NewAt(jcserr.UnrepresentableNumber, start, "number overflows IEEE 754 double")
	}
	// A token with a fraction or exponent part that evaluates to exactly
	// zero — whether because it was written as e.g. "-0.0" or because its
	// magnitude underflows binary64 (e.g. "1e-400") — is valid JSON per
	// RFC 8259's grammar and has a well-defined nearest-double rounding;
	// only overflow beyond binary64's finite range above is a failure.
	v, verr := jsonvalue.Number(f)
	if verr != nil {
		return jsonvalue.Value{}, verr
	}
	return v, nil
}

// parseExactInt64 reports whether an unsigned decimal digit string (with a
// separately-tracked sign) fits exactly in an int64, returning the value.
func parseExactInt64(neg bool, digits string) (int64, bool) {
	if len(digits) == 0 || len(digits) > 19 {
		return 0, false
	}
	u, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		if u > 1<<63 {
			return 0, false
		}
		return -int64(u), true
	}
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func (p *parser) scanIntegerPart() error {
	if p.pos >= len(p.data) {
		return p.errorf(jcserr.InvalidGrammar, "unexpected end of input in number")
	}
	if p.data[p.pos] == '0' {
		p.pos++
		if p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			return p.errorf(jcserr.InvalidGrammar, "leading zero in number")
		}
		return nil
	}
	if p.data[p.pos] < '1' || p.data[p.pos] > '9' {
		return p.errorf(jcserr.InvalidGrammar, "invalid number character %q", string(p.data[p.pos]))
	}
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	return nil
}

func (p *parser) scanFractionPart() (bool, error) {
	if p.pos >= len(p.data) || p.data[p.pos] != '.' {
		return false, nil
	}
	p.pos++
	if p.pos >= len(p.data) || !isDigit(p.data[p.pos]) {
		return false, p.errorf(jcserr.InvalidGrammar, "expected digit after decimal point")
	}
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	return true, nil
}

func (p *parser) scanExponentPart() (bool, error) {
	if p.pos >= len(p.data) || (p.data[p.pos] != 'e' && p.data[p.pos] != 'E') {
		return false, nil
	}
	p.pos++
	if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
		p.pos++
	}
	if p.pos >= len(p.data) || !isDigit(p.data[p.pos]) {
		return false, p.errorf(jcserr.InvalidGrammar, "expected digit in exponent")
	}
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	return true, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (p *parser) parseBool() (jsonvalue.Value, error) {
	if p.pos+4 <= len(p.data) && string(p.data[p.pos:p.pos+4]) == "true" {
		p.pos += 4
		return jsonvalue.Bool(true), nil
	}
	if p.pos+5 <= len(p.data) && string(p.data[p.pos:p.pos+5]) == "false" {
		p.pos += 5
		return jsonvalue.Bool(false), nil
	}
	return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "invalid literal")
}

func (p *parser) parseNull() (jsonvalue.Value, error) {
	if p.pos+4 <= len(p.data) && string(p.data[p.pos:p.pos+4]) == "null" {
		p.pos += 4
		return jsonvalue.Null(), nil
	}
	return jsonvalue.Value{}, p.errorf(jcserr.InvalidGrammar, "invalid literal")
}
