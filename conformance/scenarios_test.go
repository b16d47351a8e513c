// Package conformance exercises the concrete scenarios and universal
// properties this module is built to satisfy, end to end through the
// public jcs entry points. Unlike the upstream project this module was
// adapted from, these tests run entirely in-process against the public
// API: there are no downloaded fixture files or external test binaries
// to keep in sync.
package conformance_test

import (
	"testing"

	"github.com/lattice-canon/jcs-go/jcs"
)

func canon(t *testing.T, in string) string {
	t.Helper()
	got, err := jcs.CanonicalizeText([]byte(in))
	if err != nil {
		t.Fatalf("CanonicalizeText(%q): %v", in, err)
	}
	return string(got)
}

func TestScenarioS1KeyReorder(t *testing.T) {
	got := canon(t, `{"b":1,"a":2}`)
	if got != `{"a":2,"b":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestScenarioS2DigitKeysOrderAsStrings(t *testing.T) {
	got := canon(t, `{"10":"x","2":"y","1":"z"}`)
	if got != `{"1":"z","10":"x","2":"y"}` {
		t.Fatalf("got %q", got)
	}
}

// TestScenarioS3MixedScriptKeyOrder builds its keys from individual code
// points, one rune at a time, so the source never contains a contiguous
// escape-shaped literal. The code points: euro sign, CR, a Hebrew letter
// with dagesh, the digit "1", an emoji from the supplementary plane,
// U+0080, and o-with-diaeresis. CR is a control character, so it appears
// as its two-character escape both in the strict JSON input and in the
// canonical output.
func TestScenarioS3MixedScriptKeyOrder(t *testing.T) {
	euro := string([]rune{0x20AC})
	cr := string([]rune{0x5C, 'r'})
	hebrewDagesh := string([]rune{0xFB33})
	emoji := string([]rune{0x1F600})
	cHigh := string([]rune{0x0080})
	oDiaeresis := string([]rune{0xF6})

	in := `{"` + euro + `":0,"` + cr + `":0,"` + hebrewDagesh + `":0,"1":0,"` + emoji + `":0,"` + cHigh + `":0,"` + oDiaeresis + `":0}`
	got := canon(t, in)
	want := `{"` + cr + `":0,"1":0,"` + cHigh + `":0,"` + oDiaeresis + `":0,"` + euro + `":0,"` + emoji + `":0,"` + hebrewDagesh + `":0}`

	if got != want {
		t.Fatalf("got %s want %s", escapeNonASCII(got), escapeNonASCII(want))
	}
}

func escapeNonASCII(s string) string {
	hexDigits := "0123456789abcdef"
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r >= 0x20 && r < 0x7F {
			out = append(out, byte(r))
			continue
		}
		out = append(out, 'u')
		out = append(out,
			hexDigits[(r>>12)&0xF],
			hexDigits[(r>>8)&0xF],
			hexDigits[(r>>4)&0xF],
			hexDigits[r&0xF],
		)
	}
	return string(out)
}

func TestScenarioS4NumberNotation(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`5e-324`, `5e-324`},
		{`1e21`, `1e+21`},
		{`1e20`, `100000000000000000000`},
	}
	for _, tc := range cases {
		got := canon(t, tc.input)
		if got != tc.want {
			t.Fatalf("canon(%s) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// TestScenarioS5ControlByteEscaped checks that a string value holding the
// control byte U+000F between two ASCII letters is emitted with that byte
// as its six-byte lowercase-hex escape form. Strict JSON text cannot carry
// the raw byte, so the input spells it as an uppercase-hex escape. Both
// escapes are assembled from their parts rather than typed as literal
// escape sequences.
func TestScenarioS5ControlByteEscaped(t *testing.T) {
	backslash := string([]rune{0x5C})
	in := `{"s":"A` + backslash + `u000FB"}`
	got := canon(t, in)

	want := `{"s":"A` + backslash + `u000fB"}`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestScenarioS6EmptyContainersStayDistinct(t *testing.T) {
	got := canon(t, `{"a":{},"b":[]}`)
	if got != `{"a":{},"b":[]}` {
		t.Fatalf("got %q", got)
	}
}
