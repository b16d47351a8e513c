package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCapture(t *testing.T, args []string, stdin string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = run(args, strings.NewReader(stdin), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestRunCanonicalizeFromStdin(t *testing.T) {
	out, _, code := runCapture(t, []string{"canonicalize"}, `{ "b" : 2, "a" : 1 }`)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out != `{"a":1,"b":2}` {
		t.Fatalf("got %q", out)
	}
}

func TestRunCanonicalizeDashMeansStdin(t *testing.T) {
	out, _, code := runCapture(t, []string{"canonicalize", "-"}, `{"a":1}`)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out != `{"a":1}` {
		t.Fatalf("got %q", out)
	}
}

func TestRunCanonicalizeInvalidGrammarExits2(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"canonicalize"}, `{"a":}`)
	if code != 2 {
		t.Fatalf("exit code = %d, stderr = %q", code, errOut)
	}
	if !strings.Contains(errOut, "error:") {
		t.Fatalf("expected error message, got %q", errOut)
	}
}

func TestRunVerifyAlreadyCanonicalSucceeds(t *testing.T) {
	_, _, code := runCapture(t, []string{"verify", "--quiet"}, `{"a":1,"b":2}`)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestRunVerifyNotCanonicalExits2(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"verify"}, `{"b":2,"a":1}`)
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "NOT_CANONICAL") {
		t.Fatalf("expected NOT_CANONICAL in stderr, got %q", errOut)
	}
}

func TestRunVerifyPrintsOkUnlessQuiet(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"verify"}, `{"a":1}`)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if strings.TrimSpace(errOut) != "ok" {
		t.Fatalf("got %q", errOut)
	}
}

func TestRunUnknownCommandExits2(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"bogus"}, "")
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "unknown command") {
		t.Fatalf("got %q", errOut)
	}
}

func TestRunNoArgsExits2WithUsage(t *testing.T) {
	_, errOut, code := runCapture(t, []string{}, "")
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "usage:") {
		t.Fatalf("got %q", errOut)
	}
}

func TestRunTopLevelHelp(t *testing.T) {
	out, _, code := runCapture(t, []string{"--help"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "usage:") {
		t.Fatalf("got %q", out)
	}
}

func TestRunTopLevelVersion(t *testing.T) {
	out, _, code := runCapture(t, []string{"--version"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "jcs-canon") {
		t.Fatalf("got %q", out)
	}
}

func TestRunUnknownFlagExits2(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"canonicalize", "--bogus"}, `{}`)
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "unknown option") {
		t.Fatalf("got %q", errOut)
	}
}

func TestRunMultipleFilesRejected(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"canonicalize", "a.json", "b.json"}, "")
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "multiple input files") {
		t.Fatalf("got %q", errOut)
	}
}

func TestRunCanonicalizeMissingFileExits2(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"canonicalize", "/no/such/file.json"}, "")
	if code != 2 {
		t.Fatalf("exit code = %d, stderr=%q", code, errOut)
	}
}

func TestRunDuplicateKeyRejected(t *testing.T) {
	_, errOut, code := runCapture(t, []string{"canonicalize"}, `{"a":1,"a":2}`)
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "DUPLICATE_KEY") {
		t.Fatalf("got %q", errOut)
	}
}
