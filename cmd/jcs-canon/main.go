// Command jcs-canon canonicalizes and verifies JSON using RFC 8785 JCS.
//
// Stable ABI:
//
//	jcs-canon canonicalize [--quiet] [file|-]
//	jcs-canon verify [--quiet] [file|-]
//	jcs-canon --help
//	jcs-canon --version
//
// Exit codes: 0 (success), 2 (input/non-canonical/usage), 10 (internal/IO).
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lattice-canon/jcs-go/jcs"
	"github.com/lattice-canon/jcs-go/jcserr"
	"github.com/lattice-canon/jcs-go/jsonparse"
)

var version = "v0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 1 {
		switch args[0] {
		case "--help", "-h":
			_ = writeGlobalHelp(stdout)
			return 0
		case "--version":
			_ = writeLine(stdout, "jcs-canon "+version)
			return 0
		}
	}

	if len(args) == 0 {
		_ = writeGlobalHelp(stderr)
		return jcserr.InvalidGrammar.ExitCode()
	}

	switch args[0] {
	case "canonicalize":
		return cmdCanonicalize(args[1:], stdin, stdout, stderr)
	case "verify":
		return cmdVerify(args[1:], stdin, stderr)
	default:
		_ = writef(stderr, "unknown command: %s\n", args[0])
		_ = writeGlobalHelp(stderr)
		return jcserr.InvalidGrammar.ExitCode()
	}
}

type flags struct {
	quiet bool
	help  bool
}

func parseFlags(args []string) (flags, []string, error) {
	var f flags
	var positional []string
	consumeAsPositional := false
	for _, arg := range args {
		if consumeAsPositional {
			positional = append(positional, arg)
			continue
		}
		switch arg {
		case "--quiet", "-q":
			f.quiet = true
		case "--help", "-h":
			f.help = true
		case "--":
			consumeAsPositional = true
		case "-":
			positional = append(positional, arg)
		default:
			if strings.HasPrefix(arg, "-") {
				return flags{}, nil, fmt.Errorf("unknown option: %s", arg)
			}
			positional = append(positional, arg)
		}
	}
	return f, positional, nil
}

func cmdCanonicalize(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jcserr.InvalidGrammar.ExitCode(), "error: %v\n", err)
	}
	if fl.help {
		_ = writeCanonicalizeHelp(stderr)
		return 0
	}
	if exitCode, ok := ensureSingleInput(positional, stderr); ok {
		return exitCode
	}

	input, err := readInput(positional, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}

	canonical, err := jcs.CanonicalizeText(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}

	if _, err := stdout.Write(canonical); err != nil {
		return writeErrorAndReturn(stderr, jcserr.InternalError.ExitCode(), "error: writing output: %v\n", err)
	}
	return 0
}

func cmdVerify(args []string, stdin io.Reader, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		return writeErrorAndReturn(stderr, jcserr.InvalidGrammar.ExitCode(), "error: %v\n", err)
	}
	if fl.help {
		_ = writeVerifyHelp(stderr)
		return 0
	}
	if exitCode, ok := ensureSingleInput(positional, stderr); ok {
		return exitCode
	}

	input, err := readInput(positional, stdin)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}

	canonical, err := jcs.CanonicalizeText(input)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}

	if !bytes.Equal(input, canonical) {
		return writeErrorAndReturn(stderr, jcserr.NotCanonical.ExitCode(), "error: NOT_CANONICAL: input is not canonical\n")
	}

	if !fl.quiet {
		_ = writeLine(stderr, "ok")
	}
	return 0
}

func writeClassifiedError(stderr io.Writer, err error) int {
	var je *jcserr.Error
	if errors.As(err, &je) {
		_ = writef(stderr, "error: %v\n", err)
		return je.Class.ExitCode()
	}
	return writeErrorAndReturn(stderr, jcserr.InternalError.ExitCode(), "error: %v\n", err)
}

func readInput(positional []string, stdin io.Reader) ([]byte, error) {
	if len(positional) == 0 || positional[0] == "-" {
		return readBounded(stdin)
	}
	f, err := os.Open(positional[0])
	if err != nil {
		return nil, jcserr.Wrap(jcserr.InvalidGrammar, fmt.Sprintf("read file %q", positional[0]), err)
	}
	defer func() { _ = f.Close() }()
	return readBounded(f)
}

func readBounded(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, int64(jsonparse.DefaultMaxInputSize)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, jcserr.Wrap(jcserr.InternalError, "read input stream", err)
	}
	if len(data) > jsonparse.DefaultMaxInputSize {
		return nil, jcserr.New(jcserr.InvalidGrammar,
			fmt.Sprintf("input exceeds maximum size %d bytes", jsonparse.DefaultMaxInputSize))
	}
	return data, nil
}

func ensureSingleInput(positional []string, stderr io.Writer) (int, bool) {
	if len(positional) <= 1 {
		return 0, false
	}
	_ = writeLine(stderr, "error: multiple input files specified")
	return jcserr.InvalidGrammar.ExitCode(), true
}

func writeErrorAndReturn(stderr io.Writer, code int, format string, args ...any) int {
	_ = writef(stderr, format, args...)
	return code
}

func writeCanonicalizeHelp(stderr io.Writer) error {
	if err := writeLine(stderr, "usage: jcs-canon canonicalize [--quiet] [file|-]"); err != nil {
		return err
	}
	if err := writeLine(stderr, "  Read JSON from file (or stdin), emit canonical bytes to stdout."); err != nil {
		return err
	}
	return writeLine(stderr, "  --quiet   Accepted for command symmetry; canonicalize is silent on success")
}

func writeGlobalHelp(w io.Writer) error {
	if err := writeLine(w, "usage: jcs-canon <canonicalize|verify> [options] [file|-]"); err != nil {
		return err
	}
	if err := writeLine(w, "       jcs-canon --help"); err != nil {
		return err
	}
	if err := writeLine(w, "       jcs-canon --version"); err != nil {
		return err
	}
	if err := writeLine(w, "commands: canonicalize, verify"); err != nil {
		return err
	}
	return writeLine(w, "flags: --help, -h, --version")
}

func writeVerifyHelp(stderr io.Writer) error {
	if err := writeLine(stderr, "usage: jcs-canon verify [--quiet] [file|-]"); err != nil {
		return err
	}
	if err := writeLine(stderr, "  Parse, canonicalize, and compare bytes to verify canonical form."); err != nil {
		return err
	}
	return writeLine(stderr, "  --quiet  Suppress success messages")
}

func writeLine(w io.Writer, msg string) error {
	return writef(w, "%s\n", msg)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}
