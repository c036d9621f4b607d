package smt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// DefaultBinary is looked up in PATH when Z3.Path is empty.
const DefaultBinary = "z3"

var (
	// ErrNotFound is returned when the solver binary cannot be located.
	ErrNotFound = errors.New("smt: solver binary not found")
	// ErrBadOutput is returned when the solver output cannot be understood.
	ErrBadOutput = errors.New("smt: unexpected solver output")
)

// Status is the answer to check-sat.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Answer is the parsed solver output. Groups is only meaningful when
// Status is Sat.
type Answer struct {
	Status Status
	Groups [4]uint32
}

// Z3 runs queries through a z3 process, one process per query, so separate
// calls share no solver state.
type Z3 struct {
	// Path to the binary; DefaultBinary from PATH when empty.
	Path string
}

// Lookup resolves the solver binary.
func (z *Z3) Lookup() (string, error) {
	name := z.Path
	if name == "" {
		name = DefaultBinary
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	}

	return path, nil
}

// Check runs q. Cancelling ctx kills the process; the context error is then
// returned.
func (z *Z3) Check(ctx context.Context, q Query) (Answer, error) {
	path, err := z.Lookup()
	if err != nil {
		return Answer{}, err
	}

	cmd := exec.CommandContext(ctx, path, "-in", "-smt2")
	cmd.Stdin = strings.NewReader(Script(q))

	// get-value after unsat or unknown makes z3 print an error and exit
	// non-zero; the check-sat line is still on stdout.
	out, runErr := cmd.Output()
	if ctx.Err() != nil {
		return Answer{}, ctx.Err()
	}

	if len(out) == 0 && runErr != nil {
		return Answer{}, fmt.Errorf("failed to run %s: %w", path, runErr)
	}

	return ParseAnswer(string(out))
}

var valueRE = regexp.MustCompile(`\((p[0-3])\s+#([xb])([0-9a-fA-F]+)\)`)

// ParseAnswer interprets the output of Script.
func ParseAnswer(out string) (Answer, error) {
	var a Answer

	sc := bufio.NewScanner(strings.NewReader(out))

	first := ""
	for sc.Scan() {
		if first = strings.TrimSpace(sc.Text()); first != "" {
			break
		}
	}

	switch first {
	case "sat":
		a.Status = Sat
	case "unsat":
		a.Status = Unsat
		return a, nil
	case "unknown", "timeout":
		return a, nil
	default:
		return a, fmt.Errorf("%w: %q", ErrBadOutput, first)
	}

	seen := 0

	for _, m := range valueRE.FindAllStringSubmatch(out, -1) {
		base := 16
		if m[2] == "b" {
			base = 2
		}

		v, err := strconv.ParseUint(m[3], base, 32)
		if err != nil {
			return a, fmt.Errorf("%w: value of %s: %w", ErrBadOutput, m[1], err)
		}

		i := int(m[1][1] - '0')
		a.Groups[i] = uint32(v)
		seen |= 1 << i
	}

	if seen != 0xf {
		return a, fmt.Errorf("%w: missing model values", ErrBadOutput)
	}

	return a, nil
}
