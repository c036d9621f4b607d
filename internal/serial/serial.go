// Package serial converts between the textual serial
// XXXXXXXX-XXXXXXXX-XXXXXXXX-XXXXXXXX and the two 64-bit halves the formula
// consumes. The first two groups form the high and low words of the first
// half, the last two those of the second.
package serial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// HexLength is the number of hex digits in a serial.
	HexLength = 32
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("malformed serial")

// FormatError reports why a serial string could not be decoded.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed serial %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Parse decodes a serial. Hyphens may appear anywhere; once they are removed
// exactly 32 hex digits must remain. Case is ignored.
func Parse(s string) (uint64, uint64, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if len(digits) != HexLength {
		return 0, 0, &FormatError{Input: s, Reason: fmt.Sprintf("expected %d hex digits, got %d", HexLength, len(digits))}
	}

	var halves [2]uint64
	for i := range halves {
		v, err := strconv.ParseUint(digits[i*16:(i+1)*16], 16, 64)
		if err != nil {
			return 0, 0, &FormatError{Input: s, Reason: "invalid hex digit"}
		}

		halves[i] = v
	}

	return halves[0], halves[1], nil
}

// Render encodes two halves as an uppercase hyphenated serial.
func Render(h1, h2 uint64) string {
	g := Groups(h1, h2)

	return fmt.Sprintf("%08X-%08X-%08X-%08X", g[0], g[1], g[2], g[3])
}

// Groups splits the halves into the four 32-bit groups of the serial.
func Groups(h1, h2 uint64) [4]uint32 {
	return [4]uint32{uint32(h1 >> 32), uint32(h1), uint32(h2 >> 32), uint32(h2)}
}

// FromGroups joins four 32-bit groups into the two halves.
func FromGroups(g [4]uint32) (uint64, uint64) {
	return uint64(g[0])<<32 | uint64(g[1]), uint64(g[2])<<32 | uint64(g[3])
}

// Canonical parses s and renders it again.
func Canonical(s string) (string, error) {
	h1, h2, err := Parse(s)
	if err != nil {
		return "", err
	}

	return Render(h1, h2), nil
}
