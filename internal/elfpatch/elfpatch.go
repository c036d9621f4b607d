// Package elfpatch overwrites an instruction in an ELF image with NOPs,
// locating it by virtual address.
package elfpatch

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/plumbing"
)

const (
	// DefaultAddr is the virtual address of the conditional jump taken when
	// the serial check fails.
	DefaultAddr = 0x2734
	// DefaultSize is the length of that jump, a short Jcc.
	DefaultSize = 2

	nop = 0x90
)

var (
	// ErrNotELF is returned for images debug/elf cannot parse.
	ErrNotELF = errors.New("elfpatch: not an ELF image")
	// ErrOutOfRange is returned when the patch would not fit in the image.
	ErrOutOfRange = errors.New("elfpatch: address outside the image")
)

// Result describes an applied patch.
type Result struct {
	Offset   int64  // File offset of the patched bytes
	Original []byte // Bytes before patching
	Mapped   bool   // Whether Offset came from a PT_LOAD segment
}

// IsShortJcc reports whether the original bytes start with a short
// conditional jump opcode.
func (r Result) IsShortJcc() bool {
	return len(r.Original) == 2 && r.Original[0] >= 0x70 && r.Original[0] <= 0x7F
}

// Offset resolves vaddr to a file offset through the PT_LOAD segment whose
// file-backed range contains it. When no segment matches, vaddr is used as a
// raw file offset, which holds for images linked at base zero.
func Offset(image []byte, vaddr uint64) (int64, bool, error) {
	f, err := elf.NewFile(bytes.NewReader(image))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrNotELF, err)
	}
	defer f.Close()

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}

		if vaddr >= p.Vaddr && vaddr-p.Vaddr < p.Filesz {
			return int64(p.Off + (vaddr - p.Vaddr)), true, nil
		}
	}

	return int64(vaddr), false, nil
}

// Patch overwrites n bytes at vaddr in image with NOPs, in place.
func Patch(image []byte, vaddr uint64, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("elfpatch: invalid patch length %d", n)
	}

	off, mapped, err := Offset(image, vaddr)
	if err != nil {
		return Result{}, err
	}

	if off < 0 || off > int64(len(image)) || int64(n) > int64(len(image))-off {
		return Result{}, fmt.Errorf("%w: 0x%x+%d, image is %d bytes", ErrOutOfRange, vaddr, n, len(image))
	}

	r := Result{
		Offset:   off,
		Original: append([]byte(nil), image[off:off+int64(n)]...),
		Mapped:   mapped,
	}

	if _, err := io.ReadFull(plumbing.FillReader(nop), image[off:off+int64(n)]); err != nil {
		return Result{}, err
	}

	return r, nil
}
