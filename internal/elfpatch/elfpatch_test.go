package elfpatch_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/mahdiidarabi/froggy-keygen/internal/elfpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imageSize = 0x3000

// image builds a little-endian ELF64 executable of imageSize bytes with the
// given program headers and a short JNZ at file offset 0x1734.
func image(t *testing.T, progs ...elf.Prog64) []byte {
	t.Helper()

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	hdr := elf.Header64{
		Ident:     ident,
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Phoff:     64,
		Ehsize:    64,
		Phentsize: 56,
		Phnum:     uint16(len(progs)),
		Shentsize: 64,
	}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))

	for _, p := range progs {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, p))
	}

	b := make([]byte, imageSize)
	copy(b, buf.Bytes())
	b[0x1734], b[0x1735] = 0x75, 0x0E

	return b
}

func load(off, vaddr, filesz, memsz uint64) elf.Prog64 {
	return elf.Prog64{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Off:    off,
		Vaddr:  vaddr,
		Paddr:  vaddr,
		Filesz: filesz,
		Memsz:  memsz,
		Align:  0x1000,
	}
}

func TestPatchMapsThroughLoadSegment(t *testing.T) {
	t.Parallel()

	img := image(t,
		elf.Prog64{Type: uint32(elf.PT_PHDR), Off: 64, Vaddr: 64, Filesz: 56, Memsz: 56},
		load(0, 0, 0x1000, 0x1000),
		load(0x1000, 0x2000, 0x1000, 0x1000),
	)
	orig := append([]byte(nil), img...)

	r, err := elfpatch.Patch(img, elfpatch.DefaultAddr, elfpatch.DefaultSize)
	require.NoError(t, err)

	assert.Equal(t, int64(0x1734), r.Offset)
	assert.True(t, r.Mapped)
	assert.Equal(t, []byte{0x75, 0x0E}, r.Original)
	assert.True(t, r.IsShortJcc())
	assert.Equal(t, []byte{0x90, 0x90}, img[0x1734:0x1736])

	// nothing else changed
	copy(img[0x1734:], orig[0x1734:0x1736])
	assert.Equal(t, orig, img)
}

func TestPatchRawOffsetFallback(t *testing.T) {
	t.Parallel()

	// The segment only covers 0x2000..0x2700 in the file; the rest is bss.
	img := image(t, load(0x1000, 0x2000, 0x700, 0x1000))

	off, mapped, err := elfpatch.Offset(img, elfpatch.DefaultAddr)
	require.NoError(t, err)
	assert.False(t, mapped)
	assert.Equal(t, int64(elfpatch.DefaultAddr), off)

	r, err := elfpatch.Patch(img, elfpatch.DefaultAddr, elfpatch.DefaultSize)
	require.NoError(t, err)
	assert.False(t, r.Mapped)
	assert.False(t, r.IsShortJcc())
	assert.Equal(t, []byte{0x90, 0x90}, img[0x2734:0x2736])
}

func TestPatchErrors(t *testing.T) {
	t.Parallel()

	_, err := elfpatch.Patch([]byte("definitely not an executable"), elfpatch.DefaultAddr, 2)
	assert.ErrorIs(t, err, elfpatch.ErrNotELF)

	img := image(t)

	_, err = elfpatch.Patch(img, imageSize-1, 2)
	assert.ErrorIs(t, err, elfpatch.ErrOutOfRange)

	_, err = elfpatch.Patch(img, 1<<40, 2)
	assert.ErrorIs(t, err, elfpatch.ErrOutOfRange)

	_, err = elfpatch.Patch(img, elfpatch.DefaultAddr, 0)
	assert.Error(t, err)

	_, err = elfpatch.Patch(img, 1<<63, 2)
	assert.ErrorIs(t, err, elfpatch.ErrOutOfRange)
}
