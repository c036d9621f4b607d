// Package namehash implements the FNV-1a style 64-bit hash applied to user
// names. It differs from hash/fnv only in that the offset basis and prime
// are parameters.
package namehash

import (
	"encoding/binary"
	"hash"
)

const (
	// Size is the size of the checksum in bytes.
	Size = 8
	// BlockSize is the preferred block size.
	BlockSize = 1

	// DefaultOffset is the non-standard initial state used by the target.
	DefaultOffset uint64 = 0x14650FB0739D0383
	// DefaultPrime is the standard 64-bit FNV prime.
	DefaultPrime uint64 = 0x100000001B3
)

type digest struct {
	offset uint64
	prime  uint64
	h      uint64
}

func (d *digest) BlockSize() int { return BlockSize }

func (d *digest) Reset() { d.h = d.offset }

func (d *digest) Size() int { return Size }

func (d *digest) Sum64() uint64 { return d.h }

func (d *digest) Sum(data []byte) []byte {
	return binary.BigEndian.AppendUint64(data, d.h)
}

func (d *digest) Write(p []byte) (int, error) {
	h := d.h
	for _, c := range p {
		h ^= uint64(c)
		h *= d.prime
	}

	d.h = h

	return len(p), nil
}

// New returns a new hash.Hash64 starting at offset and multiplying by prime.
func New(offset, prime uint64) hash.Hash64 {
	d := &digest{offset: offset, prime: prime}
	d.Reset()

	return d
}

// Sum64 hashes b in one call. An empty b yields offset.
func Sum64(offset, prime uint64, b []byte) uint64 {
	h := New(offset, prime)
	h.Write(b)

	return h.Sum64()
}

// Reverse returns a reversed copy of b.
func Reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i, c := range b {
		r[len(b)-1-i] = c
	}

	return r
}
