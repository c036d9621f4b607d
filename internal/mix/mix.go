// Package mix implements the avalanche mixer used by the license formula.
//
// A Stage is
//
//	t = x ^ (x >> 33)
//	a = P * t
//	b = a ^ (a >> 29)
//	return Q * b
//
// and Final is a Stage followed by one more fold, y ^ (y >> 32). Inside the
// formula only Stage is applied; Final is reserved for the value compared
// against the target.
//
// Both transforms are bijections on 64-bit words: multiplication by an odd
// constant is invertible modulo 2^64 and x ^ (x >> k) is invertible for any
// k >= 1. The inverses are exact.
package mix

import "github.com/mahdiidarabi/froggy-keygen/internal/bitvec"

const (
	// DefaultP is the first multiplier.
	DefaultP uint64 = 0x9E3779B185EBCA87
	// DefaultQ is the second multiplier.
	DefaultQ uint64 = 0xC2B2AE3D27D4EB4F

	shift1     = 33
	shift2     = 29
	finalShift = 32
)

// Constants holds the two odd multipliers of a Stage.
type Constants struct {
	P uint64
	Q uint64
}

// DefaultConstants returns the multipliers found in the target binary.
func DefaultConstants() Constants {
	return Constants{P: DefaultP, Q: DefaultQ}
}

// Stage applies one mixing stage to x in any algebra.
func Stage[T any](alg bitvec.Algebra[T], c Constants, x T) T {
	t := bitvec.XorShiftRight(alg, x, shift1)
	a := alg.Mul(alg.Const(c.P), t)
	b := bitvec.XorShiftRight(alg, a, shift2)

	return alg.Mul(alg.Const(c.Q), b)
}

// Final applies Stage and the terminal fold.
func Final[T any](alg bitvec.Algebra[T], c Constants, x T) T {
	return bitvec.XorShiftRight(alg, Stage(alg, c, x), finalShift)
}

// Stage is the concrete form of the package level Stage.
func (c Constants) Stage(x uint64) uint64 {
	x ^= x >> shift1
	x *= c.P
	x ^= x >> shift2

	return x * c.Q
}

// Final is the concrete form of the package level Final.
func (c Constants) Final(x uint64) uint64 {
	y := c.Stage(x)

	return y ^ (y >> finalShift)
}

// InvertStage returns the unique x with c.Stage(x) == y.
func (c Constants) InvertStage(y uint64) uint64 {
	b := y * Inverse(c.Q)
	a := UnxorShift(b, shift2)
	t := a * Inverse(c.P)

	return UnxorShift(t, shift1)
}

// InvertFinal returns the unique x with c.Final(x) == y.
func (c Constants) InvertFinal(y uint64) uint64 {
	return c.InvertStage(UnxorShift(y, finalShift))
}

// UnxorShift inverts y = x ^ (x >> k). Each bit of x depends only on bits of
// y at the same or higher positions, so x is the xor of y shifted by every
// multiple of k.
func UnxorShift(y uint64, k uint) uint64 {
	if k == 0 {
		panic("mix: zero shift is not invertible")
	}

	x := y
	for s := k; s < 64; s += k {
		x ^= y >> s
	}

	return x
}

// Inverse returns the multiplicative inverse of an odd c modulo 2^64.
func Inverse(c uint64) uint64 {
	if c&1 == 0 {
		panic("mix: even multiplier has no inverse modulo 2^64")
	}

	// c*c == 1 mod 8, so x starts with 3 correct bits and each Newton step
	// doubles them.
	x := c
	for i := 0; i < 5; i++ {
		x *= 2 - c*x
	}

	return x
}
