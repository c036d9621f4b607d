// Package bitvec abstracts fixed-width 64-bit arithmetic so that one piece of
// formula code can be evaluated over concrete machine words or over symbolic
// terms handed to a constraint solver.
//
// All operations wrap modulo 2^64 and every right shift is logical.
package bitvec

// Algebra is the set of 64-bit operations a formula may use.
type Algebra[T any] interface {
	// Const lifts a concrete word into the algebra.
	Const(v uint64) T
	Xor(a, b T) T
	Add(a, b T) T
	Mul(a, b T) T
	// Shl shifts left by n bits, zero filling.
	Shl(a T, n uint) T
	// Shr shifts right by n bits, zero filling (logical).
	Shr(a T, n uint) T
}

// Words is the concrete Algebra over uint64.
type Words struct{}

var _ Algebra[uint64] = Words{}

func (Words) Const(v uint64) uint64 { return v }
func (Words) Xor(a, b uint64) uint64 { return a ^ b }
func (Words) Add(a, b uint64) uint64 { return a + b }
func (Words) Mul(a, b uint64) uint64 { return a * b }
func (Words) Shl(a uint64, n uint) uint64 { return a << n }
func (Words) Shr(a uint64, n uint) uint64 { return a >> n }

// XorShiftRight returns x ^ (x >> n) in the given algebra.
func XorShiftRight[T any](alg Algebra[T], x T, n uint) T {
	return alg.Xor(x, alg.Shr(x, n))
}
