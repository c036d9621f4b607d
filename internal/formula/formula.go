// Package formula reproduces the serial check of the target binary.
//
// The name is hashed forwards and backwards into two derived constants A and
// B. Together with the two 64-bit serial halves H1 and H2 they are combined
// as follows (all arithmetic modulo 2^64, shifts logical):
//
//	m1 = Stage(A)
//	m2 = Stage(B)
//	s1 = m1 ^ H1 ^ (m1 >> 32)
//	s2 = m2 ^ H2 ^ (m2 >> 32) ^ K1
//	s3 = (s2 << 17) ^ (s2 >> 3) ^ s1 ^ K2
//	m3 = Stage(s3)
//	s4 = (m3 ^ (m3 >> 32)) + ((s1 << 7) ^ K3) + (s2 >> 5)
//	result = Final(s4)
//
// A serial is valid when result equals the target constant.
package formula

import (
	"github.com/mahdiidarabi/froggy-keygen/internal/bitvec"
	"github.com/mahdiidarabi/froggy-keygen/internal/mix"
)

// Shift amounts of the combining stages.
const (
	FoldShift   = 32
	S2LeftShift = 17
	S2RightMix  = 3
	S1LeftShift = 7
	S2Tail      = 5
)

// Trace holds every intermediate value of one evaluation.
type Trace[T any] struct {
	M1, M2 T
	S1, S2 T
	S3     T
	M3     T
	S4     T
	Result T
}

// Stages evaluates the formula in alg and keeps the intermediates.
func Stages[T any](alg bitvec.Algebra[T], p Params, a, b, h1, h2 T) Trace[T] {
	var tr Trace[T]

	tr.M1 = mix.Stage(alg, p.Mix, a)
	tr.M2 = mix.Stage(alg, p.Mix, b)

	tr.S1 = alg.Xor(bitvec.XorShiftRight(alg, tr.M1, FoldShift), h1)
	tr.S2 = alg.Xor(alg.Xor(bitvec.XorShiftRight(alg, tr.M2, FoldShift), h2), alg.Const(p.K1))

	tr.S3 = alg.Xor(
		alg.Xor(alg.Shl(tr.S2, S2LeftShift), alg.Shr(tr.S2, S2RightMix)),
		alg.Xor(tr.S1, alg.Const(p.K2)),
	)
	tr.M3 = mix.Stage(alg, p.Mix, tr.S3)

	tr.S4 = alg.Add(
		alg.Add(
			bitvec.XorShiftRight(alg, tr.M3, FoldShift),
			alg.Xor(alg.Shl(tr.S1, S1LeftShift), alg.Const(p.K3)),
		),
		alg.Shr(tr.S2, S2Tail),
	)
	tr.Result = mix.Final(alg, p.Mix, tr.S4)

	return tr
}

// Eval evaluates the formula in alg.
func Eval[T any](alg bitvec.Algebra[T], p Params, a, b, h1, h2 T) T {
	return Stages(alg, p, a, b, h1, h2).Result
}

// Evaluate computes the formula for a name's derived constants and a serial.
func Evaluate(p Params, d Derived, h1, h2 uint64) uint64 {
	return Eval[uint64](bitvec.Words{}, p, d.A, d.B, h1, h2)
}

// Explain returns the concrete intermediates for a serial.
func Explain(p Params, d Derived, h1, h2 uint64) Trace[uint64] {
	return Stages[uint64](bitvec.Words{}, p, d.A, d.B, h1, h2)
}

// Verify reports whether (h1, h2) is accepted for d.
func Verify(p Params, d Derived, h1, h2 uint64) bool {
	return Evaluate(p, d, h1, h2) == p.Target
}

// Fold returns x ^ (x >> 32), the term m1 and m2 contribute to s1 and s2.
func Fold(x uint64) uint64 {
	return x ^ (x >> FoldShift)
}
