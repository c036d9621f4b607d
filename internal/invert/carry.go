// Package invert recovers serial halves for a fixed name without a general
// constraint solver.
//
// Final and Stage are bijections, so the value s4 that must reach the last
// mixer is known exactly: s4 = Final⁻¹(target). Writing the remaining
// relation in terms of s2 and a chosen s3,
//
//	s1 = s3 ^ K2 ^ (s2 << 17) ^ (s2 >> 3)
//	((s1 << 7) ^ K3) + (s2 >> 5) = s4 - Fold(Stage(s3))
//
// the left side is a sum whose bit i only involves s2 bits at positions
// i-24, i-4 and i+5. Scanning from bit 0 upwards with the addition carry,
// bit i of the sum fixes s2 bit i+5 once s2 bits 0..4 are guessed. The top
// five sum bits have no free s2 bit left and act as a check. Each choice of
// s3 therefore costs 32 linear scans and yields one solution on average.
package invert

import (
	"context"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
)

const (
	// s1<<7 carries s2<<17 up to s2<<24 and s2>>3 to s2 bit i-4 at bit i.
	leadShift = formula.S2LeftShift + formula.S1LeftShift
	midShift  = formula.S1LeftShift - formula.S2RightMix
	tailShift = formula.S2Tail
	freeBits  = 1 << tailShift

	// how many s3 candidates are tried between context checks
	checkEvery = 256
)

// Reducer holds the per-name quantities of the inversion.
type Reducer struct {
	p formula.Params
	d formula.Derived

	fold1 uint64 // Fold(Stage(A)), xored into H1 to give s1
	fold2 uint64 // Fold(Stage(B)) ^ K1, xored into H2 to give s2
	s4    uint64 // required input of the terminal Final
}

// NewReducer precomputes the name dependent terms.
func NewReducer(p formula.Params, d formula.Derived) *Reducer {
	return &Reducer{
		p:     p,
		d:     d,
		fold1: formula.Fold(p.Mix.Stage(d.A)),
		fold2: formula.Fold(p.Mix.Stage(d.B)) ^ p.K1,
		s4:    p.Mix.InvertFinal(p.Target),
	}
}

// Halves converts stage values s1 and s2 back to serial halves.
func (r *Reducer) Halves(s1, s2 uint64) (uint64, uint64) {
	return s1 ^ r.fold1, s2 ^ r.fold2
}

// ForS3 enumerates every (H1, H2) whose s3 equals s3, calling yield for each
// until it returns false. It reports whether enumeration ran to completion.
// Candidates are checked against the full formula before being yielded.
func (r *Reducer) ForS3(s3 uint64, yield func(h1, h2 uint64) bool) bool {
	d := r.s4 - formula.Fold(r.p.Mix.Stage(s3))
	a := ((s3 ^ r.p.K2) << formula.S1LeftShift) ^ r.p.K3

	for low := uint64(0); low < freeBits; low++ {
		s2, ok := solveS2(a, d, low)
		if !ok {
			continue
		}

		s1 := s3 ^ r.p.K2 ^ (s2 << formula.S2LeftShift) ^ (s2 >> formula.S2RightMix)

		h1, h2 := r.Halves(s1, s2)
		if !formula.Verify(r.p, r.d, h1, h2) {
			continue
		}

		if !yield(h1, h2) {
			return false
		}
	}

	return true
}

// Search draws s3 values from next until a verified serial is found or ctx
// is done.
func (r *Reducer) Search(ctx context.Context, next func() uint64) (h1, h2 uint64, tried int, ok bool) {
	for {
		if tried%checkEvery == 0 && ctx.Err() != nil {
			return 0, 0, tried, false
		}

		tried++

		r.ForS3(next(), func(a, b uint64) bool {
			h1, h2, ok = a, b, true
			return false
		})

		if ok {
			return h1, h2, tried, true
		}
	}
}

// solveS2 finds the s2 with low bits low satisfying
//
//	a ^ (s2 << 24) ^ ((s2 >> 3) << 7) + (s2 >> 5) == d
func solveS2(a, d, low uint64) (uint64, bool) {
	s2 := low

	var carry uint64

	for i := uint(0); i < 64; i++ {
		x := a >> i & 1
		if i >= leadShift {
			x ^= s2 >> (i - leadShift) & 1
		}

		if i >= formula.S1LeftShift {
			x ^= s2 >> (i - midShift) & 1
		}

		want := d >> i & 1

		var y uint64

		if i+tailShift < 64 {
			y = want ^ x ^ carry
			s2 |= y << (i + tailShift)
		} else if x^carry != want {
			return 0, false
		}

		carry = x&y | x&carry | y&carry
	}

	return s2, true
}
