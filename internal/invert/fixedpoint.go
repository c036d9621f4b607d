package invert

import (
	"context"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
)

// FixedPointOptions bounds the fixed-point heuristic.
type FixedPointOptions struct {
	// Starts are the initial s1 values; the s1 of an all-zero serial is
	// always tried first.
	Starts []uint64
	// MaxIterations per start.
	MaxIterations int
	// Sparse is the number of s1 probes seed*sparseStep+sparseBase tried
	// after the iterations.
	Sparse int
}

const (
	sparseStep = 0x9E3779B1
	sparseBase = 0x6C078965
)

// DefaultFixedPointOptions returns the bounds used by the keygen.
func DefaultFixedPointOptions() FixedPointOptions {
	return FixedPointOptions{
		Starts:        []uint64{0, 1, 0x1337, 0xCAFEBABE},
		MaxIterations: 1 << 12,
		Sparse:        100000,
	}
}

// FixedPoint pins H2 so that s2 is zero, which reduces the check to
//
//	Fold(Stage(s1 ^ K2)) + ((s1 << 7) ^ K3) == s4
//
// and iterates s1 <- ((s4 - Fold(Stage(s1 ^ K2))) ^ K3) >> 7. After each
// run the seven s1 bits discarded by the left shift are swept, and a sparse
// probe of s1 values follows the last start. The map has
// no structure that guarantees convergence, so this is a cheap best-effort
// attempt; every candidate is verified and ok is false when none passes.
func (r *Reducer) FixedPoint(ctx context.Context, opts FixedPointOptions) (h1, h2 uint64, ok bool) {
	const lost = formula.S1LeftShift

	_, h2 = r.Halves(0, 0)

	try := func(s1 uint64) bool {
		h1 = s1 ^ r.fold1
		return formula.Verify(r.p, r.d, h1, h2)
	}

	starts := append([]uint64{r.fold1}, opts.Starts...)
	for _, s1 := range starts {
		for i := 0; i < opts.MaxIterations; i++ {
			if ctx.Err() != nil {
				return 0, 0, false
			}

			if try(s1) {
				return h1, h2, true
			}

			rhs := (r.s4 - formula.Fold(r.p.Mix.Stage(s1^r.p.K2))) ^ r.p.K3

			next := rhs >> lost
			if next == s1 {
				break
			}

			s1 = next
		}

		for v := uint64(0); v < 1<<lost; v++ {
			if try(s1<<lost|v) || try(s1|v<<(64-lost)) {
				return h1, h2, true
			}
		}
	}

	for seed := 0; seed < opts.Sparse; seed++ {
		if seed%checkEvery == 0 && ctx.Err() != nil {
			return 0, 0, false
		}

		if try(uint64(seed)*sparseStep + sparseBase) {
			return h1, h2, true
		}
	}

	return 0, 0, false
}
