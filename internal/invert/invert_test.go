package invert

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
	"github.com/mahdiidarabi/froggy-keygen/internal/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveS2(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(5, 8))

	for i := 0; i < 10000; i++ {
		a, s2 := r.Uint64(), r.Uint64()
		d := (a ^ (s2 << 24) ^ ((s2 >> 3) << 7)) + (s2 >> 5)

		got, ok := solveS2(a, d, s2&(freeBits-1))
		require.True(t, ok)
		assert.Equal(t, s2, got)
	}
}

func TestReducer(t *testing.T) {
	t.Parallel()

	p := formula.DefaultParams()
	rd := NewReducer(p, formula.EmptyName)

	assert.Equal(t, p.Target, p.Mix.Final(rd.s4))

	s1, s2 := 0x93D8A8AB9ABCABD9^rd.fold1, 0xFFA3489979D69257^rd.fold2
	tr := formula.Explain(p, formula.EmptyName, 0x93D8A8AB9ABCABD9, 0xFFA3489979D69257)
	assert.Equal(t, tr.S1, s1)
	assert.Equal(t, tr.S2, s2)
	assert.Equal(t, rd.s4, tr.S4)

	h1, h2 := rd.Halves(s1, s2)
	assert.Equal(t, uint64(0x93D8A8AB9ABCABD9), h1)
	assert.Equal(t, uint64(0xFFA3489979D69257), h2)
}

// The known serial's own s3 must be rediscovered by the scan.
func TestForS3FindsKnownSerial(t *testing.T) {
	t.Parallel()

	p := formula.DefaultParams()
	rd := NewReducer(p, formula.EmptyName)
	tr := formula.Explain(p, formula.EmptyName, 0x93D8A8AB9ABCABD9, 0xFFA3489979D69257)

	var found []string

	rd.ForS3(tr.S3, func(h1, h2 uint64) bool {
		found = append(found, serial.Render(h1, h2))
		return true
	})

	assert.Contains(t, found, "93D8A8AB-9ABCABD9-FFA34899-79D69257")
}

func TestSearch(t *testing.T) {
	t.Parallel()

	p := formula.DefaultParams()

	for _, name := range []string{"", "Froggy", "a", "swamp", "Libertas", "Ünïcödé"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := p.DeriveString(name)
			rng := rand.New(rand.NewPCG(1, 0))

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			h1, h2, tried, ok := NewReducer(p, d).Search(ctx, rng.Uint64)
			require.True(t, ok)
			assert.True(t, formula.Verify(p, d, h1, h2))
			t.Logf("%q: %s after %d s3 candidates", name, serial.Render(h1, h2), tried)
		})
	}
}

func TestSearchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, tried, ok := NewReducer(formula.DefaultParams(), formula.EmptyName).Search(ctx, func() uint64 { return 0 })
	assert.False(t, ok)
	assert.Zero(t, tried)
}

func TestFixedPointAllZeroFirstHalf(t *testing.T) {
	t.Parallel()

	p := formula.DefaultParams()
	rd := NewReducer(p, formula.EmptyName)

	// Move the target so that H1 = 0 with s2 = 0 is the answer.
	_, h2 := rd.Halves(0, 0)
	p.Target = formula.Evaluate(p, formula.EmptyName, 0, h2)

	got1, got2, ok := NewReducer(p, formula.EmptyName).FixedPoint(context.Background(), DefaultFixedPointOptions())
	require.True(t, ok)
	assert.Zero(t, got1)
	assert.Equal(t, h2, got2)
}

func TestFixedPointNeverUnverified(t *testing.T) {
	t.Parallel()

	p := formula.DefaultParams()
	opts := FixedPointOptions{Starts: []uint64{7}, MaxIterations: 64}

	h1, h2, ok := NewReducer(p, formula.EmptyName).FixedPoint(context.Background(), opts)
	if ok {
		assert.True(t, formula.Verify(p, formula.EmptyName, h1, h2))
	} else {
		assert.Zero(t, h1)
		assert.Zero(t, h2)
	}
}

func TestFixedPointCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, ok := NewReducer(formula.DefaultParams(), formula.EmptyName).FixedPoint(ctx, DefaultFixedPointOptions())
	assert.False(t, ok)
}
