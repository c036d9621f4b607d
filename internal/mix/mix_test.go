package mix_test

import (
	"math/rand/v2"
	"testing"

	"github.com/mahdiidarabi/froggy-keygen/internal/bitvec"
	"github.com/mahdiidarabi/froggy-keygen/internal/mix"
	"github.com/stretchr/testify/assert"
)

func samples() []uint64 {
	r := rand.New(rand.NewPCG(1, 2))

	s := []uint64{0, 1, 1 << 63, ^uint64(0), 0x8000000000000001, 0xB9229933597558C9}
	for i := 0; i < 1000; i++ {
		s = append(s, r.Uint64())
	}

	return s
}

func TestFinalIsStagePlusFold(t *testing.T) {
	t.Parallel()

	c := mix.DefaultConstants()

	for _, x := range samples() {
		y := c.Stage(x)
		assert.Equal(t, y^(y>>32), c.Final(x))
	}
}

func TestGenericMatchesConcrete(t *testing.T) {
	t.Parallel()

	c := mix.DefaultConstants()

	for _, x := range samples() {
		assert.Equal(t, c.Stage(x), mix.Stage[uint64](bitvec.Words{}, c, x))
		assert.Equal(t, c.Final(x), mix.Final[uint64](bitvec.Words{}, c, x))
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	c := mix.DefaultConstants()

	for _, x := range samples() {
		assert.Equal(t, c.Stage(x), c.Stage(x))
		assert.Equal(t, c.Final(x), c.Final(x))
	}
}

// A signed shift would smear the top bit into the high word.
func TestShiftIsLogical(t *testing.T) {
	t.Parallel()

	c := mix.Constants{P: 1, Q: 1}

	x := uint64(1 << 63)
	assert.Equal(t, x^(x>>33)^((x^(x>>33))>>29), c.Stage(x))
	assert.Equal(t, uint64(0x8000000440000002), c.Stage(x))
}

func TestInverse(t *testing.T) {
	t.Parallel()

	for _, v := range []uint64{1, 3, mix.DefaultP, mix.DefaultQ, 0x100000001B3, ^uint64(0)} {
		assert.Equal(t, uint64(1), v*mix.Inverse(v), "%#x", v)
	}

	assert.Panics(t, func() { mix.Inverse(2) })
}

func TestUnxorShift(t *testing.T) {
	t.Parallel()

	for _, k := range []uint{1, 3, 29, 32, 33, 63} {
		for _, x := range samples()[:100] {
			assert.Equal(t, x, mix.UnxorShift(x^(x>>k), k))
		}
	}

	assert.Panics(t, func() { mix.UnxorShift(1, 0) })
}

func TestInvertStage(t *testing.T) {
	t.Parallel()

	c := mix.DefaultConstants()

	for _, x := range samples() {
		assert.Equal(t, x, c.InvertStage(c.Stage(x)))
		assert.Equal(t, x, c.Stage(c.InvertStage(x)))
	}
}

func TestInvertFinal(t *testing.T) {
	t.Parallel()

	c := mix.DefaultConstants()

	for _, x := range samples() {
		assert.Equal(t, x, c.InvertFinal(c.Final(x)))
	}

	target := uint64(0xB9229933597558C9)
	assert.Equal(t, target, c.Final(c.InvertFinal(target)))
}
