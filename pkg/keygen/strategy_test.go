package keygen

import (
	"context"
	"fmt"
	"testing"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
	"github.com/mahdiidarabi/froggy-keygen/internal/invert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownStrategy_Search(t *testing.T) {
	t.Parallel()

	s := NewKnownStrategy()
	pr := NewProblem(formula.DefaultParams(), nil)

	require.True(t, s.Applies(pr))

	r, err := s.Search(context.Background(), pr)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, EmptyNameSerial, r.Serial)
	assert.Equal(t, uint64(0x93D8A8AB9ABCABD9), r.Half1)
	assert.Equal(t, uint64(0xFFA3489979D69257), r.Half2)
	assert.True(t, r.Verified)
	assert.Equal(t, "Known", r.Strategy)

	assert.False(t, s.Applies(NewProblem(formula.DefaultParams(), []byte("Froggy"))))
}

func TestKnownStrategy_Search_RejectsBadEntries(t *testing.T) {
	t.Parallel()

	s := (&KnownStrategy{}).
		WithSerial("Froggy", EmptyNameSerial).
		WithSerial("swamp", "not a serial")

	for _, name := range []string{"Froggy", "swamp"} {
		pr := NewProblem(formula.DefaultParams(), []byte(name))
		require.True(t, s.Applies(pr))

		r, err := s.Search(context.Background(), pr)
		require.NoError(t, err)
		assert.Nil(t, r, name)
	}

	// A valid entry stops verifying once the target moves.
	p := formula.DefaultParams()
	p.Target ^= 1

	r, err := NewKnownStrategy().Search(context.Background(), NewProblem(p, nil))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestKnownStrategy_WithSerial_Canonical(t *testing.T) {
	t.Parallel()

	s := (&KnownStrategy{}).
		WithSerial("", "93d8a8ab9abcabd9ffa3489979d69257").
		WithSerial("swamp", "not a serial")

	assert.Equal(t, EmptyNameSerial, s.Serials[""])
	assert.Equal(t, "not a serial", s.Serials["swamp"])

	r, err := s.Search(context.Background(), NewProblem(formula.DefaultParams(), nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, EmptyNameSerial, r.Serial)
}

func TestFixedPointStrategy_Applies(t *testing.T) {
	t.Parallel()

	s := NewFixedPointStrategy()
	assert.True(t, s.Applies(NewProblem(formula.DefaultParams(), nil)))
	assert.True(t, s.Applies(NewProblem(formula.DefaultParams(), []byte{})))
	assert.False(t, s.Applies(NewProblem(formula.DefaultParams(), []byte("Froggy"))))

	p := formula.DefaultParams()
	p.ForwardXor = 0
	assert.False(t, s.Applies(NewProblem(p, nil)))

	s.AnyName = true
	assert.True(t, s.Applies(NewProblem(formula.DefaultParams(), []byte("Froggy"))))

	r, err := NewFixedPointStrategy().Search(context.Background(), NewProblem(formula.DefaultParams(), []byte("Froggy")))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFixedPointStrategy_Search(t *testing.T) {
	t.Parallel()

	// Move the target so that the all-zero first half with s2 = 0 is valid.
	p := formula.DefaultParams()
	_, h2 := invert.NewReducer(p, formula.EmptyName).Halves(0, 0)
	p.Target = formula.Evaluate(p, formula.EmptyName, 0, h2)

	pr := NewProblem(p, nil)

	r, err := NewFixedPointStrategy().Search(context.Background(), pr)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, "FixedPoint", r.Strategy)
	assert.Zero(t, r.Half1)
	assert.Equal(t, h2, r.Half2)
	assert.True(t, pr.Check(Assignment{Half1: r.Half1, Half2: r.Half2}))
}

func TestFixedPointStrategy_Search_DefaultTarget(t *testing.T) {
	t.Parallel()

	pr := NewProblem(formula.DefaultParams(), nil)

	r, err := NewFixedPointStrategy().Search(context.Background(), pr)
	require.NoError(t, err)

	if r == nil {
		t.Log("Fixed-point path found nothing for the default target")
		return
	}

	assert.True(t, pr.Check(Assignment{Half1: r.Half1, Half2: r.Half2}))
}

func TestChainStrategy_Search(t *testing.T) {
	t.Parallel()

	unavailable := NewConstraintStrategy(&fakeBackend{
		avail: fmt.Errorf("%w: fake", ErrBackendUnavailable),
		solve: lying,
	})
	native := NewConstraintStrategy(NewNativeBackend()).WithConfig(fastConfig(1))

	pr := NewProblem(formula.DefaultParams(), []byte("Froggy"))

	r, err := NewChainStrategy(NewKnownStrategy(), unavailable, native).Search(context.Background(), pr)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "native", r.Backend)

	// Nothing else can answer, so the capability error surfaces.
	_, err = NewChainStrategy(NewKnownStrategy(), NewFixedPointStrategy(), unavailable).Search(context.Background(), pr)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	// The empty name still succeeds without a backend.
	r, err = NewChainStrategy(NewKnownStrategy(), unavailable).Search(context.Background(), NewProblem(formula.DefaultParams(), nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, EmptyNameSerial, r.Serial)

	_, err = NewChainStrategy(NewKnownStrategy(), NewFixedPointStrategy()).Search(context.Background(), pr)
	assert.ErrorIs(t, err, ErrNoStrategy)
}

func TestChainStrategy_Search_NotFound(t *testing.T) {
	t.Parallel()

	lie := NewConstraintStrategy(&fakeBackend{solve: lying}).WithConfig(fastConfig(1))

	r, err := NewChainStrategy(lie).Search(context.Background(), NewProblem(formula.DefaultParams(), []byte("Froggy")))
	require.NoError(t, err)
	assert.Nil(t, r)
}
