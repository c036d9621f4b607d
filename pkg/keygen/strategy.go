package keygen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/internal/invert"
	"github.com/mahdiidarabi/froggy-keygen/internal/serial"
	"github.com/rs/zerolog"
)

// Strategy defines the interface for serial search strategies.
// Implement this interface to plug a custom search into the Client.
type Strategy interface {
	// Search looks for a serial for pr. It returns a verified result, or nil
	// when nothing was found. Errors are reserved for conditions the caller
	// must act on, such as a missing backend or a cancelled ctx.
	Search(ctx context.Context, pr Problem) (*SolveResult, error)

	// Name returns a human-readable name for this strategy.
	Name() string
}

// Applier is implemented by strategies that only handle some problems.
// ChainStrategy skips a strategy whose Applies returns false.
type Applier interface {
	Applies(pr Problem) bool
}

// EmptyNameSerial is a serial accepted for the empty name.
const EmptyNameSerial = "93D8A8AB-9ABCABD9-FFA34899-79D69257"

// SearchConfig is the retry budget of a constraint search.
type SearchConfig struct {
	// Seeds are the solver random seeds, tried in order within each tier.
	Seeds []uint32

	// Tiers are the per-attempt timeouts. A tier runs only when every seed
	// of the previous tier failed.
	Tiers []time.Duration

	// Workers controls parallelization (0 = runtime.NumCPU, 1 = sequential)
	Workers int
}

var defaultSeeds = []uint32{
	1, 2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47,
	53, 59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
	127, 131, 137, 139, 149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199,
}

// DefaultSeeds returns a copy of the default seed list: 1 and the primes
// up to 199.
func DefaultSeeds() []uint32 {
	return append([]uint32(nil), defaultSeeds...)
}

// DefaultSearchConfig returns the default budget: every default seed with a
// 15 second timeout, then again with 60 seconds.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Seeds:   DefaultSeeds(),
		Tiers:   []time.Duration{15 * time.Second, 60 * time.Second},
		Workers: 0, // Auto-detect
	}
}

// Validate checks that the budget allows at least one attempt.
func (c SearchConfig) Validate() error {
	if len(c.Seeds) == 0 {
		return errors.New("keygen: no seeds configured")
	}

	if len(c.Tiers) == 0 {
		return errors.New("keygen: no timeout tiers configured")
	}

	for i, t := range c.Tiers {
		if t <= 0 {
			return fmt.Errorf("keygen: tier %d timeout must be positive, got %s", i, t)
		}
	}

	if c.Workers < 0 {
		return fmt.Errorf("keygen: negative worker count %d", c.Workers)
	}

	return nil
}

// FixedPointConfig bounds the algebraic search.
type FixedPointConfig struct {
	Starts        []uint64 // Initial s1 values
	MaxIterations int      // Iterations per start
	Sparse        int      // Number of sparse s1 probes
}

// DefaultFixedPointConfig returns the default bounds.
func DefaultFixedPointConfig() FixedPointConfig {
	o := invert.DefaultFixedPointOptions()

	return FixedPointConfig{Starts: o.Starts, MaxIterations: o.MaxIterations, Sparse: o.Sparse}
}

// FixedPointStrategy inverts the formula directly for the empty name: the
// second half is fixed so that s2 vanishes and the remaining one-unknown
// equation is iterated to a fixed point. It is best-effort and finds
// nothing for most inputs.
type FixedPointStrategy struct {
	Config FixedPointConfig

	// AnyName lifts the restriction to the empty name.
	AnyName bool

	log zerolog.Logger
}

// NewFixedPointStrategy creates a fixed-point strategy with default bounds.
func NewFixedPointStrategy() *FixedPointStrategy {
	return &FixedPointStrategy{
		Config: DefaultFixedPointConfig(),
		log:    zerolog.Nop(),
	}
}

// WithConfig sets the search bounds.
func (s *FixedPointStrategy) WithConfig(config FixedPointConfig) *FixedPointStrategy {
	s.Config = config
	return s
}

// WithLogger sets the logger.
func (s *FixedPointStrategy) WithLogger(log zerolog.Logger) *FixedPointStrategy {
	s.log = log
	return s
}

// Name returns the name of this strategy.
func (s *FixedPointStrategy) Name() string {
	return "FixedPoint"
}

// Applies implements the Applier interface.
func (s *FixedPointStrategy) Applies(pr Problem) bool {
	return s.AnyName || pr.EmptyName()
}

// Search implements the Strategy interface.
func (s *FixedPointStrategy) Search(ctx context.Context, pr Problem) (*SolveResult, error) {
	if !s.Applies(pr) {
		return nil, nil
	}

	start := time.Now()

	h1, h2, ok := invert.NewReducer(pr.Params, pr.Derived).FixedPoint(ctx, invert.FixedPointOptions{
		Starts:        s.Config.Starts,
		MaxIterations: s.Config.MaxIterations,
		Sparse:        s.Config.Sparse,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := Assignment{Half1: h1, Half2: h2}
	if !ok || !pr.Check(a) {
		s.log.Debug().Dur("elapsed", time.Since(start)).Msg("fixed-point search found nothing")
		return nil, nil
	}

	r := &SolveResult{
		Name:     string(pr.Name),
		Strategy: s.Name(),
		Elapsed:  time.Since(start),
	}

	return r.found(a), nil
}

// KnownStrategy answers from a table of serials. Every entry is verified
// against the problem before use, so a stale table under different
// parameters yields nothing rather than a wrong serial.
type KnownStrategy struct {
	// Serials maps names to serials.
	Serials map[string]string

	log zerolog.Logger
}

// NewKnownStrategy creates a table holding EmptyNameSerial.
func NewKnownStrategy() *KnownStrategy {
	return &KnownStrategy{
		Serials: map[string]string{"": EmptyNameSerial},
		log:     zerolog.Nop(),
	}
}

// WithSerial adds an entry to the table, stored in canonical form when it
// parses. Malformed entries are kept as given and skipped by Search.
func (s *KnownStrategy) WithSerial(name, text string) *KnownStrategy {
	if s.Serials == nil {
		s.Serials = make(map[string]string)
	}

	if c, err := serial.Canonical(text); err == nil {
		text = c
	}

	s.Serials[name] = text
	return s
}

// WithLogger sets the logger.
func (s *KnownStrategy) WithLogger(log zerolog.Logger) *KnownStrategy {
	s.log = log
	return s
}

// Name returns the name of this strategy.
func (s *KnownStrategy) Name() string {
	return "Known"
}

// Applies implements the Applier interface.
func (s *KnownStrategy) Applies(pr Problem) bool {
	_, ok := s.Serials[string(pr.Name)]
	return ok
}

// Search implements the Strategy interface.
func (s *KnownStrategy) Search(_ context.Context, pr Problem) (*SolveResult, error) {
	text, ok := s.Serials[string(pr.Name)]
	if !ok {
		return nil, nil
	}

	h1, h2, err := serial.Parse(text)
	if err != nil {
		s.log.Warn().Err(err).Str("name", string(pr.Name)).Msg("ignoring malformed table entry")
		return nil, nil
	}

	a := Assignment{Half1: h1, Half2: h2}
	if !pr.Check(a) {
		s.log.Warn().Str("name", string(pr.Name)).Str("serial", text).Msg("table entry does not verify")
		return nil, nil
	}

	r := &SolveResult{Name: string(pr.Name), Strategy: s.Name()}

	return r.found(a), nil
}

// ChainStrategy runs strategies in order and returns the first result.
type ChainStrategy struct {
	Strategies []Strategy

	log zerolog.Logger
}

// NewChainStrategy creates a chain of the given strategies.
func NewChainStrategy(strategies ...Strategy) *ChainStrategy {
	return &ChainStrategy{Strategies: strategies, log: zerolog.Nop()}
}

// WithLogger sets the logger.
func (s *ChainStrategy) WithLogger(log zerolog.Logger) *ChainStrategy {
	s.log = log
	return s
}

// Name returns the name of this strategy.
func (s *ChainStrategy) Name() string {
	return "Chain"
}

// Search implements the Strategy interface. A strategy failing with
// ErrBackendUnavailable does not stop the chain; the error is returned
// only if no later strategy finds a serial.
func (s *ChainStrategy) Search(ctx context.Context, pr Problem) (*SolveResult, error) {
	var (
		unavailable error
		ran         int
	)

	for _, st := range s.Strategies {
		if ap, ok := st.(Applier); ok && !ap.Applies(pr) {
			s.log.Debug().Str("strategy", st.Name()).Msg("strategy does not apply")
			continue
		}

		ran++

		s.log.Debug().Str("strategy", st.Name()).Msg("trying strategy")

		r, err := st.Search(ctx, pr)
		switch {
		case errors.Is(err, ErrBackendUnavailable):
			s.log.Warn().Err(err).Str("strategy", st.Name()).Msg("strategy unavailable")
			unavailable = err
			continue
		case err != nil:
			return nil, err
		case r != nil:
			return r, nil
		}
	}

	if unavailable != nil {
		return nil, unavailable
	}

	if ran == 0 {
		return nil, ErrNoStrategy
	}

	return nil, nil
}
