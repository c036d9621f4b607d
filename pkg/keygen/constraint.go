package keygen

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnverified marks an assignment that a backend returned but the forward
// formula rejected. It only appears in Attempt.Err.
var ErrUnverified = errors.New("keygen: assignment failed verification")

// Attempt describes one backend call.
type Attempt struct {
	Seed    uint32
	Tier    int
	Timeout time.Duration
	Elapsed time.Duration
	Err     error // nil when the attempt produced a verified assignment
}

// ConstraintStrategy asks a Backend for assignments, retrying across seeds
// and escalating the per-attempt timeout tier by tier.
type ConstraintStrategy struct {
	Backend Backend
	Config  SearchConfig

	// OnAttempt, when set, is called after every backend call. It may be
	// called from several goroutines at once.
	OnAttempt func(Attempt)

	log zerolog.Logger
}

// NewConstraintStrategy creates a constraint strategy over backend with the
// default budget.
func NewConstraintStrategy(backend Backend) *ConstraintStrategy {
	return &ConstraintStrategy{
		Backend: backend,
		Config:  DefaultSearchConfig(),
		log:     zerolog.Nop(),
	}
}

// WithConfig sets the search budget.
func (s *ConstraintStrategy) WithConfig(config SearchConfig) *ConstraintStrategy {
	s.Config = config
	return s
}

// WithOnAttempt sets the attempt hook.
func (s *ConstraintStrategy) WithOnAttempt(fn func(Attempt)) *ConstraintStrategy {
	s.OnAttempt = fn
	return s
}

// WithLogger sets the logger.
func (s *ConstraintStrategy) WithLogger(log zerolog.Logger) *ConstraintStrategy {
	s.log = log
	return s
}

// Name returns the name of this strategy.
func (s *ConstraintStrategy) Name() string {
	return "Constraint"
}

// Search implements the Strategy interface.
func (s *ConstraintStrategy) Search(ctx context.Context, pr Problem) (*SolveResult, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}

	if err := s.Backend.Available(); err != nil {
		return nil, err
	}

	start := time.Now()

	var attempts atomic.Int64

	log := s.log.With().Str("backend", s.Backend.Name()).Logger()

	for tier, timeout := range s.Config.Tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info().
			Int("tier", tier).
			Dur("timeout", timeout).
			Int("seeds", len(s.Config.Seeds)).
			Msg("starting constraint search")

		r, err := s.runTier(ctx, pr, tier, timeout, &attempts)
		if err != nil {
			return nil, err
		}

		if r != nil {
			r.Attempts = int(attempts.Load())
			r.Elapsed = time.Since(start)

			log.Info().
				Uint32("seed", r.Seed).
				Int("tier", tier).
				Int("attempts", r.Attempts).
				Msg("found serial")

			return r, nil
		}

		log.Info().Int("tier", tier).Msg("no seed succeeded in tier")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().Int("attempts", int(attempts.Load())).Msg("all tiers exhausted")

	return nil, nil
}

// runTier dispatches every seed to a worker pool with the given attempt
// timeout. The first verified assignment cancels the remaining attempts.
func (s *ConstraintStrategy) runTier(ctx context.Context, pr Problem, tier int, timeout time.Duration, attempts *atomic.Int64) (*SolveResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := s.Config.Workers
	if numWorkers == 0 {
		numWorkers = runtime.NumCPU()
	}

	if numWorkers > len(s.Config.Seeds) {
		numWorkers = len(s.Config.Seeds)
	}

	resultChan := make(chan *SolveResult, 1)
	errChan := make(chan error, 1)
	workChan := make(chan uint32)

	// Generate work
	go func() {
		defer close(workChan)

		for _, seed := range s.Config.Seeds {
			select {
			case <-ctx.Done():
				return
			case workChan <- seed:
			}
		}
	}()

	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for seed := range workChan {
				if ctx.Err() != nil {
					return
				}

				a, err := s.attempt(ctx, pr, tier, seed, timeout)
				attempts.Add(1)

				switch {
				case err == nil:
					r := &SolveResult{
						Name:     string(pr.Name),
						Strategy: s.Name(),
						Backend:  s.Backend.Name(),
						Seed:     seed,
						Tier:     tier,
					}

					select {
					case resultChan <- r.found(a):
					default:
					}

					cancel()

					return
				case errors.Is(err, ErrBackendUnavailable):
					select {
					case errChan <- err:
					default:
					}

					cancel()

					return
				}
			}
		}()
	}

	// Wait for result or completion
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case r := <-resultChan:
		cancel()
		<-done

		return r, nil
	case <-done:
	}

	select {
	case r := <-resultChan:
		return r, nil
	case err := <-errChan:
		return nil, err
	default:
		return nil, nil
	}
}

// attempt makes one bounded backend call and gates its answer on forward
// verification.
func (s *ConstraintStrategy) attempt(ctx context.Context, pr Problem, tier int, seed uint32, timeout time.Duration) (Assignment, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	a, err := s.Backend.Solve(actx, pr, seed)
	if err == nil && !pr.Check(a) {
		s.log.Warn().
			Str("backend", s.Backend.Name()).
			Uint32("seed", seed).
			Str("serial", a.Serial()).
			Msg("discarding assignment that fails verification")

		err = ErrUnverified
	}

	elapsed := time.Since(start)

	s.log.Debug().
		Str("backend", s.Backend.Name()).
		Uint32("seed", seed).
		Int("tier", tier).
		Dur("elapsed", elapsed).
		AnErr("result", err).
		Msg("attempt finished")

	if s.OnAttempt != nil {
		s.OnAttempt(Attempt{Seed: seed, Tier: tier, Timeout: timeout, Elapsed: elapsed, Err: err})
	}

	return a, err
}
