package keygen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/internal/invert"
	"github.com/mahdiidarabi/froggy-keygen/internal/serial"
	"github.com/mahdiidarabi/froggy-keygen/internal/smt"
)

// Backend finds assignments satisfying a problem. Implementations must be
// safe for concurrent use: one Solve call runs per worker.
type Backend interface {
	// Name returns a short identifier such as "z3".
	Name() string

	// Available returns an error wrapping ErrBackendUnavailable when the
	// backend cannot run.
	Available() error

	// Solve makes one attempt with the given seed. It returns ErrUnknown
	// when ctx expires and ErrUnsat when no assignment exists. The returned
	// assignment is a candidate only.
	Solve(ctx context.Context, pr Problem, seed uint32) (Assignment, error)
}

// Z3Backend solves problems with an external z3 process.
type Z3Backend struct {
	z3 smt.Z3
}

// NewZ3Backend creates a backend running the binary at path, or z3 from
// PATH when path is empty.
func NewZ3Backend(path string) *Z3Backend {
	return &Z3Backend{z3: smt.Z3{Path: path}}
}

// Name returns the name of this backend.
func (b *Z3Backend) Name() string {
	return "z3"
}

// Available checks that the binary can be found.
func (b *Z3Backend) Available() error {
	if _, err := b.z3.Lookup(); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	return nil
}

// solverTimeout returns the timeout handed to the solver: nine tenths of
// what remains until the ctx deadline, or false when ctx has none.
func solverTimeout(ctx context.Context) (time.Duration, bool) {
	dl, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}

	return time.Until(dl) * 9 / 10, true
}

// Solve implements the Backend interface. The solver's own timeout is set
// below the ctx deadline so that it answers unknown before being killed.
func (b *Z3Backend) Solve(ctx context.Context, pr Problem, seed uint32) (Assignment, error) {
	q := smt.Query{Params: pr.Params, Derived: pr.Derived, Seed: seed}
	if timeout, ok := solverTimeout(ctx); ok {
		q.Timeout = timeout
		if q.Timeout <= 0 {
			return Assignment{}, fmt.Errorf("%w: %w", ErrUnknown, context.DeadlineExceeded)
		}
	}

	ans, err := b.z3.Check(ctx, q)
	switch {
	case errors.Is(err, smt.ErrNotFound):
		return Assignment{}, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Assignment{}, fmt.Errorf("%w: %w", ErrUnknown, err)
	case err != nil:
		return Assignment{}, err
	}

	switch ans.Status {
	case smt.Sat:
		h1, h2 := serial.FromGroups(ans.Groups)
		return Assignment{Half1: h1, Half2: h2}, nil
	case smt.Unsat:
		return Assignment{}, ErrUnsat
	default:
		return Assignment{}, ErrUnknown
	}
}

// NativeBackend solves problems in process by exact inversion of the two
// mixers and a carry-propagating solve over the remaining sum. The seed
// selects the sequence of s3 candidates, so different seeds give different
// serials for the same name.
type NativeBackend struct{}

// NewNativeBackend creates a native backend.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{}
}

// Name returns the name of this backend.
func (b *NativeBackend) Name() string {
	return "native"
}

// Available always succeeds.
func (b *NativeBackend) Available() error {
	return nil
}

// Solve implements the Backend interface.
func (b *NativeBackend) Solve(ctx context.Context, pr Problem, seed uint32) (Assignment, error) {
	rng := rand.New(rand.NewPCG(uint64(seed), pr.Derived.A^pr.Derived.B))

	h1, h2, _, ok := invert.NewReducer(pr.Params, pr.Derived).Search(ctx, rng.Uint64)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %w", ErrUnknown, ctx.Err())
	}

	return Assignment{Half1: h1, Half2: h2}, nil
}

// AutoBackend returns a Z3 backend when the binary is available and the
// native backend otherwise.
func AutoBackend(z3Path string) Backend {
	z := NewZ3Backend(z3Path)
	if z.Available() == nil {
		return z
	}

	return NewNativeBackend()
}
