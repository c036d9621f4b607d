package keygen

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// fixturesDir returns the repository fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "fixtures")
}

// fakeBackend calls solve for every attempt and records the seeds it saw.
type fakeBackend struct {
	name  string
	avail error
	solve func(ctx context.Context, pr Problem, seed uint32) (Assignment, error)

	mu    sync.Mutex
	seeds []uint32
}

func (b *fakeBackend) Name() string {
	if b.name == "" {
		return "fake"
	}

	return b.name
}

func (b *fakeBackend) Available() error { return b.avail }

func (b *fakeBackend) Solve(ctx context.Context, pr Problem, seed uint32) (Assignment, error) {
	b.mu.Lock()
	b.seeds = append(b.seeds, seed)
	b.mu.Unlock()

	return b.solve(ctx, pr, seed)
}

func (b *fakeBackend) Seeds() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]uint32(nil), b.seeds...)
}

// lying answers every attempt with a serial that does not verify.
func lying(context.Context, Problem, uint32) (Assignment, error) {
	return Assignment{Half1: 0xDEADBEEF, Half2: 0xCAFEBABE}, nil
}

// blockUntilDone waits out the attempt and gives up.
func blockUntilDone(ctx context.Context, _ Problem, _ uint32) (Assignment, error) {
	<-ctx.Done()
	return Assignment{}, ErrUnknown
}

// needsTime gives up unless the attempt has at least d left.
func needsTime(d time.Duration) func(ctx context.Context, pr Problem, seed uint32) (Assignment, error) {
	return func(ctx context.Context, pr Problem, seed uint32) (Assignment, error) {
		if dl, ok := ctx.Deadline(); ok && time.Until(dl) < d {
			return Assignment{}, ErrUnknown
		}

		return NewNativeBackend().Solve(ctx, pr, seed)
	}
}

// fastConfig is a small budget for tests.
func fastConfig(workers int) SearchConfig {
	return SearchConfig{
		Seeds:   []uint32{1, 2, 3, 5, 7},
		Tiers:   []time.Duration{10 * time.Second},
		Workers: workers,
	}
}
