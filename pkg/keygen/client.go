package keygen

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
	"github.com/mahdiidarabi/froggy-keygen/internal/serial"
	"github.com/rs/zerolog"
)

// Client provides a high-level API for serial generation and checking.
type Client struct {
	params   formula.Params
	strategy Strategy
	parser   NameParser
	log      zerolog.Logger
}

// NewClient creates a new client with default settings: default parameters
// and a chain of the known-serial table, the fixed-point path for the empty
// name, and a constraint search on z3 when it is installed or the native
// backend otherwise.
func NewClient() *Client {
	return &Client{
		params:   formula.DefaultParams(),
		strategy: DefaultStrategy(AutoBackend(""), zerolog.Nop()),
		parser:   &LineParser{},
		log:      zerolog.Nop(),
	}
}

// DefaultStrategy returns the chain used by NewClient over backend.
func DefaultStrategy(backend Backend, log zerolog.Logger) *ChainStrategy {
	return NewChainStrategy(
		NewKnownStrategy().WithLogger(log),
		NewFixedPointStrategy().WithLogger(log),
		NewConstraintStrategy(backend).WithLogger(log),
	).WithLogger(log)
}

// WithParams sets the formula constants.
func (c *Client) WithParams(p formula.Params) *Client {
	c.params = p
	return c
}

// WithStrategy sets a custom search strategy.
func (c *Client) WithStrategy(strategy Strategy) *Client {
	c.strategy = strategy
	return c
}

// WithParser sets the parser used by GenerateFile.
func (c *Client) WithParser(parser NameParser) *Client {
	c.parser = parser
	return c
}

// WithLogger sets the logger used by the client. Strategies keep their own
// logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

// Params returns the formula constants in use.
func (c *Client) Params() formula.Params {
	return c.params
}

// Generate searches for a serial accepted for name.
//
// Args:
//   - ctx: Context for cancellation.
//   - name: Name or handle, used as its UTF-8 bytes.
//
// Returns:
//   - SolveResult with Found set when a verified serial exists. A result
//     with Found false means the search budget was exhausted.
//   - An error wrapping ErrBackendUnavailable when no usable solver exists
//     for the name, or the context error when ctx is done.
func (c *Client) Generate(ctx context.Context, name string) (*SolveResult, error) {
	if err := c.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	start := time.Now()
	pr := NewProblem(c.params, []byte(name))

	c.log.Debug().
		Str("name", name).
		Str("a", formula.Word(pr.Derived.A).String()).
		Str("b", formula.Word(pr.Derived.B).String()).
		Msg("derived name constants")

	r, err := c.strategy.Search(ctx, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial for %q: %w", name, err)
	}

	if r == nil {
		c.log.Info().Str("name", name).Dur("elapsed", time.Since(start)).Msg("no serial found")
		return &SolveResult{Name: name, Strategy: c.strategy.Name(), Elapsed: time.Since(start)}, nil
	}

	// Strategies verify already; a custom one may not.
	if !pr.Check(Assignment{Half1: r.Half1, Half2: r.Half2}) {
		c.log.Warn().Str("strategy", r.Strategy).Str("serial", r.Serial).Msg("strategy returned an unverified serial")
		return &SolveResult{Name: name, Strategy: r.Strategy, Elapsed: time.Since(start)}, nil
	}

	r.Name = name
	r.Serial = serial.Render(r.Half1, r.Half2)
	r.Found, r.Verified = true, true
	r.Elapsed = time.Since(start)

	return r, nil
}

// Verify reports whether text is a serial accepted for name. It fails only
// when text is malformed; the error then matches serial.ErrFormat.
func (c *Client) Verify(name, text string) (bool, error) {
	h1, h2, err := serial.Parse(text)
	if err != nil {
		return false, err
	}

	return formula.Verify(c.params, c.params.DeriveString(name), h1, h2), nil
}

// Explain returns every intermediate stage of the formula for name and
// text.
func (c *Client) Explain(name, text string) (formula.Trace[uint64], error) {
	h1, h2, err := serial.Parse(text)
	if err != nil {
		return formula.Trace[uint64]{}, err
	}

	return formula.Explain(c.params, c.params.DeriveString(name), h1, h2), nil
}

// BatchResult is the outcome for one name of a batch.
type BatchResult struct {
	Index  int
	Name   string
	Result *SolveResult
	Err    error
}

// GenerateBatch runs Generate for every name with up to workers names in
// flight (0 = runtime.NumCPU). Results are returned in input order.
func (c *Client) GenerateBatch(ctx context.Context, names []string, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]BatchResult, len(names))
	workChan := make(chan int)

	go func() {
		defer close(workChan)

		for i := range names {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range workChan {
				r, err := c.Generate(ctx, names[i])
				results[i] = BatchResult{Index: i, Name: names[i], Result: r, Err: err}
			}
		}()
	}

	wg.Wait()

	for i := range results {
		if results[i].Result == nil && results[i].Err == nil {
			results[i] = BatchResult{Index: i, Name: names[i], Err: ctx.Err()}
		}
	}

	return results
}

// GenerateFile reads names from source with the client's parser and runs
// GenerateBatch over them.
func (c *Client) GenerateFile(ctx context.Context, source string, workers int) ([]BatchResult, error) {
	names, err := c.parser.ParseNames(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse names: %w", err)
	}

	return c.GenerateBatch(ctx, names, workers), nil
}
