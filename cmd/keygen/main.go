package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
	"github.com/mahdiidarabi/froggy-keygen/pkg/keygen"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	colorFound = color.New(color.FgGreen, color.Bold)
	colorError = color.New(color.FgRed)
	colorWarn  = color.New(color.FgYellow)
	colorInfo  = color.New(color.FgCyan)
)

// errSilent makes the process exit non-zero after the command already
// reported the outcome.
var errSilent = errors.New("silent failure")

// options are the flags shared by every command.
type options struct {
	name    string
	hasName bool
	params  string
	backend string
	z3      string
	workers int
	short   time.Duration
	long    time.Duration
	seeds   []uint
	verbose bool
	json    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			colorError.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "keygen",
		Short: "Generate serials for the Froggy crackme",
		Long: `keygen finds a serial that the Froggy validator accepts for a given name.

The validator's check is solved with z3 when it is installed, or with a
built-in exact solver otherwise.`,
		Example: `
# Prompt for a name
keygen

# Generate for a name without z3
keygen --name Froggy --backend native

# Check a serial
keygen verify --name "" 93D8A8AB-9ABCABD9-FFA34899-79D69257
  `,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.hasName = cmd.Flags().Changed("name")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.name, "name", "n", "", "Name / handle (prompted when absent)")
	pf.StringVar(&opts.params, "params", "", "YAML file overriding the validator constants")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	pf.BoolVar(&opts.json, "json", false, "Print results as JSON")

	addSearchFlags(root, opts)

	root.AddCommand(
		newVerifyCmd(opts),
		newBatchCmd(opts),
		newPatchCmd(opts),
	)

	return root
}

// addSearchFlags registers the flags controlling the solver budget.
func addSearchFlags(cmd *cobra.Command, opts *options) {
	defaults := keygen.DefaultSearchConfig()

	seeds := make([]uint, len(defaults.Seeds))
	for i, s := range defaults.Seeds {
		seeds[i] = uint(s)
	}

	f := cmd.Flags()
	f.StringVar(&opts.backend, "backend", "auto", "Solver backend: auto, z3 or native")
	f.StringVar(&opts.z3, "z3", "", "Path to the z3 binary (default: z3 from PATH)")
	f.IntVar(&opts.workers, "workers", 0, "Parallel solver attempts (0 = auto-detect based on CPU cores)")
	f.DurationVar(&opts.short, "short", defaults.Tiers[0], "Per-attempt timeout of the first pass")
	f.DurationVar(&opts.long, "long", defaults.Tiers[1], "Per-attempt timeout of the second pass")
	f.UintSliceVar(&opts.seeds, "seeds", seeds, "Solver random seeds")
}

// logger builds the console logger on w.
func (o *options) logger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel

	switch {
	case o.verbose:
		level = zerolog.DebugLevel
	case o.json:
		level = zerolog.WarnLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (o *options) loadParams() (formula.Params, error) {
	if o.params == "" {
		return formula.DefaultParams(), nil
	}

	return formula.LoadParams(o.params)
}

func (o *options) searchConfig() (keygen.SearchConfig, error) {
	cfg := keygen.SearchConfig{
		Tiers:   []time.Duration{o.short, o.long},
		Workers: o.workers,
	}

	for _, s := range o.seeds {
		if s > 1<<32-1 {
			return cfg, fmt.Errorf("seed %d does not fit in 32 bits", s)
		}

		cfg.Seeds = append(cfg.Seeds, uint32(s))
	}

	return cfg, cfg.Validate()
}

func (o *options) newBackend() (keygen.Backend, error) {
	switch o.backend {
	case "auto":
		return keygen.AutoBackend(o.z3), nil
	case "z3":
		return keygen.NewZ3Backend(o.z3), nil
	case "native":
		return keygen.NewNativeBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want auto, z3 or native)", o.backend)
	}
}

// newClient wires params, strategy chain and logging. onAttempt may be nil.
func (o *options) newClient(log zerolog.Logger, onAttempt func(keygen.Attempt)) (*keygen.Client, keygen.SearchConfig, error) {
	p, err := o.loadParams()
	if err != nil {
		return nil, keygen.SearchConfig{}, err
	}

	cfg, err := o.searchConfig()
	if err != nil {
		return nil, cfg, err
	}

	backend, err := o.newBackend()
	if err != nil {
		return nil, cfg, err
	}

	log.Debug().Str("backend", backend.Name()).Int("seeds", len(cfg.Seeds)).Msg("configured solver")

	strategy := keygen.NewChainStrategy(
		keygen.NewKnownStrategy().WithLogger(log),
		keygen.NewFixedPointStrategy().WithLogger(log),
		keygen.NewConstraintStrategy(backend).
			WithConfig(cfg).
			WithOnAttempt(onAttempt).
			WithLogger(log),
	).WithLogger(log)

	c := keygen.NewClient().
		WithParams(p).
		WithStrategy(strategy).
		WithLogger(log)

	return c, cfg, nil
}
