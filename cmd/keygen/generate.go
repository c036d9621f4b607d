package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mahdiidarabi/froggy-keygen/pkg/keygen"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// promptName reads one line from in after printing the prompt to out.
func promptName(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Name / Handle: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read name: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// newProgress returns a bar over every attempt of the budget, written to w.
func newProgress(w io.Writer, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("attempts"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func runGenerate(cmd *cobra.Command, opts *options) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	name := opts.name
	if !opts.hasName {
		var err error
		if name, err = promptName(cmd.InOrStdin(), stdout); err != nil {
			return err
		}
	}

	log := opts.logger(stderr)

	var (
		bar       *progressbar.ProgressBar
		escalated sync.Once
	)

	onAttempt := func(a keygen.Attempt) {
		if a.Tier > 0 && !opts.json {
			escalated.Do(func() {
				if bar != nil {
					_ = bar.Clear()
				}

				colorWarn.Fprintln(stderr, "[!] First pass did not find a solution. Trying longer timeouts...")
			})
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	client, cfg, err := opts.newClient(log, onAttempt)
	if err != nil {
		return err
	}

	if !opts.json {
		bar = newProgress(stderr, len(cfg.Seeds)*len(cfg.Tiers), "solving")
	}

	result, err := client.Generate(cmd.Context(), name)

	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(result); err != nil {
			return err
		}

		if !result.Found {
			return errSilent
		}

		return nil
	}

	if !result.Found {
		colorError.Fprintln(stdout, "[!] No solution found in the tested seeds/timeouts.")
		colorError.Fprintln(stdout, "    Try a different Name/Handle, or increase timeouts / add more seeds.")

		return errSilent
	}

	colorFound.Fprintf(stdout, "Serial: %s\n", result.Serial)

	log.Debug().
		Str("strategy", result.Strategy).
		Str("backend", result.Backend).
		Uint32("seed", result.Seed).
		Int("tier", result.Tier).
		Int("attempts", result.Attempts).
		Dur("elapsed", result.Elapsed).
		Msg("search finished")

	return nil
}
