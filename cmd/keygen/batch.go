package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mahdiidarabi/froggy-keygen/pkg/keygen"
	"github.com/spf13/cobra"
)

func newBatchCmd(opts *options) *cobra.Command {
	var (
		format string
		field  string
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Generate serials for every name in a file",
		Long: `batch reads names from a JSON, CSV or plain text file (one name per line,
"-" for standard input) and generates a serial for each.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args[0], format, field, jobs)
		},
	}

	f := cmd.Flags()
	f.StringVar(&format, "format", "", "Input format: json, csv or lines (default: from the file extension)")
	f.StringVar(&field, "field", "", "JSON field or CSV column holding the name (default: name)")
	f.IntVar(&jobs, "jobs", 0, "Names solved at once (0 = auto-detect based on CPU cores)")

	addSearchFlags(cmd, opts)

	return cmd
}

func parserFor(source, format, field string, stdin io.Reader) (keygen.NameParser, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(source), ".")
	}

	p, err := keygen.ParserFor(format)
	if err != nil {
		return nil, err
	}

	switch p := p.(type) {
	case *keygen.JSONParser:
		p.NameField = field
	case *keygen.CSVParser:
		p.NameCol = field
	case *keygen.LineParser:
		p.In = stdin
	}

	return p, nil
}

func runBatch(cmd *cobra.Command, opts *options, source, format, field string, jobs int) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := opts.logger(stderr)

	parser, err := parserFor(source, format, field, cmd.InOrStdin())
	if err != nil {
		return err
	}

	names, err := parser.ParseNames(source)
	if err != nil {
		return err
	}

	client, _, err := opts.newClient(log, nil)
	if err != nil {
		return err
	}

	log.Info().Int("names", len(names)).Str("source", source).Msg("starting batch")

	results := client.GenerateBatch(cmd.Context(), names, jobs)

	failed := 0

	for _, br := range results {
		if br.Err != nil || !br.Result.Found {
			failed++
		}
	}

	if opts.json {
		type row struct {
			Name   string `json:"name"`
			Serial string `json:"serial,omitempty"`
			Error  string `json:"error,omitempty"`
		}

		rows := make([]row, len(results))
		for i, br := range results {
			rows[i] = row{Name: br.Name}

			switch {
			case br.Err != nil:
				rows[i].Error = br.Err.Error()
			case br.Result.Found:
				rows[i].Serial = br.Result.Serial
			default:
				rows[i].Error = "no solution found"
			}
		}

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(rows); err != nil {
			return err
		}
	} else {
		for _, br := range results {
			switch {
			case br.Err != nil:
				colorError.Fprintf(stdout, "%q\terror: %v\n", br.Name, br.Err)
			case br.Result.Found:
				fmt.Fprintf(stdout, "%q\t", br.Name)
				colorFound.Fprintln(stdout, br.Result.Serial)
			default:
				colorError.Fprintf(stdout, "%q\tno solution found\n", br.Name)
			}
		}
	}

	if failed > 0 {
		log.Warn().Int("failed", failed).Int("names", len(names)).Msg("some names have no serial")
		return errSilent
	}

	return nil
}
