package main

import (
	"encoding/json"
	"fmt"

	"github.com/mahdiidarabi/froggy-keygen/internal/formula"
	"github.com/mahdiidarabi/froggy-keygen/internal/serial"
	"github.com/spf13/cobra"
)

func newVerifyCmd(opts *options) *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "verify SERIAL",
		Short: "Check a serial against a name",
		Long: `verify evaluates the validator's formula forward for the name and serial.
It exits 0 when the serial is accepted and 1 otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts, args[0], trace)
		},
	}

	cmd.Flags().BoolVar(&trace, "trace", false, "Print every intermediate stage")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *options, text string, trace bool) error {
	out := cmd.OutOrStdout()

	name := opts.name
	if !opts.hasName {
		var err error
		if name, err = promptName(cmd.InOrStdin(), out); err != nil {
			return err
		}
	}

	p, err := opts.loadParams()
	if err != nil {
		return err
	}

	h1, h2, err := serial.Parse(text)
	if err != nil {
		return err
	}

	d := p.DeriveString(name)
	tr := formula.Explain(p, d, h1, h2)
	ok := tr.Result == p.Target

	if opts.json {
		report := struct {
			Name   string                  `json:"name"`
			Serial string                  `json:"serial"`
			Valid  bool                    `json:"valid"`
			Stages map[string]formula.Word `json:"stages,omitempty"`
		}{Name: name, Serial: serial.Render(h1, h2), Valid: ok}

		if trace {
			report.Stages = stageMap(d, tr)
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		if trace {
			for _, st := range stageList(d, tr) {
				colorInfo.Fprintf(out, "%-6s", st.label)
				fmt.Fprintf(out, " %s\n", st.value)
			}

			fmt.Fprintf(out, "%-6s %s\n", "target", formula.Word(p.Target))
		}

		if ok {
			colorFound.Fprintf(out, "Valid serial for %q: %s\n", name, serial.Render(h1, h2))
		} else {
			colorError.Fprintf(out, "Invalid serial for %q\n", name)
		}
	}

	if !ok {
		return errSilent
	}

	return nil
}

type stage struct {
	label string
	value formula.Word
}

func stageList(d formula.Derived, tr formula.Trace[uint64]) []stage {
	return []stage{
		{"a", formula.Word(d.A)},
		{"b", formula.Word(d.B)},
		{"m1", formula.Word(tr.M1)},
		{"m2", formula.Word(tr.M2)},
		{"s1", formula.Word(tr.S1)},
		{"s2", formula.Word(tr.S2)},
		{"s3", formula.Word(tr.S3)},
		{"m3", formula.Word(tr.M3)},
		{"s4", formula.Word(tr.S4)},
		{"result", formula.Word(tr.Result)},
	}
}

func stageMap(d formula.Derived, tr formula.Trace[uint64]) map[string]formula.Word {
	m := make(map[string]formula.Word)
	for _, st := range stageList(d, tr) {
		m[st.label] = st.value
	}

	return m
}
