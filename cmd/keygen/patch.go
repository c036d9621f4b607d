package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mahdiidarabi/froggy-keygen/internal/elfpatch"
	"github.com/spf13/cobra"
)

func newPatchCmd(opts *options) *cobra.Command {
	var (
		addr  uint64
		size  int
		out   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "patch BINARY",
		Short: "NOP out the serial check branch of the crackme",
		Long: `patch replaces the conditional jump that rejects a wrong serial with NOPs,
so the patched binary accepts any name and serial. The jump is located by
virtual address through the ELF program headers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, opts, args[0], addr, size, out, force)
		},
	}

	f := cmd.Flags()
	f.Uint64Var(&addr, "addr", elfpatch.DefaultAddr, "Virtual address of the branch")
	f.IntVar(&size, "size", elfpatch.DefaultSize, "Instruction length in bytes")
	f.StringVarP(&out, "out", "o", "", "Output path (default: BINARY_patched)")
	f.BoolVarP(&force, "force", "f", false, "Patch BINARY in place")

	return cmd
}

func runPatch(cmd *cobra.Command, opts *options, path string, addr uint64, size int, out string, force bool) error {
	stdout := cmd.OutOrStdout()
	log := opts.logger(cmd.ErrOrStderr())

	switch {
	case force && out != "":
		return fmt.Errorf("--force and --out are mutually exclusive")
	case force:
		out = path
	case out == "":
		out = path + "_patched"
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read binary: %w", err)
	}

	r, err := elfpatch.Patch(image, addr, size)
	if err != nil {
		return err
	}

	if !r.Mapped {
		log.Warn().Str("addr", fmt.Sprintf("0x%x", addr)).Msg("no PT_LOAD segment maps the address; using it as a file offset")
	}

	if !r.IsShortJcc() {
		log.Warn().Hex("original", r.Original).Msg("patched bytes are not a short conditional jump")
	}

	if err := os.WriteFile(out, image, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write patched binary: %w", err)
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(struct {
			Output   string `json:"output"`
			Offset   int64  `json:"offset"`
			Original string `json:"original"`
			Mapped   bool   `json:"mapped"`
		}{out, r.Offset, fmt.Sprintf("%x", r.Original), r.Mapped})
	}

	colorFound.Fprintf(stdout, "Patched at file offset 0x%x: %x -> % x\n", r.Offset, r.Original, image[r.Offset:r.Offset+int64(size)])
	fmt.Fprintf(stdout, "Saved to: %s\n", out)
	colorInfo.Fprintln(stdout, "Run with any name and serial (e.g. 00000000-00000000-00000000-00000000).")

	return nil
}
