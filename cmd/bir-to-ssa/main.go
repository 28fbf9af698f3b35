// SPDX-License-Identifier: Apache-2.0

// Command bir-to-ssa reads a program from standard input, converts every
// function to SSA form (φ-insertion plus dominator-tree renaming), and
// writes the transformed program to standard output (spec.md §6).
// UndefinedUse diagnostics are best-effort warnings: they are reported on
// standard error but do not change the exit code (spec.md §7).
package main

import (
	"fmt"
	"os"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/djanekovic/bril/internal/dom"
	"github.com/djanekovic/bril/internal/ssa"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "bir-to-ssa",
	Short:        "Convert every function of a BIR program to SSA form",
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, _ []string) error {
	reporter := diag.NewReporter(os.Stderr)

	prog, err := bir.Decode(os.Stdin)
	if err != nil {
		reporter.Report(diag.MalformedIR("", "", -1, "%s", err))
		os.Exit(reporter.ExitCode())
	}

	for _, fn := range prog.Functions {
		g, err := cfg.Build(fn)
		if err != nil {
			reporter.Report(diag.MalformedIR(fn.Name, "", -1, "%s", err))
			continue
		}
		info := dom.Compute(g)
		for _, w := range ssa.Transform(fn, g, info) {
			reporter.Report(diag.UndefinedUse(w.Function, w.Block, w.Var))
		}
	}

	// UndefinedUse is a warning, not fatal: only a MalformedIR error should
	// abort before the transformed program is written out.
	if reporter.HasErrors() {
		os.Exit(reporter.ExitCode())
	}

	return bir.Encode(cmd.OutOrStdout(), prog)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
