// SPDX-License-Identifier: Apache-2.0

// Command bir-lvn reads a program from standard input, runs local value
// numbering over every block of every function, and writes the
// transformed program to standard output (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/djanekovic/bril/internal/lvn"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "bir-lvn",
	Short:        "Run local value numbering over every block of a BIR program",
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

	// ForEachFunction fans out across goroutines (spec.md §5); a malformed
	// function is reported and skipped rather than aborting the run, and
	// reporter.Report/HasErrors are safe for concurrent use.
	_ = prog.ForEachFunction(func(fn *bir.Function) error {
		if _, err := cfg.Build(fn); err != nil {
			reporter.Report(diag.MalformedIR(fn.Name, "", -1, "%s", err))
			return nil
		}
		for _, b := range fn.Blocks {
			for _, note := range lvn.Transform(b) {
				reporter.Report(diag.DivisionByZero(fn.Name, note.Block, note.Index))
			}
		}
		return nil
	})

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
