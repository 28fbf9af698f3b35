// SPDX-License-Identifier: Apache-2.0

// Command bir-tdce reads a program from standard input, runs trivial dead
// code elimination over every function, and writes the transformed
// program to standard output (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/djanekovic/bril/internal/tdce"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "bir-tdce",
	Short:        "Run trivial dead code elimination over a BIR program",
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

	_ = prog.ForEachFunction(func(fn *bir.Function) error {
		if _, err := cfg.Build(fn); err != nil {
			reporter.Report(diag.MalformedIR(fn.Name, "", -1, "%s", err))
			return nil
		}
		tdce.Transform(fn)
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
