// SPDX-License-Identifier: Apache-2.0

// Command bir-graphviz reads a program from standard input and emits a
// Graphviz digraph of each function's CFG to standard output (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/djanekovic/bril/internal/graphviz"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "bir-graphviz",
	Short:        "Emit a Graphviz digraph of every function's control-flow graph",
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

	out := cmd.OutOrStdout()
	for _, fn := range prog.Functions {
		g, err := cfg.Build(fn)
		if err != nil {
			reporter.Report(diag.MalformedIR(fn.Name, "", -1, "%s", err))
			continue
		}
		if err := graphviz.Write(out, fn.Name, g); err != nil {
			return err
		}
	}
	if reporter.HasErrors() {
		os.Exit(reporter.ExitCode())
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
