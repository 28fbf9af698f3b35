// SPDX-License-Identifier: Apache-2.0

// Command bir-cfg reads a program from standard input and prints each
// function's basic-block partition with successor and predecessor lists
// (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "bir-cfg",
	Short:        "Dump control-flow graphs for every function of a BIR program",
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
	graphs, err := cfg.BuildAll(prog)
	if err != nil {
		reporter.Report(diag.MalformedIR("", "", -1, "%s", err))
		os.Exit(reporter.ExitCode())
	}

	out := cmd.OutOrStdout()
	for i, fn := range prog.Functions {
		g := graphs[i]
		fmt.Fprintf(out, "function %s\n", fn.Name)
		for _, label := range g.Order() {
			fmt.Fprintf(out, "  %s: succs=%v preds=%v\n", label, g.Successors[label], g.Predecessors[label])
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
