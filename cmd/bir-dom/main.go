// SPDX-License-Identifier: Apache-2.0

// Command bir-dom reads a program from standard input and dumps each
// function's dominator sets, immediate dominators, and dominance frontiers
// (spec.md §6).
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/djanekovic/bril/internal/dom"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "bir-dom",
	Short:        "Dump dominator sets, immediate dominators, and dominance frontiers",
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
		info := dom.Compute(g)

		fmt.Fprintf(out, "function %s\n", fn.Name)
		for _, label := range g.Order() {
			idom := "-"
			if v, ok := info.IDom[label]; ok {
				idom = v
			}
			fmt.Fprintf(out, "  %s: dom=%s idom=%s df=%s\n",
				label, sortedSet(info.Dom[label]), idom, sortedSet(info.DF[label]))
		}
	}
	if reporter.HasErrors() {
		os.Exit(reporter.ExitCode())
	}
	return nil
}

func sortedSet(s interface{ Slice() []string }) string {
	items := s.Slice()
	sort.Strings(items)
	return fmt.Sprintf("%v", items)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
