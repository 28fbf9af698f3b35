// SPDX-License-Identifier: Apache-2.0

// Command bir-df runs one of the three dataflow lattices over every
// function of a program read from standard input and dumps the per-block
// in/out facts (spec.md §6). The lattice is selected with --pass; it
// defaults to live variables.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/dataflow"
	"github.com/djanekovic/bril/internal/diag"
	"github.com/djanekovic/bril/internal/set"
	"github.com/spf13/cobra"
)

var pass string

var rootCmd = &cobra.Command{
	Use:          "bir-df",
	Short:        "Dump reaching-definitions, constant-propagation, or live-variables facts",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&pass, "pass", "live", `dataflow lattice to run: "reaching", "const", or "live"`)
}

func analysisFor(pass string) (dataflow.Analysis, error) {
	switch pass {
	case "reaching":
		return dataflow.ReachingDefinitions{}, nil
	case "const":
		return &dataflow.ConstantPropagation{}, nil
	case "live":
		return dataflow.LiveVariables{}, nil
	default:
		return nil, fmt.Errorf("unknown --pass %q: want reaching, const, or live", pass)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// Validated once up front so an unknown --pass is reported the usual
	// cobra way rather than as a per-function diagnostic.
	if _, err := analysisFor(pass); err != nil {
		return err
	}

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

		// Fresh per function: ConstantPropagation's div-by-zero dedup is
		// keyed on (block, index), which collide across functions that
		// share block labels.
		a, _ := analysisFor(pass)
		res := dataflow.Run(fn, g, a)
		if cp, ok := a.(*dataflow.ConstantPropagation); ok {
			for _, note := range cp.Notes {
				reporter.Report(diag.DivisionByZero(fn.Name, note.Block, note.Index))
			}
		}

		fmt.Fprintf(out, "function %s\n", fn.Name)
		for _, label := range g.Order() {
			fmt.Fprintf(out, "  %s:\n", label)
			fmt.Fprintf(out, "    in:  %s\n", formatFact(res.In[label]))
			fmt.Fprintf(out, "    out: %s\n", formatFact(res.Out[label]))
		}
	}
	if reporter.HasErrors() {
		os.Exit(reporter.ExitCode())
	}
	return nil
}

// formatFact renders a fact in a stable, sorted textual form regardless of
// which lattice produced it (spec.md §6: "facts in stable sort").
func formatFact(fact any) string {
	switch f := fact.(type) {
	case dataflow.CPFact:
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			v := f[k]
			if v.Top {
				parts[i] = fmt.Sprintf("%s=?", k)
			} else {
				parts[i] = fmt.Sprintf("%s=%v", k, v.Value)
			}
		}
		return fmt.Sprintf("%v", parts)
	case set.Set[string]:
		items := f.Slice()
		sort.Strings(items)
		return fmt.Sprintf("%v", items)
	case set.Set[dataflow.Def]:
		defs := f.Slice()
		sort.Slice(defs, func(i, j int) bool {
			if defs[i].Var != defs[j].Var {
				return defs[i].Var < defs[j].Var
			}
			return defs[i].Idx < defs[j].Idx
		})
		items := make([]string, len(defs))
		for i, d := range defs {
			items[i] = fmt.Sprintf("(%s,%d)", d.Var, d.Idx)
		}
		return fmt.Sprintf("%v", items)
	default:
		return fmt.Sprintf("%v", fact)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
