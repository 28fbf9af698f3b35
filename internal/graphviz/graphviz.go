// Package graphviz emits a function's CFG as a Graphviz digraph (spec.md
// §6), grounded on original_source/hw/graphviz_cfg.py's
// generate_graphviz_code.
package graphviz

import (
	"fmt"
	"io"

	"github.com/djanekovic/bril/internal/cfg"
)

// Write emits `digraph <name> { <vertex>; ... <v> -> <w>; ... }` for g to w,
// vertices and edges both walked in g's deterministic block order.
func Write(w io.Writer, name string, g *cfg.Graph) error {
	if _, err := fmt.Fprintf(w, "digraph %s {\n", name); err != nil {
		return err
	}
	for _, label := range g.Order() {
		if _, err := fmt.Fprintf(w, "  %s;\n", label); err != nil {
			return err
		}
	}
	for _, label := range g.Order() {
		for _, succ := range g.Successors[label] {
			if _, err := fmt.Fprintf(w, "  %s -> %s;\n", label, succ); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
