package cfg

import (
	"fmt"

	"github.com/djanekovic/bril/internal/bir"
)

// Graph is a function's control-flow graph: label→ordered-successor-list
// and its inverse, both deterministic per spec.md §3/§5.
type Graph struct {
	Function     *bir.Function
	Successors   map[string][]string
	Predecessors map[string][]string
	order        []string // block labels in source order
}

// Order returns block labels in source order (entry first).
func (g *Graph) Order() []string { return append([]string(nil), g.order...) }

// Build partitions fn's flat instruction stream into basic blocks
// (bir.Decode leaves a single placeholder block; blocks that are already
// partitioned are flattened and partitioned again) and derives the CFG, grounded on original_source/hw/cfg.py's
// CFG.generate_cfg/generate_predecessors. It also assigns each
// dest-bearing instruction's DefIndex in source order (spec.md §3/§4.4),
// with function parameters implicitly using -1.
func Build(fn *bir.Function) (*Graph, error) {
	if !(len(fn.Blocks) == 1 && fn.Blocks[0].Label == "" && !fn.Blocks[0].Synthetic) {
		// Already partitioned (e.g. rebuilt after a transform); repartition
		// from the flattened instruction stream to stay idempotent.
		fn.Blocks = formBlocks(flatten(fn.Blocks))
	} else {
		fn.Blocks = formBlocks(fn.Blocks[0].Instrs)
	}

	assignDefIndices(fn)

	g := &Graph{
		Function:     fn,
		Successors:   make(map[string][]string, len(fn.Blocks)),
		Predecessors: make(map[string][]string, len(fn.Blocks)),
	}

	for _, b := range fn.Blocks {
		g.order = append(g.order, b.Label)
		g.Predecessors[b.Label] = nil
	}

	for i, b := range fn.Blocks {
		term := b.Terminator()
		var succs []string
		switch {
		case term != nil && (term.Op == bir.OpJmp || term.Op == bir.OpBr):
			succs = append(succs, term.Labels...)
		case term != nil && term.Op == bir.OpRet:
			succs = nil
		case term == nil && i < len(fn.Blocks)-1:
			succs = []string{fn.Blocks[i+1].Label}
		default:
			succs = nil
		}
		for _, s := range succs {
			if _, ok := g.Predecessors[s]; !ok {
				return nil, fmt.Errorf("cfg: function %q: terminator in block %q references undefined label %q", fn.Name, b.Label, s)
			}
		}
		g.Successors[b.Label] = succs
	}

	for _, b := range fn.Blocks {
		for _, s := range g.Successors[b.Label] {
			g.Predecessors[s] = append(g.Predecessors[s], b.Label)
		}
	}

	return g, nil
}

// BuildAll builds every function's CFG concurrently (spec.md §5's
// function-level independence invariant), returning graphs aligned with
// prog.Functions by index so callers can report results in input order
// regardless of completion order.
func BuildAll(prog *bir.Program) ([]*Graph, error) {
	indexOf := make(map[*bir.Function]int, len(prog.Functions))
	for i, fn := range prog.Functions {
		indexOf[fn] = i
	}

	graphs := make([]*Graph, len(prog.Functions))
	err := prog.ForEachFunction(func(fn *bir.Function) error {
		g, err := Build(fn)
		if err != nil {
			return err
		}
		graphs[indexOf[fn]] = g
		return nil
	})
	return graphs, err
}

// flatten reconstructs a function's flat instruction stream (labels
// reinserted) from already-partitioned blocks, so Build can be re-run
// idempotently after a transform has mutated fn.Blocks in place.
func flatten(blocks []*bir.Block) []*bir.Instruction {
	var flat []*bir.Instruction
	for _, b := range blocks {
		if !b.Synthetic {
			flat = append(flat, &bir.Instruction{Category: bir.CategoryLabel, Label: b.Label})
		}
		flat = append(flat, b.Instrs...)
	}
	return flat
}

// assignDefIndices numbers every dest-bearing instruction in source order
// with a function-global serial number, used by reaching definitions
// (spec.md §4.4).
func assignDefIndices(fn *bir.Function) {
	next := 0
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.HasDest() {
				instr.DefIndex = next
				next++
			}
		}
	}
}
