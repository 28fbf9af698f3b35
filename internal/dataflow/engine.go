// Package dataflow implements the generic forward/backward worklist engine
// of spec.md §4.3 and the three lattices of spec.md §4.4 built on top of it:
// reaching definitions, constant propagation, and live variables. Grounded
// on original_source/hw/df.py's dataflow() driver and its three Analysis
// subclasses.
package dataflow

import (
	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/set"
)

// Direction selects whether an analysis flows with or against control flow.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Analysis is a single dataflow problem: a direction, an initial assignment
// of facts to blocks, a per-block transfer function, a merge (meet)
// operator, and a fact equality test (facts are arbitrary comparable-ish
// values — sets and maps — so reflect-free explicit Equal is required).
type Analysis interface {
	Direction() Direction
	// Init seeds the in/out maps for every block in fn. Most entries are the
	// lattice's zero value; an analysis seeds a non-zero boundary fact (e.g.
	// reaching definitions seeds in[entry] with the function's parameters).
	Init(fn *bir.Function, g *cfg.Graph) (in, out map[string]any)
	// Transfer computes a block's output fact (forward) or input fact
	// (backward) from its incoming fact.
	Transfer(b *bir.Block, incoming any) any
	Merge(facts []any) any
	Equal(a, b any) bool
}

// Result holds the fixed-point in/out facts for every block, keyed by
// block label.
type Result struct {
	In  map[string]any
	Out map[string]any
}

// Run executes a to fixed point over fn/g following spec.md §4.3's worklist
// algorithm: a FIFO queue seeded with every block, each pop recomputing the
// merge over the relevant neighbours (unless the block has none, in which
// case its seeded boundary fact is never overwritten — the seed persists
// exactly because there is nothing to merge it with) and re-enqueueing
// neighbours whenever the block's fact changes.
func Run(fn *bir.Function, g *cfg.Graph, a Analysis) Result {
	in, out := a.Init(fn, g)

	blockByLabel := make(map[string]*bir.Block, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blockByLabel[b.Label] = b
	}

	order := g.Order()
	queue := append([]string(nil), order...)
	if a.Direction() == Backward {
		for i, j := 0, len(queue)-1; i < j; i, j = i+1, j-1 {
			queue[i], queue[j] = queue[j], queue[i]
		}
	}
	queued := set.New(queue...)

	for len(queue) > 0 {
		label := queue[0]
		queue = queue[1:]
		delete(queued, label)
		b := blockByLabel[label]

		if a.Direction() == Forward {
			preds := g.Predecessors[label]
			if len(preds) > 0 {
				facts := make([]any, len(preds))
				for i, p := range preds {
					facts[i] = out[p]
				}
				in[label] = a.Merge(facts)
			}
			newOut := a.Transfer(b, in[label])
			if !a.Equal(newOut, out[label]) {
				out[label] = newOut
				for _, s := range g.Successors[label] {
					if !queued.Has(s) {
						queue = append(queue, s)
						queued.Add(s)
					}
				}
			}
		} else {
			succs := g.Successors[label]
			if len(succs) > 0 {
				facts := make([]any, len(succs))
				for i, s := range succs {
					facts[i] = in[s]
				}
				out[label] = a.Merge(facts)
			}
			newIn := a.Transfer(b, out[label])
			if !a.Equal(newIn, in[label]) {
				in[label] = newIn
				for _, p := range g.Predecessors[label] {
					if !queued.Has(p) {
						queue = append(queue, p)
						queued.Add(p)
					}
				}
			}
		}
	}

	return Result{In: in, Out: out}
}
