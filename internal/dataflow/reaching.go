package dataflow

import (
	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/set"
)

// Def identifies a reaching definition by variable name and the DefIndex of
// the instruction (or -1 for a parameter) that defines it.
type Def struct {
	Var string
	Idx int
}

// ReachingDefinitions is spec.md §4.4's forward, union lattice: the fact at
// a program point is the set of definitions that may reach it. Grounded on
// original_source/hw/df.py's ReachingDefinitions.
type ReachingDefinitions struct{}

func (ReachingDefinitions) Direction() Direction { return Forward }

func (ReachingDefinitions) Init(fn *bir.Function, g *cfg.Graph) (in, out map[string]any) {
	in = make(map[string]any, len(fn.Blocks))
	out = make(map[string]any, len(fn.Blocks))
	for _, b := range fn.Blocks {
		in[b.Label] = set.New[Def]()
		out[b.Label] = set.New[Def]()
	}
	entry := g.Order()[0]
	seed := set.New[Def]()
	for _, p := range fn.Params {
		seed.Add(Def{Var: p.Name, Idx: -1})
	}
	in[entry] = seed
	return in, out
}

func (ReachingDefinitions) Transfer(b *bir.Block, incoming any) any {
	inSet := incoming.(set.Set[Def])

	local := make(map[string]int)
	for _, instr := range b.Instrs {
		if instr.HasDest() {
			local[instr.Dest] = instr.DefIndex
		}
	}

	result := set.New[Def]()
	for v, idx := range local {
		result.Add(Def{Var: v, Idx: idx})
	}
	for d := range inSet {
		if _, killed := local[d.Var]; !killed {
			result.Add(d)
		}
	}
	return result
}

func (ReachingDefinitions) Merge(facts []any) any {
	sets := make([]set.Set[Def], len(facts))
	for i, f := range facts {
		sets[i] = f.(set.Set[Def])
	}
	return set.Union(sets...)
}

func (ReachingDefinitions) Equal(a, b any) bool {
	return a.(set.Set[Def]).Equal(b.(set.Set[Def]))
}
