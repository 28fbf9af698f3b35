package dataflow

import (
	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/set"
)

// LiveVariables is spec.md §4.4's backward, union lattice: a variable is
// live at a point if some path from that point reads it before it is
// redefined. Initial facts are all ∅, including exit blocks' out set, which
// is never anything but ∅ since an exit block has no successors to union.
// Grounded on original_source/hw/df.py's LiveVariables.
type LiveVariables struct{}

func (LiveVariables) Direction() Direction { return Backward }

func (LiveVariables) Init(fn *bir.Function, g *cfg.Graph) (in, out map[string]any) {
	in = make(map[string]any, len(fn.Blocks))
	out = make(map[string]any, len(fn.Blocks))
	for _, b := range fn.Blocks {
		in[b.Label] = set.New[string]()
		out[b.Label] = set.New[string]()
	}
	return in, out
}

// Transfer computes in(b) from out(b) by scanning instructions in reverse:
// a use makes a variable live going backward past that point; a definition
// kills it (it is no longer live before the instruction that creates it).
func (LiveVariables) Transfer(b *bir.Block, incoming any) any {
	live := incoming.(set.Set[string]).Clone()
	for i := len(b.Instrs) - 1; i >= 0; i-- {
		instr := b.Instrs[i]
		if instr.HasDest() {
			delete(live, instr.Dest)
		}
		for _, arg := range instr.Args {
			live.Add(arg)
		}
	}
	return live
}

func (LiveVariables) Merge(facts []any) any {
	sets := make([]set.Set[string], len(facts))
	for i, f := range facts {
		sets[i] = f.(set.Set[string])
	}
	return set.Union(sets...)
}

func (LiveVariables) Equal(a, b any) bool {
	return a.(set.Set[string]).Equal(b.(set.Set[string]))
}
