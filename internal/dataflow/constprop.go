package dataflow

import (
	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/fold"
)

// CPValue is one variable's constant-propagation lattice value: either a
// known literal, or Top (the variable is not provably constant here).
type CPValue struct {
	Top   bool
	Value any
}

// CPFact maps variables to their current lattice value. A variable absent
// from the map is untouched so far on this path — not the same as Top, and
// not the same as ⊥; see Merge for how absence behaves once paths join.
type CPFact map[string]CPValue

// Note records that folding an instruction invoked the documented
// divide-by-zero-folds-to-0 convention (spec.md §4.7/§4.9), so the caller
// can attach the function name it already knows and report a
// diag.DivisionByZero note.
type Note struct {
	Block string
	Index int
}

type noteKey struct {
	block string
	index int
}

// ConstantPropagation is spec.md §4.4's forward lattice ordered
// ⊥ < constant < ⊤, joined by "agree on the same value, else ⊤". Grounded
// on original_source/hw/df.py's ConstantPropagation. Transfer runs
// repeatedly to a fixed point, so div-by-zero notes are deduplicated by
// (block, instruction index) rather than appended on every iteration.
type ConstantPropagation struct {
	Notes []Note
	seen  map[noteKey]bool
}

func (cp *ConstantPropagation) Direction() Direction { return Forward }

func (cp *ConstantPropagation) Init(fn *bir.Function, g *cfg.Graph) (in, out map[string]any) {
	in = make(map[string]any, len(fn.Blocks))
	out = make(map[string]any, len(fn.Blocks))
	for _, b := range fn.Blocks {
		in[b.Label] = CPFact{}
		out[b.Label] = CPFact{}
	}
	return in, out
}

func (cp *ConstantPropagation) Transfer(b *bir.Block, incoming any) any {
	cur := make(CPFact, len(incoming.(CPFact)))
	for k, v := range incoming.(CPFact) {
		cur[k] = v
	}

	for idx, instr := range b.Instrs {
		if !instr.HasDest() {
			continue
		}
		switch {
		case instr.Category == bir.CategoryConst:
			cur[instr.Dest] = CPValue{Value: instr.Value}
		case instr.Op == bir.OpID:
			if len(instr.Args) == 1 {
				if v, ok := cur[instr.Args[0]]; ok {
					cur[instr.Dest] = v
					continue
				}
			}
			cur[instr.Dest] = CPValue{Top: true}
		case instr.Op == bir.OpPhi, instr.Op == bir.OpCall:
			// A phi merges multiple predecessor values and a call's result
			// depends on the callee: neither is foldable from a single
			// block-local fact.
			cur[instr.Dest] = CPValue{Top: true}
		default:
			args := make([]any, 0, len(instr.Args))
			allConst := true
			for _, a := range instr.Args {
				v, ok := cur[a]
				if !ok || v.Top {
					allConst = false
					break
				}
				args = append(args, v.Value)
			}
			if allConst {
				if result, divByZero, err := fold.Eval(instr.Op, args); err == nil {
					if divByZero {
						cp.noteDivByZero(b.Label, idx)
					}
					cur[instr.Dest] = CPValue{Value: result}
					continue
				}
			}
			cur[instr.Dest] = CPValue{Top: true}
		}
	}
	return cur
}

func (cp *ConstantPropagation) noteDivByZero(block string, index int) {
	key := noteKey{block, index}
	if cp.seen == nil {
		cp.seen = map[noteKey]bool{}
	}
	if cp.seen[key] {
		return
	}
	cp.seen[key] = true
	cp.Notes = append(cp.Notes, Note{Block: block, Index: index})
}

// Merge joins CPFacts key by key. A key reaches this join point with a
// known constant only if every incoming fact agrees it is that exact
// constant; a key missing from even one incoming fact is treated the same
// as disagreement, not as bottom, since a variable that some predecessor
// never assigned cannot be assumed constant on that path.
func (cp *ConstantPropagation) Merge(facts []any) any {
	if len(facts) == 0 {
		return CPFact{}
	}

	keys := map[string]struct{}{}
	for _, f := range facts {
		for k := range f.(CPFact) {
			keys[k] = struct{}{}
		}
	}

	merged := make(CPFact, len(keys))
	for k := range keys {
		var agreed CPValue
		first := true
		top := false
		for _, f := range facts {
			v, ok := f.(CPFact)[k]
			if !ok || v.Top {
				top = true
				break
			}
			if first {
				agreed = v
				first = false
				continue
			}
			if agreed.Value != v.Value {
				top = true
				break
			}
		}
		if top {
			merged[k] = CPValue{Top: true}
		} else {
			merged[k] = agreed
		}
	}
	return merged
}

func (cp *ConstantPropagation) Equal(a, b any) bool {
	af, bf := a.(CPFact), b.(CPFact)
	if len(af) != len(bf) {
		return false
	}
	for k, v := range af {
		bv, ok := bf[k]
		if !ok || bv.Top != v.Top || (!v.Top && bv.Value != v.Value) {
			return false
		}
	}
	return true
}
