// Package ssa builds SSA form from a function's CFG and dominance
// structures: dominance-frontier-driven φ-insertion followed by
// dominator-tree pre-order renaming (spec.md §4.6). Grounded on
// original_source/hw/to_ssa.py's insert_phis/rename pair.
package ssa

import (
	"fmt"
	"sort"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/cfg"
	"github.com/djanekovic/bril/internal/dom"
	"github.com/djanekovic/bril/internal/set"
)

// Warning records a best-effort UndefinedUse recovery (spec.md §7): a use
// was encountered with an empty subscript stack. The use is left as-is and
// renaming continues.
type Warning struct {
	Function string
	Block    string
	Var      string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: block %q: undefined use of %q during SSA renaming", w.Function, w.Block, w.Var)
}

// Transform rewrites fn into SSA form in place: every variable is split
// into subscripted versions so each name is defined exactly once. The
// first (lowest) subscript of a variable is rendered unsubscripted — this
// is how spec.md §8 scenario 6 depicts a loop's entry-edge phi argument as
// the bare parameter name, with only the loop-carried redefinition
// renamed (e.g. "x_2") — so ssa.Name(v, 0) == v.
func Transform(fn *bir.Function, g *cfg.Graph, info *dom.Info) []Warning {
	insertPhis(fn, g, info)
	return rename(fn, g, info)
}

// Name renders the subscript-i version of variable v.
func Name(v string, i int) string {
	if i == 0 {
		return v
	}
	return fmt.Sprintf("%s_%d", v, i)
}

func insertPhis(fn *bir.Function, g *cfg.Graph, info *dom.Info) {
	order := g.Order()
	entry := order[0]

	defs := map[string][]string{}
	types := map[string]bir.Type{}
	for _, p := range fn.Params {
		types[p.Name] = p.Type
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.HasDest() {
				defs[instr.Dest] = append(defs[instr.Dest], b.Label)
				types[instr.Dest] = instr.Type
			}
		}
	}
	// Parameters are virtual definitions at the entry block (spec.md §4.6's
	// Defs(v) worklist seed must include them or a parameter reassigned on
	// some path would never receive a join phi).
	for _, p := range fn.Params {
		defs[p.Name] = append([]string{entry}, defs[p.Name]...)
	}

	vars := make([]string, 0, len(defs))
	for v := range defs {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	for _, v := range vars {
		origDefs := set.New(defs[v]...)
		hasAlready := set.New[string]()
		onWorklist := set.New[string]()
		var worklist []string
		for _, b := range defs[v] {
			if !onWorklist.Has(b) {
				worklist = append(worklist, b)
				onWorklist.Add(b)
			}
		}

		for len(worklist) > 0 {
			x := worklist[0]
			worklist = worklist[1:]
			for _, y := range order {
				if !info.DF[x].Has(y) || hasAlready.Has(y) {
					continue
				}
				preds := g.Predecessors[y]
				phi := &bir.Instruction{
					Category: bir.CategoryValue,
					Op:       bir.OpPhi,
					Dest:     v,
					Type:     types[v],
					Args:     make([]string, len(preds)),
					Labels:   append([]string(nil), preds...),
				}
				for i := range phi.Args {
					phi.Args[i] = v
				}
				block := fn.BlockByLabel(y)
				block.Instrs = append([]*bir.Instruction{phi}, block.Instrs...)
				hasAlready.Add(y)

				if !origDefs.Has(y) && !onWorklist.Has(y) {
					worklist = append(worklist, y)
					onWorklist.Add(y)
				}
			}
		}
	}
}

// frame is one level of the explicit dominator-tree DFS stack, used instead
// of recursion per spec.md §9's note that a recursive implementation "can
// blow the call stack on pathological CFGs".
type frame struct {
	block          string
	defsIntroduced []string
	childIdx       int
}

func rename(fn *bir.Function, g *cfg.Graph, info *dom.Info) []Warning {
	counter := map[string]int{}
	stacks := map[string][]int{}
	var warnings []Warning

	phiOriginalVar := map[*bir.Instruction]string{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Op == bir.OpPhi {
				phiOriginalVar[instr] = instr.Dest
			}
		}
	}

	// Parameters are defined once, implicitly, before the function body
	// runs; seed their stack with subscript 0 so the first real use resolves
	// (and, per Name's convention, prints as the bare parameter name).
	for _, p := range fn.Params {
		stacks[p.Name] = append(stacks[p.Name], counter[p.Name])
		counter[p.Name]++
	}

	top := func(v string) (int, bool) {
		s := stacks[v]
		if len(s) == 0 {
			return 0, false
		}
		return s[len(s)-1], true
	}

	visit := func(label string) *frame {
		f := &frame{block: label}
		b := fn.BlockByLabel(label)

		for _, instr := range b.Instrs {
			if len(instr.Args) > 0 && instr.Op != bir.OpPhi {
				for i, a := range instr.Args {
					if idx, ok := top(a); ok {
						instr.Args[i] = Name(a, idx)
					} else {
						warnings = append(warnings, Warning{Function: fn.Name, Block: label, Var: a})
					}
				}
			}
			if instr.HasDest() {
				v := instr.Dest
				idx := counter[v]
				counter[v] = idx + 1
				stacks[v] = append(stacks[v], idx)
				f.defsIntroduced = append(f.defsIntroduced, v)
				instr.Dest = Name(v, idx)
			}
		}

		for _, y := range g.Successors[label] {
			preds := g.Predecessors[y]
			j := indexOf(preds, label)
			if j < 0 {
				continue
			}
			yBlock := fn.BlockByLabel(y)
			for _, instr := range yBlock.Instrs {
				if instr.Op != bir.OpPhi {
					break // phis sit at the head of the block, in a contiguous run
				}
				orig := phiOriginalVar[instr]
				if idx, ok := top(orig); ok {
					instr.Args[j] = Name(orig, idx)
				} else {
					warnings = append(warnings, Warning{Function: fn.Name, Block: y, Var: orig})
				}
			}
		}

		return f
	}

	entry := g.Order()[0]
	stack := []*frame{visit(entry)}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		children := info.Tree[cur.block]
		if cur.childIdx < len(children) {
			child := children[cur.childIdx]
			cur.childIdx++
			stack = append(stack, visit(child))
			continue
		}
		for _, v := range cur.defsIntroduced {
			stacks[v] = stacks[v][:len(stacks[v])-1]
		}
		stack = stack[:len(stack)-1]
	}

	return warnings
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if s == target {
			return i
		}
	}
	return -1
}
