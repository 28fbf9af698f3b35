// Package lvn implements local value numbering (spec.md §4.7): per-block
// redundancy elimination via canonical value tuples, with constant folding,
// short-circuit and reflexive-comparison folding, and copy propagation.
// Grounded on original_source/local_analysis/lvn.py.
package lvn

import (
	"fmt"
	"sort"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/djanekovic/bril/internal/fold"
)

// row is one entry of the value table: the canonical dedup key for the
// value it represents, the variable name other instructions should
// reference to read it, and (when known) its constant value. isID marks a
// row produced by a non-foldable id (a copy whose source wasn't itself
// const or a copy) — still copy-foldable to any id that copies *it* in
// turn, matching original_source/local_analysis/lvn.py's
// LVN_TableRow.is_id/is_copy_foldable.
type row struct {
	key      string
	variable string
	isConst  bool
	constVal any
	isID     bool
}

// Note records that folding an instruction invoked the documented
// divide-by-zero-folds-to-0 convention (spec.md §4.7/§4.9).
type Note struct {
	Block string
	Index int
}

// Transform runs LVN over a single block in place. Instructions are
// rewritten to read canonical variable names; redundant computations
// collapse into a copy (or a const, if the value folded to a literal) of
// the first row that computed the same value. It returns any
// divide-by-zero notes encountered while folding, in source order.
func Transform(b *bir.Block) []Note {
	lastWrite := make(map[string]int, len(b.Instrs))
	for idx, instr := range b.Instrs {
		if instr.HasDest() {
			lastWrite[instr.Dest] = idx
		}
	}

	env := map[string]int{}
	var table []row
	valueIndex := map[string]int{}
	fresh := 0

	rowFor := func(name string) int {
		if idx, ok := env[name]; ok {
			return idx
		}
		idx := len(table)
		table = append(table, row{key: "opaque:" + name, variable: name})
		env[name] = idx
		return idx
	}

	canonicalName := func(name string) string {
		return table[rowFor(name)].variable
	}

	freshName := func() string {
		fresh++
		return fmt.Sprintf("lvn.%d", fresh-1)
	}

	var notes []Note

	for idx, instr := range b.Instrs {
		if instr.Op == bir.OpPhi {
			// A phi's arguments come from other blocks' environments; it is
			// not a candidate for local value numbering.
			continue
		}

		if !instr.HasDest() {
			for i, a := range instr.Args {
				instr.Args[i] = canonicalName(a)
			}
			continue
		}

		argRows := make([]int, len(instr.Args))
		for i, a := range instr.Args {
			argRows[i] = rowFor(a)
		}

		key, isConst, constVal, isID, divByZero := classify(instr, argRows, table)
		if divByZero {
			notes = append(notes, Note{Block: b.Label, Index: idx})
		}

		destName := instr.Dest
		if lastWrite[instr.Dest] != idx {
			destName = freshName()
		}

		if instr.Op == bir.OpCall {
			// A call's result depends on the callee's side effects, not
			// just its argument values: never treat two calls as the same
			// row, even with identical arguments.
			key = fmt.Sprintf("call:%d", idx)
		}

		if existing, hit := valueIndex[key]; hit {
			env[instr.Dest] = existing
			emitCopy(instr, destName, table[existing])
			continue
		}

		newIdx := len(table)
		table = append(table, row{key: key, variable: destName, isConst: isConst, constVal: constVal, isID: isID})
		valueIndex[key] = newIdx
		env[instr.Dest] = newIdx

		if isConst {
			emitConst(instr, destName, constVal)
		} else {
			instr.Dest = destName
			for i, r := range argRows {
				instr.Args[i] = table[r].variable
			}
		}
	}

	return notes
}

func emitCopy(instr *bir.Instruction, dest string, r row) {
	if r.isConst {
		emitConst(instr, dest, r.constVal)
		return
	}
	instr.Category = bir.CategoryValue
	instr.Op = bir.OpID
	instr.Args = []string{r.variable}
	instr.Labels = nil
	instr.Funcs = nil
	instr.Dest = dest
}

func emitConst(instr *bir.Instruction, dest string, val any) {
	instr.Category = bir.CategoryConst
	instr.Op = bir.OpConst
	instr.Value = val
	instr.Args = nil
	instr.Labels = nil
	instr.Funcs = nil
	instr.Dest = dest
}

// classify computes an instruction's canonical value key and, where
// possible, folds it to a known constant (spec.md §4.7 steps 2-3). id only
// folds through to its argument's row when that row is itself copy-foldable
// (const, or an earlier non-foldable id row — original_source's
// is_copy_foldable = is_const() or is_id()); an id of anything else (e.g.
// an add result) gets its own row, marked isID so a later id copying *it*
// can still fold through.
func classify(instr *bir.Instruction, argRows []int, table []row) (key string, isConst bool, constVal any, isID bool, divByZero bool) {
	if instr.Op == bir.OpConst {
		return fmt.Sprintf("const:%v", instr.Value), true, instr.Value, false, false
	}

	if instr.Op == bir.OpID && len(argRows) == 1 {
		r := table[argRows[0]]
		if r.isConst || r.isID {
			return r.key, r.isConst, r.constVal, r.isID, false
		}
	}

	if allConst, vals := constArgs(argRows, table); allConst {
		if result, divByZero, err := fold.Eval(instr.Op, vals); err == nil {
			return fmt.Sprintf("const:%v", result), true, result, false, divByZero
		}
	}

	if len(argRows) == 2 {
		for _, i := range []int{0, 1} {
			if table[argRows[i]].isConst {
				if result, ok := fold.ShortCircuit(instr.Op, table[argRows[i]].constVal); ok {
					return fmt.Sprintf("const:%v", result), true, result, false, false
				}
			}
		}
		if bir.IsComparison(instr.Op) && argRows[0] == argRows[1] {
			if result, ok := fold.Reflexive(instr.Op); ok {
				return fmt.Sprintf("const:%v", result), true, result, false, false
			}
		}
	}

	indices := append([]int(nil), argRows...)
	if bir.IsCommutative(instr.Op) {
		sort.Ints(indices)
	}
	return fmt.Sprintf("op:%s:%v", instr.Op, indices), false, nil, instr.Op == bir.OpID, false
}

func constArgs(argRows []int, table []row) (bool, []any) {
	vals := make([]any, len(argRows))
	for i, r := range argRows {
		if !table[r].isConst {
			return false, nil
		}
		vals[i] = table[r].constVal
	}
	return true, vals
}
