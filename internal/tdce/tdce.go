// Package tdce implements trivial dead code elimination (spec.md §4.8):
// global pure-value dead code elimination run to convergence, followed by
// per-block redundant-store elimination run to convergence. Grounded on
// original_source/hw/tdce.py's eliminate_dead_code/eliminate_double_assignment.
package tdce

import "github.com/djanekovic/bril/internal/bir"

// Transform removes dead code from fn in place: first every pure
// instruction whose destination is never read (function-wide, iterated to
// a fixed point), then every block-local redundant store (a definition
// overwritten before its value is ever read).
func Transform(fn *bir.Function) {
	for globalDCE(fn) {
	}
	for _, b := range fn.Blocks {
		for redundantStore(b) {
		}
	}
}

// globalDCE removes one round of dead pure instructions and reports
// whether anything was removed.
func globalDCE(fn *bir.Function) bool {
	used := map[string]bool{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			for _, a := range instr.Args {
				used[a] = true
			}
		}
	}

	changed := false
	for _, b := range fn.Blocks {
		kept := b.Instrs[:0]
		for _, instr := range b.Instrs {
			if instr.HasDest() && !used[instr.Dest] && !instr.HasSideEffects() {
				changed = true
				continue
			}
			kept = append(kept, instr)
		}
		b.Instrs = kept
	}
	return changed
}

// redundantStore removes the first definition made dead by a later
// definition of the same variable with no intervening read, and reports
// whether it removed anything.
func redundantStore(b *bir.Block) bool {
	defined := map[string]*bir.Instruction{}
	for _, instr := range b.Instrs {
		for _, a := range instr.Args {
			delete(defined, a)
		}
		if !instr.HasDest() {
			continue
		}
		if dead, ok := defined[instr.Dest]; ok {
			removeInstr(b, dead)
			return true
		}
		defined[instr.Dest] = instr
	}
	return false
}

func removeInstr(b *bir.Block, target *bir.Instruction) {
	kept := b.Instrs[:0]
	for _, instr := range b.Instrs {
		if instr != target {
			kept = append(kept, instr)
		}
	}
	b.Instrs = kept
}
