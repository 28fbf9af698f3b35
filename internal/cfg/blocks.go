// Package cfg partitions a function's flat instruction stream into basic
// blocks and builds its control-flow graph (spec.md §4.1, §4.2).
package cfg

import (
	"fmt"

	"github.com/djanekovic/bril/internal/bir"
)

// formBlocks partitions flat (the decoder's single placeholder block) into
// maximal basic blocks, grounded on original_source/hw/tdce.py's
// form_blocks / original_source/hw/cfg.py's get_block_map. A block closes
// on a terminator or on the start of the next label; labels are lifted out
// into Block.Label rather than kept as instructions. Label-less blocks
// receive a synthetic "label_<k>" where k is their position among
// label-less blocks (spec.md §4.1).
func formBlocks(flat []*bir.Instruction) []*bir.Block {
	var blocks []*bir.Block
	var current []*bir.Instruction
	var pendingLabel string

	// flush emits the accumulated block only if it actually has
	// instructions: per spec.md §4.1, "emit any non-empty residual block"
	// — a label with nothing following it (including one immediately
	// followed by another label) never becomes a block of its own.
	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, &bir.Block{Label: pendingLabel, Instrs: current})
		current = nil
		pendingLabel = ""
	}

	for _, instr := range flat {
		if instr.IsLabel() {
			flush()
			pendingLabel = instr.Label
			continue
		}
		current = append(current, instr)
		if instr.IsTerminator() {
			flush()
		}
	}
	flush()

	synth := 0
	for _, b := range blocks {
		if b.Label == "" {
			b.Label = fmt.Sprintf("label_%d", synth)
			b.Synthetic = true
			synth++
		}
	}
	return blocks
}
