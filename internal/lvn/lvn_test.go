package lvn

import (
	"strings"
	"testing"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBlock(t *testing.T, source string) *bir.Block {
	t.Helper()
	prog, err := bir.Decode(strings.NewReader(source))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)
	require.Len(t, prog.Functions[0].Blocks, 1)
	return prog.Functions[0].Blocks[0]
}

// TestLVNFolding is scenario 7 of spec.md §8: a+b and b+a both fold to the
// same constant, and both reads canonicalise to the same row.
func TestLVNFolding(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "a", "type": "int", "value": 2},
			{"op": "const", "dest": "b", "type": "int", "value": 3},
			{"op": "add", "dest": "c", "type": "int", "args": ["a", "b"]},
			{"op": "add", "dest": "d", "type": "int", "args": ["b", "a"]},
			{"op": "print", "args": ["c"]},
			{"op": "print", "args": ["d"]}
		]}]
	}`)

	Transform(b)

	c := b.Instrs[2]
	d := b.Instrs[3]
	assert.Equal(t, bir.OpConst, c.Op)
	assert.Equal(t, int64(5), c.Value)
	assert.Equal(t, bir.OpConst, d.Op)
	assert.Equal(t, int64(5), d.Value)

	printC := b.Instrs[4]
	printD := b.Instrs[5]
	assert.Equal(t, printC.Args[0], printD.Args[0])
}

func TestLVNCopyPropagatesID(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "a", "type": "int", "value": 1},
			{"op": "id", "dest": "b", "type": "int", "args": ["a"]},
			{"op": "print", "args": ["b"]}
		]}]
	}`)

	Transform(b)
	assert.Equal(t, bir.OpConst, b.Instrs[1].Op)
	assert.Equal(t, int64(1), b.Instrs[1].Value)
}

func TestLVNReflexiveComparison(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "args": [{"name": "x", "type": "int"}], "instrs": [
			{"op": "eq", "dest": "same", "type": "bool", "args": ["x", "x"]},
			{"op": "lt", "dest": "never", "type": "bool", "args": ["x", "x"]}
		]}]
	}`)

	Transform(b)
	assert.Equal(t, bir.OpConst, b.Instrs[0].Op)
	assert.Equal(t, true, b.Instrs[0].Value)
	assert.Equal(t, bir.OpConst, b.Instrs[1].Op)
	assert.Equal(t, false, b.Instrs[1].Value)
}

func TestLVNShortCircuitOr(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "args": [{"name": "x", "type": "bool"}], "instrs": [
			{"op": "const", "dest": "t", "type": "bool", "value": true},
			{"op": "or", "dest": "r", "type": "bool", "args": ["t", "x"]}
		]}]
	}`)

	Transform(b)
	assert.Equal(t, bir.OpConst, b.Instrs[1].Op)
	assert.Equal(t, true, b.Instrs[1].Value)
}

func TestLVNRenamesDestWhenOverwrittenLater(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "args": [{"name": "x", "type": "int"}], "instrs": [
			{"op": "id", "dest": "a", "type": "int", "args": ["x"]},
			{"op": "id", "dest": "b", "type": "int", "args": ["a"]},
			{"op": "const", "dest": "a", "type": "int", "value": 9},
			{"op": "print", "args": ["b"]},
			{"op": "print", "args": ["a"]}
		]}]
	}`)

	Transform(b)
	// the first "a" row must survive under a fresh name since the real "a"
	// is overwritten by the second definition before the block ends.
	assert.NotEqual(t, "a", b.Instrs[0].Dest)
	assert.Equal(t, b.Instrs[0].Dest, b.Instrs[1].Args[0])
	assert.Equal(t, "a", b.Instrs[2].Dest)

	print1 := b.Instrs[3]
	print2 := b.Instrs[4]
	assert.Equal(t, b.Instrs[0].Dest, print1.Args[0])
	assert.Equal(t, "a", print2.Args[0])
}

// TestLVNIDOfNonFoldableValueGetsOwnRow checks spec.md §4.7 step 2's gate:
// id only folds through to its source row when that row is itself
// copy-foldable (const or another id). An id of an ordinary op's result
// (here, an add) must NOT be aliased onto that op's row — it needs its own
// row and its own canonical name, so reads of the id's destination are not
// silently rewritten to read the add's destination instead.
func TestLVNIDOfNonFoldableValueGetsOwnRow(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "args": [
			{"name": "x", "type": "int"}, {"name": "y", "type": "int"}
		], "instrs": [
			{"op": "add", "dest": "a", "type": "int", "args": ["x", "y"]},
			{"op": "id", "dest": "d", "type": "int", "args": ["a"]},
			{"op": "print", "args": ["d"]}
		]}]
	}`)

	Transform(b)

	addInstr := b.Instrs[0]
	idInstr := b.Instrs[1]
	printInstr := b.Instrs[2]

	assert.Equal(t, "add", addInstr.Op)
	assert.Equal(t, "a", addInstr.Dest)

	// d must remain its own, distinct destination: neither collapsed onto
	// "a" nor dropped, and the id instruction must still read "a".
	assert.Equal(t, "d", idInstr.Dest)
	assert.Equal(t, bir.OpID, idInstr.Op)
	assert.Equal(t, []string{"a"}, idInstr.Args)
	assert.Equal(t, []string{"d"}, printInstr.Args)
}

// TestLVNChainedNonFoldableIDsCollapse checks the other half of the same
// gate: a SECOND id copying a first, already-non-foldable id row IS
// copy-foldable (is_id), so it collapses onto the first id's row.
func TestLVNChainedNonFoldableIDsCollapse(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "args": [
			{"name": "x", "type": "int"}, {"name": "y", "type": "int"}
		], "instrs": [
			{"op": "add", "dest": "a", "type": "int", "args": ["x", "y"]},
			{"op": "id", "dest": "d", "type": "int", "args": ["a"]},
			{"op": "id", "dest": "e", "type": "int", "args": ["d"]},
			{"op": "print", "args": ["e"]}
		]}]
	}`)

	Transform(b)

	printInstr := b.Instrs[3]
	assert.Equal(t, []string{b.Instrs[1].Dest}, printInstr.Args)
}

// TestLVNRecordsDivisionByZeroNote checks that a folded div-by-zero is
// reported as a Note carrying the block/instruction coordinates (spec.md
// §4.9), alongside folding to 0 (spec.md §4.7/§7).
func TestLVNRecordsDivisionByZeroNote(t *testing.T) {
	b := decodeBlock(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "a", "type": "int", "value": 9},
			{"op": "const", "dest": "z", "type": "int", "value": 0},
			{"op": "div", "dest": "c", "type": "int", "args": ["a", "z"]},
			{"op": "print", "args": ["c"]}
		]}]
	}`)

	notes := Transform(b)
	require.Len(t, notes, 1)
	assert.Equal(t, b.Label, notes[0].Block)
	assert.Equal(t, 2, notes[0].Index)
	assert.Equal(t, bir.OpConst, b.Instrs[2].Op)
	assert.Equal(t, int64(0), b.Instrs[2].Value)
}

// TestLVNIdempotent checks the invariant of spec.md §8:
// LVN(LVN(block)) = LVN(block) — running Transform a second time over an
// already-canonical block must be a no-op.
func TestLVNIdempotent(t *testing.T) {
	source := `{
		"functions": [{"name": "f", "args": [{"name": "x", "type": "int"}], "instrs": [
			{"op": "const", "dest": "a", "type": "int", "value": 2},
			{"op": "const", "dest": "b", "type": "int", "value": 3},
			{"op": "add", "dest": "c", "type": "int", "args": ["a", "b"]},
			{"op": "add", "dest": "d", "type": "int", "args": ["b", "a"]},
			{"op": "id", "dest": "e", "type": "int", "args": ["x"]},
			{"op": "id", "dest": "g", "type": "int", "args": ["e"]},
			{"op": "const", "dest": "e", "type": "int", "value": 9},
			{"op": "print", "args": ["c", "d", "g", "e"]}
		]}]
	}`

	once := decodeBlock(t, source)
	Transform(once)

	twice := decodeBlock(t, source)
	Transform(twice)
	Transform(twice)

	assert.Equal(t, once.Instrs, twice.Instrs)
}
