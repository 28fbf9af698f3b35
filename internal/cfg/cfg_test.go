package cfg

import (
	"strings"
	"testing"

	"github.com/djanekovic/bril/internal/bir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFirstFunction(t *testing.T, source string) *bir.Function {
	t.Helper()
	prog, err := bir.Decode(strings.NewReader(source))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)
	return prog.Functions[0]
}

// TestFallThroughCFG is scenario 1 of spec.md §8: a block with no
// terminator falls through to the textually next block.
func TestFallThroughCFG(t *testing.T) {
	fn := decodeFirstFunction(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "a", "type": "int", "value": 1},
			{"label": "b"},
			{"op": "ret"}
		]}]
	}`)

	g, err := Build(fn)
	require.NoError(t, err)

	require.Len(t, fn.Blocks, 2)
	assert.True(t, fn.Blocks[0].Synthetic)
	assert.Equal(t, "label_0", fn.Blocks[0].Label)
	assert.Equal(t, "b", fn.Blocks[1].Label)

	assert.Equal(t, []string{"b"}, g.Successors["label_0"])
	assert.Equal(t, []string(nil), g.Successors["b"])
	assert.Equal(t, []string(nil), g.Predecessors["label_0"])
	assert.Equal(t, []string{"label_0"}, g.Predecessors["b"])
}

func TestBranchSuccessorOrderMatchesLabelsOrder(t *testing.T) {
	fn := decodeFirstFunction(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "c", "type": "bool", "value": true},
			{"op": "br", "args": ["c"], "labels": ["then", "else"]},
			{"label": "then"},
			{"op": "ret"},
			{"label": "else"},
			{"op": "ret"}
		]}]
	}`)

	g, err := Build(fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"then", "else"}, g.Successors["label_0"])
}

func TestBuildRejectsUndefinedLabel(t *testing.T) {
	fn := decodeFirstFunction(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "jmp", "labels": ["nowhere"]}
		]}]
	}`)

	_, err := Build(fn)
	assert.Error(t, err)
}

func TestConsecutiveLabelsCollapseToLatest(t *testing.T) {
	fn := decodeFirstFunction(t, `{
		"functions": [{"name": "f", "instrs": [
			{"label": "a"},
			{"label": "b"},
			{"op": "ret"}
		]}]
	}`)

	g, err := Build(fn)
	require.NoError(t, err)
	require.Len(t, fn.Blocks, 1)
	assert.Equal(t, "b", fn.Blocks[0].Label)
	assert.Contains(t, g.Successors, "b")
}

func TestBuildAllPreservesFunctionOrder(t *testing.T) {
	prog, err := bir.Decode(strings.NewReader(`{
		"functions": [
			{"name": "first", "instrs": [
				{"op": "const", "dest": "a", "type": "int", "value": 1},
				{"op": "ret"}
			]},
			{"name": "second", "instrs": [
				{"op": "const", "dest": "b", "type": "bool", "value": true},
				{"op": "br", "args": ["b"], "labels": ["then", "else"]},
				{"label": "then"}, {"op": "ret"},
				{"label": "else"}, {"op": "ret"}
			]},
			{"name": "third", "instrs": [
				{"op": "ret"}
			]}
		]
	}`))
	require.NoError(t, err)

	graphs, err := BuildAll(prog)
	require.NoError(t, err)
	require.Len(t, graphs, 3)

	assert.Equal(t, []string(nil), graphs[0].Successors["label_0"])
	assert.Equal(t, []string{"then", "else"}, graphs[1].Successors["label_0"])
	assert.Len(t, graphs[2].Order(), 1)
}

func TestBuildAllPropagatesPerFunctionError(t *testing.T) {
	prog, err := bir.Decode(strings.NewReader(`{
		"functions": [
			{"name": "ok", "instrs": [{"op": "ret"}]},
			{"name": "bad", "instrs": [{"op": "jmp", "labels": ["nowhere"]}]}
		]
	}`))
	require.NoError(t, err)

	_, err = BuildAll(prog)
	assert.Error(t, err)
}

func TestDefIndicesAreSourceOrderGlobal(t *testing.T) {
	fn := decodeFirstFunction(t, `{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "a", "type": "int", "value": 1},
			{"label": "l"},
			{"op": "const", "dest": "b", "type": "int", "value": 2},
			{"op": "ret"}
		]}]
	}`)

	_, err := Build(fn)
	require.NoError(t, err)
	assert.Equal(t, 0, fn.Blocks[0].Instrs[0].DefIndex)
	assert.Equal(t, 1, fn.Blocks[1].Instrs[0].DefIndex)
}
