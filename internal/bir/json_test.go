package bir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProgram = `{
  "functions": [
    {
      "name": "main",
      "args": [{"name": "x", "type": "int"}],
      "type": "int",
      "instrs": [
        {"op": "const", "dest": "a", "type": "int", "value": 1},
        {"op": "add", "dest": "b", "type": "int", "args": ["a", "x"]},
        {"label": "loop"},
        {"op": "br", "args": ["b"], "labels": ["loop", "end"]},
        {"label": "end"},
        {"op": "print", "args": ["b"]},
        {"op": "ret", "args": ["b"]}
      ]
    }
  ]
}`

func TestDecodeProgram(t *testing.T) {
	prog, err := Decode(strings.NewReader(sampleProgram))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	assert.Equal(t, "main", fn.Name)
	assert.Equal(t, []Parameter{{Name: "x", Type: TypeInt}}, fn.Params)
	assert.True(t, fn.HasReturn)
	assert.Equal(t, TypeInt, fn.ReturnType)

	require.Len(t, fn.Blocks, 1)
	flat := fn.Blocks[0].Instrs
	require.Len(t, flat, 7)

	assert.Equal(t, CategoryConst, flat[0].Category)
	assert.Equal(t, int64(1), flat[0].Value)

	assert.Equal(t, CategoryValue, flat[1].Category)
	assert.Equal(t, []string{"a", "x"}, flat[1].Args)

	assert.True(t, flat[2].IsLabel())
	assert.Equal(t, "loop", flat[2].Label)

	assert.Equal(t, CategoryTerminator, flat[3].Category)
	assert.Equal(t, OpBr, flat[3].Op)
	assert.Equal(t, []string{"loop", "end"}, flat[3].Labels)

	assert.True(t, flat[5].HasSideEffects())
	assert.True(t, flat[6].IsTerminator())
}

func TestDecodeRejectsMalformedInstruction(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"functions":[{"name":"f","instrs":[{"foo":"bar"}]}]}`))
	assert.Error(t, err)
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	prog, err := Decode(strings.NewReader(sampleProgram))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, prog))

	roundTripped, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, roundTripped.Functions, 1)
	assert.Equal(t, prog.Functions[0].Name, roundTripped.Functions[0].Name)
	assert.Len(t, roundTripped.Functions[0].Blocks[0].Instrs, 7)
}

func TestEncodeIsTwoSpaceIndented(t *testing.T) {
	prog, err := Decode(strings.NewReader(sampleProgram))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, prog))
	assert.Contains(t, buf.String(), "\n  \"functions\"")
}

func TestDecodeBoolLiteral(t *testing.T) {
	prog, err := Decode(strings.NewReader(`{
		"functions": [{"name": "f", "instrs": [
			{"op": "const", "dest": "t", "type": "bool", "value": true}
		]}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, true, prog.Functions[0].Blocks[0].Instrs[0].Value)
}
