package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporterExitCodeReflectsErrors(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	assert.Equal(t, 0, r.ExitCode())

	r.Report(UndefinedUse("f", "L", "x"))
	assert.False(t, r.HasErrors())
	assert.Equal(t, 0, r.ExitCode())

	r.Report(MalformedIR("f", "L", 2, "unknown op %q", "frob"))
	assert.True(t, r.HasErrors())
	assert.Equal(t, 1, r.ExitCode())
	assert.Contains(t, buf.String(), "D0001")
	assert.Contains(t, buf.String(), "D0002")
}

func TestDiagnosticString(t *testing.T) {
	d := MalformedIR("f", "entry", 0, "missing dest")
	assert.Contains(t, d.String(), "f/entry#0")
	assert.Contains(t, d.String(), "D0001")
}
