// Package diag implements the leveled, coded diagnostics of spec.md §7:
// MalformedIR, UndefinedUse, DivisionByZero and EmptyBlock. Adapted from
// the teacher's internal/errors package (codes.go, reporter.go), reporting
// IR coordinates — function, block, instruction index — instead of source
// spans, since this toolkit's input has none.
package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level is a diagnostic's severity.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
)

// Code identifies a diagnostic kind, analogous to the teacher's E-series
// codes but scoped to this toolkit's own D-series.
type Code string

const (
	// CodeMalformedIR: missing required field, unknown op, or a terminator
	// referencing an undefined label. Fatal — abort that function.
	CodeMalformedIR Code = "D0001"
	// CodeUndefinedUse: an SSA renaming use had an empty subscript stack.
	// Non-fatal — the use is left unrenamed.
	CodeUndefinedUse Code = "D0002"
	// CodeDivisionByZero: constant folding divided by a known-zero
	// denominator; documented to fold to 0 rather than fail.
	CodeDivisionByZero Code = "D0003"
	// CodeEmptyBlock: block construction produced a block with no
	// instructions. Impossible by invariant; reported as MalformedIR if
	// ever observed.
	CodeEmptyBlock Code = "D0004"
)

// Diagnostic is one reported condition, located by IR coordinates rather
// than a source span.
type Diagnostic struct {
	Level    Level
	Code     Code
	Message  string
	Function string
	Block    string
	Index    int // instruction index within Block; -1 if not applicable
}

// MalformedIR builds a fatal MalformedIR diagnostic.
func MalformedIR(function, block string, index int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Level: LevelError, Code: CodeMalformedIR,
		Message: fmt.Sprintf(format, args...),
		Function: function, Block: block, Index: index,
	}
}

// UndefinedUse builds a warning-level UndefinedUse diagnostic for variable
// v read in block/function with an empty subscript stack.
func UndefinedUse(function, block, v string) Diagnostic {
	return Diagnostic{
		Level: LevelWarning, Code: CodeUndefinedUse,
		Message:  fmt.Sprintf("use of %q has no reaching definition on this path", v),
		Function: function, Block: block, Index: -1,
	}
}

// DivisionByZero builds a note-level DivisionByZero diagnostic recording
// that a fold used the documented div-by-zero-is-0 convention.
func DivisionByZero(function, block string, index int) Diagnostic {
	return Diagnostic{
		Level: LevelNote, Code: CodeDivisionByZero,
		Message:  "division by a known-zero constant folded to 0",
		Function: function, Block: block, Index: index,
	}
}

func (d Diagnostic) String() string {
	var loc strings.Builder
	loc.WriteString(d.Function)
	if d.Block != "" {
		fmt.Fprintf(&loc, "/%s", d.Block)
	}
	if d.Index >= 0 {
		fmt.Fprintf(&loc, "#%d", d.Index)
	}
	return fmt.Sprintf("%s[%s]: %s (%s)", d.Level, d.Code, d.Message, loc.String())
}

func levelColor(l Level) func(format string, a ...any) string {
	switch l {
	case LevelError:
		return color.New(color.FgRed, color.Bold).SprintfFunc()
	case LevelWarning:
		return color.New(color.FgYellow, color.Bold).SprintfFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintfFunc()
	}
}

// Reporter writes colorized diagnostics to an output stream and tracks
// whether any fatal diagnostic was seen, for the CLI's exit code. Safe for
// concurrent use: CLI drivers fan work out across functions with
// internal/bir.Program.ForEachFunction (spec.md §5) and may report
// diagnostics from more than one goroutine.
type Reporter struct {
	mu        sync.Mutex
	w         io.Writer
	errCount  int
	warnCount int
	noteCount int
}

// NewReporter wraps w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Report writes d and updates the reporter's counts.
func (r *Reporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch d.Level {
	case LevelError:
		r.errCount++
	case LevelWarning:
		r.warnCount++
	default:
		r.noteCount++
	}

	dim := color.New(color.Faint).SprintFunc()
	lc := levelColor(d.Level)
	fmt.Fprintf(r.w, "%s: %s %s\n", lc("%s[%s]", d.Level, d.Code), d.Message, dim(locationOf(d)))
}

func locationOf(d Diagnostic) string {
	loc := "(" + d.Function
	if d.Block != "" {
		loc += "/" + d.Block
	}
	if d.Index >= 0 {
		loc += fmt.Sprintf("#%d", d.Index)
	}
	return loc + ")"
}

// HasErrors reports whether any error-level diagnostic was reported.
func (r *Reporter) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errCount > 0
}

// ExitCode returns the process exit code implied by what's been reported
// so far: 0 if nothing fatal occurred, 1 otherwise (spec.md §6: "non-zero
// on malformed input").
func (r *Reporter) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}
