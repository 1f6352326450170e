package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/richinsley/glook/graphics"
)

// Diagnostic is one compiler message in structured form.
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Severity string
	Message  string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.File)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(&b, ":%d", d.Column)
		}
	}
	fmt.Fprintf(&b, ": %s: %s", d.Severity, d.Message)
	return b.String()
}

var (
	// ANGLE, Apple, AMD: "ERROR: 0:12: 'foo' : undeclared identifier"
	reTagged = regexp.MustCompile(`^(ERROR|WARNING|INFO):\s*\d+:(\d+):\s*(.*)$`)
	// Mesa: "0:12(5): error: `foo' undeclared"
	reMesa = regexp.MustCompile(`^\d+:(\d+)\((\d+)\):\s*(error|warning|info)\s*:?\s*(.*)$`)
	// NVIDIA: "0(12) : error C1008: undefined variable "foo""
	reNvidia = regexp.MustCompile(`^\d+\((\d+)\)\s*:\s*(error|warning)\s*(?:[A-Z]\d+)?\s*:?\s*(.*)$`)
	// trailing summaries carry no location
	reSummary = regexp.MustCompile(`^(ERROR|WARNING):\s*\d+ compilation (errors|warnings)`)
)

// ParseLog splits a driver or translator log into diagnostics. Lines that do
// not match a known format are kept with Line 0.
func ParseLog(text string) []Diagnostic {
	var out []Diagnostic
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
		if line == "" || reSummary.MatchString(line) {
			continue
		}
		out = append(out, parseLine(line))
	}
	return out
}

func parseLine(line string) Diagnostic {
	if m := reTagged.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[2])
		return Diagnostic{Line: n, Severity: strings.ToLower(m[1]), Message: m[3]}
	}
	if m := reMesa.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		c, _ := strconv.Atoi(m[2])
		return Diagnostic{Line: n, Column: c, Severity: m[3], Message: m[4]}
	}
	if m := reNvidia.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Diagnostic{Line: n, Severity: m[2], Message: m[3]}
	}
	return Diagnostic{Severity: "error", Message: line}
}

// CompileError reports a stage that failed to build, with every diagnostic
// mapped back to the user's files.
type CompileError struct {
	Path        string
	Phase       graphics.CompilePhase
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s failed", e.Path, e.Phase)
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}

// NewCompileError parses the raw log of a failed build of path and remaps it
// across the header.
func (h *Header) NewCompileError(path string, raw *graphics.CompileError) *CompileError {
	e := &CompileError{Path: path, Phase: raw.Phase}
	for _, d := range ParseLog(raw.Log) {
		if raw.Phase == graphics.PhaseVertex || raw.Phase == graphics.PhaseLink {
			// not located in the stage source
			d.File = path
			d.Line = 0
			d.Column = 0
			e.Diagnostics = append(e.Diagnostics, d)
			continue
		}
		e.Diagnostics = append(e.Diagnostics, h.Remap(path, d))
	}
	return e
}
