package shader

import (
	"log"
	"strings"
)

// PreludeFile is the file name reported for diagnostics inside the built-in declarations.
const PreludeFile = "<prelude>"

// ReadFileFunc reads a whole source file.
type ReadFileFunc func(path string) ([]byte, error)

// Header is the prelude prepended to every stage source: the built-in
// declarations followed by the optional common file.
type Header struct {
	Text string
	// Length is the number of bytes in Text.
	Length int
	// Lines is the number of newline terminated lines in Text.
	Lines int
	// BuiltinLines is the number of lines before the common block.
	BuiltinLines int
	// CommonPath is empty when no common file is in use.
	CommonPath string
}

// NewHeader builds the prelude. A common file that cannot be read is logged
// and left out.
func NewHeader(commonPath string, readFile ReadFileFunc) *Header {
	h := &Header{Text: builtinPreamble}
	h.BuiltinLines = strings.Count(builtinPreamble, "\n")

	if commonPath != "" {
		data, err := readFile(commonPath)
		if err != nil {
			log.Printf("Warning: could not read common file %s, using built-in header only: %v", commonPath, err)
		} else {
			common := string(data)
			if common != "" && !strings.HasSuffix(common, "\n") {
				common += "\n"
			}
			h.Text += common
			h.CommonPath = commonPath
		}
	}

	h.Length = len(h.Text)
	h.Lines = strings.Count(h.Text, "\n")
	return h
}

// Source returns the complete fragment unit for a stage body.
func (h *Header) Source(body string) string {
	return h.Text + body
}

// Remap moves a diagnostic reported against the concatenated prelude+source
// back to the file the line came from.
func (h *Header) Remap(path string, d Diagnostic) Diagnostic {
	switch {
	case d.Line <= 0:
		d.File = path
		d.Line = 0
	case d.Line > h.Lines:
		d.File = path
		d.Line -= h.Lines
	case d.Line > h.BuiltinLines && h.CommonPath != "":
		d.File = h.CommonPath
		d.Line -= h.BuiltinLines
	default:
		d.File = PreludeFile
	}
	return d
}
