// Package position provides source position tracking for the jmmc compiler.
// Positions are line based: the scanner attaches the line of a token's first
// character, and every diagnostic is reported against a file and line.
package position

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Position represents a single line in a source file
type Position struct {
	Filename string // Source file name
	Line     int    // 1-based line number
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d", filepath.Base(p.Filename), p.Line)
	}
	return fmt.Sprintf("%d", p.Line)
}

// Before returns true if this position comes before other
func (p Position) Before(other Position) bool {
	if p.Filename != other.Filename {
		return p.Filename < other.Filename
	}
	return p.Line < other.Line
}

// SourceFile represents a source file with content and line access
type SourceFile struct {
	Filename string   // File path
	Content  string   // Source code content
	Lines    []string // Lines of source code for efficient access
}

// NewSourceFile creates a new source file from content. Carriage returns are
// dropped so that CRLF and LF sources report identical lines.
func NewSourceFile(filename, content string) *SourceFile {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return &SourceFile{
		Filename: filename,
		Content:  content,
		Lines:    strings.Split(content, "\n"),
	}
}

// GetLine returns the specified line (1-based) or empty string if invalid
func (sf *SourceFile) GetLine(lineNum int) string {
	if lineNum < 1 || lineNum > len(sf.Lines) {
		return ""
	}
	return sf.Lines[lineNum-1]
}

// At returns the position of the given line in this file
func (sf *SourceFile) At(line int) Position {
	return Position{Filename: sf.Filename, Line: line}
}
