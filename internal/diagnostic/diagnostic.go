// Diagnostic reporting for the jmmc compiler.
// Lexical and semantic problems are collected here instead of aborting the
// phase that found them, so one run surfaces every independent error.

package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmm-lang/jmmc/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// DiagnosticCategory represents the compiler phase that found the problem.
type DiagnosticCategory int

const (
	DiagnosticLexical DiagnosticCategory = iota
	DiagnosticSemantic
)

func (dc DiagnosticCategory) String() string {
	switch dc {
	case DiagnosticLexical:
		return "lexical"
	case DiagnosticSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Message  string
	Pos      position.Position
	Level    DiagnosticLevel
	Category DiagnosticCategory
}

// Reporter is the only capability analysis code gets: record a problem on a
// source line. Reporting never halts the caller.
type Reporter interface {
	Report(line int, format string, args ...interface{})
}

// DiagnosticConfig controls diagnostic behavior.
type DiagnosticConfig struct {
	MaxErrors  int  // 0 means unlimited
	ShowSource bool // print the offending source line under each diagnostic
	Colorize   bool
}

// DiagnosticEngine manages the collection of diagnostics for one compilation unit.
type DiagnosticEngine struct {
	file        *position.SourceFile
	diagnostics []Diagnostic
	config      DiagnosticConfig
	errorCount  int
	truncated   bool
}

// NewDiagnosticEngine creates a new diagnostic engine for the given file.
func NewDiagnosticEngine(file *position.SourceFile, config DiagnosticConfig) *DiagnosticEngine {
	if file == nil {
		file = position.NewSourceFile("", "")
	}
	return &DiagnosticEngine{
		file:        file,
		diagnostics: make([]Diagnostic, 0),
		config:      config,
	}
}

// File returns the source file diagnostics are reported against.
func (de *DiagnosticEngine) File() *position.SourceFile {
	return de.file
}

// AddDiagnostic adds a diagnostic to the engine.
func (de *DiagnosticEngine) AddDiagnostic(diagnostic Diagnostic) {
	if diagnostic.Level == DiagnosticError {
		de.errorCount++
	}

	// Stop recording once the limit is hit; the error count stays sticky.
	if de.config.MaxErrors > 0 && de.errorCount > de.config.MaxErrors {
		if !de.truncated {
			de.truncated = true
			de.diagnostics = append(de.diagnostics, Diagnostic{
				Message:  fmt.Sprintf("too many errors, stopping after %d", de.config.MaxErrors),
				Pos:      diagnostic.Pos,
				Level:    DiagnosticError,
				Category: diagnostic.Category,
			})
		}
		return
	}

	de.diagnostics = append(de.diagnostics, diagnostic)
}

// Reporter returns a Reporter that records errors of the given category.
func (de *DiagnosticEngine) Reporter(category DiagnosticCategory) Reporter {
	return &categoryReporter{engine: de, category: category}
}

type categoryReporter struct {
	engine   *DiagnosticEngine
	category DiagnosticCategory
}

func (cr *categoryReporter) Report(line int, format string, args ...interface{}) {
	cr.engine.AddDiagnostic(Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Pos:      cr.engine.file.At(line),
		Level:    DiagnosticError,
		Category: cr.category,
	})
}

// GetDiagnostics returns all recorded diagnostics in report order.
func (de *DiagnosticEngine) GetDiagnostics() []Diagnostic {
	return de.diagnostics
}

// ErrorCount returns the number of errors reported, including any dropped
// after MaxErrors was reached.
func (de *DiagnosticEngine) ErrorCount() int {
	return de.errorCount
}

// HasErrors returns true if there are any errors.
func (de *DiagnosticEngine) HasErrors() bool {
	return de.errorCount > 0
}

// HasErrorsIn returns true if an error of the given category was reported.
func (de *DiagnosticEngine) HasErrorsIn(category DiagnosticCategory) bool {
	for _, diag := range de.diagnostics {
		if diag.Level == DiagnosticError && diag.Category == category {
			return true
		}
	}
	return false
}

// sorted returns diagnostics ordered by line; report order breaks ties.
func (de *DiagnosticEngine) sorted() []Diagnostic {
	out := make([]Diagnostic, len(de.diagnostics))
	copy(out, de.diagnostics)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.Before(out[j].Pos)
	})
	return out
}

// FormatDiagnostics returns a formatted string representation of all diagnostics.
func (de *DiagnosticEngine) FormatDiagnostics() string {
	if len(de.diagnostics) == 0 {
		return ""
	}

	var result strings.Builder

	for _, diag := range de.sorted() {
		result.WriteString(de.formatSingleDiagnostic(&diag))
	}

	return result.String()
}

// formatSingleDiagnostic formats a single diagnostic as "file:line: error: message".
func (de *DiagnosticEngine) formatSingleDiagnostic(diag *Diagnostic) string {
	var result strings.Builder

	level := diag.Level.String()
	if de.config.Colorize {
		level = colorize(diag.Level, level)
	}

	result.WriteString(fmt.Sprintf("%s:%d: %s: %s\n",
		de.file.Filename,
		diag.Pos.Line,
		level,
		diag.Message,
	))

	if de.config.ShowSource {
		if src := de.file.GetLine(diag.Pos.Line); strings.TrimSpace(src) != "" {
			result.WriteString(fmt.Sprintf("    %s\n", strings.TrimRight(src, " \t")))
		}
	}

	return result.String()
}

// Summary returns a one-line count of the recorded errors.
func (de *DiagnosticEngine) Summary() string {
	switch de.errorCount {
	case 0:
		return "no errors"
	case 1:
		return "1 error"
	default:
		return fmt.Sprintf("%d errors", de.errorCount)
	}
}

func colorize(level DiagnosticLevel, text string) string {
	switch level {
	case DiagnosticError:
		return "\x1b[1;31m" + text + "\x1b[0m"
	case DiagnosticWarning:
		return "\x1b[1;33m" + text + "\x1b[0m"
	default:
		return text
	}
}
