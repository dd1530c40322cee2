// Package errors provides standardized internal error reporting for jmmc.
// User-facing problems in the compiled program are diagnostics, not errors;
// a StandardError always means the compiler itself reached a state that a
// successful analysis should have ruled out, or that its environment failed.
package errors

import (
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryInternal ErrorCategory = "INTERNAL"
	CategoryCodegen  ErrorCategory = "CODEGEN"
	CategoryAssembly ErrorCategory = "ASSEMBLY"
	CategoryConfig   ErrorCategory = "CONFIG"
	CategoryIO       ErrorCategory = "IO"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newStandardError(2, category, code, message, context)
}

func newStandardError(skip int, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(skip)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Common error constructors

// UnsupportedType is raised when code generation meets a type that analysis
// should have rejected, e.g. an ANY-typed operand.
func UnsupportedType(operation string, typ fmt.Stringer) *StandardError {
	return newStandardError(2, CategoryCodegen, "UNSUPPORTED_TYPE",
		fmt.Sprintf("Unsupported type %s for %s", typ, operation),
		map[string]interface{}{"operation": operation, "type": typ.String()})
}

// UnplacedLabel is raised when a branch or handler references a label that
// was never placed in the instruction stream.
func UnplacedLabel(label fmt.Stringer) *StandardError {
	return newStandardError(2, CategoryAssembly, "UNPLACED_LABEL",
		fmt.Sprintf("Label %s referenced but never placed", label),
		map[string]interface{}{"label": label.String()})
}

// LabelPlacedTwice is raised when a label is placed at two positions.
func LabelPlacedTwice(label fmt.Stringer) *StandardError {
	return newStandardError(2, CategoryAssembly, "DUPLICATE_LABEL",
		fmt.Sprintf("Label %s placed more than once", label),
		map[string]interface{}{"label": label.String()})
}

// UnknownOpcode is raised when an opcode is used with the wrong emission form.
func UnknownOpcode(op fmt.Stringer, form string) *StandardError {
	return newStandardError(2, CategoryAssembly, "BAD_OPCODE",
		fmt.Sprintf("Opcode %s cannot be emitted as %s", op, form),
		map[string]interface{}{"opcode": op.String(), "form": form})
}

// InvalidTarget is raised for unsupported target release strings.
func InvalidTarget(target, reason string) *StandardError {
	return newStandardError(2, CategoryConfig, "INVALID_TARGET",
		fmt.Sprintf("Invalid target release %q: %s", target, reason),
		map[string]interface{}{"target": target})
}

// Internal is raised for broken invariants that have no more specific code.
func Internal(format string, args ...interface{}) *StandardError {
	return newStandardError(2, CategoryInternal, "INTERNAL", fmt.Sprintf(format, args...), nil)
}
