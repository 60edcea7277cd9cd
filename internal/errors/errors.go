// Package errors provides a lightweight structured error type
// (PostBuilderError) for category-based classification in the CLI, plus
// an ErrorList used to report every broken source file in one run.
package errors

import (
	"fmt"
	"strings"
)

// ErrorCategory represents the category of a PostBuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig      ErrorCategory = "config"
	CategoryName        ErrorCategory = "name"
	CategoryDuplicate   ErrorCategory = "duplicate"
	CategoryFrontMatter ErrorCategory = "frontmatter"

	// Build and processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// PostBuilderError is a structured error with category and context
type PostBuilderError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PostBuilderError
type ContextFields map[string]any

// Error implements the error interface
func (e *PostBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PostBuilderError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PostBuilderError) WithContext(key string, value any) *PostBuilderError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new PostBuilderError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PostBuilderError {
	return &PostBuilderError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PostBuilderError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PostBuilderError {
	return &PostBuilderError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pbe, ok := err.(*PostBuilderError); ok {
		return pbe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PostBuilderError
func GetCategory(err error) ErrorCategory {
	if pbe, ok := err.(*PostBuilderError); ok {
		return pbe.Category
	}
	return CategoryInternal
}

// ErrorList accumulates per-file errors so a whole batch is evaluated
// before the build decides pass/fail.
type ErrorList struct {
	errs []error
}

// Append adds err to the list; nil errors are ignored.
func (l *ErrorList) Append(err error) {
	if err == nil {
		return
	}
	l.errs = append(l.errs, err)
}

// Len reports the number of accumulated errors.
func (l *ErrorList) Len() int { return len(l.errs) }

// Errors returns the accumulated errors in append order.
func (l *ErrorList) Errors() []error { return l.errs }

// Err returns nil when the list is empty, otherwise the list itself.
func (l *ErrorList) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// Error implements the error interface, one line per accumulated error.
func (l *ErrorList) Error() string {
	if len(l.errs) == 1 {
		return l.errs[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:", len(l.errs))
	for _, err := range l.errs {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes the accumulated errors to errors.Is/As.
func (l *ErrorList) Unwrap() []error { return l.errs }
