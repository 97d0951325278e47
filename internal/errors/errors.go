// Package errors provides a lightweight structured error type (SiteGraphError)
// for category-based classification of build and content failures.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a sitegraph error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Content-authoring errors (fatal for the affected page)
	CategoryOutline ErrorCategory = "outline"
	CategoryLink    ErrorCategory = "link"
	CategoryCycle   ErrorCategory = "cycle"
	CategoryAnchor  ErrorCategory = "anchor"

	// Build and processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryExport     ErrorCategory = "export"

	// Runtime and infrastructure errors
	CategoryServer   ErrorCategory = "server"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the affected page (and, by orchestrator policy, the build)
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// SiteGraphError is a structured error with category, severity, and context
type SiteGraphError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteGraphError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteGraphError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SiteGraphError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteGraphError) WithContext(key string, value any) *SiteGraphError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new SiteGraphError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteGraphError {
	return &SiteGraphError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SiteGraphError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteGraphError {
	return &SiteGraphError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if sge, ok := err.(*SiteGraphError); ok {
		return sge.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SiteGraphError
func GetCategory(err error) ErrorCategory {
	if sge, ok := err.(*SiteGraphError); ok {
		return sge.Category
	}
	return CategoryInternal
}
