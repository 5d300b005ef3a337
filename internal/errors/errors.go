// Package errors provides centralized error handling with category and
// component context attached for log correlation.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryValidation   ErrorCategory = "validation"
	CategorySharedMemory ErrorCategory = "shared-memory"
	CategoryAudioDevice  ErrorCategory = "audio-device"
	CategoryFileIO       ErrorCategory = "file-io"
	CategorySystem       ErrorCategory = "system-resource"
	CategoryGeneric      ErrorCategory = "generic"
)

// EnhancedError wraps an error with additional context for logging.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	context   map[string]any
}

// Error implements the error interface, appending context in stable order.
func (ee *EnhancedError) Error() string {
	msg := ee.Err.Error()
	if len(ee.context) == 0 {
		return msg
	}

	keys := make([]string, 0, len(ee.context))
	for k := range ee.context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, ee.context[k])
	}
	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// GetCategory returns the error category, defaulting to generic.
func (ee *EnhancedError) GetCategory() ErrorCategory {
	if ee.Category == "" {
		return CategoryGeneric
	}
	return ee.Category
}

// GetContext returns a context value by key.
func (ee *EnhancedError) GetContext(key string) (any, bool) {
	v, ok := ee.context[key]
	return v, ok
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error builder.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the final enhanced error.
func (eb *ErrorBuilder) Build() error {
	return &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		context:   eb.context,
	}
}

// NewStd creates a plain error without enhancement, drop-in for errors.New.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
