// Package apperrors defines application-level error types.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError indicates request or filter validation failed.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// CompileError wraps the compiler's failure for one unit verbatim.
type CompileError struct {
	Cause   error
	Unit    string
	Version string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compilation failed for %s (solc %s): %v", e.Unit, e.Version, e.Cause)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// NewCompileError creates a new compile error.
func NewCompileError(unit, version string, cause error) *CompileError {
	return &CompileError{
		Unit:    unit,
		Version: version,
		Cause:   cause,
	}
}

// SubmissionError indicates a step could not be deployed on a network.
type SubmissionError struct {
	Cause   error
	Label   string
	Network string
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("step %s on %s: %s: %v", e.Label, e.Network, e.Message, e.Cause)
	}
	return fmt.Sprintf("step %s on %s: %s", e.Label, e.Network, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// NewSubmissionError creates a new submission error.
func NewSubmissionError(label, network, message string, cause error) *SubmissionError {
	return &SubmissionError{
		Label:   label,
		Network: network,
		Message: message,
		Cause:   cause,
	}
}

// RunError aggregates the failing steps of a deployment run.
type RunError struct {
	Failures map[string]error
	Blocked  []string
	Module   string
	Network  string
}

// NewRunError creates an empty run error for a module and network.
func NewRunError(module, network string) *RunError {
	return &RunError{
		Module:   module,
		Network:  network,
		Failures: make(map[string]error),
	}
}

// Add records a failing step.
func (e *RunError) Add(label string, err error) {
	e.Failures[label] = err
}

// Block records a step that was not attempted because a dependency failed.
func (e *RunError) Block(label string) {
	e.Blocked = append(e.Blocked, label)
}

// Labels returns the failing labels, sorted.
func (e *RunError) Labels() []string {
	labels := make([]string, 0, len(e.Failures))
	for l := range e.Failures {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// HasFailures reports whether any step failed or was blocked.
func (e *RunError) HasFailures() bool {
	return len(e.Failures) > 0 || len(e.Blocked) > 0
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deployment of %s on %s failed: %d step(s) failed", e.Module, e.Network, len(e.Failures))
	if len(e.Blocked) > 0 {
		blocked := append([]string(nil), e.Blocked...)
		sort.Strings(blocked)
		fmt.Fprintf(&b, ", %d blocked (%s)", len(blocked), strings.Join(blocked, ", "))
	}
	for _, l := range e.Labels() {
		fmt.Fprintf(&b, "\n  %s: %v", l, e.Failures[l])
	}
	return b.String()
}

// Unwrap exposes every step cause to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, l := range e.Labels() {
		out = append(out, e.Failures[l])
	}
	return out
}

// ConfigurationError indicates a system config or setup issue outside the
// project definition (credentials, stores, toolchain).
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// IsRunError reports whether err carries a RunError.
func IsRunError(err error) bool {
	var runErr *RunError
	return errors.As(err, &runErr)
}
