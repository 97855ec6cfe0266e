package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration error kinds. Match them with errors.Is.
var (
	ErrMissingCompilerVersion = errors.New("missing compiler version")
	ErrAmbiguousOverride      = errors.New("ambiguous compiler override")
	ErrInvalidProfile         = errors.New("invalid compiler profile")
	ErrDuplicateStepLabel     = errors.New("duplicate step label")
	ErrUnresolvedReference    = errors.New("unresolved reference")
	ErrCyclicDependency       = errors.New("cyclic dependency")
	ErrInvalidStep            = errors.New("invalid step")
	ErrParameterSet           = errors.New("invalid parameter set")
	ErrUnknownNetwork         = errors.New("unknown network")
)

// ConfigurationError is raised while resolving build configuration or
// constructing a deployment graph. It is always fatal and never retried.
// Subjects names the offending units or step labels.
type ConfigurationError struct {
	Kind     error
	Subjects []string
	Message  string
	Cause    error
}

// NewConfigurationError creates a configuration error for the given kind.
func NewConfigurationError(kind error, message string, subjects ...string) *ConfigurationError {
	return &ConfigurationError{
		Kind:     kind,
		Subjects: subjects,
		Message:  message,
	}
}

// WithCause attaches an underlying error.
func (e *ConfigurationError) WithCause(cause error) *ConfigurationError {
	e.Cause = cause
	return e
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error: ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if len(e.Subjects) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Subjects, ", "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *ConfigurationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
