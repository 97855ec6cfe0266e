package values

import (
	"fmt"
	"regexp"
	"strings"
)

// Labels appear in journal keys and CLI flags, so they are restricted to a
// conservative alphabet.
var stepLabelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// StepLabel is the lifecycle identity of a deployment step. It is stable
// across re-runs and is the idempotency key in the deployment journal.
type StepLabel struct {
	value string
}

// NewStepLabel creates a new StepLabel with validation
func NewStepLabel(label string) (StepLabel, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return StepLabel{}, fmt.Errorf("step label cannot be empty")
	}
	if !stepLabelPattern.MatchString(label) {
		return StepLabel{}, fmt.Errorf("step label %q must match %s", label, stepLabelPattern.String())
	}
	return StepLabel{value: label}, nil
}

// MustNewStepLabel creates a StepLabel or panics (for tests/constants)
func MustNewStepLabel(label string) StepLabel {
	l, err := NewStepLabel(label)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the string representation
func (l StepLabel) String() string {
	return l.value
}

// IsEmpty returns true if this is the zero value
func (l StepLabel) IsEmpty() bool {
	return l.value == ""
}

// Equals checks if two StepLabels are equal
func (l StepLabel) Equals(other StepLabel) bool {
	return l.value == other.value
}
