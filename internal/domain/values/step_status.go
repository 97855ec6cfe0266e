package values

import (
	"database/sql/driver"
	"fmt"
)

// StepStatus is the persisted status of a deployment step.
type StepStatus string

const (
	// StepPending indicates the step was started but no outcome was recorded
	StepPending StepStatus = "pending"
	// StepComplete indicates the step produced an instance handle
	StepComplete StepStatus = "complete"
	// StepFailed indicates the submission collaborator reported a failure
	StepFailed StepStatus = "failed"
)

// IsComplete returns true if the step can be reused by later runs
func (s StepStatus) IsComplete() bool {
	return s == StepComplete
}

// Validate returns an error if the status value is invalid
func (s StepStatus) Validate() error {
	switch s {
	case StepPending, StepComplete, StepFailed:
		return nil
	default:
		return fmt.Errorf("invalid step status: %q", string(s))
	}
}

// Value implements driver.Valuer for database/sql
func (s StepStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner for database/sql
func (s *StepStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}

	var status StepStatus
	switch v := value.(type) {
	case string:
		status = StepStatus(v)
	case []byte:
		status = StepStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into StepStatus", value)
	}
	if err := status.Validate(); err != nil {
		return err
	}
	*s = status
	return nil
}
