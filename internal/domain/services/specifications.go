package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// StepSpecification defines a condition that a step must meet.
type StepSpecification interface {
	// IsSatisfiedBy checks if the step meets the specification.
	// Returns true if satisfied, along with a reason if not (or empty if satisfied).
	IsSatisfiedBy(step entities.StepDeclaration) (bool, string)
}

// AndSpecification combines multiple specifications with logical AND.
type AndSpecification struct {
	specs []StepSpecification
}

// NewAndSpecification creates a new AndSpecification.
func NewAndSpecification(specs ...StepSpecification) *AndSpecification {
	return &AndSpecification{specs: specs}
}

// IsSatisfiedBy checks if all specifications are satisfied.
func (s *AndSpecification) IsSatisfiedBy(step entities.StepDeclaration) (bool, string) {
	for _, spec := range s.specs {
		if satisfied, reason := spec.IsSatisfiedBy(step); !satisfied {
			return false, reason
		}
	}
	return true, ""
}

// LabelsSpecification includes only the listed labels.
type LabelsSpecification struct {
	labels map[string]bool
}

// NewLabelsSpecification creates a new LabelsSpecification.
func NewLabelsSpecification(labels map[string]bool) *LabelsSpecification {
	return &LabelsSpecification{labels: labels}
}

// IsSatisfiedBy checks if the label is in the list.
func (s *LabelsSpecification) IsSatisfiedBy(step entities.StepDeclaration) (bool, string) {
	if len(s.labels) == 0 {
		return true, ""
	}
	if s.labels[step.Label] {
		return true, ""
	}
	return false, "excluded by --step filter"
}

// ContractsSpecification includes only steps instantiating listed contracts.
type ContractsSpecification struct {
	contracts map[string]bool
}

// NewContractsSpecification creates a new ContractsSpecification.
func NewContractsSpecification(contracts map[string]bool) *ContractsSpecification {
	return &ContractsSpecification{contracts: contracts}
}

// IsSatisfiedBy checks if the step's contract is in the list.
func (s *ContractsSpecification) IsSatisfiedBy(step entities.StepDeclaration) (bool, string) {
	if len(s.contracts) == 0 {
		return true, ""
	}
	if s.contracts[step.Contract] {
		return true, ""
	}
	return false, "excluded by --contract filter"
}

// IncludedTagsSpecification includes only steps with any of the specified tags.
type IncludedTagsSpecification struct {
	tags map[string]bool
}

// NewIncludedTagsSpecification creates a new IncludedTagsSpecification.
func NewIncludedTagsSpecification(tags map[string]bool) *IncludedTagsSpecification {
	return &IncludedTagsSpecification{tags: tags}
}

// IsSatisfiedBy checks if the step has ANY of the included tags.
func (s *IncludedTagsSpecification) IsSatisfiedBy(step entities.StepDeclaration) (bool, string) {
	if len(s.tags) == 0 {
		return true, ""
	}
	for _, tag := range step.Tags {
		if s.tags[tag] {
			return true, ""
		}
	}
	return false, "excluded by --tags filter"
}

// ExpressionSpecification filters steps using an expr program.
type ExpressionSpecification struct {
	program *vm.Program
}

// NewExpressionSpecification creates a new ExpressionSpecification.
func NewExpressionSpecification(program *vm.Program) *ExpressionSpecification {
	return &ExpressionSpecification{program: program}
}

// IsSatisfiedBy evaluates the expr program against the step.
func (s *ExpressionSpecification) IsSatisfiedBy(step entities.StepDeclaration) (bool, string) {
	if s.program == nil {
		return true, ""
	}

	env := StepEnv{
		Label:    step.Label,
		Contract: step.Contract,
		Tags:     step.Tags,
	}

	output, err := expr.Run(s.program, env)
	if err != nil {
		return false, fmt.Sprintf("filter expression error: %v", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Sprintf("filter expression did not return boolean: %v", output)
	}

	if !result {
		return false, "excluded by --filter expression"
	}

	return true, ""
}
