package entities

import (
	"fmt"
	"sort"
)

// StepDeclaration declares one instantiation step of a deployment module.
//
// From, when set, is an account reference selecting the sender.
// After lists labels that must complete first without being referenced
// by an argument.
type StepDeclaration struct {
	From     *Argument
	Label    string
	Contract string
	Args     []Argument
	After    []string
	Tags     []string
}

// Dependencies returns every step label this step depends on, through
// arguments, the sender reference or explicit ordering. Sorted, unique.
func (s StepDeclaration) Dependencies() []string {
	var deps []string
	for _, a := range s.Args {
		deps = append(deps, a.StepRefs()...)
	}
	if s.From != nil {
		deps = append(deps, s.From.StepRefs()...)
	}
	deps = append(deps, s.After...)
	return sortedUnique(deps)
}

// ParamRefs returns every parameter key the step uses. Sorted, unique.
func (s StepDeclaration) ParamRefs() []string {
	var keys []string
	for _, a := range s.Args {
		keys = append(keys, a.ParamRefs()...)
	}
	if s.From != nil {
		keys = append(keys, s.From.ParamRefs()...)
	}
	return sortedUnique(keys)
}

// HasTag reports whether the step carries the tag.
func (s StepDeclaration) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParameterSets holds named, interchangeable argument sets for a module.
// Every set declares the same keys; Default names the set used when none
// is selected explicitly.
type ParameterSets struct {
	Sets    map[string]map[string]Argument
	Default string
}

// Names returns the set names, sorted.
func (p ParameterSets) Names() []string {
	names := make([]string, 0, len(p.Sets))
	for n := range p.Sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether the module declares no parameter sets.
func (p ParameterSets) IsEmpty() bool {
	return len(p.Sets) == 0
}

// DeploymentModule is a named, declarative list of steps.
type DeploymentModule struct {
	Parameters  ParameterSets
	Name        string
	Description string
	Steps       []StepDeclaration
}

// Step returns the declaration with the given label.
func (m *DeploymentModule) Step(label string) (StepDeclaration, bool) {
	for _, s := range m.Steps {
		if s.Label == label {
			return s, true
		}
	}
	return StepDeclaration{}, false
}

// Labels returns step labels in declaration order.
func (m *DeploymentModule) Labels() []string {
	out := make([]string, len(m.Steps))
	for i, s := range m.Steps {
		out[i] = s.Label
	}
	return out
}

// Contracts returns the distinct contract names used by the module, sorted.
func (m *DeploymentModule) Contracts() []string {
	names := make([]string, 0, len(m.Steps))
	for _, s := range m.Steps {
		names = append(names, s.Contract)
	}
	return sortedUnique(names)
}

// Validate checks module-level fields that do not need the graph.
func (m *DeploymentModule) Validate() error {
	if m.Name == "" {
		return NewConfigurationError(ErrInvalidStep, "module name is required")
	}
	if len(m.Steps) == 0 {
		return NewConfigurationError(ErrInvalidStep, fmt.Sprintf("module %q declares no steps", m.Name), m.Name)
	}
	return nil
}
