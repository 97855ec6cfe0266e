package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// GraphBuilder validates a deployment module and turns it into an
// acyclic deployment graph.
type GraphBuilder struct{}

// NewGraphBuilder creates a new graph builder service
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{}
}

// Build constructs the deployment graph of a module.
//
// Algorithm:
// 1. Register every label; duplicates and malformed steps fail
// 2. Validate every reference (arguments, sender, explicit ordering)
// 3. Layer the steps with Kahn's algorithm; leftovers form a cycle
//
// Forward references are allowed: a step may reference one declared later.
func (b *GraphBuilder) Build(module *entities.DeploymentModule) (*entities.DeploymentGraph, error) {
	if err := module.Validate(); err != nil {
		return nil, err
	}

	// Pass 1: labels
	position := make(map[string]int, len(module.Steps))
	for i, step := range module.Steps {
		if err := validateStepShape(step); err != nil {
			return nil, err
		}
		if _, dup := position[step.Label]; dup {
			return nil, entities.NewConfigurationError(entities.ErrDuplicateStepLabel,
				fmt.Sprintf("label %q is declared more than once", step.Label), step.Label)
		}
		position[step.Label] = i
	}

	// Pass 2: references
	dependencies := make(map[string][]string, len(module.Steps))
	for _, step := range module.Steps {
		deps := step.Dependencies()
		for _, dep := range deps {
			if _, ok := position[dep]; !ok {
				return nil, entities.NewConfigurationError(entities.ErrUnresolvedReference,
					fmt.Sprintf("step %q references unknown step %q", step.Label, dep), step.Label, dep)
			}
		}
		dependencies[step.Label] = deps
	}

	levels, err := kahnLevels(module.Steps, dependencies)
	if err != nil {
		return nil, err
	}
	order := topologicalOrder(module.Steps, dependencies, position)

	return entities.NewDeploymentGraph(module.Name, module.Steps, dependencies, order, levels), nil
}

func validateStepShape(step entities.StepDeclaration) error {
	if _, err := values.NewStepLabel(step.Label); err != nil {
		return entities.NewConfigurationError(entities.ErrInvalidStep, err.Error(), step.Label)
	}
	if strings.TrimSpace(step.Contract) == "" {
		return entities.NewConfigurationError(entities.ErrInvalidStep, "contract is required", step.Label)
	}
	if step.From != nil && step.From.Kind != entities.ArgAccount && step.From.Kind != entities.ArgParam {
		return entities.NewConfigurationError(entities.ErrInvalidStep,
			fmt.Sprintf("from must reference an account, got %s", step.From.Kind), step.Label)
	}
	var accounts []int
	for _, a := range step.Args {
		accounts = append(accounts, a.AccountRefs()...)
	}
	if step.From != nil {
		accounts = append(accounts, step.From.AccountRefs()...)
	}
	for _, idx := range accounts {
		if idx < 0 {
			return entities.NewConfigurationError(entities.ErrInvalidStep,
				fmt.Sprintf("account index %d is negative", idx), step.Label)
		}
	}
	return nil
}

// kahnLevels groups steps by depth. Steps never reaching in-degree zero
// are part of, or downstream of, a cycle; only the former are reported.
func kahnLevels(steps []entities.StepDeclaration, dependencies map[string][]string) ([][]string, error) {
	inDegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		inDegree[s.Label] = len(dependencies[s.Label])
		for _, dep := range dependencies[s.Label] {
			dependents[dep] = append(dependents[dep], s.Label)
		}
	}

	var levels [][]string
	processed := make(map[string]bool, len(steps))

	for len(processed) < len(steps) {
		var current []string
		for _, s := range steps {
			if !processed[s.Label] && inDegree[s.Label] == 0 {
				current = append(current, s.Label)
			}
		}

		// No progress made → cycle detected
		if len(current) == 0 {
			cyclic := cyclicSteps(steps, dependencies, processed)
			return nil, entities.NewConfigurationError(entities.ErrCyclicDependency,
				"steps depend on each other", cyclic...)
		}

		levels = append(levels, current)
		for _, label := range current {
			processed[label] = true
			for _, dependent := range dependents[label] {
				inDegree[dependent]--
			}
		}
	}

	return levels, nil
}

// cyclicSteps returns the sorted unprocessed steps that can reach
// themselves. Steps merely downstream of a cycle are left out.
func cyclicSteps(steps []entities.StepDeclaration, dependencies map[string][]string, processed map[string]bool) []string {
	var cyclic []string
	for _, s := range steps {
		if processed[s.Label] {
			continue
		}
		visited := make(map[string]bool)
		stack := append([]string(nil), dependencies[s.Label]...)
		for len(stack) > 0 {
			label := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if label == s.Label {
				cyclic = append(cyclic, s.Label)
				break
			}
			if processed[label] || visited[label] {
				continue
			}
			visited[label] = true
			stack = append(stack, dependencies[label]...)
		}
	}
	sort.Strings(cyclic)
	return cyclic
}

// topologicalOrder linearizes an acyclic graph, always picking the ready
// step declared first.
func topologicalOrder(steps []entities.StepDeclaration, dependencies map[string][]string, position map[string]int) []string {
	remaining := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		remaining[s.Label] = len(dependencies[s.Label])
		for _, dep := range dependencies[s.Label] {
			dependents[dep] = append(dependents[dep], s.Label)
		}
	}

	var ready []string
	for _, s := range steps {
		if remaining[s.Label] == 0 {
			ready = append(ready, s.Label)
		}
	}

	order := make([]string, 0, len(steps))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dependent := range dependents[next] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return order
}
