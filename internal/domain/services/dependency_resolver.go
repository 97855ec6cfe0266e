package services

import (
	"fmt"
	"sort"

	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// DependencyResolver handles step dependency graph operations
type DependencyResolver struct{}

// NewDependencyResolver creates a new dependency resolver service
func NewDependencyResolver() *DependencyResolver {
	return &DependencyResolver{}
}

// StepLevel represents steps at a specific dependency level
type StepLevel struct {
	Steps []entities.StepDeclaration
	Level int
}

// Levels returns the graph's steps grouped by level for display and
// parallel dispatch within a level.
func (r *DependencyResolver) Levels(graph *entities.DeploymentGraph) []StepLevel {
	var out []StepLevel
	for i, labels := range graph.Levels() {
		lvl := StepLevel{Level: i}
		for _, label := range labels {
			step, _ := graph.Step(label)
			lvl.Steps = append(lvl.Steps, step)
		}
		out = append(out, lvl)
	}
	return out
}

// ResolveDependencies calculates transitive dependencies for each step.
// Returns map of label → set of all dependencies (direct + transitive).
//
// Used by --include-dependencies to pull every dependency into a selection.
func (r *DependencyResolver) ResolveDependencies(graph *entities.DeploymentGraph) (map[string]map[string]bool, error) {
	result := make(map[string]map[string]bool, graph.Len())
	done := make(map[string]bool, graph.Len())

	var computeDeps func(label string, visiting map[string]bool) error
	computeDeps = func(label string, visiting map[string]bool) error {
		if done[label] {
			return nil
		}
		if visiting[label] {
			return fmt.Errorf("circular dependency detected at step %s", label)
		}
		if _, ok := graph.Step(label); !ok {
			return fmt.Errorf("step %s not found", label)
		}

		visiting[label] = true
		defer func() { visiting[label] = false }()

		deps := make(map[string]bool)
		for _, dep := range graph.Dependencies(label) {
			// Add direct dependency
			deps[dep] = true

			if err := computeDeps(dep, visiting); err != nil {
				return err
			}

			// Add all dependencies of the dependency
			for transDep := range result[dep] {
				deps[transDep] = true
			}
		}
		result[label] = deps
		done[label] = true
		return nil
	}

	for _, label := range graph.Declared() {
		if err := computeDeps(label, make(map[string]bool)); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Closure returns the selection extended with every transitive dependency.
func (r *DependencyResolver) Closure(graph *entities.DeploymentGraph, selected map[string]bool) (map[string]bool, error) {
	deps, err := r.ResolveDependencies(graph)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(selected))
	for label := range selected {
		out[label] = true
		for dep := range deps[label] {
			out[dep] = true
		}
	}
	return out, nil
}

// TransitiveDependents returns every step downstream of label, sorted.
func (r *DependencyResolver) TransitiveDependents(graph *entities.DeploymentGraph, label string) []string {
	seen := make(map[string]bool)
	queue := graph.Dependents(label)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, graph.Dependents(next)...)
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
