package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// StepEnv defines the variables available during filter expression evaluation.
type StepEnv struct {
	Label    string   `expr:"label"`
	Contract string   `expr:"contract"`
	Tags     []string `expr:"tags"`
}

// CompileStepFilter compiles a boolean filter expression over StepEnv.
func CompileStepFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(StepEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression %q: %w", expression, err)
	}
	return program, nil
}

// StepFilter selects the steps of a deployment graph to run.
type StepFilter struct {
	labels    map[string]bool
	tags      map[string]bool
	contracts map[string]bool

	filterProgram *vm.Program

	includeDependencies bool
}

// NewStepFilter initializes a new empty filter.
func NewStepFilter() *StepFilter {
	return &StepFilter{
		labels:    make(map[string]bool),
		tags:      make(map[string]bool),
		contracts: make(map[string]bool),
	}
}

// WithLabels restricts the selection to the given labels.
func (f *StepFilter) WithLabels(labels []string) *StepFilter {
	f.labels = toSet(labels)
	return f
}

// WithTags includes only steps with any of these tags.
func (f *StepFilter) WithTags(tags []string) *StepFilter {
	f.tags = toSet(tags)
	return f
}

// WithContracts includes only steps instantiating these contracts.
func (f *StepFilter) WithContracts(contracts []string) *StepFilter {
	f.contracts = toSet(contracts)
	return f
}

// WithFilterExpression applies a compiled Expr program for advanced filtering.
func (f *StepFilter) WithFilterExpression(program *vm.Program) *StepFilter {
	f.filterProgram = program
	return f
}

// WithIncludeDependencies pulls every transitive dependency into the selection.
func (f *StepFilter) WithIncludeDependencies(include bool) *StepFilter {
	f.includeDependencies = include
	return f
}

// IsEmpty reports whether no criteria are configured.
func (f *StepFilter) IsEmpty() bool {
	return len(f.labels) == 0 && len(f.tags) == 0 && len(f.contracts) == 0 && f.filterProgram == nil
}

// ShouldRun evaluates whether a step matches the filter criteria.
// It returns true if the step is selected, along with a reason if not.
func (f *StepFilter) ShouldRun(step entities.StepDeclaration) (bool, string) {
	var specs []StepSpecification
	if len(f.labels) > 0 {
		specs = append(specs, NewLabelsSpecification(f.labels))
	}
	if len(f.contracts) > 0 {
		specs = append(specs, NewContractsSpecification(f.contracts))
	}
	if len(f.tags) > 0 {
		specs = append(specs, NewIncludedTagsSpecification(f.tags))
	}
	if f.filterProgram != nil {
		specs = append(specs, NewExpressionSpecification(f.filterProgram))
	}

	// Combine all criteria with AND
	return NewAndSpecification(specs...).IsSatisfiedBy(step)
}

// Apply returns the selected subgraph. Unknown labels are rejected.
// Without IncludeDependencies, references to unselected steps must be
// satisfied by the journal at execution time.
func (f *StepFilter) Apply(graph *entities.DeploymentGraph, resolver *DependencyResolver) (*entities.DeploymentGraph, error) {
	for label := range f.labels {
		if _, ok := graph.Step(label); !ok {
			return nil, entities.NewConfigurationError(entities.ErrUnresolvedReference,
				fmt.Sprintf("selected step %q is not part of module %q", label, graph.Module()), label)
		}
	}
	if f.IsEmpty() {
		return graph, nil
	}

	selected := make(map[string]bool)
	for _, label := range graph.Declared() {
		step, _ := graph.Step(label)
		if ok, _ := f.ShouldRun(step); ok {
			selected[label] = true
		}
	}

	if f.includeDependencies {
		closed, err := resolver.Closure(graph, selected)
		if err != nil {
			return nil, err
		}
		selected = closed
	}

	return graph.Subgraph(selected), nil
}

// toSet converts a slice to a map (set)
func toSet(slice []string) map[string]bool {
	s := make(map[string]bool, len(slice))
	for _, item := range slice {
		s[item] = true
	}
	return s
}
