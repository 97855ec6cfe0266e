package services

import (
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterGraph(t *testing.T) *entities.DeploymentGraph {
	t.Helper()
	token := step("token", "Token")
	token.Tags = []string{"core"}
	registry := step("registry", "Registry", entities.StepRef("token"))
	registry.Tags = []string{"core", "registry"}
	g, err := NewGraphBuilder().Build(module(
		token,
		registry,
		step("market", "Market", entities.StepRef("registry")),
		step("faucet", "Faucet"),
	))
	require.NoError(t, err)
	return g
}

func Test_StepFilter_NoFilters(t *testing.T) {
	g := filterGraph(t)
	out, err := NewStepFilter().Apply(g, NewDependencyResolver())
	require.NoError(t, err)
	assert.Same(t, g, out)
}

func Test_StepFilter_Labels(t *testing.T) {
	g := filterGraph(t)

	out, err := NewStepFilter().WithLabels([]string{"market"}).Apply(g, NewDependencyResolver())
	require.NoError(t, err)
	assert.Equal(t, []string{"market"}, out.Order())
	assert.Empty(t, out.Dependencies("market"))

	out, err = NewStepFilter().
		WithLabels([]string{"market"}).
		WithIncludeDependencies(true).
		Apply(g, NewDependencyResolver())
	require.NoError(t, err)
	assert.Equal(t, []string{"token", "registry", "market"}, out.Order())
	assert.Equal(t, [][]string{{"token"}, {"registry"}, {"market"}}, out.Levels())
}

func Test_StepFilter_UnknownLabel(t *testing.T) {
	g := filterGraph(t)
	_, err := NewStepFilter().WithLabels([]string{"nope"}).Apply(g, NewDependencyResolver())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func Test_StepFilter_Tags(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		expected bool
	}{
		{"no tags", nil, false},
		{"matching tag", []string{"core"}, true},
		{"other tag", []string{"ops"}, false},
	}

	filter := NewStepFilter().WithTags([]string{"core"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := step("x", "X")
			s.Tags = tt.tags
			ok, _ := filter.ShouldRun(s)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func Test_StepFilter_Expression(t *testing.T) {
	program, err := CompileStepFilter(`contract == "Registry" || "registry" in tags`)
	require.NoError(t, err)

	g := filterGraph(t)
	out, err := NewStepFilter().
		WithFilterExpression(program).
		WithIncludeDependencies(true).
		Apply(g, NewDependencyResolver())
	require.NoError(t, err)
	assert.Equal(t, []string{"token", "registry"}, out.Order())

	ok, reason := NewStepFilter().WithFilterExpression(program).ShouldRun(step("faucet", "Faucet"))
	assert.False(t, ok)
	assert.Equal(t, "excluded by --filter expression", reason)
}

func Test_CompileStepFilter_Invalid(t *testing.T) {
	_, err := CompileStepFilter(`label +`)
	require.Error(t, err)

	_, err = CompileStepFilter(`label`)
	require.Error(t, err, "non-boolean expressions are rejected")
}
