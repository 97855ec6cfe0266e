package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// ParameterBinder replaces parameter references in a module with the
// values of one selected parameter set.
type ParameterBinder struct{}

// NewParameterBinder creates a new parameter binder service
func NewParameterBinder() *ParameterBinder {
	return &ParameterBinder{}
}

// Validate checks that every set declares exactly the same keys, that the
// default names a declared set, and that every referenced key exists.
func (b *ParameterBinder) Validate(module *entities.DeploymentModule) error {
	params := module.Parameters
	names := params.Names()

	if params.Default != "" && params.Sets[params.Default] == nil {
		return entities.NewConfigurationError(entities.ErrParameterSet,
			fmt.Sprintf("default parameter set %q is not declared", params.Default), params.Default)
	}

	keys := make(map[string]bool)
	for _, name := range names {
		for k := range params.Sets[name] {
			keys[k] = true
		}
	}

	for _, name := range names {
		var missing []string
		for k := range keys {
			if _, ok := params.Sets[name][k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return entities.NewConfigurationError(entities.ErrParameterSet,
				fmt.Sprintf("set %q is missing keys: %s", name, strings.Join(missing, ", ")),
				append([]string{name}, missing...)...)
		}
		for k, v := range params.Sets[name] {
			if len(v.ParamRefs()) > 0 {
				return entities.NewConfigurationError(entities.ErrParameterSet,
					fmt.Sprintf("set %q key %q references another parameter", name, k), name, k)
			}
		}
	}

	for _, step := range module.Steps {
		for _, key := range step.ParamRefs() {
			if !keys[key] {
				return entities.NewConfigurationError(entities.ErrParameterSet,
					fmt.Sprintf("step %q references undeclared parameter %q", step.Label, key), step.Label, key)
			}
		}
	}
	return nil
}

// SelectSet returns the name of the set to bind. An explicit choice wins,
// then the declared default, then the only set if there is exactly one.
// Modules without sets bind to "".
func (b *ParameterBinder) SelectSet(module *entities.DeploymentModule, requested string) (string, error) {
	params := module.Parameters
	if requested != "" {
		if params.Sets[requested] == nil {
			return "", entities.NewConfigurationError(entities.ErrParameterSet,
				fmt.Sprintf("unknown parameter set; declared: %v", params.Names()), requested)
		}
		return requested, nil
	}
	if params.Default != "" {
		return params.Default, nil
	}
	switch len(params.Sets) {
	case 0:
		return "", nil
	case 1:
		return params.Names()[0], nil
	default:
		return "", entities.NewConfigurationError(entities.ErrParameterSet,
			fmt.Sprintf("module %q declares several parameter sets and no default; choose one of %v",
				module.Name, params.Names()), module.Name)
	}
}

// Bind validates the module and returns a copy where every parameter
// reference is replaced by the value from the selected set.
func (b *ParameterBinder) Bind(module *entities.DeploymentModule, requested string) (*entities.DeploymentModule, string, error) {
	if err := b.Validate(module); err != nil {
		return nil, "", err
	}
	setName, err := b.SelectSet(module, requested)
	if err != nil {
		return nil, "", err
	}
	set := module.Parameters.Sets[setName]

	lookup := func(ref entities.Argument) (entities.Argument, error) {
		if ref.Kind != entities.ArgParam {
			return ref, nil
		}
		v, ok := set[ref.Ref]
		if !ok {
			return entities.Argument{}, entities.NewConfigurationError(entities.ErrParameterSet,
				fmt.Sprintf("parameter %q is not declared", ref.Ref), ref.Ref)
		}
		return v, nil
	}

	bound := *module
	bound.Steps = make([]entities.StepDeclaration, len(module.Steps))
	for i, step := range module.Steps {
		out := step
		out.Args = make([]entities.Argument, len(step.Args))
		for j, arg := range step.Args {
			s, err := arg.Substitute(lookup)
			if err != nil {
				return nil, "", withSubject(err, step.Label)
			}
			out.Args[j] = s
		}
		if step.From != nil {
			from, err := step.From.Substitute(lookup)
			if err != nil {
				return nil, "", withSubject(err, step.Label)
			}
			if from.Kind != entities.ArgAccount {
				return nil, "", entities.NewConfigurationError(entities.ErrInvalidStep,
					fmt.Sprintf("from resolved to %s, want an account reference", from.Kind), step.Label)
			}
			out.From = &from
		}
		bound.Steps[i] = out
	}
	return &bound, setName, nil
}
