package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/plinth-dev/plinth/internal/application/dto"
	apperrors "github.com/plinth-dev/plinth/internal/application/errors"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/services"
)

// ErrDeploymentDeclined is returned when the operator does not confirm.
var ErrDeploymentDeclined = errors.New("deployment declined")

// PromptFunc renders the confirmation shown before deploying.
type PromptFunc func(module string, network entities.NetworkProfile, from string, steps []string) (title, description string)

// DeploymentService orchestrates the module workflows: graph inspection,
// deployment and journal status.
type DeploymentService struct {
	project      *entities.Project
	modules      ports.ModuleLoader
	journal      ports.JournalRepository
	accounts     ports.AccountProvider
	executor     ports.DeploymentExecutor
	confirmer    ports.Confirmer
	prompt       PromptFunc
	graphBuilder *services.GraphBuilder
	binder       *services.ParameterBinder
	deps         *services.DependencyResolver
	logger       *slog.Logger
}

// NewDeploymentService creates a new deployment service.
func NewDeploymentService(
	project *entities.Project,
	modules ports.ModuleLoader,
	journal ports.JournalRepository,
	accounts ports.AccountProvider,
	executor ports.DeploymentExecutor,
	confirmer ports.Confirmer,
	prompt PromptFunc,
	logger *slog.Logger,
) *DeploymentService {
	if logger == nil {
		logger = slog.Default()
	}
	if prompt == nil {
		prompt = defaultPrompt
	}
	return &DeploymentService{
		project:      project,
		modules:      modules,
		journal:      journal,
		accounts:     accounts,
		executor:     executor,
		confirmer:    confirmer,
		prompt:       prompt,
		graphBuilder: services.NewGraphBuilder(),
		binder:       services.NewParameterBinder(),
		deps:         services.NewDependencyResolver(),
		logger:       logger,
	}
}

func defaultPrompt(module string, network entities.NetworkProfile, _ string, steps []string) (string, string) {
	return fmt.Sprintf("Deploy %s to %s?", module, network.Name), fmt.Sprintf("%d steps", len(steps))
}

// prepared is a bound, validated and filtered module.
type prepared struct {
	module       *entities.DeploymentModule
	graph        *entities.DeploymentGraph
	parameterSet string
}

func (s *DeploymentService) prepare(path, parameterSet string, filters dto.FilterOptions) (*prepared, error) {
	module, err := s.modules.LoadModule(path)
	if err != nil {
		return nil, err
	}

	bound, setName, err := s.binder.Bind(module, parameterSet)
	if err != nil {
		return nil, err
	}

	graph, err := s.graphBuilder.Build(bound)
	if err != nil {
		return nil, err
	}

	filter, err := buildStepFilter(filters)
	if err != nil {
		return nil, err
	}
	selected, err := filter.Apply(graph, s.deps)
	if err != nil {
		return nil, err
	}
	if selected.Len() == 0 {
		return nil, apperrors.NewValidationError("filters", "no steps match the given filters")
	}

	s.logger.Debug("module prepared",
		"module", bound.Name,
		"parameter_set", setName,
		"steps", graph.Len(),
		"selected", selected.Len())

	return &prepared{module: bound, graph: selected, parameterSet: setName}, nil
}

func buildStepFilter(opts dto.FilterOptions) (*services.StepFilter, error) {
	filter := services.NewStepFilter().
		WithLabels(opts.Steps).
		WithTags(opts.Tags).
		WithContracts(opts.Contracts).
		WithIncludeDependencies(opts.IncludeDependencies)

	if opts.FilterExpression != "" {
		program, err := services.CompileStepFilter(opts.FilterExpression)
		if err != nil {
			return nil, apperrors.NewValidationError("filter", "invalid filter expression", err.Error())
		}
		filter.WithFilterExpression(program)
	}
	return filter, nil
}

// Graph returns the execution order and levels of a module.
func (s *DeploymentService) Graph(_ context.Context, req dto.GraphRequest) (*dto.GraphResponse, error) {
	p, err := s.prepare(req.ModulePath, req.ParameterSet, req.Filters)
	if err != nil {
		return nil, err
	}

	levelOf := make(map[string]int)
	for i, lvl := range p.graph.Levels() {
		for _, label := range lvl {
			levelOf[label] = i
		}
	}

	resp := &dto.GraphResponse{
		Module:       p.module.Name,
		ParameterSet: p.parameterSet,
		Order:        p.graph.Order(),
		Levels:       p.graph.Levels(),
	}
	for _, label := range p.graph.Order() {
		step, _ := p.graph.Step(label)
		resp.Steps = append(resp.Steps, dto.GraphStep{
			Label:     label,
			Contract:  step.Contract,
			DependsOn: p.graph.Dependencies(label),
			Tags:      step.Tags,
			Level:     levelOf[label],
		})
	}
	return resp, nil
}

// Deploy executes a module against a network. Non-local networks need
// the operator's confirmation unless AssumeYes is set.
//
// The response carries the run result even when steps failed; the error
// is then a *apperrors.RunError.
func (s *DeploymentService) Deploy(ctx context.Context, req dto.DeployRequest) (*dto.DeployResponse, error) {
	startTime := time.Now()

	p, err := s.prepare(req.ModulePath, req.ParameterSet, req.Filters)
	if err != nil {
		return nil, err
	}

	network, err := s.project.Network(req.Network)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.Accounts(ctx, network)
	if err != nil {
		return nil, apperrors.NewConfigurationError("accounts", "failed to unlock accounts for "+network.Name, err)
	}
	if len(accounts) == 0 {
		return nil, apperrors.NewConfigurationError("accounts", "no accounts available on "+network.Name, nil)
	}

	if !network.Local && !req.Execution.AssumeYes {
		title, description := s.prompt(p.module.Name, network, accounts[0].Address, p.graph.Order())
		ok, err := s.confirmer.Confirm(ctx, title, description)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDeploymentDeclined
		}
	}

	s.logger.Info("deploying module",
		"module", p.module.Name,
		"network", network.Name,
		"parameter_set", p.parameterSet,
		"steps", p.graph.Len())

	result, runErr := s.executor.Execute(ctx, ports.ExecuteRequest{
		Graph:         p.graph,
		Accounts:      accounts,
		Network:       network,
		Concurrency:   req.Execution.Concurrency,
		HaltOnFailure: req.Execution.HaltOnFailure,
	})
	if result == nil {
		return nil, runErr
	}
	result.ParameterSet = p.parameterSet

	return &dto.DeployResponse{
		Result: result,
		Metadata: dto.ResponseMetadata{
			RequestID:   req.Metadata.RequestID,
			ProcessedAt: time.Now(),
			Duration:    time.Since(startTime),
		},
	}, runErr
}

// Status returns the journal of a module on a network, one row per
// declared step plus any recorded label the module no longer declares.
func (s *DeploymentService) Status(ctx context.Context, req dto.StatusRequest) (*dto.StatusResponse, error) {
	module, err := s.modules.LoadModule(req.ModulePath)
	if err != nil {
		return nil, err
	}
	network, err := s.project.Network(req.Network)
	if err != nil {
		return nil, err
	}

	journal, err := s.journal.Load(ctx, module.Name, network.Name)
	if err != nil {
		return nil, apperrors.NewConfigurationError("journal", "failed to load journal", err)
	}
	if journal == nil {
		journal = entities.NewJournal(module.Name, network.Name)
	}

	resp := &dto.StatusResponse{
		Module:  module.Name,
		Network: network.Name,
		Counts:  make(map[string]int),
	}
	declared := make(map[string]bool, len(module.Steps))
	for _, step := range module.Steps {
		declared[step.Label] = true
		row := dto.StatusStep{
			Label:    step.Label,
			Contract: step.Contract,
			Status:   dto.StepNotDeployed,
			Declared: true,
		}
		if rec := journal.Get(step.Label); rec != nil {
			fillFromRecord(&row, rec)
		}
		resp.Steps = append(resp.Steps, row)
		resp.Counts[row.Status]++
	}

	var orphans []string
	for _, label := range journal.Labels() {
		if !declared[label] {
			orphans = append(orphans, label)
		}
	}
	sort.Strings(orphans)
	for _, label := range orphans {
		row := dto.StatusStep{Label: label}
		fillFromRecord(&row, journal.Get(label))
		resp.Steps = append(resp.Steps, row)
		resp.Counts[row.Status]++
	}
	return resp, nil
}

func fillFromRecord(row *dto.StatusStep, rec *entities.StepRecord) {
	row.Status = string(rec.Status)
	row.Handle = rec.Handle
	row.Error = rec.Error
	row.RunID = rec.RunID
	row.UpdatedAt = rec.UpdatedAt
	if rec.Contract != "" {
		row.Contract = rec.Contract
	}
}
