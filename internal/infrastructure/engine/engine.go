package engine

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/plinth-dev/plinth/internal/application/errors"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/execution"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// Engine coordinates deployment execution.
type Engine struct {
	journal   ports.JournalRepository
	submitter ports.Submitter
	encoder   ports.ArgumentEncoder
	artifacts ports.ArtifactSource
	redactor  ports.Redactor
	logger    *slog.Logger
	config    ExecutionConfig
}

// Option configures an Engine.
type Option func(*Engine)

// WithRedactor scrubs secrets from errors before they are journaled.
func WithRedactor(r ports.Redactor) Option {
	return func(e *Engine) {
		e.redactor = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig sets the execution configuration.
func WithConfig(cfg ExecutionConfig) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// NewEngine creates a new execution engine.
func NewEngine(
	journal ports.JournalRepository,
	submitter ports.Submitter,
	encoder ports.ArgumentEncoder,
	artifacts ports.ArtifactSource,
	opts ...Option,
) *Engine {
	e := &Engine{
		journal:   journal,
		submitter: submitter,
		encoder:   encoder,
		artifacts: artifacts,
		logger:    slog.Default(),
		config:    DefaultExecutionConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a deployment graph against a network.
//
// Steps recorded complete in the journal are reused. Every other step is
// submitted once its dependencies have handles. The returned result is
// always populated; the error is a *apperrors.RunError when steps failed,
// or the context error when the run was interrupted.
func (e *Engine) Execute(ctx context.Context, req ports.ExecuteRequest) (*execution.DeploymentResult, error) {
	graph := req.Graph
	if graph == nil {
		return nil, fmt.Errorf("no deployment graph to execute")
	}

	runID := values.NewRunID()
	result := execution.NewDeploymentResult(runID, graph.Module(), req.Network.Name)

	journal, err := e.journal.Load(ctx, graph.Module(), req.Network.Name)
	if err != nil {
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	if journal == nil {
		journal = entities.NewJournal(graph.Module(), req.Network.Name)
	}
	writer := newJournalWriter(e.journal, journal, runID)

	cfg := e.config
	if req.Concurrency > 0 {
		cfg.MaxConcurrentSteps = req.Concurrency
	}
	if req.HaltOnFailure {
		cfg.HaltOnFailure = true
	}

	e.logger.Info("executing deployment",
		"module", graph.Module(),
		"network", req.Network.Name,
		"run_id", runID.String(),
		"steps", graph.Len(),
		"workers", cfg.workers(graph.Len()))

	state := e.newWorkerPoolState(ctx, req, cfg, writer, result)
	poolErr := state.run()

	state.cancelUnsettled()
	result.Finalize()

	if poolErr != nil {
		return result, poolErr
	}

	runErr := apperrors.NewRunError(graph.Module(), req.Network.Name)
	for _, sr := range result.Steps {
		switch sr.Outcome {
		case execution.OutcomeFailed:
			runErr.Add(sr.Label, sr.RawError)
		case execution.OutcomeBlocked:
			runErr.Block(sr.Label)
		}
	}
	if runErr.HasFailures() {
		return result, runErr
	}
	return result, nil
}

func (e *Engine) scrub(msg string) string {
	if e.redactor == nil {
		return msg
	}
	return e.redactor.ScrubString(msg)
}
