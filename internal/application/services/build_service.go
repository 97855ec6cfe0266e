// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/plinth-dev/plinth/internal/application/dto"
	apperrors "github.com/plinth-dev/plinth/internal/application/errors"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/services"
	"github.com/plinth-dev/plinth/internal/domain/values"
	"golang.org/x/sync/errgroup"
)

// BuildService resolves the build plan of a project and compiles it.
// This is a pure application layer component that depends only on ports.
type BuildService struct {
	project  *entities.Project
	units    ports.UnitSource
	compiler ports.Compiler
	store    ports.ArtifactStore
	resolver *services.BuildResolver
	logger   *slog.Logger
}

// NewBuildService creates a new build service.
func NewBuildService(
	project *entities.Project,
	units ports.UnitSource,
	compiler ports.Compiler,
	store ports.ArtifactStore,
	logger *slog.Logger,
) *BuildService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildService{
		project:  project,
		units:    units,
		compiler: compiler,
		store:    store,
		resolver: services.NewBuildResolver(),
		logger:   logger,
	}
}

// Resolve discovers the project's units and maps each to its profile.
// Override keys naming no discovered unit are logged, not rejected.
func (s *BuildService) Resolve(ctx context.Context) (*services.Resolution, error) {
	units, err := s.units.Discover(ctx, s.project.Root, s.project.SourcePatterns())
	if err != nil {
		return nil, apperrors.NewConfigurationError("sources", "failed to discover source units", err)
	}
	s.logger.Debug("discovered source units", "count", len(units), "patterns", s.project.SourcePatterns())

	res, err := s.resolver.Resolve(s.project.Build.Default, s.project.Build.Overrides, units)
	if err != nil {
		return nil, err
	}
	for _, unit := range res.Stale {
		s.logger.Warn("compiler override names no source unit", "unit", unit.String())
	}
	return res, nil
}

// Plan returns the resolved build plan.
func (s *BuildService) Plan(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error) {
	startTime := time.Now()

	res, err := s.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.PlanResponse{
		Digest: res.Plan.Digest(),
		Units:  make([]dto.PlanUnit, 0, res.Plan.Len()),
	}
	for _, e := range res.Plan.Entries() {
		source := "default"
		if e.FromOverride {
			source = "override"
		}
		resp.Units = append(resp.Units, dto.PlanUnit{
			Unit:       e.Unit.String(),
			Version:    e.Profile.Version,
			EVMVersion: e.Profile.EVMVersion,
			Optimizer:  e.Profile.Optimizer.Enabled,
			Runs:       e.Profile.Optimizer.Runs,
			ViaIR:      e.Profile.ViaIR,
			Source:     source,
		})
	}
	for _, g := range res.Plan.Groups() {
		units := make([]string, len(g.Units))
		for i, u := range g.Units {
			units[i] = u.String()
		}
		resp.Groups = append(resp.Groups, dto.PlanGroup{
			Profile: g.Profile.String(),
			Digest:  g.Digest,
			Units:   units,
		})
	}
	for _, u := range res.Stale {
		resp.Stale = append(resp.Stale, u.String())
	}

	resp.Metadata = dto.ResponseMetadata{
		RequestID:   req.Metadata.RequestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}
	return resp, nil
}

// Build compiles every unit of the plan and stores the artifacts. Units
// whose content and profile are unchanged since the last build are not
// recompiled unless Force is set.
//
// A failing unit does not stop the others. The response is always
// returned; the error joins one *apperrors.CompileError per failed unit.
func (s *BuildService) Build(ctx context.Context, req dto.BuildRequest) (*dto.BuildResponse, error) {
	startTime := time.Now()

	res, err := s.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.selectEntries(res.Plan, req.Units)
	if err != nil {
		return nil, err
	}

	limit := req.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	s.logger.Info("building units", "units", len(entries), "concurrency", limit)

	results := make([]dto.UnitBuild, len(entries))
	compileErrs := make([]error, len(entries))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, entry := range entries {
		g.Go(func() error {
			results[i], compileErrs[i] = s.buildUnit(ctx, entry, req.Force)
			return nil
		})
	}
	_ = g.Wait()

	resp := &dto.BuildResponse{Units: results}
	for _, r := range results {
		switch r.Status {
		case dto.UnitCompiled:
			resp.Compiled++
		case dto.UnitCached:
			resp.Cached++
		case dto.UnitFailed:
			resp.Failed++
		}
	}
	resp.Metadata = dto.ResponseMetadata{
		RequestID:   req.Metadata.RequestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}

	s.logger.Info("build finished",
		"compiled", resp.Compiled,
		"cached", resp.Cached,
		"failed", resp.Failed,
		"duration", resp.Metadata.Duration)

	return resp, errors.Join(compileErrs...)
}

func (s *BuildService) selectEntries(plan *entities.ResolvedBuildPlan, only []string) ([]entities.PlanEntry, error) {
	if len(only) == 0 {
		return plan.Entries(), nil
	}
	var out []entities.PlanEntry
	var unknown []string
	for _, raw := range only {
		unit, err := values.NewUnitID(raw)
		if err != nil {
			return nil, apperrors.NewValidationError("units", err.Error())
		}
		e, ok := plan.Lookup(unit)
		if !ok {
			unknown = append(unknown, unit.String())
			continue
		}
		out = append(out, e)
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewValidationError("units", "not part of the build plan", unknown...)
	}
	return out, nil
}

func (s *BuildService) buildUnit(ctx context.Context, entry entities.PlanEntry, force bool) (dto.UnitBuild, error) {
	start := time.Now()
	result := dto.UnitBuild{
		Unit:    entry.Unit.String(),
		Version: entry.Profile.Version,
	}
	fail := func(err error) (dto.UnitBuild, error) {
		compileErr := apperrors.NewCompileError(entry.Unit.String(), entry.Profile.Version, err)
		result.Status = dto.UnitFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		s.logger.Error("compilation failed", "unit", result.Unit, "solc", result.Version)
		return result, compileErr
	}

	content, err := s.units.Fingerprint(ctx, s.project.Root, entry.Unit)
	if err != nil {
		return fail(err)
	}
	fingerprint := content + "/" + entry.Profile.Digest()

	if !force {
		recorded, ok, err := s.store.Fingerprint(ctx, entry.Unit)
		if err != nil {
			return fail(fmt.Errorf("reading build cache: %w", err))
		}
		if ok && recorded == fingerprint {
			result.Status = dto.UnitCached
			result.Duration = time.Since(start)
			s.logger.Debug("unit unchanged, skipping", "unit", result.Unit)
			return result, nil
		}
	}

	artifacts, err := s.compiler.Compile(ctx, ports.CompileRequest{
		Root:    s.project.Root,
		Unit:    entry.Unit,
		Profile: entry.Profile,
	})
	if err != nil {
		return fail(err)
	}
	if err := s.store.Save(ctx, entry.Unit, fingerprint, artifacts); err != nil {
		return fail(fmt.Errorf("storing artifacts: %w", err))
	}

	for _, a := range artifacts {
		result.Contracts = append(result.Contracts, a.Contract)
	}
	result.Status = dto.UnitCompiled
	result.Duration = time.Since(start)
	s.logger.Info("compiled unit", "unit", result.Unit, "solc", result.Version, "contracts", len(artifacts))
	return result, nil
}
