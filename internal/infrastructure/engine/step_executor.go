package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/plinth-dev/plinth/internal/application/errors"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/execution"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// executeStep settles a single step and returns its result.
// The index parameter tracks the step's position in the topological order.
func (e *Engine) executeStep(ctx context.Context, s *workerPoolState, step entities.StepDeclaration, index int) execution.StepResult {
	startTime := time.Now()
	result := execution.StepResult{
		Label:    step.Label,
		Contract: step.Contract,
		Index:    index,
	}
	network := s.request.Network.Name

	if rec := s.writer.get(step.Label); rec != nil && rec.Status.IsComplete() {
		if rec.Contract != "" && rec.Contract != step.Contract {
			err := apperrors.NewSubmissionError(step.Label, network,
				fmt.Sprintf("journal records contract %s for this label, module declares %s", rec.Contract, step.Contract), nil)
			return e.fail(result, err, startTime)
		}
		e.logger.Debug("reusing deployed step", "step", step.Label, "handle", rec.Handle)
		result.Outcome = execution.OutcomeReused
		result.Handle = rec.Handle
		result.Message = "reused from journal"
		return finalizeResult(result, startTime)
	}

	if err := ctx.Err(); err != nil {
		result.Outcome = execution.OutcomeCancelled
		result.Message = "not started: " + err.Error()
		return finalizeResult(result, startTime)
	}

	req, err := e.prepareSubmission(ctx, s, step)
	if err != nil {
		return e.fail(result, apperrors.NewSubmissionError(step.Label, network, "preparing transaction", err), startTime)
	}

	// Journal writes must land even if the run is cancelled mid-submission.
	writeCtx := context.WithoutCancel(ctx)

	if err := s.writer.record(writeCtx, entities.StepRecord{
		Label:    step.Label,
		Contract: step.Contract,
		Status:   values.StepPending,
	}); err != nil {
		return e.fail(result, err, startTime)
	}

	e.logger.Info("deploying step", "step", step.Label, "contract", step.Contract, "network", network, "from", req.From.Address)

	handle, err := e.submitter.Submit(ctx, req)
	if err != nil {
		subErr := apperrors.NewSubmissionError(step.Label, network, "submission failed", err)
		if recErr := s.writer.record(writeCtx, entities.StepRecord{
			Label:    step.Label,
			Contract: step.Contract,
			Status:   values.StepFailed,
			Error:    e.scrub(err.Error()),
		}); recErr != nil {
			return e.fail(result, errors.Join(subErr, recErr), startTime)
		}
		return e.fail(result, subErr, startTime)
	}

	if err := s.writer.record(writeCtx, entities.StepRecord{
		Label:    step.Label,
		Contract: step.Contract,
		Status:   values.StepComplete,
		Handle:   handle,
	}); err != nil {
		// Dependents are only released once the handle is durable.
		return e.fail(result, apperrors.NewSubmissionError(step.Label, network,
			fmt.Sprintf("deployed at %s but the journal write failed", handle), err), startTime)
	}

	e.logger.Info("step deployed", "step", step.Label, "handle", handle)
	result.Outcome = execution.OutcomeDeployed
	result.Handle = handle
	result.Message = "deployed"
	return finalizeResult(result, startTime)
}

// prepareSubmission substitutes references and encodes the creation call.
func (e *Engine) prepareSubmission(ctx context.Context, s *workerPoolState, step entities.StepDeclaration) (ports.SubmitRequest, error) {
	accounts := s.request.Accounts

	substitute := func(ref entities.Argument) (entities.Argument, error) {
		switch ref.Kind {
		case entities.ArgStep:
			if h, ok := s.handle(ref.Ref); ok {
				return entities.Literal(h), nil
			}
			// Dependencies outside the selected steps must already be deployed.
			if h, ok := s.writer.completedHandle(ref.Ref); ok {
				return entities.Literal(h), nil
			}
			return entities.Argument{}, fmt.Errorf("dependency %q has no deployed instance on %s", ref.Ref, s.request.Network.Name)
		case entities.ArgAccount:
			if ref.Index < 0 || ref.Index >= len(accounts) {
				return entities.Argument{}, fmt.Errorf("account %d is not available (%d accounts)", ref.Index, len(accounts))
			}
			return entities.Literal(accounts[ref.Index].Address), nil
		default:
			return entities.Argument{}, fmt.Errorf("unbound %s reference %q", ref.Kind, ref.Ref)
		}
	}

	args := make([]entities.Argument, len(step.Args))
	for i, a := range step.Args {
		resolved, err := a.Substitute(substitute)
		if err != nil {
			return ports.SubmitRequest{}, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = resolved
	}

	fromIndex := 0
	if step.From != nil {
		fromIndex = step.From.Index
	}
	if fromIndex < 0 || fromIndex >= len(accounts) {
		return ports.SubmitRequest{}, fmt.Errorf("sender account %d is not available (%d accounts)", fromIndex, len(accounts))
	}

	artifact, err := e.artifacts.Artifact(ctx, step.Contract)
	if err != nil {
		return ports.SubmitRequest{}, err
	}
	bytecode, err := decodeHex(artifact.Bytecode)
	if err != nil {
		return ports.SubmitRequest{}, fmt.Errorf("artifact %s: %w", step.Contract, err)
	}
	if len(bytecode) == 0 {
		return ports.SubmitRequest{}, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", step.Contract)
	}

	encoded, err := e.encoder.EncodeConstructor(artifact.ABI, args)
	if err != nil {
		return ports.SubmitRequest{}, fmt.Errorf("encoding constructor arguments for %s: %w", step.Contract, err)
	}

	return ports.SubmitRequest{
		Network:         s.request.Network,
		Label:           step.Label,
		Contract:        step.Contract,
		Bytecode:        bytecode,
		ConstructorArgs: encoded,
		From:            accounts[fromIndex],
	}, nil
}

func (e *Engine) fail(result execution.StepResult, err error, startTime time.Time) execution.StepResult {
	e.logger.Error("step failed", "step", result.Label, "error", e.scrub(err.Error()))
	result.Outcome = execution.OutcomeFailed
	result.RawError = err
	result.Message = failureMessage(e.scrub(err.Error()))
	return finalizeResult(result, startTime)
}

func finalizeResult(result execution.StepResult, startTime time.Time) execution.StepResult {
	result.Duration = time.Since(startTime)
	return result
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex: %w", err)
	}
	return b, nil
}
