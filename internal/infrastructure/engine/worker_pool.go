package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/execution"
	"golang.org/x/sync/errgroup"
)

// stepDone is sent by a worker once a step is settled.
type stepDone struct {
	label   string
	outcome execution.Outcome
}

// workerPoolState manages dependency-aware parallel execution. Steps are
// dispatched as soon as every dependency has a handle; there are no level
// barriers.
type workerPoolState struct {
	// Immutable after initialization (safe for concurrent reads)
	graph   *entities.DeploymentGraph
	index   map[string]int // label → position in topological order
	request ports.ExecuteRequest
	config  ExecutionConfig

	// Mutable state (owned by coordinator goroutine)
	inDegree   map[string]int
	readyQueue []string
	settled    map[string]bool
	blocked    map[string]bool
	inFlight   int
	halted     bool

	// Set by the coordinator on halt; workers drain queued steps unstarted
	stopping atomic.Bool

	// Handles produced in this run, read by workers substituting references
	handlesMu sync.RWMutex
	handles   map[string]string

	workChan chan string
	doneChan chan stepDone

	ctx      context.Context
	cancel   context.CancelFunc
	errGroup *errgroup.Group

	engine *Engine
	writer *journalWriter
	result *execution.DeploymentResult
}

func (e *Engine) newWorkerPoolState(
	ctx context.Context,
	req ports.ExecuteRequest,
	cfg ExecutionConfig,
	writer *journalWriter,
	result *execution.DeploymentResult,
) *workerPoolState {
	graph := req.Graph
	order := graph.Order()

	index := make(map[string]int, len(order))
	inDegree := make(map[string]int, len(order))
	var ready []string
	for i, label := range order {
		index[label] = i
		inDegree[label] = len(graph.Dependencies(label))
		if inDegree[label] == 0 {
			ready = append(ready, label)
		}
	}

	workers := cfg.workers(len(order))
	groupCtx, cancel := context.WithCancel(ctx)
	g, gCtx := errgroup.WithContext(groupCtx)

	return &workerPoolState{
		graph:      graph,
		index:      index,
		request:    req,
		config:     cfg,
		inDegree:   inDegree,
		readyQueue: ready,
		settled:    make(map[string]bool, len(order)),
		blocked:    make(map[string]bool),
		handles:    make(map[string]string, len(order)),
		workChan:   make(chan string, workers),
		doneChan:   make(chan stepDone, len(order)),
		ctx:        gCtx,
		cancel:     cancel,
		errGroup:   g,
		engine:     e,
		writer:     writer,
		result:     result,
	}
}

// run starts the workers and the coordinator and waits for both.
func (s *workerPoolState) run() error {
	defer s.cancel()

	for i := 0; i < s.config.workers(s.graph.Len()); i++ {
		s.errGroup.Go(func() error {
			s.executeWorker()
			return nil
		})
	}

	s.errGroup.Go(func() error {
		return s.coordinateExecution()
	})

	if err := s.errGroup.Wait(); err != nil {
		return fmt.Errorf("deployment interrupted: %w", err)
	}
	return nil
}

// enqueueReadySteps sends ready steps to the work channel without blocking.
func (s *workerPoolState) enqueueReadySteps() {
	for len(s.readyQueue) > 0 {
		select {
		case s.workChan <- s.readyQueue[0]:
			s.readyQueue = s.readyQueue[1:]
			s.inFlight++
		default:
			// Channel full (all workers busy), stop trying
			return
		}
	}
}

// handleStepSuccess releases dependents whose dependencies are now met.
func (s *workerPoolState) handleStepSuccess(label string) {
	for _, dependent := range s.graph.Dependents(label) {
		s.inDegree[dependent]--
		if s.inDegree[dependent] == 0 && !s.blocked[dependent] {
			s.readyQueue = append(s.readyQueue, dependent)
		}
	}
}

// handleStepFailure marks every transitive dependent as blocked.
func (s *workerPoolState) handleStepFailure(label string) {
	queue := s.graph.Dependents(label)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if s.settled[next] || s.blocked[next] {
			continue
		}
		s.blocked[next] = true
		s.settled[next] = true

		step, _ := s.graph.Step(next)
		s.result.AddStepResult(execution.StepResult{
			Label:    next,
			Contract: step.Contract,
			Index:    s.index[next],
			Outcome:  execution.OutcomeBlocked,
			Message:  blockedMessage(label),
		})
		queue = append(queue, s.graph.Dependents(next)...)
	}
}

// coordinateExecution is the central coordinator. It runs in a single
// goroutine and owns all mutable scheduling state.
func (s *workerPoolState) coordinateExecution() error {
	defer close(s.workChan)

	s.enqueueReadySteps()

	for len(s.settled) < s.graph.Len() {
		if s.halted && s.inFlight == 0 {
			return nil
		}

		select {
		case done := <-s.doneChan:
			s.inFlight--
			s.settled[done.label] = true
			switch {
			case done.outcome.IsSuccess():
				s.handleStepSuccess(done.label)
			case done.outcome == execution.OutcomeFailed:
				s.handleStepFailure(done.label)
				if s.config.HaltOnFailure {
					s.halted = true
					s.readyQueue = nil
					s.stopping.Store(true)
				}
			}
			if !s.halted {
				s.enqueueReadySteps()
			}

		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	return nil
}

// executeWorker pulls labels from workChan until the coordinator closes it.
func (s *workerPoolState) executeWorker() {
	for label := range s.workChan {
		step, exists := s.graph.Step(label)
		if !exists {
			continue
		}

		var sr execution.StepResult
		if s.stopping.Load() {
			sr = execution.StepResult{
				Label:    label,
				Contract: step.Contract,
				Index:    s.index[label],
				Outcome:  execution.OutcomeCancelled,
				Message:  "not started: run halted after a failure",
			}
		} else {
			sr = s.engine.executeStep(s.ctx, s, step, s.index[label])
		}
		if sr.Outcome.IsSuccess() {
			s.setHandle(label, sr.Handle)
		}
		s.result.AddStepResult(sr)

		select {
		case s.doneChan <- stepDone{label: label, outcome: sr.Outcome}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *workerPoolState) setHandle(label, handle string) {
	s.handlesMu.Lock()
	defer s.handlesMu.Unlock()
	s.handles[label] = handle
}

func (s *workerPoolState) handle(label string) (string, bool) {
	s.handlesMu.RLock()
	defer s.handlesMu.RUnlock()
	h, ok := s.handles[label]
	return h, ok
}

// cancelUnsettled records every step that never started. Called after the
// pool has stopped, so the coordinator state is no longer shared.
func (s *workerPoolState) cancelUnsettled() {
	recorded := make(map[string]bool, s.graph.Len())
	for _, sr := range s.result.Steps {
		recorded[sr.Label] = true
	}
	for _, label := range s.graph.Order() {
		if recorded[label] {
			continue
		}
		step, _ := s.graph.Step(label)
		s.result.AddStepResult(execution.StepResult{
			Label:    label,
			Contract: step.Contract,
			Index:    s.index[label],
			Outcome:  execution.OutcomeCancelled,
			Message:  "not started",
		})
	}
}
