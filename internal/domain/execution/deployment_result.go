package execution

import (
	"sort"
	"sync"
	"time"

	"github.com/plinth-dev/plinth/internal/domain/values"
)

// Outcome is what happened to a step during one run.
type Outcome string

const (
	// OutcomeDeployed indicates the step was submitted and completed in this run
	OutcomeDeployed Outcome = "deployed"
	// OutcomeReused indicates a complete journal record was reused
	OutcomeReused Outcome = "reused"
	// OutcomeFailed indicates the submission failed
	OutcomeFailed Outcome = "failed"
	// OutcomeBlocked indicates a dependency failed or was never satisfied
	OutcomeBlocked Outcome = "blocked"
	// OutcomeCancelled indicates the step was not started (halt or cancellation)
	OutcomeCancelled Outcome = "cancelled"
)

// IsSuccess reports whether the step has a usable handle.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeDeployed || o == OutcomeReused
}

// DeploymentResult represents the complete result of one deployment run.
type DeploymentResult struct {
	StartTime     time.Time     `json:"start_time" yaml:"start_time"`
	EndTime       time.Time     `json:"end_time" yaml:"end_time"`
	Module        string        `json:"module" yaml:"module"`
	Network       string        `json:"network" yaml:"network"`
	ParameterSet  string        `json:"parameter_set,omitempty" yaml:"parameter_set,omitempty"`
	Steps         []StepResult  `json:"steps" yaml:"steps"`
	Summary       RunSummary    `json:"summary" yaml:"summary"`
	Duration      time.Duration `json:"duration_ms" yaml:"duration_ms"`
	mu            sync.Mutex
	RunID         values.RunID `json:"run_id" yaml:"run_id"`
}

// StepResult is the outcome of a single step.
type StepResult struct {
	Label    string        `json:"label" yaml:"label"`
	Contract string        `json:"contract" yaml:"contract"`
	Outcome  Outcome       `json:"outcome" yaml:"outcome"`
	Handle   string        `json:"handle,omitempty" yaml:"handle,omitempty"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
	RawError error         `json:"-" yaml:"-"`
	Index    int           `json:"index" yaml:"index"`
	Duration time.Duration `json:"duration_ms" yaml:"duration_ms"`
}

// RunSummary provides aggregate statistics about a run.
type RunSummary struct {
	Total     int `json:"total" yaml:"total"`
	Deployed  int `json:"deployed" yaml:"deployed"`
	Reused    int `json:"reused" yaml:"reused"`
	Failed    int `json:"failed" yaml:"failed"`
	Blocked   int `json:"blocked" yaml:"blocked"`
	Cancelled int `json:"cancelled" yaml:"cancelled"`
}

// NewDeploymentResult creates a new result for a module on a network.
func NewDeploymentResult(runID values.RunID, module, network string) *DeploymentResult {
	return &DeploymentResult{
		RunID:     runID,
		Module:    module,
		Network:   network,
		StartTime: time.Now(),
		Steps:     make([]StepResult, 0),
	}
}

// AddStepResult adds a step result.
// Thread-safe for concurrent calls from workers.
func (r *DeploymentResult) AddStepResult(sr StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, sr)
}

// Finalize sorts steps by execution index and computes the summary.
func (r *DeploymentResult) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	sort.SliceStable(r.Steps, func(i, j int) bool {
		return r.Steps[i].Index < r.Steps[j].Index
	})

	s := RunSummary{Total: len(r.Steps)}
	for _, st := range r.Steps {
		switch st.Outcome {
		case OutcomeDeployed:
			s.Deployed++
		case OutcomeReused:
			s.Reused++
		case OutcomeFailed:
			s.Failed++
		case OutcomeBlocked:
			s.Blocked++
		case OutcomeCancelled:
			s.Cancelled++
		}
	}
	r.Summary = s
}

// GetStepResult returns the result for a label, or nil.
func (r *DeploymentResult) GetStepResult(label string) *StepResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Steps {
		if r.Steps[i].Label == label {
			sr := r.Steps[i]
			return &sr
		}
	}
	return nil
}

// Handles returns label -> handle for every successful step.
func (r *DeploymentResult) Handles() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string)
	for _, st := range r.Steps {
		if st.Outcome.IsSuccess() {
			out[st.Label] = st.Handle
		}
	}
	return out
}

// Succeeded reports whether every step has a handle.
func (r *DeploymentResult) Succeeded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.Steps {
		if !st.Outcome.IsSuccess() {
			return false
		}
	}
	return true
}
