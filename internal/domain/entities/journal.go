package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/plinth-dev/plinth/internal/domain/values"
)

// JournalVersion is the current journal format version.
const JournalVersion = 1

// Journal is an aggregate root recording deployment progress for one
// module on one network. It makes re-runs idempotent.
//
// Invariants:
// - Version must be 1 (current format version)
// - A complete record always carries a handle
// - Record labels match their map key
type Journal struct {
	Steps   map[string]StepRecord `yaml:"steps" json:"steps"`
	Module  string                `yaml:"module" json:"module"`
	Network string                `yaml:"network" json:"network"`
	ChainID uint64                `yaml:"chain_id,omitempty" json:"chain_id,omitempty"`
	Version int                   `yaml:"journal_version" json:"journal_version"`
}

// StepRecord is the persisted outcome of one step.
type StepRecord struct {
	UpdatedAt time.Time         `yaml:"updated_at" json:"updated_at"`
	Label     string            `yaml:"label" json:"label"`
	Contract  string            `yaml:"contract,omitempty" json:"contract,omitempty"`
	Status    values.StepStatus `yaml:"status" json:"status"`
	Handle    string            `yaml:"handle,omitempty" json:"handle,omitempty"`
	Error     string            `yaml:"error,omitempty" json:"error,omitempty"`
	RunID     string            `yaml:"run_id" json:"run_id"`
}

// Validate checks a single record.
func (r StepRecord) Validate() error {
	if r.Label == "" {
		return fmt.Errorf("step record: label is required")
	}
	if err := r.Status.Validate(); err != nil {
		return fmt.Errorf("step %q: %w", r.Label, err)
	}
	if r.Status.IsComplete() && r.Handle == "" {
		return fmt.Errorf("step %q: complete record requires a handle", r.Label)
	}
	return nil
}

// NewJournal creates an empty journal for a module and network.
func NewJournal(module, network string) *Journal {
	return &Journal{
		Version: JournalVersion,
		Module:  module,
		Network: network,
		Steps:   make(map[string]StepRecord),
	}
}

// Record upserts a step record.
// Returns error if a complete record has no handle (invariant enforcement).
func (j *Journal) Record(rec StepRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if j.Steps == nil {
		j.Steps = make(map[string]StepRecord)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	j.Steps[rec.Label] = rec
	return nil
}

// Get retrieves a record by label.
// Returns nil if not found.
func (j *Journal) Get(label string) *StepRecord {
	if j.Steps == nil {
		return nil
	}
	if rec, ok := j.Steps[label]; ok {
		return &rec
	}
	return nil
}

// CompletedHandle returns the handle of a complete step.
func (j *Journal) CompletedHandle(label string) (string, bool) {
	rec := j.Get(label)
	if rec == nil || !rec.Status.IsComplete() {
		return "", false
	}
	return rec.Handle, true
}

// Labels returns recorded labels, sorted.
func (j *Journal) Labels() []string {
	out := make([]string, 0, len(j.Steps))
	for l := range j.Steps {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Validate checks journal invariants.
func (j *Journal) Validate() error {
	if j.Version != JournalVersion {
		return fmt.Errorf("unsupported journal version: %d", j.Version)
	}
	if j.Module == "" || j.Network == "" {
		return fmt.Errorf("journal requires module and network")
	}
	for label, rec := range j.Steps {
		if rec.Label != label {
			return fmt.Errorf("journal entry %q holds record for %q", label, rec.Label)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StepCount returns the number of recorded steps.
func (j *Journal) StepCount() int {
	return len(j.Steps)
}
