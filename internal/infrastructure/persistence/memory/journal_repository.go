// Package memory provides in-memory implementations of application repositories.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// Ensure interface compliance
var _ ports.JournalRepository = (*JournalRepository)(nil)

type journalKey struct {
	module  string
	network string
}

// JournalRepository is an in-memory implementation of ports.JournalRepository.
// Useful for testing and dry runs against ephemeral networks.
type JournalRepository struct {
	journals map[journalKey]*entities.Journal
	mu       sync.RWMutex
}

// NewJournalRepository creates a new in-memory repository.
func NewJournalRepository() *JournalRepository {
	return &JournalRepository{
		journals: make(map[journalKey]*entities.Journal),
	}
}

// Load returns a copy of the stored journal, or nil if none exists.
func (r *JournalRepository) Load(_ context.Context, module, network string) (*entities.Journal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.journals[journalKey{module, network}]
	if !ok {
		return nil, nil
	}
	return copyJournal(j), nil
}

// SaveRecord upserts one step record.
func (r *JournalRepository) SaveRecord(_ context.Context, module, network string, rec entities.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := journalKey{module, network}
	j, ok := r.journals[key]
	if !ok {
		j = entities.NewJournal(module, network)
	}
	if err := j.Record(rec); err != nil {
		return err
	}
	r.journals[key] = j
	return nil
}

// Networks lists networks with a journal for the module.
func (r *JournalRepository) Networks(_ context.Context, module string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for k := range r.journals {
		if k.module == module {
			out = append(out, k.network)
		}
	}
	sort.Strings(out)
	return out, nil
}

func copyJournal(j *entities.Journal) *entities.Journal {
	out := *j
	out.Steps = make(map[string]entities.StepRecord, len(j.Steps))
	for k, v := range j.Steps {
		out.Steps[k] = v
	}
	return &out
}
