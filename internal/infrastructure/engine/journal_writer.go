package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// journalWriter is the single writer of a run's journal. Every write goes
// to the repository first and to the in-memory copy only on success.
type journalWriter struct {
	repo    ports.JournalRepository
	journal *entities.Journal
	runID   values.RunID
	mu      sync.Mutex
}

func newJournalWriter(repo ports.JournalRepository, journal *entities.Journal, runID values.RunID) *journalWriter {
	return &journalWriter{repo: repo, journal: journal, runID: runID}
}

func (w *journalWriter) record(ctx context.Context, rec entities.StepRecord) error {
	rec.RunID = w.runID.String()
	rec.UpdatedAt = time.Now().UTC()
	if err := rec.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.repo.SaveRecord(ctx, w.journal.Module, w.journal.Network, rec); err != nil {
		return fmt.Errorf("writing journal record for %s: %w", rec.Label, err)
	}
	return w.journal.Record(rec)
}

func (w *journalWriter) get(label string) *entities.StepRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.journal.Get(label)
}

func (w *journalWriter) completedHandle(label string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.journal.CompletedHandle(label)
}
