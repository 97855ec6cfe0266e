package ports

import (
	"context"

	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// JournalRepository handles journal persistence.
// This is a PORT - abstracts file system, database or memory storage.
//
// Implementations make each SaveRecord an atomic per-label upsert.
type JournalRepository interface {
	// Load reads the journal for a module on a network.
	// Returns nil, nil if nothing was recorded yet.
	Load(ctx context.Context, module, network string) (*entities.Journal, error)

	// SaveRecord upserts a single step record.
	SaveRecord(ctx context.Context, module, network string, rec entities.StepRecord) error

	// Networks lists the networks with a journal for a module.
	Networks(ctx context.Context, module string) ([]string, error)
}
