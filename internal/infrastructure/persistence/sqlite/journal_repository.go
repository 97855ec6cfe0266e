// Package sqlite stores deployment journals in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"

	_ "modernc.org/sqlite"
)

// Ensure interface compliance
var _ ports.JournalRepository = (*JournalRepository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS journal_steps (
	module     TEXT NOT NULL,
	network    TEXT NOT NULL,
	label      TEXT NOT NULL,
	contract   TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	handle     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	run_id     TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL,
	PRIMARY KEY (module, network, label)
);
CREATE TABLE IF NOT EXISTS journal_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// JournalRepository keeps one row per (module, network, label).
type JournalRepository struct {
	db   *sql.DB
	path string
}

// NewJournalRepository opens (and if needed creates) the database at path.
func NewJournalRepository(path string) (*JournalRepository, error) {
	if path != ":memory:" {
		//nolint:gosec // G301: journals are project files, not secrets
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection serializes upserts.
	db.SetMaxOpenConns(1)

	repo := &JournalRepository{db: db, path: path}
	if err := repo.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *JournalRepository) init() error {
	if _, err := r.db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		return fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	_, err := r.db.Exec(
		`INSERT INTO journal_meta (key, value) VALUES ('journal_version', ?) ON CONFLICT(key) DO NOTHING`,
		fmt.Sprint(entities.JournalVersion))
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version string
	if err := r.db.QueryRow(`SELECT value FROM journal_meta WHERE key = 'journal_version'`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != fmt.Sprint(entities.JournalVersion) {
		return fmt.Errorf("unsupported journal version: %s", version)
	}
	return nil
}

// Close releases the database.
func (r *JournalRepository) Close() error {
	return r.db.Close()
}

// Load reads every record of a module on a network. Returns nil, nil if
// nothing was recorded.
func (r *JournalRepository) Load(ctx context.Context, module, network string) (*entities.Journal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, contract, status, handle, error, run_id, updated_at
		 FROM journal_steps WHERE module = ? AND network = ? ORDER BY label`,
		module, network)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	j := entities.NewJournal(module, network)
	found := false
	for rows.Next() {
		var (
			rec       entities.StepRecord
			status    values.StepStatus
			updatedAt string
		)
		if err := rows.Scan(&rec.Label, &rec.Contract, &status, &rec.Handle, &rec.Error, &rec.RunID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		rec.Status = status
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("step %s: invalid updated_at %q: %w", rec.Label, updatedAt, err)
		}
		if err := j.Record(rec); err != nil {
			return nil, fmt.Errorf("invalid journal row: %w", err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if !found {
		return nil, nil
	}
	return j, nil
}

// SaveRecord upserts one record in its own transaction.
func (r *JournalRepository) SaveRecord(ctx context.Context, module, network string, rec entities.StepRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO journal_steps (module, network, label, contract, status, handle, error, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(module, network, label) DO UPDATE SET
			contract = excluded.contract,
			status = excluded.status,
			handle = excluded.handle,
			error = excluded.error,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		module, network, rec.Label, rec.Contract, rec.Status, rec.Handle, rec.Error, rec.RunID,
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert journal record: %w", err)
	}
	return tx.Commit()
}

// Networks lists the networks with a journal for the module.
func (r *JournalRepository) Networks(ctx context.Context, module string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT network FROM journal_steps WHERE module = ? ORDER BY network`, module)
	if err != nil {
		return nil, fmt.Errorf("failed to query networks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
