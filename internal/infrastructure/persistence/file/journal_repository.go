// Package file stores deployment journals as YAML files, one per module
// and network, under a journal directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// Ensure interface compliance
var _ ports.JournalRepository = (*JournalRepository)(nil)

const journalExt = ".yaml"

// JournalRepository persists journals as <dir>/<module>/<network>.yaml.
// Each upsert rewrites the file through a temp file and an atomic rename,
// so a crash leaves either the old or the new journal on disk.
type JournalRepository struct {
	dir string
	mu  sync.Mutex
}

// NewJournalRepository creates a file-backed repository rooted at dir.
func NewJournalRepository(dir string) *JournalRepository {
	return &JournalRepository{dir: dir}
}

// Dir returns the journal directory.
func (r *JournalRepository) Dir() string {
	return r.dir
}

func (r *JournalRepository) path(module, network string) (string, error) {
	for _, part := range []string{module, network} {
		if part == "" || strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return "", fmt.Errorf("invalid journal key component %q", part)
		}
	}
	return filepath.Join(r.dir, module, network+journalExt), nil
}

// Load reads a journal. Returns nil, nil if the file does not exist.
func (r *JournalRepository) Load(_ context.Context, module, network string) (*entities.Journal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(module, network)
}

func (r *JournalRepository) load(module, network string) (*entities.Journal, error) {
	p, err := r.path(module, network)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p) //nolint:gosec // G304: path is built from validated components
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var j entities.Journal
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse journal %s: %w", p, err)
	}
	if j.Steps == nil {
		j.Steps = make(map[string]entities.StepRecord)
	}
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("invalid journal %s: %w", p, err)
	}
	return &j, nil
}

// SaveRecord upserts one record and rewrites the journal atomically.
func (r *JournalRepository) SaveRecord(_ context.Context, module, network string, rec entities.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.load(module, network)
	if err != nil {
		return err
	}
	if j == nil {
		j = entities.NewJournal(module, network)
	}
	if err := j.Record(rec); err != nil {
		return err
	}
	return r.write(j)
}

func (r *JournalRepository) write(j *entities.Journal) error {
	p, err := r.path(j.Module, j.Network)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	//nolint:gosec // G301: journals are project files, not secrets
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	data, err := yaml.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	if err := writeFileAtomic(p, data); err != nil {
		return fmt.Errorf("failed to replace journal: %w", err)
	}
	return nil
}

// Networks lists the networks with a journal for the module.
func (r *JournalRepository) Networks(_ context.Context, module string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(r.dir, module))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, journalExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, journalExt))
	}
	sort.Strings(out)
	return out, nil
}
