package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// Ensure interface compliance
var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// ErrArtifactNotFound is returned when no unit defines the contract.
var ErrArtifactNotFound = errors.New("artifact not found")

const indexFile = "build-index.yaml"

// unitIndex records what one unit produced.
type unitIndex struct {
	Fingerprint string   `yaml:"fingerprint"`
	Contracts   []string `yaml:"contracts"`
}

type buildIndex struct {
	Units map[string]unitIndex `yaml:"units"`
}

// ArtifactStore writes one JSON file per contract as
// <dir>/<unit>/<Contract>.json and keeps a YAML index of units, their
// cache fingerprints and their contracts.
type ArtifactStore struct {
	dir   string
	index *buildIndex
	mu    sync.Mutex
}

// NewArtifactStore creates a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Dir returns the artifacts directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

func (s *ArtifactStore) loadIndex() (*buildIndex, error) {
	if s.index != nil {
		return s.index, nil
	}
	idx := &buildIndex{Units: make(map[string]unitIndex)}
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		s.index = idx
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read build index: %w", err)
	}
	if err := yaml.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("failed to parse build index: %w", err)
	}
	if idx.Units == nil {
		idx.Units = make(map[string]unitIndex)
	}
	s.index = idx
	return idx, nil
}

func (s *ArtifactStore) unitDir(unit values.UnitID) (string, error) {
	p := filepath.Join(s.dir, filepath.FromSlash(unit.String()))
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unit %s escapes the artifacts directory", unit)
	}
	return p, nil
}

// Save replaces every artifact of a unit and records its fingerprint.
func (s *ArtifactStore) Save(_ context.Context, unit values.UnitID, fingerprint string, artifacts []ports.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	dir, err := s.unitDir(unit)
	if err != nil {
		return err
	}

	// stale contracts from a previous build of this unit
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear artifacts of %s: %w", unit, err)
	}
	//nolint:gosec // G301: build output is not secret
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Contract == "" || strings.ContainsAny(a.Contract, `/\`) {
			return fmt.Errorf("invalid contract name %q in %s", a.Contract, unit)
		}
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal artifact %s: %w", a.Contract, err)
		}
		if err := writeFileAtomic(filepath.Join(dir, a.Contract+".json"), data); err != nil {
			return fmt.Errorf("failed to write artifact %s: %w", a.Contract, err)
		}
		names = append(names, a.Contract)
	}
	sort.Strings(names)

	idx.Units[unit.String()] = unitIndex{Fingerprint: fingerprint, Contracts: names}
	return s.writeIndex(idx)
}

func (s *ArtifactStore) writeIndex(idx *buildIndex) error {
	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal build index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, indexFile), data); err != nil {
		return fmt.Errorf("failed to write build index: %w", err)
	}
	return nil
}

// Fingerprint returns the cache key recorded for a unit.
func (s *ArtifactStore) Fingerprint(_ context.Context, unit values.UnitID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex()
	if err != nil {
		return "", false, err
	}
	u, ok := idx.Units[unit.String()]
	if !ok {
		return "", false, nil
	}
	return u.Fingerprint, true, nil
}

// Artifact resolves a contract by name. A name defined by more than one
// unit must be qualified as "<unit>:<Contract>".
func (s *ArtifactStore) Artifact(_ context.Context, contract string) (*ports.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	unitName, name := "", contract
	if i := strings.LastIndex(contract, ":"); i >= 0 {
		unitName, name = contract[:i], contract[i+1:]
	}

	var matches []string
	for u, entry := range idx.Units {
		if unitName != "" && u != unitName {
			continue
		}
		for _, c := range entry.Contracts {
			if c == name {
				matches = append(matches, u)
			}
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s (run plinth build)", ErrArtifactNotFound, contract)
	case 1:
	default:
		return nil, fmt.Errorf("contract %s is defined in %s; qualify it as <unit>:%s",
			name, strings.Join(matches, ", "), name)
	}

	unit, err := values.NewUnitID(matches[0])
	if err != nil {
		return nil, err
	}
	dir, err := s.unitDir(unit)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".json")) //nolint:gosec // G304: path built from the index
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", contract, err)
	}
	var a ports.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", contract, err)
	}
	return &a, nil
}

// Contracts lists every known contract as "<unit>:<Contract>", sorted.
func (s *ArtifactStore) Contracts(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	var out []string
	for u, entry := range idx.Units {
		for _, c := range entry.Contracts {
			out = append(out, u+":"+c)
		}
	}
	sort.Strings(out)
	return out, nil
}
