// Package config provides infrastructure for loading project and module files.
// This package handles YAML parsing, schema validation, file I/O, and variable substitution.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// DefaultProjectFile is looked up in the working directory.
const DefaultProjectFile = "plinth.yaml"

// Journal backends.
const (
	JournalBackendFile   = "file"
	JournalBackendSQLite = "sqlite"
	JournalBackendMemory = "memory"
)

// ProjectFile is the on-disk form of plinth.yaml.
type ProjectFile struct {
	Networks       map[string]NetworkFile `yaml:"networks"`
	Compilers      CompilersFile          `yaml:"compilers"`
	Credentials    CredentialsConfig      `yaml:"credentials"`
	Redaction      RedactionConfig        `yaml:"redaction"`
	Journal        JournalConfig          `yaml:"journal"`
	DefaultNetwork string                 `yaml:"defaultNetwork"`
	Artifacts      string                 `yaml:"artifacts"`
	Sources        []string               `yaml:"sources"`
}

// CompilersFile holds the default compiler profile and per-unit overrides.
type CompilersFile struct {
	Overrides entities.UnitOverrideTable `yaml:"overrides"`
	Default   entities.CompilerProfile   `yaml:"default"`
}

// NetworkFile is one entry of the networks map. The map key is the name.
type NetworkFile struct {
	GasLimit      *uint64 `yaml:"gasLimit"`
	URL           string  `yaml:"url"`
	Credential    string  `yaml:"credential"`
	ChainID       uint64  `yaml:"chainId"`
	Confirmations uint64  `yaml:"confirmations"`
	Accounts      int     `yaml:"accounts"`
	Local         bool    `yaml:"local"`
}

// CredentialsConfig configures credential resolution sources.
type CredentialsConfig struct {
	// Local defines inline credentials for development (name -> value)
	Local map[string]string `yaml:"local"`

	// Env defines environment variable mappings (name -> env_var_name)
	Env map[string]string `yaml:"env"`

	// Files defines file path mappings (name -> file_path)
	Files map[string]string `yaml:"files"`
}

// RedactionConfig configures how secrets are scrubbed from output.
type RedactionConfig struct {
	Patterns []string `yaml:"patterns"`
	HashMode struct {
		Salt    string `yaml:"salt"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"hash_mode"`
	DisableGitleaks bool `yaml:"disable_gitleaks"`
}

// JournalConfig selects the journal store.
type JournalConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// ResolvedPath returns the journal location for the backend, relative
// paths taken from root.
func (j JournalConfig) ResolvedPath(root string) string {
	p := j.Path
	if p == "" {
		switch j.Backend {
		case JournalBackendSQLite:
			p = filepath.Join(".plinth", "journal.db")
		default:
			p = filepath.Join(".plinth", "journal")
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ProjectLoader handles loading the project file.
type ProjectLoader struct{}

// NewProjectLoader creates a new project loader.
func NewProjectLoader() *ProjectLoader {
	return &ProjectLoader{}
}

// Load reads and decodes plinth.yaml without interpreting it.
func (l *ProjectLoader) Load(path string) (*ProjectFile, error) {
	// Security: Use os.OpenRoot to prevent path traversal attacks
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open project directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open project file: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	return l.LoadFromReader(file)
}

// LoadFromReader decodes a project file from an io.Reader.
func (l *ProjectLoader) LoadFromReader(r io.Reader) (*ProjectFile, error) {
	var pf ProjectFile
	decoder := yaml.NewDecoder(r, yaml.DisallowUnknownField())
	if err := decoder.Decode(&pf); err != nil {
		if err == io.EOF {
			return &pf, nil
		}
		return nil, fmt.Errorf("failed to decode project YAML: %w", err)
	}
	if err := pf.Journal.validate(); err != nil {
		return nil, err
	}
	return &pf, nil
}

// LoadProject loads plinth.yaml and builds the project. Credential
// placeholders in network URLs are left as written; use
// ProjectFile.ToProject with a resolver to expand them.
func (l *ProjectLoader) LoadProject(path string) (*entities.Project, error) {
	pf, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	return pf.ToProject(filepath.Dir(path), NewVariableSubstitutor(nil))
}

func (j JournalConfig) validate() error {
	switch j.Backend {
	case "", JournalBackendFile, JournalBackendSQLite, JournalBackendMemory:
		return nil
	default:
		return fmt.Errorf("journal backend %q is not one of file, sqlite, memory", j.Backend)
	}
}

// ToProject converts the file into a validated project rooted at root.
func (pf *ProjectFile) ToProject(root string, subst *VariableSubstitutor) (*entities.Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root %q: %w", root, err)
	}

	names := make([]string, 0, len(pf.Networks))
	for name := range pf.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	registry, err := entities.NewNetworkRegistry()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		nf := pf.Networks[name]
		url, err := subst.SubstituteString(nf.URL)
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", name, err)
		}
		if err := registry.Register(entities.NetworkProfile{
			Name:          name,
			URL:           url,
			Credential:    nf.Credential,
			ChainID:       nf.ChainID,
			Confirmations: nf.Confirmations,
			GasLimit:      nf.GasLimit,
			Accounts:      nf.Accounts,
			Local:         nf.Local,
		}); err != nil {
			return nil, err
		}
	}

	artifacts := pf.Artifacts
	if artifacts == "" {
		artifacts = entities.DefaultArtifactsDir
	}
	if !filepath.IsAbs(artifacts) {
		artifacts = filepath.Join(absRoot, artifacts)
	}

	project := &entities.Project{
		Root:           absRoot,
		ArtifactsDir:   artifacts,
		DefaultNetwork: pf.DefaultNetwork,
		Sources:        pf.Sources,
		Networks:       registry,
		Build: entities.BuildConfig{
			Default:   pf.Compilers.Default,
			Overrides: pf.Compilers.Overrides,
		},
	}
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("project validation failed: %w", err)
	}
	return project, nil
}

// Ensure interface compliance
var _ ports.ProjectLoader = (*ProjectLoader)(nil)
