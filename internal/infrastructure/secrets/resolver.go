// Package secrets resolves named credentials (mnemonics, private keys,
// RPC tokens) from inline values, environment variables and files.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/infrastructure/config"
)

// ErrCredentialNotFound is returned when no source declares the name.
var ErrCredentialNotFound = errors.New("credential not found")

// Resolver implements ports.CredentialResolver.
// One resolver serves every network of a project; resolved values are
// cached and automatically tracked for redaction.
type Resolver struct {
	config   *config.CredentialsConfig
	provider ports.SensitiveValueProvider // For auto-tracking
	cache    map[string]string
	baseDir  string
	mu       sync.RWMutex
}

// NewResolver creates a new credential resolver. Relative file paths
// are taken from baseDir (normally the project root).
func NewResolver(
	cfg *config.CredentialsConfig,
	provider ports.SensitiveValueProvider,
	baseDir string,
) *Resolver {
	return &Resolver{
		config:   cfg,
		provider: provider,
		baseDir:  baseDir,
		cache:    make(map[string]string),
	}
}

// Resolve returns the credential value by name.
// It checks sources in order: Local -> Env -> Files.
func (r *Resolver) Resolve(name string) (string, error) {
	r.mu.RLock()
	if value, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return value, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after write lock
	if value, ok := r.cache[name]; ok {
		return value, nil
	}

	value, err := r.resolveFromSources(name)
	if err != nil {
		return "", err
	}

	r.cache[name] = value
	if r.provider != nil {
		r.provider.Track(value)
	}
	return value, nil
}

// Names lists every declared credential name, for diagnostics.
func (r *Resolver) Names() []string {
	if r.config == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range []map[string]string{r.config.Local, r.config.Env, r.config.Files} {
		for n := range m {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (r *Resolver) resolveFromSources(name string) (string, error) {
	if r.config == nil {
		return "", fmt.Errorf("credential %q: %w (no credentials configured)", name, ErrCredentialNotFound)
	}

	// 1. Check local credentials (dev only)
	if value, ok := r.config.Local[name]; ok {
		return strings.TrimSpace(value), nil
	}

	// 2. Check env var mapping
	if envVar, ok := r.config.Env[name]; ok {
		value := strings.TrimSpace(os.Getenv(envVar))
		if value == "" {
			return "", fmt.Errorf("credential %q: env var %q is not set", name, envVar)
		}
		return value, nil
	}

	// 3. Check file mapping
	if filePath, ok := r.config.Files[name]; ok {
		return r.readFile(name, filePath)
	}

	return "", fmt.Errorf("credential %q: %w in local, env, or files", name, ErrCredentialNotFound)
}

func (r *Resolver) readFile(name, filePath string) (string, error) {
	if !filepath.IsAbs(filePath) && r.baseDir != "" {
		filePath = filepath.Join(r.baseDir, filePath)
	}

	// Security: Use os.OpenRoot to prevent path traversal
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", fmt.Errorf("credential %q: failed to open directory %q: %w", name, dir, err)
	}
	defer func() { _ = root.Close() }()

	f, err := root.Open(base)
	if err != nil {
		return "", fmt.Errorf("credential %q: failed to open file %q: %w", name, base, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("credential %q: reading file %q: %w", name, filePath, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("credential %q: file %q is empty", name, filePath)
	}
	return value, nil
}

// Ensure interface compliance
var _ ports.CredentialResolver = (*Resolver)(nil)
