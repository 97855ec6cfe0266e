// Package sensitivedata keeps track of resolved credentials (mnemonics,
// private keys, RPC tokens) so they can be scrubbed from any output.
package sensitivedata

import (
	"strings"
	"sync"

	"github.com/plinth-dev/plinth/internal/application/ports"
)

// Provider implements ports.SensitiveValueProvider.
// It maintains a thread-safe, de-duplicated registry of sensitive values.
type Provider struct {
	seen   map[string]struct{}
	values []string
	mu     sync.RWMutex
}

// NewProvider creates a new sensitive data provider.
func NewProvider() *Provider {
	return &Provider{
		seen:   make(map[string]struct{}),
		values: make([]string, 0, 8),
	}
}

// Track registers a sensitive value to be protected. Surrounding
// whitespace is ignored; empty values are not tracked.
func (p *Provider) Track(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[value]; ok {
		return
	}
	p.seen[value] = struct{}{}
	p.values = append(p.values, value)
}

// AllValues returns all tracked sensitive values.
func (p *Provider) AllValues() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Return a copy to avoid race conditions if caller modifies the slice
	result := make([]string, len(p.values))
	copy(result, p.values)
	return result
}

// Ensure interface compliance
var _ ports.SensitiveValueProvider = (*Provider)(nil)
