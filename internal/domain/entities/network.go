package entities

import (
	"fmt"
	"net/url"
	"sort"
)

// NetworkProfile describes a deployment target.
type NetworkProfile struct {
	GasLimit      *uint64 `yaml:"gasLimit,omitempty" json:"gasLimit,omitempty"`
	Name          string  `yaml:"name" json:"name"`
	URL           string  `yaml:"url" json:"url"`
	Credential    string  `yaml:"credential,omitempty" json:"credential,omitempty"`
	ChainID       uint64  `yaml:"chainId,omitempty" json:"chainId,omitempty"`
	Confirmations uint64  `yaml:"confirmations,omitempty" json:"confirmations,omitempty"`
	Accounts      int     `yaml:"accounts,omitempty" json:"accounts,omitempty"`
	Local         bool    `yaml:"local,omitempty" json:"local,omitempty"`
}

// DefaultAccountCount is the number of accounts derived when a network
// does not say otherwise.
const DefaultAccountCount = 10

// AccountCount returns the number of accounts to derive.
func (n NetworkProfile) AccountCount() int {
	if n.Accounts <= 0 {
		return DefaultAccountCount
	}
	return n.Accounts
}

// Validate checks the profile fields.
func (n NetworkProfile) Validate() error {
	if n.Name == "" {
		return NewConfigurationError(ErrUnknownNetwork, "network name is required")
	}
	if n.URL == "" {
		return NewConfigurationError(ErrUnknownNetwork, "network url is required", n.Name)
	}
	u, err := url.Parse(n.URL)
	if err != nil || u.Scheme == "" {
		return NewConfigurationError(ErrUnknownNetwork,
			fmt.Sprintf("network url %q is not absolute", n.URL), n.Name)
	}
	return nil
}

// NetworkRegistry holds network profiles keyed by name.
type NetworkRegistry struct {
	networks map[string]NetworkProfile
}

// NewNetworkRegistry creates a registry from profiles. Duplicate names
// are rejected.
func NewNetworkRegistry(profiles ...NetworkProfile) (*NetworkRegistry, error) {
	r := &NetworkRegistry{networks: make(map[string]NetworkProfile, len(profiles))}
	for _, p := range profiles {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a profile.
func (r *NetworkRegistry) Register(p NetworkProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := r.networks[p.Name]; exists {
		return NewConfigurationError(ErrUnknownNetwork, "network declared twice", p.Name)
	}
	r.networks[p.Name] = p
	return nil
}

// Get returns the profile with the given name.
func (r *NetworkRegistry) Get(name string) (NetworkProfile, error) {
	p, ok := r.networks[name]
	if !ok {
		return NetworkProfile{}, NewConfigurationError(ErrUnknownNetwork,
			fmt.Sprintf("known networks: %v", r.Names()), name)
	}
	return p, nil
}

// Names returns the registered network names, sorted.
func (r *NetworkRegistry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for n := range r.networks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every profile in name order.
func (r *NetworkRegistry) All() []NetworkProfile {
	out := make([]NetworkProfile, 0, len(r.networks))
	for _, n := range r.Names() {
		out = append(out, r.networks[n])
	}
	return out
}
