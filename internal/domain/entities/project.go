package entities

import "fmt"

// DefaultSourcePattern selects every Solidity unit under contracts/.
const DefaultSourcePattern = "contracts/**/*.sol"

// DefaultArtifactsDir is where build output is written.
const DefaultArtifactsDir = "artifacts"

// Project is the validated project definition: how to build the units and
// where they may be deployed.
type Project struct {
	Networks       *NetworkRegistry
	Root           string
	ArtifactsDir   string
	DefaultNetwork string
	Sources        []string
	Build          BuildConfig
}

// SourcePatterns returns the configured unit globs, or the default one.
func (p *Project) SourcePatterns() []string {
	if len(p.Sources) == 0 {
		return []string{DefaultSourcePattern}
	}
	return p.Sources
}

// Network selects a network by name, falling back to the project default.
func (p *Project) Network(name string) (NetworkProfile, error) {
	if name == "" {
		name = p.DefaultNetwork
	}
	if name == "" {
		return NetworkProfile{}, NewConfigurationError(ErrUnknownNetwork,
			"no network selected and no defaultNetwork configured")
	}
	if p.Networks == nil {
		return NetworkProfile{}, NewConfigurationError(ErrUnknownNetwork, "no networks configured", name)
	}
	return p.Networks.Get(name)
}

// Validate checks cross-field consistency.
func (p *Project) Validate() error {
	if p.DefaultNetwork != "" {
		if _, err := p.Network(p.DefaultNetwork); err != nil {
			return fmt.Errorf("defaultNetwork: %w", err)
		}
	}
	return nil
}
