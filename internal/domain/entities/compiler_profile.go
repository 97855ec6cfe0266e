package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// knownEVMVersions lists the EVM targets accepted by solc.
var knownEVMVersions = map[string]bool{
	"homestead":        true,
	"tangerineWhistle": true,
	"spuriousDragon":   true,
	"byzantium":        true,
	"constantinople":   true,
	"petersburg":       true,
	"istanbul":         true,
	"berlin":           true,
	"london":           true,
	"paris":            true,
	"shanghai":         true,
	"cancun":           true,
	"prague":           true,
	"osaka":            true,
}

// OptimizerSettings configures the optimizer for a unit.
// Runs is nil when no explicit run count is configured.
type OptimizerSettings struct {
	Runs    *uint `yaml:"runs,omitempty" json:"runs,omitempty"`
	Enabled bool  `yaml:"enabled" json:"enabled"`
}

// CompilerProfile is the set of compiler and codegen options applied to a
// unit. It is an immutable value: copy it, never mutate a shared one.
//
// Unset fields carry their implicit defaults: optimizer disabled, no
// explicit EVM target, no IR pipeline.
type CompilerProfile struct {
	Version    string            `yaml:"version" json:"version"`
	EVMVersion string            `yaml:"evmVersion,omitempty" json:"evmVersion,omitempty"`
	Optimizer  OptimizerSettings `yaml:"optimizer,omitempty" json:"optimizer"`
	ViaIR      bool              `yaml:"viaIR,omitempty" json:"viaIR,omitempty"`
}

// HasVersion reports whether a compiler version is configured.
func (p CompilerProfile) HasVersion() bool {
	return strings.TrimSpace(p.Version) != ""
}

// SemVer parses the compiler version.
func (p CompilerProfile) SemVer() (*semver.Version, error) {
	return semver.StrictNewVersion(strings.TrimSpace(p.Version))
}

// Validate checks the profile fields. A missing version is reported with
// ErrMissingCompilerVersion so callers can tell it apart from malformed values.
func (p CompilerProfile) Validate() error {
	if !p.HasVersion() {
		return NewConfigurationError(ErrMissingCompilerVersion, "profile has no compiler version")
	}
	if _, err := p.SemVer(); err != nil {
		return NewConfigurationError(ErrInvalidProfile,
			fmt.Sprintf("compiler version %q is not an exact X.Y.Z version", p.Version)).WithCause(err)
	}
	if p.EVMVersion != "" && !knownEVMVersions[p.EVMVersion] {
		return NewConfigurationError(ErrInvalidProfile,
			fmt.Sprintf("unknown evmVersion %q", p.EVMVersion))
	}
	if p.Optimizer.Runs != nil && *p.Optimizer.Runs == 0 {
		return NewConfigurationError(ErrInvalidProfile, "optimizer runs must be positive when set")
	}
	return nil
}

// RunsOrZero returns the configured run count, or 0 when unset.
func (p CompilerProfile) RunsOrZero() uint {
	if p.Optimizer.Runs == nil {
		return 0
	}
	return *p.Optimizer.Runs
}

// Clone returns a deep copy.
func (p CompilerProfile) Clone() CompilerProfile {
	c := p
	if p.Optimizer.Runs != nil {
		runs := *p.Optimizer.Runs
		c.Optimizer.Runs = &runs
	}
	return c
}

// Equal compares two profiles field by field.
func (p CompilerProfile) Equal(other CompilerProfile) bool {
	if p.Version != other.Version || p.EVMVersion != other.EVMVersion ||
		p.ViaIR != other.ViaIR || p.Optimizer.Enabled != other.Optimizer.Enabled {
		return false
	}
	if (p.Optimizer.Runs == nil) != (other.Optimizer.Runs == nil) {
		return false
	}
	return p.Optimizer.Runs == nil || *p.Optimizer.Runs == *other.Optimizer.Runs
}

// Digest returns a stable hash of the profile. Compilation results may be
// cached under (unit, digest).
func (p CompilerProfile) Digest() string {
	// json.Marshal emits struct fields in declaration order, which keeps the
	// encoding canonical.
	data, _ := json.Marshal(p)
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// String renders a short human readable summary.
func (p CompilerProfile) String() string {
	parts := []string{p.Version}
	if p.Optimizer.Enabled {
		if p.Optimizer.Runs != nil {
			parts = append(parts, fmt.Sprintf("optimizer=%d", *p.Optimizer.Runs))
		} else {
			parts = append(parts, "optimizer=on")
		}
	}
	if p.EVMVersion != "" {
		parts = append(parts, "evm="+p.EVMVersion)
	}
	if p.ViaIR {
		parts = append(parts, "via-ir")
	}
	return strings.Join(parts, " ")
}

// Runs is a helper for building profiles in code and tests.
func Runs(n uint) *uint {
	return &n
}
