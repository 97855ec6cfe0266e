package entities

import (
	"fmt"
	"sort"

	"github.com/plinth-dev/plinth/internal/domain/values"
)

// UnitOverrideTable maps raw unit identifiers (as written in the project
// file) to the compiler profile that replaces the default for that unit.
type UnitOverrideTable map[string]CompilerProfile

// Normalize returns the table keyed by normalized unit identifiers.
// Two raw keys that normalize to the same unit make the table ambiguous.
func (t UnitOverrideTable) Normalize() (map[values.UnitID]CompilerProfile, error) {
	rawKeys := make([]string, 0, len(t))
	for k := range t {
		rawKeys = append(rawKeys, k)
	}
	sort.Strings(rawKeys)

	normalized := make(map[values.UnitID]CompilerProfile, len(t))
	seenFrom := make(map[values.UnitID]string, len(t))
	for _, raw := range rawKeys {
		unit, err := values.NewUnitID(raw)
		if err != nil {
			return nil, NewConfigurationError(ErrInvalidProfile,
				fmt.Sprintf("override key %q is not a valid unit identifier", raw), raw).WithCause(err)
		}
		if prev, dup := seenFrom[unit]; dup {
			return nil, NewConfigurationError(ErrAmbiguousOverride,
				fmt.Sprintf("keys %q and %q both name unit %s", prev, raw, unit), unit.String())
		}
		seenFrom[unit] = raw
		normalized[unit] = t[raw].Clone()
	}
	return normalized, nil
}

// BuildConfig is the build section of a project: one default profile and
// an override table.
type BuildConfig struct {
	Overrides UnitOverrideTable `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Default   CompilerProfile   `yaml:"default" json:"default"`
}
