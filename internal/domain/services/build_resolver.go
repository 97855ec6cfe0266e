package services

import (
	"errors"
	"sort"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// BuildResolver resolves the effective compiler profile of every unit.
// It is pure: equal inputs always produce equal plans.
type BuildResolver struct{}

// NewBuildResolver creates a new build resolver service
func NewBuildResolver() *BuildResolver {
	return &BuildResolver{}
}

// Resolution is the result of resolving a build configuration.
// Stale lists override keys that name no known unit; callers log them.
type Resolution struct {
	Plan  *entities.ResolvedBuildPlan
	Stale []values.UnitID
}

// Resolve maps every unit to exactly one profile.
//
// An exact override replaces the default completely; fields are never
// merged. Units without an override get the default verbatim, which must
// then carry a compiler version.
func (r *BuildResolver) Resolve(def entities.CompilerProfile, overrides entities.UnitOverrideTable, units []values.UnitID) (*Resolution, error) {
	table, err := overrides.Normalize()
	if err != nil {
		return nil, err
	}

	overridden := make([]values.UnitID, 0, len(table))
	for unit := range table {
		overridden = append(overridden, unit)
	}
	sort.Slice(overridden, func(i, j int) bool { return overridden[i].Less(overridden[j]) })

	sorted := append([]values.UnitID(nil), units...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	known := make(map[values.UnitID]bool, len(sorted))
	entries := make([]entities.PlanEntry, 0, len(sorted))
	var defaultErr error
	defaultChecked := false

	for _, unit := range sorted {
		if known[unit] {
			continue
		}
		known[unit] = true

		if profile, ok := table[unit]; ok {
			// Only applied overrides are validated; stale ones are ignored.
			if err := profile.Validate(); err != nil {
				return nil, withSubject(err, unit.String())
			}
			entries = append(entries, entities.PlanEntry{Unit: unit, Profile: profile, FromOverride: true})
			continue
		}

		if !defaultChecked {
			defaultErr = def.Validate()
			defaultChecked = true
		}
		if defaultErr != nil {
			return nil, withSubject(defaultErr, unit.String())
		}
		entries = append(entries, entities.PlanEntry{Unit: unit, Profile: def})
	}

	var stale []values.UnitID
	for _, unit := range overridden {
		if !known[unit] {
			stale = append(stale, unit)
		}
	}

	return &Resolution{
		Plan:  entities.NewResolvedBuildPlan(entries),
		Stale: stale,
	}, nil
}

// withSubject names the offending unit on configuration errors.
func withSubject(err error, subject string) error {
	var cfgErr *entities.ConfigurationError
	if errors.As(err, &cfgErr) {
		out := *cfgErr
		out.Subjects = append([]string{subject}, cfgErr.Subjects...)
		return &out
	}
	return err
}
