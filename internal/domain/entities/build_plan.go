package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/plinth-dev/plinth/internal/domain/values"
)

// PlanEntry is the effective profile of one unit.
type PlanEntry struct {
	Unit         values.UnitID
	Profile      CompilerProfile
	FromOverride bool
}

// ProfileGroup clusters units sharing an identical profile.
type ProfileGroup struct {
	Profile CompilerProfile
	Digest  string
	Units   []values.UnitID
}

// ResolvedBuildPlan is a total mapping from unit to exactly one profile.
// Entries are kept sorted by unit identifier.
type ResolvedBuildPlan struct {
	index   map[values.UnitID]int
	entries []PlanEntry
}

// NewResolvedBuildPlan builds a plan from entries. Entries are sorted and
// the last entry wins if a unit repeats; resolvers never produce repeats.
func NewResolvedBuildPlan(entries []PlanEntry) *ResolvedBuildPlan {
	byUnit := make(map[values.UnitID]PlanEntry, len(entries))
	for _, e := range entries {
		e.Profile = e.Profile.Clone()
		byUnit[e.Unit] = e
	}

	sorted := make([]PlanEntry, 0, len(byUnit))
	for _, e := range byUnit {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Unit.Less(sorted[j].Unit)
	})

	index := make(map[values.UnitID]int, len(sorted))
	for i, e := range sorted {
		index[e.Unit] = i
	}
	return &ResolvedBuildPlan{entries: sorted, index: index}
}

// Entries returns a copy of the plan entries in unit order.
func (p *ResolvedBuildPlan) Entries() []PlanEntry {
	out := make([]PlanEntry, len(p.entries))
	for i, e := range p.entries {
		e.Profile = e.Profile.Clone()
		out[i] = e
	}
	return out
}

// Lookup returns the effective profile for a unit.
func (p *ResolvedBuildPlan) Lookup(unit values.UnitID) (PlanEntry, bool) {
	i, ok := p.index[unit]
	if !ok {
		return PlanEntry{}, false
	}
	e := p.entries[i]
	e.Profile = e.Profile.Clone()
	return e, true
}

// Len returns the number of units in the plan.
func (p *ResolvedBuildPlan) Len() int {
	return len(p.entries)
}

// Units returns the unit identifiers in plan order.
func (p *ResolvedBuildPlan) Units() []values.UnitID {
	out := make([]values.UnitID, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Unit
	}
	return out
}

// Digest returns a deterministic hash of the whole plan.
func (p *ResolvedBuildPlan) Digest() string {
	h := sha256.New()
	for _, e := range p.entries {
		h.Write([]byte(e.Unit.String()))
		h.Write([]byte{0})
		h.Write([]byte(e.Profile.Digest()))
		h.Write([]byte{'\n'})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// Groups clusters units by profile. Groups are ordered by compiler version,
// then by digest; units inside a group keep plan order.
func (p *ResolvedBuildPlan) Groups() []ProfileGroup {
	byDigest := make(map[string]*ProfileGroup)
	var order []string
	for _, e := range p.entries {
		d := e.Profile.Digest()
		g, ok := byDigest[d]
		if !ok {
			g = &ProfileGroup{Profile: e.Profile.Clone(), Digest: d}
			byDigest[d] = g
			order = append(order, d)
		}
		g.Units = append(g.Units, e.Unit)
	}

	groups := make([]ProfileGroup, 0, len(order))
	for _, d := range order {
		groups = append(groups, *byDigest[d])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		vi, erri := groups[i].Profile.SemVer()
		vj, errj := groups[j].Profile.SemVer()
		if erri == nil && errj == nil && !vi.Equal(vj) {
			return vi.LessThan(vj)
		}
		if (erri == nil) != (errj == nil) {
			return erri == nil
		}
		return groups[i].Digest < groups[j].Digest
	})
	return groups
}
