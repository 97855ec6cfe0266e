package services

import (
	"errors"
	"testing"

	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func units(ids ...string) []values.UnitID {
	out := make([]values.UnitID, len(ids))
	for i, id := range ids {
		out[i] = values.MustNewUnitID(id)
	}
	return out
}

func TestBuildResolver_ExamplePlan(t *testing.T) {
	t.Parallel()

	def := entities.CompilerProfile{Version: "0.8.28"}
	overrides := entities.UnitOverrideTable{
		"unitX": {Version: "0.8.20", Optimizer: entities.OptimizerSettings{Enabled: true, Runs: entities.Runs(200)}},
	}

	res, err := NewBuildResolver().Resolve(def, overrides, units("unitX", "unitY"))
	require.NoError(t, err)
	require.Equal(t, 2, res.Plan.Len())
	assert.Empty(t, res.Stale)

	x, ok := res.Plan.Lookup(values.MustNewUnitID("unitX"))
	require.True(t, ok)
	assert.True(t, x.FromOverride)
	assert.Equal(t, "0.8.20", x.Profile.Version)
	assert.True(t, x.Profile.Optimizer.Enabled)
	assert.Equal(t, uint(200), x.Profile.RunsOrZero())

	y, ok := res.Plan.Lookup(values.MustNewUnitID("unitY"))
	require.True(t, ok)
	assert.False(t, y.FromOverride)
	assert.True(t, y.Profile.Equal(def))
}

func TestBuildResolver_OverrideReplacesDefault(t *testing.T) {
	t.Parallel()

	def := entities.CompilerProfile{
		Version:    "0.8.28",
		Optimizer:  entities.OptimizerSettings{Enabled: true, Runs: entities.Runs(1000)},
		EVMVersion: "cancun",
	}
	overrides := entities.UnitOverrideTable{
		"contracts/Old.sol": {Version: "0.8.20", Optimizer: entities.OptimizerSettings{Enabled: false}},
	}

	res, err := NewBuildResolver().Resolve(def, overrides, units("contracts/Old.sol"))
	require.NoError(t, err)

	entry, _ := res.Plan.Lookup(values.MustNewUnitID("contracts/Old.sol"))
	assert.False(t, entry.Profile.Optimizer.Enabled)
	assert.Nil(t, entry.Profile.Optimizer.Runs, "runs are not inherited from the default")
	assert.Empty(t, entry.Profile.EVMVersion, "evm target is not inherited from the default")
}

func TestBuildResolver_TotalAndDeterministic(t *testing.T) {
	t.Parallel()

	def := entities.CompilerProfile{Version: "0.8.28"}
	overrides := entities.UnitOverrideTable{
		"b.sol": {Version: "0.8.27"},
		"z.sol": {Version: "0.8.19"},
	}
	r := NewBuildResolver()

	first, err := r.Resolve(def, overrides, units("c.sol", "a.sol", "b.sol", "a.sol"))
	require.NoError(t, err)
	second, err := r.Resolve(def, overrides, units("b.sol", "c.sol", "a.sol"))
	require.NoError(t, err)

	assert.Equal(t, units("a.sol", "b.sol", "c.sol"), first.Plan.Units())
	assert.Equal(t, first.Plan.Digest(), second.Plan.Digest())
	assert.Equal(t, units("z.sol"), first.Stale)
}

func TestBuildResolver_MissingVersion(t *testing.T) {
	t.Parallel()

	overrides := entities.UnitOverrideTable{
		"a.sol": {Version: "0.8.20"},
	}
	r := NewBuildResolver()

	t.Run("fully overridden units do not need a default", func(t *testing.T) {
		res, err := r.Resolve(entities.CompilerProfile{}, overrides, units("a.sol"))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Plan.Len())
	})

	t.Run("unit falling back to an empty default", func(t *testing.T) {
		_, err := r.Resolve(entities.CompilerProfile{}, overrides, units("a.sol", "b.sol"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrMissingCompilerVersion))
		assert.Contains(t, err.Error(), "b.sol")
	})

	t.Run("override without version", func(t *testing.T) {
		bad := entities.UnitOverrideTable{"a.sol": {EVMVersion: "paris"}}
		_, err := r.Resolve(entities.CompilerProfile{Version: "0.8.28"}, bad, units("a.sol"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrMissingCompilerVersion))
		assert.Contains(t, err.Error(), "a.sol")
	})
}

func TestBuildResolver_StaleOverridesAreIgnored(t *testing.T) {
	t.Parallel()

	def := entities.CompilerProfile{Version: "0.8.28"}
	overrides := entities.UnitOverrideTable{
		// no version
		"contracts/Removed.sol": {Optimizer: entities.OptimizerSettings{Enabled: true, Runs: entities.Runs(200)}},
		// malformed version and evm target
		"contracts/Gone.sol": {Version: "latest", EVMVersion: "frontier-ish"},
	}

	res, err := NewBuildResolver().Resolve(def, overrides, units("contracts/A.sol"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Plan.Len())
	assert.Equal(t, units("contracts/Gone.sol", "contracts/Removed.sol"), res.Stale)

	entry, ok := res.Plan.Lookup(values.MustNewUnitID("contracts/A.sol"))
	require.True(t, ok)
	assert.True(t, entry.Profile.Equal(def))
}

func TestBuildResolver_InvalidAppliedOverride(t *testing.T) {
	t.Parallel()

	overrides := entities.UnitOverrideTable{
		"contracts/A.sol": {Version: "0.8"},
	}
	_, err := NewBuildResolver().Resolve(entities.CompilerProfile{Version: "0.8.28"}, overrides, units("contracts/A.sol", "contracts/B.sol"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrInvalidProfile))

	var cfgErr *entities.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"contracts/A.sol"}, cfgErr.Subjects)
}

func TestBuildResolver_AmbiguousOverride(t *testing.T) {
	t.Parallel()

	overrides := entities.UnitOverrideTable{
		"contracts/A.sol":   {Version: "0.8.20"},
		"contracts//A.sol":  {Version: "0.8.21"},
		"contracts/B.sol":   {Version: "0.8.21"},
		"./contracts/C.sol": {Version: "0.8.21"},
	}
	_, err := NewBuildResolver().Resolve(entities.CompilerProfile{Version: "0.8.28"}, overrides, units("contracts/A.sol"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrAmbiguousOverride))
}
