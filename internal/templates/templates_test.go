package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	infraconfig "github.com/plinth-dev/plinth/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTemplates_Load(t *testing.T) {
	t.Parallel()

	tmpl, err := ProjectTemplates()

	require.NoError(t, err)
	assert.NotNil(t, tmpl)

	for _, name := range []string{"plinth.yaml", "module.yaml", "contract.sol"} {
		assert.NotNil(t, tmpl.Lookup(name), "template %s should be loaded", name)
	}
}

func TestRender_ProducesLoadableProject(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	written, err := Render(dir, DefaultProjectData("greeter"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"plinth.yaml",
		filepath.Join("deploy", "greeter.yaml"),
		filepath.Join("contracts", "Greeter.sol"),
	}, written)

	project, err := infraconfig.NewProjectLoader().LoadProject(filepath.Join(dir, "plinth.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "0.8.28", project.Build.Default.Version)
	local, err := project.Network("")
	require.NoError(t, err)
	assert.Equal(t, "localhost", local.Name)
	assert.True(t, local.Local)

	module, err := infraconfig.NewModuleLoader().LoadModule(filepath.Join(dir, "deploy", "greeter.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "greeter", module.Name)
	assert.Equal(t, []string{"greeter"}, module.Labels())

	src, err := os.ReadFile(filepath.Join(dir, "contracts", "Greeter.sol")) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(src), "pragma solidity ^0.8.28;")
	assert.Contains(t, string(src), "contract Greeter {")
}

func TestRender_RefusesToOverwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plinth.yaml"), []byte("keep"), 0o600))

	_, err := Render(dir, DefaultProjectData("greeter"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileExists))

	data, err := os.ReadFile(filepath.Join(dir, "plinth.yaml")) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	_, err = Render(dir, DefaultProjectData("greeter"), true)
	require.NoError(t, err)
}
