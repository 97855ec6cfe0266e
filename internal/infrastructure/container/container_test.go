package container

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	infraconfig "github.com/plinth-dev/plinth/internal/infrastructure/config"
	"github.com/plinth-dev/plinth/internal/infrastructure/persistence/file"
	"github.com/plinth-dev/plinth/internal/infrastructure/persistence/memory"
	"github.com/plinth-dev/plinth/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = `
compilers:
  default:
    version: 0.8.28
networks:
  localhost:
    url: http://127.0.0.1:8545
    chainId: 31337
    credential: dev
    accounts: 2
    local: true
  sepolia:
    url: https://sepolia.example.org/v3/{{ secret "rpc_key" }}
    chainId: 11155111
    credential: dev
defaultNetwork: localhost
credentials:
  local:
    dev: "test test test test test test test test test test test junk"
redaction:
  disable_gitleaks: true
journal:
  backend: %s
`

func writeProject(t *testing.T, backend string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "plinth.yaml")
	content := []byte(fmt.Sprintf(testProject, backend))
	require.NoError(t, os.WriteFile(projectPath, content, 0o600))

	userDir := t.TempDir()
	userPath := filepath.Join(userDir, "config.yaml")
	require.NoError(t, os.WriteFile(userPath, []byte(`
credentials:
  local:
    rpc_key: "f00dfeedf00dfeedf00dfeedf00dfeed"
`), 0o600))
	return projectPath, userPath
}

func TestNew_WiresServices(t *testing.T) {
	projectPath, userPath := writeProject(t, "memory")

	c, err := New(Options{ProjectPath: projectPath, UserConfigPath: userPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.BuildService())
	assert.NotNil(t, c.DeploymentService())
	assert.NotNil(t, c.NetworkService())
	assert.IsType(t, &memory.JournalRepository{}, c.Journal())
	assert.Equal(t, filepath.Join(filepath.Dir(projectPath), entities.DefaultArtifactsDir), c.Project().ArtifactsDir)
	assert.Equal(t, "table", c.Runtime().OutputFormat)

	// The user-level credential fills the URL placeholder
	sepolia, err := c.Project().Network("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.example.org/v3/f00dfeedf00dfeedf00dfeedf00dfeed", sepolia.URL)

	// ...and is scrubbed wherever it is shown
	networks := c.NetworkService().Networks()
	for _, n := range networks.Networks {
		assert.NotContains(t, n.URL, "f00dfeed")
	}
	assert.NotContains(t, c.Redactor().ScrubString(sepolia.URL), "f00dfeed")
}

func TestNew_Accounts(t *testing.T) {
	projectPath, userPath := writeProject(t, "memory")

	c, err := New(Options{ProjectPath: projectPath, UserConfigPath: userPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	resp, err := c.NetworkService().Accounts(context.Background(), dto.AccountsRequest{Network: "localhost"})
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 2)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", resp.Accounts[0].Address)

	// Derived private keys are tracked for redaction
	scrubbed := c.Redactor().ScrubString("key=ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	assert.NotContains(t, scrubbed, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
}

func TestNew_JournalBackends(t *testing.T) {
	tests := []struct {
		backend  string
		wantType any
	}{
		{backend: "file", wantType: &file.JournalRepository{}},
		{backend: "sqlite", wantType: &sqlite.JournalRepository{}},
		{backend: "memory", wantType: &memory.JournalRepository{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			projectPath, userPath := writeProject(t, tt.backend)

			c, err := New(Options{ProjectPath: projectPath, UserConfigPath: userPath})
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, c.Journal())
			require.NoError(t, c.Close())
		})
	}
}

func TestNew_SQLiteJournalCreatesDatabase(t *testing.T) {
	projectPath, userPath := writeProject(t, "sqlite")

	c, err := New(Options{ProjectPath: projectPath, UserConfigPath: userPath})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = os.Stat(filepath.Join(filepath.Dir(projectPath), ".plinth", "journal.db"))
	assert.NoError(t, err)
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing project", func(t *testing.T) {
		_, err := New(Options{ProjectPath: filepath.Join(t.TempDir(), "plinth.yaml"), UserConfigPath: "/nonexistent"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load project")
	})

	t.Run("unresolvable placeholder", func(t *testing.T) {
		projectPath, _ := writeProject(t, "memory")
		_, err := New(Options{ProjectPath: projectPath, UserConfigPath: "/nonexistent/config.yaml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sepolia")
	})
}

func TestNew_RuntimeDefaults(t *testing.T) {
	projectPath, userPath := writeProject(t, "memory")

	c, err := New(Options{
		ProjectPath:    projectPath,
		UserConfigPath: userPath,
		Runtime:        infraconfig.RuntimeConfig{OutputFormat: "json", AssumeYes: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "json", c.Runtime().OutputFormat)
	assert.True(t, c.Runtime().AssumeYes)
	assert.Positive(t, c.Runtime().MaxConcurrentCompile)
}

func TestLookPathIn(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "solc-0.8.28")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755)) //nolint:gosec // test executable

	found, err := lookPathIn(dir)("solc-0.8.28")
	require.NoError(t, err)
	assert.Equal(t, bin, found)

	_, err = lookPathIn(dir)("solc-0.0.0-nonexistent")
	assert.Error(t, err)
}

func TestNew_LogOutputIsRedacted(t *testing.T) {
	projectPath, userPath := writeProject(t, "memory")
	var buf bytes.Buffer

	c, err := New(Options{ProjectPath: projectPath, UserConfigPath: userPath, LogOutput: &buf})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Logger().Info("dialing", "url", "https://sepolia.example.org/v3/f00dfeedf00dfeedf00dfeedf00dfeed")
	assert.Contains(t, buf.String(), "dialing")
	assert.NotContains(t, buf.String(), "f00dfeed")
}
