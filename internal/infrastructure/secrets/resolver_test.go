package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/plinth-dev/plinth/internal/infrastructure/config"
	"github.com/plinth-dev/plinth/internal/infrastructure/sensitivedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "keys"), 0o700))
	// with whitespace to test trim
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "keys", "ops.txt"), []byte("  file-mnemonic  \n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "empty.txt"), nil, 0o600))

	provider := sensitivedata.NewProvider()
	cfg := &config.CredentialsConfig{
		Local: map[string]string{
			"dev": "test test test test test test test test test test test junk",
		},
		Env: map[string]string{
			"deployer": "TEST_PLINTH_MNEMONIC",
			"unset":    "TEST_PLINTH_UNSET",
		},
		Files: map[string]string{
			"ops":   "keys/ops.txt",
			"empty": filepath.Join(tempDir, "empty.txt"),
		},
	}

	t.Setenv("TEST_PLINTH_MNEMONIC", "env-mnemonic")

	resolver := NewResolver(cfg, provider, tempDir)

	tests := []struct {
		name          string
		credential    string
		wantValue     string
		wantErr       string
		wantInTracker bool
	}{
		{
			name:          "Local credential",
			credential:    "dev",
			wantValue:     "test test test test test test test test test test test junk",
			wantInTracker: true,
		},
		{
			name:          "Env credential",
			credential:    "deployer",
			wantValue:     "env-mnemonic",
			wantInTracker: true,
		},
		{
			name:          "Relative file credential",
			credential:    "ops",
			wantValue:     "file-mnemonic",
			wantInTracker: true,
		},
		{
			name:       "Unset env var",
			credential: "unset",
			wantErr:    "TEST_PLINTH_UNSET",
		},
		{
			name:       "Empty file",
			credential: "empty",
			wantErr:    "is empty",
		},
		{
			name:       "Unknown credential",
			credential: "unknown",
			wantErr:    "credential not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := resolver.Resolve(tt.credential)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, val)

			if tt.wantInTracker {
				assert.Contains(t, provider.AllValues(), tt.wantValue)
			}
		})
	}
}

func TestResolver_Caching(t *testing.T) {
	provider := sensitivedata.NewProvider()
	cfg := &config.CredentialsConfig{
		Local: map[string]string{
			"key": "value1",
		},
	}
	resolver := NewResolver(cfg, provider, "")

	val, err := resolver.Resolve("key")
	require.NoError(t, err)
	assert.Equal(t, "value1", val)

	// Modify config backing source (hack to test cache)
	cfg.Local["key"] = "value2"

	val, err = resolver.Resolve("key")
	require.NoError(t, err)
	assert.Equal(t, "value1", val)
	assert.Len(t, provider.AllValues(), 1)
}

func TestResolver_Names(t *testing.T) {
	resolver := NewResolver(&config.CredentialsConfig{
		Local: map[string]string{"a": "1"},
		Env:   map[string]string{"b": "B", "a": "A"},
	}, nil, "")

	names := resolver.Names()
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err := NewResolver(nil, nil, "").Resolve("a")
	require.Error(t, err)
}
