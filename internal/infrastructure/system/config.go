// Package system loads the per-user configuration (~/.plinth/config.yaml):
// credentials that must stay out of the project, redaction defaults and
// where solc binaries are installed.
package system

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	infraconfig "github.com/plinth-dev/plinth/internal/infrastructure/config"
)

// Config represents the user configuration file (~/.plinth/config.yaml).
// It is separate from the project's plinth.yaml.
type Config struct {
	Credentials SecretsConfig   `yaml:"credentials"`
	Redaction   RedactionConfig `yaml:"redaction"`
	Solc        SolcConfig      `yaml:"solc"`
}

// SecretsConfig configures user-level credential sources.
type SecretsConfig struct {
	// Local defines static credentials for development (name -> value)
	Local map[string]string `yaml:"local"`

	// Env defines environment variable mappings (credential_name -> env_var_name)
	Env map[string]string `yaml:"env"`

	// Files defines file path mappings (credential_name -> file_path)
	Files map[string]string `yaml:"files"`
}

// RedactionConfig configures how sensitive data is sanitized.
type RedactionConfig struct {
	HashMode HashModeConfig `yaml:"hash_mode"`
	Patterns []string       `yaml:"patterns"`
}

// HashModeConfig controls hash-based redaction.
type HashModeConfig struct {
	Salt    string `yaml:"salt"`
	Enabled bool   `yaml:"enabled"`
}

// SolcConfig locates compiler binaries.
type SolcConfig struct {
	// Dir is searched for solc-X.Y.Z before PATH
	Dir string `yaml:"dir"`
}

// ConfigLoader loads user configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new user config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultPath returns ~/.plinth/config.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".plinth", "config.yaml")
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no user config file exists.
func DefaultConfig() *Config {
	return &Config{
		Credentials: SecretsConfig{
			Local: make(map[string]string),
			Env:   make(map[string]string),
			Files: make(map[string]string),
		},
		Redaction: RedactionConfig{
			Patterns: []string{},
		},
	}
}

// Load loads the user configuration from the specified path.
// If the file does not exist, returns DefaultConfig().
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is the user's own config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var config Config
	if err := yaml.UnmarshalWithOptions(data, &config, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse user config %s: %w", path, err)
	}
	if config.Solc.Dir != "" && !filepath.IsAbs(config.Solc.Dir) {
		config.Solc.Dir = filepath.Join(filepath.Dir(path), config.Solc.Dir)
	}

	return &config, nil
}

// MergeCredentials returns the project's credentials with user-level
// entries added for names the project does not define. Relative user
// file paths are resolved against the user config directory.
func (c *Config) MergeCredentials(project infraconfig.CredentialsConfig, configDir string) infraconfig.CredentialsConfig {
	merged := infraconfig.CredentialsConfig{
		Local: make(map[string]string),
		Env:   make(map[string]string),
		Files: make(map[string]string),
	}
	defined := make(map[string]bool)
	for _, m := range []map[string]string{project.Local, project.Env, project.Files} {
		for name := range m {
			defined[name] = true
		}
	}
	maps.Copy(merged.Local, project.Local)
	maps.Copy(merged.Env, project.Env)
	maps.Copy(merged.Files, project.Files)

	for name, v := range c.Credentials.Local {
		if !defined[name] {
			merged.Local[name] = v
		}
	}
	for name, v := range c.Credentials.Env {
		if !defined[name] {
			merged.Env[name] = v
		}
	}
	for name, v := range c.Credentials.Files {
		if defined[name] {
			continue
		}
		if !filepath.IsAbs(v) && configDir != "" {
			v = filepath.Join(configDir, v)
		}
		merged.Files[name] = v
	}
	return merged
}
