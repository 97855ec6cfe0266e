package config

import (
	"runtime"

	"github.com/plinth-dev/plinth/internal/infrastructure/engine"
)

// RuntimeConfig aggregates the per-invocation settings taken from flags
// and PLINTH_* environment variables.
// This is a value object that flows through the system.
type RuntimeConfig struct {
	// Output
	OutputFormat string

	// Concurrency
	MaxConcurrentSteps   int
	MaxConcurrentCompile int

	// Failure handling
	HaltOnFailure bool

	// AssumeYes skips the confirmation prompt for non-local networks
	AssumeYes bool
}

// ApplyDefaults applies defaults for zero values.
func (r *RuntimeConfig) ApplyDefaults() {
	if r.OutputFormat == "" {
		r.OutputFormat = "table"
	}
	if r.MaxConcurrentCompile == 0 {
		r.MaxConcurrentCompile = runtime.NumCPU()
	}
	// MaxConcurrentSteps stays 0 so the engine default applies.
}

// ExecutionConfig converts the runtime settings for the engine.
func (r *RuntimeConfig) ExecutionConfig() engine.ExecutionConfig {
	cfg := engine.DefaultExecutionConfig()
	if r.MaxConcurrentSteps > 0 {
		cfg.MaxConcurrentSteps = r.MaxConcurrentSteps
	}
	cfg.HaltOnFailure = r.HaltOnFailure
	return cfg
}
