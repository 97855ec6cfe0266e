package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	infraconfig "github.com/plinth-dev/plinth/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CommonOptions contains flags shared across commands. Each flag can
// also be set through PLINTH_<FLAG>.
type CommonOptions struct {
	// Output
	Format string
	Output string

	// Execution
	Timeout     time.Duration
	Concurrency int

	// Flags (bools grouped for alignment)
	HaltOnFailure bool
	AssumeYes     bool
	Verbose       bool
	Quiet         bool
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Format: "table",
	}
}

// RegisterFlags adds the output flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: table, json, yaml")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Global timeout for entire execution (0 to disable)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false,
		"Quiet output (errors only)")
}

// RegisterExecutionFlags adds the flags controlling parallel work.
func (opts *CommonOptions) RegisterExecutionFlags(cmd *cobra.Command, confirm bool) {
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", 0,
		"Maximum parallel jobs (0 for the default)")
	if confirm {
		cmd.Flags().BoolVar(&opts.HaltOnFailure, "halt-on-failure", false,
			"Stop starting new steps after the first failure")
		cmd.Flags().BoolVarP(&opts.AssumeYes, "yes", "y", false,
			"Deploy to non-local networks without asking")
	}
}

// Load reads flag values through viper so PLINTH_* variables apply when
// a flag was not given.
func (opts *CommonOptions) Load() {
	opts.Format = viper.GetString("format")
	opts.Output = viper.GetString("output")
	opts.Timeout = viper.GetDuration("timeout")
	opts.Quiet = viper.GetBool("quiet")
	opts.Verbose = verbose || viper.GetBool("verbose")
	opts.Concurrency = viper.GetInt("concurrency")
	opts.HaltOnFailure = viper.GetBool("halt-on-failure")
	opts.AssumeYes = viper.GetBool("yes")
	if opts.Format == "" {
		opts.Format = "table"
	}
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	// No timeout - return no-op cancel
	return ctx, func() {}
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	if opts.Verbose && opts.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	if opts.Concurrency < 0 {
		return fmt.Errorf("--concurrency must not be negative")
	}

	validFormats := map[string]bool{
		"table": true, "json": true, "yaml": true,
	}
	if !validFormats[opts.Format] {
		return fmt.Errorf("invalid format: %s (valid: table, json, yaml)", opts.Format)
	}

	return nil
}

// LogLevel returns the level implied by --verbose and --quiet.
func (opts *CommonOptions) LogLevel() slog.Level {
	switch {
	case opts.Quiet:
		return slog.LevelError
	case opts.Verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// RuntimeConfig converts the options for the container.
func (opts *CommonOptions) RuntimeConfig() infraconfig.RuntimeConfig {
	return infraconfig.RuntimeConfig{
		OutputFormat:         opts.Format,
		MaxConcurrentSteps:   opts.Concurrency,
		MaxConcurrentCompile: opts.Concurrency,
		HaltOnFailure:        opts.HaltOnFailure,
		AssumeYes:            opts.AssumeYes,
	}
}
