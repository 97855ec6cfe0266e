package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/infrastructure/container"
	"github.com/plinth-dev/plinth/internal/infrastructure/redaction"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errReported marks failures already shown to the user through the
// formatted output; main only sets the exit code.
var errReported = errors.New("reported")

// CommandContext provides common command dependencies.
// Eliminates repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
	Options   *CommonOptions
}

// CommandHandler is a function that executes with initialized dependencies.
// Commands focus on business logic, not infrastructure setup.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization.
// Handles common setup: flag binding, project loading, redacting logger.
func withContainer(opts *CommonOptions, handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		opts.Load()
		if err := opts.ValidateFlags(); err != nil {
			return err
		}

		c, err := container.New(container.Options{
			ProjectPath:    projectFile,
			UserConfigPath: cfgFile,
			LogOutput:      os.Stderr,
			LogLevel:       opts.LogLevel(),
			Runtime:        opts.RuntimeConfig(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer func() {
			if err := c.Close(); err != nil {
				c.Logger().Warn("failed to release resources", "error", err)
			}
		}()
		slog.SetDefault(c.Logger())

		ctx, cancel := opts.ApplyToContext(cmd.Context())
		defer cancel()

		return handler(&CommandContext{
			Container: c,
			Logger:    c.Logger(),
			Context:   ctx,
			Options:   opts,
		}, cmd, args)
	}
}

// Formatter opens the output destination and returns a formatter for the
// selected format. The returned func closes the destination.
func (c *CommandContext) Formatter() (ports.OutputFormatter, func() error, error) {
	var w io.Writer = os.Stdout
	closeFn := func() error { return nil }
	if c.Options.Output != "" {
		//nolint:gosec // G304: User-controlled output file path is intentional
		file, err := os.Create(c.Options.Output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w, closeFn = file, file.Close
		c.Logger.Debug("writing output", "file", c.Options.Output, "format", c.Options.Format)
	}

	// Everything printed passes through the redactor
	w = redaction.NewWriter(w, c.Container.Redactor())

	f, err := c.Container.Formatters().Create(c.Options.Format, w, ports.FormatterOptions{
		Indent: true,
		Color:  c.Options.Output == "" && isTerminal(os.Stdout),
	})
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return f, closeFn, nil
}

// render formats a response with the selected formatter.
func (c *CommandContext) render(format func(ports.OutputFormatter) error) error {
	f, closeFn, err := c.Formatter()
	if err != nil {
		return err
	}
	if err := format(f); err != nil {
		_ = closeFn()
		return fmt.Errorf("failed to format output: %w", err)
	}
	return closeFn()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
