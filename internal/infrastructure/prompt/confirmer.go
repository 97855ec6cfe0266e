// Package prompt asks the operator for confirmation on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
)

// ErrNotInteractive is returned when confirmation is needed but stdin is
// not a terminal.
var ErrNotInteractive = errors.New("confirmation required but not running interactively")

// TerminalConfirmer implements ports.Confirmer with a huh confirm field.
type TerminalConfirmer struct {
	interactive func() bool
	ask         func(ctx context.Context, title, description string) (bool, error)
	assumeYes   bool
}

// Option configures a TerminalConfirmer.
type Option func(*TerminalConfirmer)

// WithAssumeYes answers yes without asking.
func WithAssumeYes(yes bool) Option {
	return func(c *TerminalConfirmer) {
		c.assumeYes = yes
	}
}

// NewTerminalConfirmer creates a confirmer reading from the terminal.
func NewTerminalConfirmer(opts ...Option) *TerminalConfirmer {
	c := &TerminalConfirmer{
		interactive: IsInteractive,
		ask:         askHuh,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsInteractive checks if stdin is a terminal.
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	// character device, not a pipe or file
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Confirm asks a yes/no question. Aborting the prompt counts as no.
func (c *TerminalConfirmer) Confirm(ctx context.Context, title, description string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	if !c.interactive() {
		return false, fmt.Errorf("%w: %s\n\nRe-run with --yes to confirm non-interactively", ErrNotInteractive, title)
	}
	return c.ask(ctx, title, description)
}

func askHuh(ctx context.Context, title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Deploy").
			Negative("Cancel").
			Value(&ok),
	)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// DeploymentPrompt builds the title and description shown before
// deploying a module to a network.
func DeploymentPrompt(module string, network entities.NetworkProfile, from string, steps []string) (string, string) {
	title := fmt.Sprintf("Deploy %s to %s?", module, network.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "Endpoint: %s\n", network.URL)
	if network.ChainID != 0 {
		fmt.Fprintf(&b, "Chain ID: %d\n", network.ChainID)
	}
	if from != "" {
		fmt.Fprintf(&b, "Sender:   %s\n", from)
	}
	fmt.Fprintf(&b, "Steps:    %d (%s)", len(steps), strings.Join(steps, ", "))
	return title, b.String()
}

// Ensure interface compliance
var _ ports.Confirmer = (*TerminalConfirmer)(nil)
