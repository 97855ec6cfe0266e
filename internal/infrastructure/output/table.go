package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/execution"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter formats responses as human-readable tables.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true, // Default to true, caller can disable
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) rule() {
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 80), colorGray))
}

// FormatPlan writes the effective profile of every unit.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatPlan(resp *dto.PlanResponse) error {
	f.rule()
	fmt.Fprintf(f.writer, "Build plan %s\n", f.colorize(resp.Digest, colorBold))
	fmt.Fprintln(f.writer)

	if len(resp.Units) == 0 {
		fmt.Fprintln(f.writer, "No compilation units found.")
		return nil
	}

	for _, u := range resp.Units {
		source := u.Source
		if source == "override" {
			source = f.colorize(source, colorCyan)
		} else {
			source = f.colorize(source, colorGray)
		}
		fmt.Fprintf(f.writer, "  %-48s %s  %s  %s\n", u.Unit, u.Version, describeOptimizer(u), source)
	}

	if len(resp.Groups) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, f.colorize("Groups:", colorBold))
		for _, g := range resp.Groups {
			fmt.Fprintf(f.writer, "  %s (%d units)\n", g.Profile, len(g.Units))
		}
	}

	for _, s := range resp.Stale {
		fmt.Fprintf(f.writer, "%s override for %s matches no unit\n", f.colorize("warning:", colorYellow), s)
	}
	f.rule()
	return nil
}

func describeOptimizer(u dto.PlanUnit) string {
	var parts []string
	switch {
	case !u.Optimizer:
		parts = append(parts, "optimizer off")
	case u.Runs != nil:
		parts = append(parts, fmt.Sprintf("optimizer %d runs", *u.Runs))
	default:
		parts = append(parts, "optimizer on")
	}
	if u.EVMVersion != "" {
		parts = append(parts, "evm "+u.EVMVersion)
	}
	if u.ViaIR {
		parts = append(parts, "via-ir")
	}
	return strings.Join(parts, ", ")
}

// FormatBuild writes one line per unit and a summary.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatBuild(resp *dto.BuildResponse) error {
	f.rule()
	for _, u := range resp.Units {
		var status string
		switch u.Status {
		case dto.UnitCompiled:
			status = f.colorize("✓ COMPILED", colorGreen)
		case dto.UnitCached:
			status = f.colorize("• CACHED  ", colorGray)
		default:
			status = f.colorize("✗ FAILED  ", colorRed)
		}
		fmt.Fprintf(f.writer, "%s  %s (solc %s, %s)\n", status, u.Unit, u.Version, u.Duration.Round(time.Millisecond))
		if u.Error != "" {
			for _, line := range strings.Split(u.Error, "\n") {
				fmt.Fprintf(f.writer, "    %s\n", line)
			}
		}
	}
	f.rule()
	fmt.Fprintf(f.writer, "Compiled: %s  Cached: %d  Failed: %s\n",
		f.colorize(fmt.Sprintf("%d", resp.Compiled), colorGreen),
		resp.Cached,
		f.colorize(fmt.Sprintf("%d", resp.Failed), colorRed),
	)
	return nil
}

// FormatGraph writes the execution order grouped by level.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatGraph(resp *dto.GraphResponse) error {
	f.rule()
	header := "Module: " + f.colorize(resp.Module, colorBold)
	if resp.ParameterSet != "" {
		header += " (parameters: " + resp.ParameterSet + ")"
	}
	fmt.Fprintln(f.writer, header)
	fmt.Fprintln(f.writer)

	if len(resp.Steps) == 0 {
		fmt.Fprintln(f.writer, "No steps selected.")
		return nil
	}

	byLabel := make(map[string]dto.GraphStep, len(resp.Steps))
	for _, s := range resp.Steps {
		byLabel[s.Label] = s
	}

	for level, labels := range resp.Levels {
		fmt.Fprintln(f.writer, f.colorize(fmt.Sprintf("Level %d:", level), colorBold))
		for _, label := range labels {
			s := byLabel[label]
			fmt.Fprintf(f.writer, "  %s %s\n", f.colorize(s.Label, colorBlue), f.colorize("("+s.Contract+")", colorGray))
			if len(s.DependsOn) > 0 {
				fmt.Fprintf(f.writer, "    after: %s\n", strings.Join(s.DependsOn, ", "))
			}
			if len(s.Tags) > 0 {
				fmt.Fprintf(f.writer, "    tags: %s\n", strings.Join(s.Tags, ", "))
			}
		}
	}
	f.rule()
	return nil
}

// FormatDeploy writes the outcome of every step and the run summary.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatDeploy(resp *dto.DeployResponse) error {
	result := resp.Result
	if result == nil {
		return nil
	}

	f.rule()
	fmt.Fprintf(f.writer, "Module: %s  Network: %s\n", f.colorize(result.Module, colorBold), f.colorize(result.Network, colorBold))
	fmt.Fprintf(f.writer, "Run: %s\n", result.RunID)
	fmt.Fprintf(f.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	if len(result.Steps) == 0 {
		fmt.Fprintln(f.writer, "No steps executed.")
		return nil
	}

	steps := append([]execution.StepResult(nil), result.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Index < steps[j].Index })

	for _, s := range steps {
		fmt.Fprintf(f.writer, "%s  %s (%s)", f.outcomeLabel(s.Outcome), s.Label, s.Contract)
		if s.Handle != "" {
			fmt.Fprintf(f.writer, " %s", f.colorize(s.Handle, colorCyan))
		}
		fmt.Fprintln(f.writer)
		if s.Message != "" && !s.Outcome.IsSuccess() {
			fmt.Fprintf(f.writer, "    %s\n", s.Message)
		}
	}

	f.rule()
	sum := result.Summary
	fmt.Fprintf(f.writer, "Total: %d  Deployed: %s  Reused: %d  Failed: %s  Blocked: %d  Cancelled: %d\n",
		sum.Total,
		f.colorize(fmt.Sprintf("%d", sum.Deployed), colorGreen),
		sum.Reused,
		f.colorize(fmt.Sprintf("%d", sum.Failed), colorRed),
		sum.Blocked,
		sum.Cancelled,
	)
	return nil
}

func (f *TableFormatter) outcomeLabel(o execution.Outcome) string {
	switch o {
	case execution.OutcomeDeployed:
		return f.colorize("✓ DEPLOYED ", colorGreen)
	case execution.OutcomeReused:
		return f.colorize("• REUSED   ", colorGray)
	case execution.OutcomeFailed:
		return f.colorize("✗ FAILED   ", colorRed)
	case execution.OutcomeBlocked:
		return f.colorize("⊘ BLOCKED  ", colorYellow)
	default:
		return f.colorize("- CANCELLED", colorYellow)
	}
}

// FormatStatus writes the journal of a module on one network.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatStatus(resp *dto.StatusResponse) error {
	f.rule()
	fmt.Fprintf(f.writer, "Module: %s  Network: %s\n", f.colorize(resp.Module, colorBold), f.colorize(resp.Network, colorBold))
	fmt.Fprintln(f.writer)

	for _, s := range resp.Steps {
		var status string
		switch s.Status {
		case string(values.StepComplete):
			status = f.colorize(fmt.Sprintf("%-12s", s.Status), colorGreen)
		case string(values.StepFailed):
			status = f.colorize(fmt.Sprintf("%-12s", s.Status), colorRed)
		case string(values.StepPending):
			status = f.colorize(fmt.Sprintf("%-12s", s.Status), colorYellow)
		default:
			status = f.colorize(fmt.Sprintf("%-12s", s.Status), colorGray)
		}
		line := fmt.Sprintf("  %s %-24s %-24s %s", status, s.Label, s.Contract, s.Handle)
		fmt.Fprintln(f.writer, strings.TrimRight(line, " "))
		if !s.Declared {
			fmt.Fprintf(f.writer, "    %s\n", f.colorize("no longer declared by the module", colorGray))
		}
		if s.Error != "" {
			fmt.Fprintf(f.writer, "    %s\n", s.Error)
		}
	}
	f.rule()

	keys := make([]string, 0, len(resp.Counts))
	for k := range resp.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, resp.Counts[k]))
	}
	fmt.Fprintln(f.writer, strings.Join(parts, "  "))
	return nil
}

// FormatNetworks writes the configured networks.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatNetworks(resp *dto.NetworksResponse) error {
	if len(resp.Networks) == 0 {
		fmt.Fprintln(f.writer, "No networks configured.")
		return nil
	}
	for _, n := range resp.Networks {
		name := n.Name
		if n.Default {
			name += " (default)"
		}
		fmt.Fprintf(f.writer, "%s\n", f.colorize(name, colorBold))
		fmt.Fprintf(f.writer, "  url: %s\n", n.URL)
		if n.ChainID != 0 {
			fmt.Fprintf(f.writer, "  chain id: %d\n", n.ChainID)
		}
		if n.Credential != "" {
			fmt.Fprintf(f.writer, "  credential: %s (%d accounts)\n", n.Credential, n.Accounts)
		}
		if n.Confirmations > 0 {
			fmt.Fprintf(f.writer, "  confirmations: %d\n", n.Confirmations)
		}
		if n.Local {
			fmt.Fprintln(f.writer, "  local: true")
		}
	}
	return nil
}

// FormatAccounts writes the accounts unlocked on a network.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) FormatAccounts(resp *dto.AccountsResponse) error {
	fmt.Fprintf(f.writer, "Network: %s\n", f.colorize(resp.Network, colorBold))
	for _, a := range resp.Accounts {
		fmt.Fprintf(f.writer, "  [%d] %s\n", a.Index, a.Address)
	}
	return nil
}

// Ensure interface compliance
var _ ports.OutputFormatter = (*TableFormatter)(nil)
