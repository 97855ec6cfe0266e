// Package solc compiles Solidity units by driving solc in standard-JSON mode.
package solc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/domain/entities"
	"github.com/plinth-dev/plinth/internal/domain/values"
)

// Input is the standard-JSON request document.
type Input struct {
	Language string            `json:"language"`
	Sources  map[string]Source `json:"sources"`
	Settings Settings          `json:"settings"`
}

// Source is one source file given inline.
type Source struct {
	Content string `json:"content"`
}

// Settings carries the codegen options of a compiler profile.
type Settings struct {
	EVMVersion      string                         `json:"evmVersion,omitempty"`
	Optimizer       Optimizer                      `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
	ViaIR           bool                           `json:"viaIR,omitempty"`
}

// Optimizer mirrors the optimizer section. Runs is omitted when the
// profile does not set it so solc applies its own default.
type Optimizer struct {
	Runs    *uint `json:"runs,omitempty"`
	Enabled bool  `json:"enabled"`
}

// Output is the subset of the standard-JSON response we read.
type Output struct {
	Errors    []Diagnostic                           `json:"errors"`
	Contracts map[string]map[string]CompiledContract `json:"contracts"`
}

// Diagnostic is one compiler message.
type Diagnostic struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

// CompiledContract is the output for one contract.
type CompiledContract struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
		DeployedBytecode struct {
			Object string `json:"object"`
		} `json:"deployedBytecode"`
	} `json:"evm"`
}

var outputSelection = map[string]map[string][]string{
	"*": {
		"*": {"abi", "evm.bytecode.object", "evm.deployedBytecode.object"},
	},
}

// NewInput builds the request for one unit compiled with one profile.
// The unit's content is read from root.
func NewInput(root string, unit values.UnitID, profile entities.CompilerProfile) (*Input, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("open project root: %w", err)
	}
	defer r.Close()

	f, err := r.Open(unit.String())
	if err != nil {
		return nil, fmt.Errorf("open unit %s: %w", unit, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read unit %s: %w", unit, err)
	}

	return &Input{
		Language: "Solidity",
		Sources: map[string]Source{
			unit.String(): {Content: string(content)},
		},
		Settings: SettingsFor(profile),
	}, nil
}

// SettingsFor translates a compiler profile into standard-JSON settings.
func SettingsFor(profile entities.CompilerProfile) Settings {
	s := Settings{
		EVMVersion:      profile.EVMVersion,
		ViaIR:           profile.ViaIR,
		OutputSelection: outputSelection,
		Optimizer:       Optimizer{Enabled: profile.Optimizer.Enabled},
	}
	if profile.Optimizer.Runs != nil {
		runs := *profile.Optimizer.Runs
		s.Optimizer.Runs = &runs
	}
	return s
}

// Failed reports whether any diagnostic is an error.
func (o *Output) Failed() bool {
	for _, d := range o.Errors {
		if d.Severity == "error" {
			return true
		}
	}
	return false
}

// ErrorText joins the formatted error diagnostics as solc printed them.
func (o *Output) ErrorText() string {
	var msgs []string
	for _, d := range o.Errors {
		if d.Severity != "error" {
			continue
		}
		msg := d.FormattedMessage
		if msg == "" {
			msg = d.Type + ": " + d.Message
		}
		msgs = append(msgs, strings.TrimRight(msg, "\n"))
	}
	return strings.Join(msgs, "\n")
}

// Artifacts returns the contracts defined in unit, sorted by name.
// Contracts of imported files are not included.
func (o *Output) Artifacts(unit values.UnitID, profile entities.CompilerProfile) []ports.Artifact {
	contracts := o.Contracts[unit.String()]
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)

	digest := profile.Digest()
	out := make([]ports.Artifact, 0, len(names))
	for _, name := range names {
		c := contracts[name]
		out = append(out, ports.Artifact{
			Contract:        name,
			Unit:            unit.String(),
			CompilerVersion: profile.Version,
			ProfileDigest:   digest,
			ABI:             c.ABI,
			Bytecode:        prefixHex(c.EVM.Bytecode.Object),
			DeployedCode:    prefixHex(c.EVM.DeployedBytecode.Object),
		})
	}
	return out
}

func prefixHex(s string) string {
	if s == "" || strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}
