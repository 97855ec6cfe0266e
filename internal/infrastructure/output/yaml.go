package output

import (
	"io"

	"github.com/goccy/go-yaml"
	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/application/ports"
)

// YAMLFormatter formats responses as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

func (f *YAMLFormatter) encode(v any) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))

	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}

// FormatPlan writes the build plan.
func (f *YAMLFormatter) FormatPlan(resp *dto.PlanResponse) error { return f.encode(resp) }

// FormatBuild writes the build result.
func (f *YAMLFormatter) FormatBuild(resp *dto.BuildResponse) error { return f.encode(resp) }

// FormatGraph writes the execution graph.
func (f *YAMLFormatter) FormatGraph(resp *dto.GraphResponse) error { return f.encode(resp) }

// FormatDeploy writes the deployment result.
func (f *YAMLFormatter) FormatDeploy(resp *dto.DeployResponse) error { return f.encode(resp.Result) }

// FormatStatus writes the journal status.
func (f *YAMLFormatter) FormatStatus(resp *dto.StatusResponse) error { return f.encode(resp) }

// FormatNetworks writes the network list.
func (f *YAMLFormatter) FormatNetworks(resp *dto.NetworksResponse) error { return f.encode(resp) }

// FormatAccounts writes the account list.
func (f *YAMLFormatter) FormatAccounts(resp *dto.AccountsResponse) error { return f.encode(resp) }

// Ensure interface compliance
var _ ports.OutputFormatter = (*YAMLFormatter)(nil)
