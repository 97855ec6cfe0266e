package output

import (
	"encoding/json"
	"io"

	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/application/ports"
)

// JSONFormatter formats responses as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output will be pretty-printed with indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

func (f *JSONFormatter) encode(v any) error {
	var data []byte
	var err error

	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err := f.writer.Write(data); err != nil {
		return err
	}

	// Add newline for better terminal output
	_, err = f.writer.Write([]byte("\n"))
	return err
}

// FormatPlan writes the build plan.
func (f *JSONFormatter) FormatPlan(resp *dto.PlanResponse) error { return f.encode(resp) }

// FormatBuild writes the build result.
func (f *JSONFormatter) FormatBuild(resp *dto.BuildResponse) error { return f.encode(resp) }

// FormatGraph writes the execution graph.
func (f *JSONFormatter) FormatGraph(resp *dto.GraphResponse) error { return f.encode(resp) }

// FormatDeploy writes the deployment result.
func (f *JSONFormatter) FormatDeploy(resp *dto.DeployResponse) error { return f.encode(resp.Result) }

// FormatStatus writes the journal status.
func (f *JSONFormatter) FormatStatus(resp *dto.StatusResponse) error { return f.encode(resp) }

// FormatNetworks writes the network list.
func (f *JSONFormatter) FormatNetworks(resp *dto.NetworksResponse) error { return f.encode(resp) }

// FormatAccounts writes the account list.
func (f *JSONFormatter) FormatAccounts(resp *dto.AccountsResponse) error { return f.encode(resp) }

// Ensure interface compliance
var _ ports.OutputFormatter = (*JSONFormatter)(nil)
