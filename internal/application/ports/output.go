package ports

import (
	"io"

	"github.com/plinth-dev/plinth/internal/application/dto"
)

// FormatterOptions configures output formatting.
type FormatterOptions struct {
	Indent bool
	Color  bool
}

// OutputFormatter renders use case responses.
type OutputFormatter interface {
	FormatPlan(resp *dto.PlanResponse) error
	FormatBuild(resp *dto.BuildResponse) error
	FormatGraph(resp *dto.GraphResponse) error
	FormatDeploy(resp *dto.DeployResponse) error
	FormatStatus(resp *dto.StatusResponse) error
	FormatNetworks(resp *dto.NetworksResponse) error
	FormatAccounts(resp *dto.AccountsResponse) error
}

// OutputFormatterFactory creates formatters by name.
type OutputFormatterFactory interface {
	Create(format string, writer io.Writer, options FormatterOptions) (OutputFormatter, error)
	SupportedFormats() []string
}
