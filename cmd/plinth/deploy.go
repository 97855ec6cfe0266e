package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/plinth-dev/plinth/internal/application/services"
	"github.com/spf13/cobra"
)

// stepFilterFlags are shared by graph and deploy.
type stepFilterFlags struct {
	parameterSet string
	filterExpr   string
	steps        []string
	tags         []string
	contracts    []string
	includeDeps  bool
}

func (f *stepFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.parameterSet, "parameters", "", "Parameter set to bind (default: the module's default set)")
	cmd.Flags().StringVar(&f.filterExpr, "filter", "", "Advanced filter expression (e.g. \"'core' in tags\")")
	cmd.Flags().StringSliceVar(&f.steps, "step", nil, "Run only these steps by label (comma-separated)")
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "Run steps with these tags (comma-separated)")
	cmd.Flags().StringSliceVar(&f.contracts, "contract", nil, "Run steps deploying these contracts (comma-separated)")
	cmd.Flags().BoolVar(&f.includeDeps, "include-dependencies", false, "Include dependencies of selected steps")
}

func (f *stepFilterFlags) options() dto.FilterOptions {
	return dto.FilterOptions{
		FilterExpression:    f.filterExpr,
		Steps:               f.steps,
		Tags:                f.tags,
		Contracts:           f.contracts,
		IncludeDependencies: f.includeDeps,
	}
}

var (
	graphOpts    = DefaultCommonOptions()
	graphFilters stepFilterFlags
)

// graphCmd prints the execution order of a module.
var graphCmd = &cobra.Command{
	Use:   "graph <module.yaml>",
	Short: "Show the execution order of a deployment module",
	Long: `Bind a parameter set, build the dependency graph of the module and
print its steps level by level. Steps on the same level have no
dependencies between them and are deployed in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: withContainer(&graphOpts, func(ctx *CommandContext, _ *cobra.Command, args []string) error {
		resp, err := ctx.Container.DeploymentService().Graph(ctx.Context, dto.GraphRequest{
			ModulePath:   args[0],
			ParameterSet: graphFilters.parameterSet,
			Filters:      graphFilters.options(),
		})
		if err != nil {
			return err
		}
		return ctx.render(func(f ports.OutputFormatter) error { return f.FormatGraph(resp) })
	}),
}

var (
	deployOpts    = DefaultCommonOptions()
	deployFilters stepFilterFlags
	deployNetwork string
)

// deployCmd executes a module against a network.
var deployCmd = &cobra.Command{
	Use:   "deploy <module.yaml>",
	Short: "Deploy a module to a network",
	Long: `Deploy the steps of a module in dependency order. Steps already
recorded complete in the journal for this network are reused, so running
the same command again after a failure only deploys what is missing.

Filtering:
  --step token,vault            Deploy only these steps
  --tags core                   Deploy steps with the 'core' tag
  --contract Vault              Deploy steps of the Vault contract
  --filter "'core' in tags"     Advanced filtering expression
  --include-dependencies        Include dependencies of selected steps

Deploying to a network not marked local asks for confirmation first;
pass --yes (or PLINTH_YES=true) to skip it.`,
	Args: cobra.ExactArgs(1),
	RunE: withContainer(&deployOpts, func(ctx *CommandContext, _ *cobra.Command, args []string) error {
		resp, runErr := ctx.Container.DeploymentService().Deploy(ctx.Context, dto.DeployRequest{
			ModulePath:   args[0],
			Network:      deployNetwork,
			ParameterSet: deployFilters.parameterSet,
			Filters:      deployFilters.options(),
			Execution: dto.ExecutionOptions{
				Concurrency:   ctx.Options.Concurrency,
				HaltOnFailure: ctx.Options.HaltOnFailure,
				AssumeYes:     ctx.Options.AssumeYes,
			},
			Metadata: dto.RequestMetadata{RequestID: uuid.NewString()},
		})
		if errors.Is(runErr, services.ErrDeploymentDeclined) {
			ctx.Logger.Info("deployment cancelled")
			return errReported
		}
		if resp == nil {
			return runErr
		}

		if err := ctx.render(func(f ports.OutputFormatter) error { return f.FormatDeploy(resp) }); err != nil {
			return err
		}
		if runErr != nil {
			ctx.Logger.Debug("deployment incomplete", "error", runErr)
			sum := resp.Result.Summary
			return fmt.Errorf("deployment incomplete: %d failed, %d blocked, %d cancelled: %w",
				sum.Failed, sum.Blocked, sum.Cancelled, errReported)
		}
		return nil
	}),
}

var (
	statusOpts    = DefaultCommonOptions()
	statusNetwork string
)

// statusCmd prints the journal of a module.
var statusCmd = &cobra.Command{
	Use:   "status <module.yaml>",
	Short: "Show what the journal records for a module on a network",
	Args:  cobra.ExactArgs(1),
	RunE: withContainer(&statusOpts, func(ctx *CommandContext, _ *cobra.Command, args []string) error {
		resp, err := ctx.Container.DeploymentService().Status(ctx.Context, dto.StatusRequest{
			ModulePath: args[0],
			Network:    statusNetwork,
		})
		if err != nil {
			return err
		}
		return ctx.render(func(f ports.OutputFormatter) error { return f.FormatStatus(resp) })
	}),
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphOpts.RegisterFlags(graphCmd)
	graphFilters.register(graphCmd)

	rootCmd.AddCommand(deployCmd)
	deployOpts.RegisterFlags(deployCmd)
	deployOpts.RegisterExecutionFlags(deployCmd, true)
	deployFilters.register(deployCmd)
	deployCmd.Flags().StringVarP(&deployNetwork, "network", "n", "", "Target network (default: the project's defaultNetwork)")

	rootCmd.AddCommand(statusCmd)
	statusOpts.RegisterFlags(statusCmd)
	statusCmd.Flags().StringVarP(&statusNetwork, "network", "n", "", "Network (default: the project's defaultNetwork)")
}
