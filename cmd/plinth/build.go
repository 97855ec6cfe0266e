package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/spf13/cobra"
)

var planOpts = DefaultCommonOptions()

// planCmd prints the resolved build configuration.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the compiler profile of every source unit",
	Long: `Discover the project's Solidity units and print the compiler profile
each one resolves to: the per-unit override when one exists, the project
default otherwise. Units sharing an identical profile are grouped.`,
	Args: cobra.NoArgs,
	RunE: withContainer(&planOpts, func(ctx *CommandContext, _ *cobra.Command, _ []string) error {
		resp, err := ctx.Container.BuildService().Plan(ctx.Context, dto.PlanRequest{
			Metadata: dto.RequestMetadata{RequestID: uuid.NewString()},
		})
		if err != nil {
			return err
		}
		return ctx.render(func(f ports.OutputFormatter) error { return f.FormatPlan(resp) })
	}),
}

var (
	buildOpts  = DefaultCommonOptions()
	buildForce bool
)

// buildCmd compiles the project.
var buildCmd = &cobra.Command{
	Use:   "build [unit...]",
	Short: "Compile source units with their resolved profiles",
	Long: `Compile every source unit (or only the named ones) with the solc
version and settings of its resolved profile. Units whose sources and
profile are unchanged since the last build are skipped unless --force is
given. A failing unit does not stop the others.`,
	RunE: withContainer(&buildOpts, func(ctx *CommandContext, _ *cobra.Command, args []string) error {
		resp, buildErr := ctx.Container.BuildService().Build(ctx.Context, dto.BuildRequest{
			Units:       args,
			Force:       buildForce,
			Concurrency: ctx.Container.Runtime().MaxConcurrentCompile,
			Metadata:    dto.RequestMetadata{RequestID: uuid.NewString()},
		})
		if resp == nil {
			return buildErr
		}
		if err := ctx.render(func(f ports.OutputFormatter) error { return f.FormatBuild(resp) }); err != nil {
			return err
		}
		if buildErr != nil {
			ctx.Logger.Debug("compile errors", "error", buildErr)
			return fmt.Errorf("%d of %d units failed to compile: %w", resp.Failed, len(resp.Units), errReported)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(planCmd)
	planOpts.RegisterFlags(planCmd)

	rootCmd.AddCommand(buildCmd)
	buildOpts.RegisterFlags(buildCmd)
	buildOpts.RegisterExecutionFlags(buildCmd, false)
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Recompile units even when unchanged")
}
