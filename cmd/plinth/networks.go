package main

import (
	"github.com/plinth-dev/plinth/internal/application/dto"
	"github.com/plinth-dev/plinth/internal/application/ports"
	"github.com/spf13/cobra"
)

var networksOpts = DefaultCommonOptions()

// networksCmd lists the configured networks.
var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the networks configured in the project",
	Args:  cobra.NoArgs,
	RunE: withContainer(&networksOpts, func(ctx *CommandContext, _ *cobra.Command, _ []string) error {
		resp := ctx.Container.NetworkService().Networks()
		return ctx.render(func(f ports.OutputFormatter) error { return f.FormatNetworks(resp) })
	}),
}

var (
	accountsOpts    = DefaultCommonOptions()
	accountsNetwork string
)

// accountsCmd lists the sender accounts of a network.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the accounts a network's credential unlocks",
	Args:  cobra.NoArgs,
	RunE: withContainer(&accountsOpts, func(ctx *CommandContext, _ *cobra.Command, _ []string) error {
		resp, err := ctx.Container.NetworkService().Accounts(ctx.Context, dto.AccountsRequest{Network: accountsNetwork})
		if err != nil {
			return err
		}
		return ctx.render(func(f ports.OutputFormatter) error { return f.FormatAccounts(resp) })
	}),
}

func init() {
	rootCmd.AddCommand(networksCmd)
	networksOpts.RegisterFlags(networksCmd)

	rootCmd.AddCommand(accountsCmd)
	accountsOpts.RegisterFlags(accountsCmd)
	accountsCmd.Flags().StringVarP(&accountsNetwork, "network", "n", "", "Network (default: the project's defaultNetwork)")
}
