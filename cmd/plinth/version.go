package main

import (
	"fmt"

	"github.com/plinth-dev/plinth/internal/version"
	"github.com/spf13/cobra"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of plinth",
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "plinth version %s\n", info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
