package main

import (
	"fmt"
	"path/filepath"

	"github.com/plinth-dev/plinth/internal/templates"
	"github.com/spf13/cobra"
)

var (
	initForce       bool
	initSolcVersion string
	initName        string
)

// initCmd scaffolds a new project.
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a plinth project with a sample contract and module",
	Long: `Write plinth.yaml, a sample contract and a deployment module for it.
The project targets a local development node at 127.0.0.1:8545 using the
well-known development mnemonic.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		name := initName
		if name == "" {
			name = filepath.Base(abs)
		}
		data := templates.DefaultProjectData(name)
		if initSolcVersion != "" {
			data.SolcVersion = initSolcVersion
		}

		written, err := templates.Render(abs, data, initForce)
		if err != nil {
			return err
		}
		for _, f := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filepath.Join(dir, f))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&initSolcVersion, "solc", "", "Default compiler version (default 0.8.28)")
	initCmd.Flags().StringVar(&initName, "name", "", "Module name (default: the directory name)")
}
