package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	projectFile string
	verbose     bool
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "plinth",
	Short: "Build and deploy Solidity projects",
	Long: `Plinth resolves the compiler settings of every Solidity unit in a
project, compiles them, and deploys declarative modules of contracts to
EVM networks in dependency order. Every deployed step is journaled, so an
interrupted deployment resumes where it stopped.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			slog.Error("command failed", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "user config file (default is $HOME/.plinth/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectFile, "project", "p", "plinth.yaml", "project file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// initConfig lets PLINTH_* environment variables stand in for flags,
// e.g. PLINTH_FORMAT=json or PLINTH_YES=true.
func initConfig() {
	viper.SetEnvPrefix("plinth")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func logLevel() slog.Level {
	if verbose || viper.GetBool("verbose") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func setupLogging() {
	// Using TextHandler for CLI friendliness. Commands that load a
	// project replace this with a redacting logger.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)
}
