// Package cmd provides the CLI commands for availd.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/availd-io/availd/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "availd",
	Short: "availd - availability policy engine",
	Long: `availd answers one question for a subject and a moment in time:
is the subject available?

Availability is computed from an ordered set of persisted rules that allow
or deny the moment. Rules are evaluated in priority-ascending order and the
last matching rule wins.

Quick start:
  1. Seed a store: availd seed --file rules.yaml
  2. Ask:          availd check --subject-type room --subject-id 42

Configuration:
  Config is loaded from availd.yaml in the current directory,
  $HOME/.availd/, or /etc/availd/.

  Environment variables can override config values with the AVAILD_ prefix.
  Example: AVAILD_STORE_DRIVER=sqlite`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./availd.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
