package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefbench",
		Short: "Synthesize and evaluate contextual-preference benchmarks",
		Long: `prefbench builds multi-session benchmarks for implicit preference
inference and runs candidate models through them.

The synthesize command generates personas, context factors, session plans and
simulated dialogues, then derives evaluation instances. The evaluate command
runs a candidate model through inference and generation stages against those
instances and aggregates the scores.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	logFile := cmd.PersistentFlags().String("log_file", "log.txt", "Path to log file")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Provider keys may live in a local .env; a missing file is fine.
		_ = godotenv.Load()
		return setupLogging(*logFile, *debugLogging)
	}

	cmd.AddCommand(newSynthesizeCommand())
	cmd.AddCommand(newEvaluateCommand())

	return cmd
}

// setupLogging routes structured logs to stderr and, when configured, a log
// file shared by all workers.
func setupLogging(logFile string, debug bool) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
