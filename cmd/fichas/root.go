package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itemforge/fichas/internal/logger"
)

var version = "dev"

// appLog is replaced by the root command once flags are parsed.
var appLog = logger.Nop()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fichas",
		Short: "fichas - enrich assessment-item tables with generated technical sheets",
		Long: `fichas reads a table of assessment items, asks a language model to analyse
each item in three dependent steps, writes the generated fields back into the
table and can render one document per item into a zip archive.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	logFormat := cmd.PersistentFlags().String("log-format", "console", "Log format: console, json")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		switch *logFormat {
		case "console", "json":
		default:
			return fmt.Errorf("unknown log format %q (supported: console, json)", *logFormat)
		}
		l, err := logger.New(*logFormat, *debugLogging)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		appLog = l
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newAssembleCommand())
	cmd.AddCommand(newTemplatesCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCheckpointCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
