package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/itemforge/fichas/internal/validation"
	"github.com/itemforge/fichas/internal/wizard"
)

const jobFileName = "fichas.yaml"

func newInitCommand() *cobra.Command {
	var (
		name   string
		input  string
		engine string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a fichas.yaml job file",
		Long: `Create a fichas.yaml job file in the given directory.

Without --name and --input a guided wizard asks for the job settings.
With both flags the job is written with default settings and no prompts.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}

			path := filepath.Join(dir, jobFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			defaults := wizard.DefaultAnswers()
			if engine != "" {
				defaults.Engine = engine
			}

			var answers *wizard.JobAnswers
			if name != "" && input != "" {
				defaults.Name = name
				defaults.Input = input
				if err := defaults.Validate(); err != nil {
					return err
				}
				answers = &defaults
			} else {
				defaults.Name = name
				defaults.Input = input
				a, err := wizard.RunJobWizard(cmd.InOrStdin(), cmd.OutOrStdout(), defaults)
				if err != nil {
					return fmt.Errorf("wizard failed: %w", err)
				}
				answers = a
			}

			content, err := wizard.GenerateJobYAML(answers)
			if err != nil {
				return err
			}
			if err := validation.CheckJobBytes([]byte(content)); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  create %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Job name (skips the wizard together with --input)")
	cmd.Flags().StringVar(&input, "input", "", "Input table (skips the wizard together with --name)")
	cmd.Flags().StringVar(&engine, "engine", "", "Generation engine")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing fichas.yaml")

	return cmd
}
