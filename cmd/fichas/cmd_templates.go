package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/itemforge/fichas/internal/config"
	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/prompts"
)

func newTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and export prompt templates",
	}
	cmd.AddCommand(newTemplatesCheckCommand())
	cmd.AddCommand(newTemplatesExportCommand())
	return cmd
}

func newTemplatesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <fichas.yaml>",
		Short: "Load the job's prompt templates and check their placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, jobDir, err := loadJob(args[0])
			if err != nil {
				return err
			}
			env := loadEnv(jobDir)
			cfg := config.NewRunConfig(spec, config.WithJobDir(jobDir), config.WithEnv(env))

			set, err := loadPrompts(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stages := prompts.RequiredStages(set.Paraphrase())
			fmt.Fprintf(out, "Templates for schema %s (%s):\n", spec.Schema, spec.Templates.Source)
			for _, stage := range stages {
				fmt.Fprintf(out, "  ✓ %s\n", stage)
			}
			return nil
		},
	}
}

func newTemplatesExportCommand() *cobra.Command {
	var (
		schema string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the built-in prompt templates to a directory for editing",
		Long: `Write the built-in prompt templates of a schema version as <stage>.txt files.
Point a job at the directory with templates.source: dir to use edited copies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := models.ParseSchemaVersion(schema)
			if err != nil {
				return models.NewConfigError("--schema", err)
			}
			texts, err := prompts.Defaults(version)
			if err != nil {
				return err
			}

			dir := args[0]
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}

			names := make([]string, 0, len(texts))
			for name := range texts {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				path := filepath.Join(dir, name+".txt")
				if _, err := os.Stat(path); err == nil && !force {
					fmt.Fprintf(out, "  skip %s (already exists, use --force to overwrite)\n", path)
					continue
				} else if err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
				if err := os.WriteFile(path, []byte(texts[name]), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(out, "  create %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", string(models.DefaultSchema), "Schema version of the templates (v1, v2)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}
