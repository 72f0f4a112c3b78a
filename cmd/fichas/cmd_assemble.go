package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itemforge/fichas/internal/config"
	"github.com/itemforge/fichas/internal/dataset"
	"github.com/itemforge/fichas/internal/models"
)

func newAssembleCommand() *cobra.Command {
	var (
		tablePath    string
		templatePath string
		archivePath  string
		nameColumn   string
		plainText    bool
	)

	cmd := &cobra.Command{
		Use:   "assemble <fichas.yaml>",
		Short: "Render one document per row into a zip archive",
		Long: `Render the job's document template once per row of the enriched table and
pack the documents into a zip archive. Placeholders {Column} in the template are
replaced by the row's value for that column, generated fields included.

By default the enriched table written by "fichas run" is read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, jobDir, err := loadJob(args[0])
			if err != nil {
				return err
			}
			if templatePath != "" {
				spec.Documents.Template = templatePath
			}
			if archivePath != "" {
				spec.Documents.Archive = archivePath
			}
			if nameColumn != "" {
				spec.Documents.NameColumn = nameColumn
			}
			if cmd.Flags().Changed("plain-text") {
				spec.Documents.PlainText = plainText
			}

			opts := []config.Option{config.WithJobDir(jobDir)}
			if tablePath != "" {
				opts = append(opts, config.WithOutputPath(tablePath))
			}
			cfg := config.NewRunConfig(spec, opts...)

			table, err := dataset.Load(cfg.OutputPath(), "")
			if err != nil {
				return models.NewConfigError("loading enriched table", err)
			}
			table.AdoptOutputs(models.OutputFields(spec.Schema))

			report, err := assembleDocuments(cmd.Context(), cfg, table)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Documents saved to: %s (%d)\n", report.Archive, len(report.Entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&tablePath, "table", "", "Enriched table to read (default: the job's output)")
	cmd.Flags().StringVar(&templatePath, "template", "", "Document template (.docx), overrides the job file")
	cmd.Flags().StringVar(&archivePath, "archive", "", "Zip archive to write, overrides the job file")
	cmd.Flags().StringVar(&nameColumn, "name-column", "", "Column whose value names each document")
	cmd.Flags().BoolVar(&plainText, "plain-text", false, "Convert markdown in generated fields to plain text")

	return cmd
}
