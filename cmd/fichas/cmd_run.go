package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/itemforge/fichas/internal/checkpoint"
	"github.com/itemforge/fichas/internal/config"
	"github.com/itemforge/fichas/internal/dataset"
	"github.com/itemforge/fichas/internal/docgen"
	"github.com/itemforge/fichas/internal/generation"
	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/pipeline"
	"github.com/itemforge/fichas/internal/prompts"
	"github.com/itemforge/fichas/internal/telemetry"
)

var (
	inputPath     string
	outputPath    string
	modelOverride string
	engineFlag    string
	workers       int
	noCheckpoint  bool
	checkpointDir string
	metricsFile   string
	traceFile     string
	assemble      bool
	verbose       bool
	rowRange      string
	reportPath    string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <fichas.yaml>",
		Short: "Enrich a table of items",
		Long: `Enrich every row of the job's input table with generated technical-sheet fields.

Each row goes through three dependent generation stages (analysis, synthesis,
recommendations), plus an optional paraphrase stage. Rows that fail are marked
with an error in every output column and do not stop the batch.

Finished rows are kept in the checkpoint directory, so an interrupted run
resumes where it stopped when started again with the same job.

Exit codes: 0 when every row is DONE, 1 when any row ended in ERROR or was
skipped, 2 on configuration or runtime errors.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Input table (.csv or .xlsx), overrides the job file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Enriched table to write (.csv or .xlsx)")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Override model from the job file")
	cmd.Flags().StringVar(&engineFlag, "engine", "", "Override engine from the job file (vertex, gemini, openai, copilot, mock)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of rows processed at once (0 uses the job file)")
	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "Neither restore nor save finished rows")
	cmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "Directory for finished rows, overrides the job file")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	cmd.Flags().StringVar(&traceFile, "trace-file", "", "Write trace spans as JSON lines to this file")
	cmd.Flags().BoolVar(&assemble, "assemble", false, "Render the document archive after the run")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every stage as it completes")
	cmd.Flags().StringVar(&rowRange, "rows", "", "Only process rows start-end (1-based, inclusive)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the batch result as JSON to this file")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	spec, jobDir, err := loadJob(args[0])
	if err != nil {
		return err
	}

	// CLI flags override the job file
	if modelOverride != "" {
		spec.Provider.Model = modelOverride
	}
	if engineFlag != "" {
		spec.Provider.Engine = engineFlag
	}
	if workers > 0 {
		spec.Workers = workers
	}
	env := loadEnv(jobDir)
	config.ApplyEnv(spec, env)
	if err := spec.Validate(); err != nil {
		return err
	}

	opts := []config.Option{
		config.WithJobDir(jobDir),
		config.WithEnv(env),
		config.WithVerbose(verbose),
		config.WithMetricsPath(metricsFile),
		config.WithTracePath(traceFile),
	}
	if inputPath != "" {
		opts = append(opts, config.WithInputPath(inputPath))
	}
	if outputPath != "" {
		opts = append(opts, config.WithOutputPath(outputPath))
	}
	if checkpointDir != "" {
		opts = append(opts, config.WithCheckpointDir(checkpointDir))
	}
	cfg := config.NewRunConfig(spec, opts...)

	return runJob(cmd, cfg)
}

func runJob(cmd *cobra.Command, cfg *config.RunConfig) error {
	spec := cfg.Spec()
	out := cmd.OutOrStdout()
	log := appLog.With("job", spec.Name, "dir", cfg.JobDir())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracePath() != "" {
		if err := ensureParentDir(cfg.TracePath()); err != nil {
			return err
		}
		f, err := os.Create(cfg.TracePath())
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		defer f.Close()
		shutdown, err := telemetry.SetupTracing(f)
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				log.Warn("flushing traces failed", "error", err)
			}
		}()
	}
	metrics := telemetry.NewMetrics()

	set, err := loadPrompts(ctx, cfg)
	if err != nil {
		log.Error("loading prompt templates failed", "error", err)
		return err
	}

	table, err := dataset.Load(cfg.InputPath(), spec.Sheet)
	if err != nil {
		return models.NewConfigError("loading input table", err)
	}
	if rowRange != "" {
		start, end, err := parseRowRange(rowRange)
		if err != nil {
			return models.NewConfigError("--rows", err)
		}
		if table, err = table.Range(start, end); err != nil {
			return models.NewConfigError("--rows", err)
		}
	}
	log.Info("input loaded", "path", cfg.InputPath(), "rows", table.Len(), "schema", spec.Schema)

	engine, err := generation.New(cfg.EngineConfig())
	if err != nil {
		return models.NewConfigError("creating generator", err)
	}
	gen := generation.WithPolicy(engine, cfg.Policy(),
		generation.WithMetrics(metrics),
		generation.WithLogger(log),
		generation.WithLabels(spec.Provider.Engine, spec.Provider.Model),
	)

	rc := pipeline.NewRunContext(spec.Name, spec.Provider.Engine, spec.Provider.Model, set)
	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithWorkers(spec.Workers),
		pipeline.WithIDColumn(spec.IDColumn),
		pipeline.WithMetrics(metrics),
		pipeline.WithLogger(log),
	}
	if dir := cfg.CheckpointDir(); dir != "" && !noCheckpoint {
		runnerOpts = append(runnerOpts, pipeline.WithCheckpoint(checkpoint.New(dir)))
	}
	runner := pipeline.NewRunner(rc, gen, runnerOpts...)
	if cfg.Verbose() {
		runner.OnProgress(verboseProgressListener(out))
	} else {
		runner.OnProgress(simpleProgressListener(out))
	}

	result, err := runner.Run(ctx, table)
	if err != nil {
		log.Error("batch did not start", "error", err)
		return err
	}

	// The table is written whatever the batch outcome, so partial work is kept
	if err := writeTable(cfg.OutputPath(), table); err != nil {
		return err
	}
	fmt.Fprintf(out, "Enriched table saved to: %s\n", cfg.OutputPath())

	if reportPath != "" {
		if err := saveResult(result, reportPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Batch report saved to: %s\n", reportPath)
	}

	if assemble {
		report, err := assembleDocuments(ctx, cfg, table)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Documents saved to: %s (%d)\n", report.Archive, len(report.Entries))
	}

	if cfg.MetricsPath() != "" {
		if err := ensureParentDir(cfg.MetricsPath()); err != nil {
			return err
		}
		if err := metrics.WriteTextfile(cfg.MetricsPath()); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	printSummary(out, result)

	if !result.Succeeded() {
		return &IncompleteBatchError{
			Message: fmt.Sprintf("batch incomplete: %d errored, %d skipped of %d rows",
				result.Digest.Errored, result.Digest.Skipped, result.Digest.Rows),
		}
	}
	return nil
}

func loadPrompts(ctx context.Context, cfg *config.RunConfig) (*prompts.Set, error) {
	spec := cfg.Spec()
	tc := spec.Templates
	tc.Location = cfg.TemplateLocation()
	store, err := prompts.OpenStore(ctx, tc, spec.Schema, cfg.TemplateOptions()...)
	if err != nil {
		return nil, err
	}
	return prompts.Load(ctx, store, spec.Schema, tc.Paraphrase)
}

func writeTable(path string, t *dataset.Table) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := dataset.Write(path, t); err != nil {
		return fmt.Errorf("writing enriched table: %w", err)
	}
	return nil
}

func assembleDocuments(ctx context.Context, cfg *config.RunConfig, t *dataset.Table) (*docgen.Report, error) {
	spec := cfg.Spec()
	if spec.Documents.Template == "" {
		return nil, models.NewConfigError("documents.template", fmt.Errorf("no document template configured"))
	}
	if err := ensureParentDir(cfg.ArchivePath()); err != nil {
		return nil, err
	}
	return docgen.Assemble(ctx, t, docgen.Options{
		Template:   cfg.DocumentTemplate(),
		Archive:    cfg.ArchivePath(),
		NameColumn: spec.Documents.NameColumn,
		PlainText:  spec.Documents.PlainText,
		Logger:     appLog,
	})
}

// parseRowRange parses "start-end" or a single row number.
func parseRowRange(s string) (int, int, error) {
	first, last, found := strings.Cut(strings.TrimSpace(s), "-")
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid row range %q", s)
	}
	if !found {
		return start, start, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid row range %q", s)
	}
	return start, end, nil
}

func saveResult(result *models.BatchResult, path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
