package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/itemforge/fichas/internal/checkpoint"
	"github.com/itemforge/fichas/internal/dataset"
	"github.com/itemforge/fichas/internal/generation"
	"github.com/itemforge/fichas/internal/logger"
	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/telemetry"
)

// ErrBatchCancelled is the cause written to rows never started after cancellation.
var ErrBatchCancelled = errors.New("batch cancelled before the row started")

// Runner drives every row of a table through the row pipeline.
type Runner struct {
	rc       *RunContext
	gen      generation.Generator
	rows     *RowPipeline
	workers  int
	idColumn string

	checkpoint *checkpoint.Store
	metrics    *telemetry.Metrics
	log        *logger.Logger
	tracer     trace.Tracer

	// Progress tracking. deliverMu keeps Completed non-decreasing across workers.
	progressMu sync.Mutex
	deliverMu  sync.Mutex
	listeners  []ProgressListener
	completed  int

	// commitMu guards table outputs and the cursor
	commitMu sync.Mutex
	finished []bool

	stopOnce sync.Once
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers processes up to n rows at once. n <= 1 is sequential.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithIDColumn names the column that identifies rows.
func WithIDColumn(column string) RunnerOption {
	return func(r *Runner) {
		r.idColumn = column
	}
}

// WithCheckpoint enables restoring DONE rows and saving new ones.
func WithCheckpoint(s *checkpoint.Store) RunnerOption {
	return func(r *Runner) {
		r.checkpoint = s
	}
}

// WithMetrics records row outcomes and segmentation gaps.
func WithMetrics(m *telemetry.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// NewRunner creates a batch runner. gen should already carry its call policy.
func NewRunner(rc *RunContext, gen generation.Generator, opts ...RunnerOption) *Runner {
	r := &Runner{
		rc:       rc,
		gen:      gen,
		workers:  1,
		idColumn: models.ColItemID,
		log:      logger.Nop(),
		tracer:   telemetry.Tracer(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With("run", rc.RunID)
	r.rows = NewRowPipeline(rc, gen, r.log)
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	if event.EventType == EventRowComplete || event.EventType == EventRowCached {
		r.completed++
	}
	event.Completed = r.completed

	for _, listener := range listeners {
		listener(event)
	}
}

// Run enriches every row of table in place. Output columns are declared on
// the table and every output cell is filled, whatever the row's fate.
// A non-nil error means the batch never started; row failures are reported
// in the result.
func (r *Runner) Run(ctx context.Context, table *dataset.Table) (*models.BatchResult, error) {
	startTime := time.Now()
	fields := r.rc.OutputFields()

	if r.idColumn != "" && !table.HasColumn(r.idColumn) {
		r.log.Warn("id column not found, rows will be numbered", "column", r.idColumn)
	}

	ctx, span := r.tracer.Start(ctx, "fichas.batch", trace.WithAttributes(
		attribute.String("run.id", r.rc.RunID),
		attribute.String("schema", string(r.rc.Schema)),
		attribute.String("engine", r.rc.Engine),
		attribute.String("model", r.rc.ModelID),
		attribute.Int("rows", table.Len()),
	))
	defer span.End()

	if err := r.gen.Initialize(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, models.NewConfigError("initializing generator", err)
	}
	defer func() {
		if err := r.gen.Shutdown(context.WithoutCancel(ctx)); err != nil {
			r.log.Warn("failed to shutdown generator", "error", err)
		}
	}()

	table.SetOutputs(fields)
	records := make([]*models.RowRecord, table.Len())
	for i := range records {
		records[i] = models.NewRowRecord(i, r.idColumn, table.Rows[i], table.Clean(i))
	}
	r.finished = make([]bool, len(records))

	r.log.Info("batch started", "rows", len(records), "schema", r.rc.Schema, "model", r.rc.ModelID, "workers", r.workers)
	r.notifyProgress(ProgressEvent{
		EventType: EventBatchStart,
		TotalRows: len(records),
	})

	var results []models.RowResult
	if r.workers > 1 {
		results = r.runConcurrent(ctx, table, records)
	} else {
		results = r.runSequential(ctx, table, records)
	}

	result := &models.BatchResult{
		RunID:     r.rc.RunID,
		JobName:   r.rc.JobName,
		Schema:    r.rc.Schema,
		Engine:    r.rc.Engine,
		ModelID:   r.rc.ModelID,
		Timestamp: startTime,
		Rows:      results,
		Cancelled: ctx.Err() != nil,
		Duration:  time.Since(startTime),
	}
	result.Summarize()

	span.SetAttributes(
		attribute.Int("rows.done", result.Digest.Done),
		attribute.Int("rows.errored", result.Digest.Errored),
		attribute.Int("rows.skipped", result.Digest.Skipped),
	)
	r.log.Info("batch finished",
		"done", result.Digest.Done,
		"errored", result.Digest.Errored,
		"skipped", result.Digest.Skipped,
		"cached", result.Digest.Cached,
		"duration", result.Duration)

	r.notifyProgress(ProgressEvent{
		EventType:  EventBatchComplete,
		TotalRows:  len(records),
		DurationMs: result.Duration.Milliseconds(),
		Details: map[string]any{
			"done":    result.Digest.Done,
			"errored": result.Digest.Errored,
			"skipped": result.Digest.Skipped,
		},
	})
	return result, nil
}

func (r *Runner) runSequential(ctx context.Context, table *dataset.Table, records []*models.RowRecord) []models.RowResult {
	results := make([]models.RowResult, len(records))
	for i, rec := range records {
		results[i] = r.processRow(ctx, table, rec)
	}
	return results
}

func (r *Runner) runConcurrent(ctx context.Context, table *dataset.Table, records []*models.RowRecord) []models.RowResult {
	results := make([]models.RowResult, len(records))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = r.processRow(ctx, table, rec)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// processRow takes one row to a terminal state and commits it to the table.
func (r *Runner) processRow(ctx context.Context, table *dataset.Table, rec *models.RowRecord) models.RowResult {
	total := table.Len()
	result := models.RowResult{Index: rec.Index, ID: rec.ID}

	if ctx.Err() != nil {
		r.stopOnce.Do(func() {
			r.log.Warn("batch cancelled, remaining rows skipped", "cause", context.Cause(ctx))
			r.notifyProgress(ProgressEvent{
				EventType: EventBatchStopped,
				TotalRows: total,
				Details:   map[string]any{"reason": context.Cause(ctx).Error()},
			})
		})
		cause := fmt.Errorf("%w: %w", ErrBatchCancelled, context.Cause(ctx))
		rec.Fail(r.rc.OutputFields(), cause.Error())
		result.State = models.StateSkipped
		result.Error = cause.Error()
		r.commit(table, rec, result)
		return result
	}

	key, cacheable := r.checkpointKey(rec)
	if cacheable {
		if entry, ok := r.checkpoint.Get(key); ok && hasFields(entry.Outputs, r.rc.OutputFields()) {
			rec.Commit(entry.Outputs)
			result.State = models.StateDone
			result.Cached = true
			result.Gaps = entry.Gaps
			r.commit(table, rec, result)
			r.log.Debug("row restored from checkpoint", "row", rec.ID)
			r.notifyProgress(ProgressEvent{
				EventType: EventRowCached,
				RowID:     rec.ID,
				RowNum:    rec.Index + 1,
				TotalRows: total,
				State:     result.State,
			})
			return result
		}
	}

	rowCtx, span := r.tracer.Start(ctx, "fichas.row", trace.WithAttributes(
		attribute.String("row.id", rec.ID),
		attribute.Int("row.index", rec.Index),
	))
	defer span.End()

	r.notifyProgress(ProgressEvent{
		EventType: EventRowStart,
		RowID:     rec.ID,
		RowNum:    rec.Index + 1,
		TotalRows: total,
	})

	start := time.Now()
	outcome := r.rows.Run(rowCtx, rec, func(stage string, d time.Duration) {
		r.notifyProgress(ProgressEvent{
			EventType:  EventStageComplete,
			RowID:      rec.ID,
			RowNum:     rec.Index + 1,
			TotalRows:  total,
			Stage:      stage,
			DurationMs: d.Milliseconds(),
		})
	})
	result.Duration = time.Since(start)
	result.State = outcome.State
	result.Gaps = outcome.Gaps
	if outcome.Err != nil {
		result.Error = outcome.Err.Error()
		span.SetStatus(codes.Error, result.Error)
		span.SetAttributes(attribute.String("row.failed_in", string(outcome.Failed)))
	}

	r.commit(table, rec, result)

	if cacheable && result.State == models.StateDone {
		err := r.checkpoint.Put(key, &checkpoint.Entry{
			RowID:   rec.ID,
			Outputs: rec.Outputs,
			Gaps:    result.Gaps,
			SavedAt: time.Now(),
		})
		if err != nil {
			r.log.Warn("failed to save checkpoint", "row", rec.ID, "error", err)
		}
	}

	details := map[string]any{"duration_ms": result.Duration.Milliseconds()}
	if result.Error != "" {
		details["error"] = result.Error
	}
	if len(result.Gaps) > 0 {
		details["gaps"] = result.Gaps
	}
	r.notifyProgress(ProgressEvent{
		EventType:  EventRowComplete,
		RowID:      rec.ID,
		RowNum:     rec.Index + 1,
		TotalRows:  total,
		State:      result.State,
		DurationMs: result.Duration.Milliseconds(),
		Details:    details,
	})
	return result
}

// commit copies the row outputs into the table and advances the cursor.
func (r *Runner) commit(table *dataset.Table, rec *models.RowRecord, result models.RowResult) {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	out := table.Outputs[rec.Index]
	for _, f := range r.rc.OutputFields() {
		out[f] = rec.Outputs[f]
	}

	if r.metrics != nil {
		r.metrics.Rows.WithLabelValues(string(result.State)).Inc()
		if !result.Cached {
			for _, g := range result.Gaps {
				r.metrics.SegmentGaps.WithLabelValues(g).Inc()
			}
		}
	}

	r.finished[rec.Index] = result.State != models.StateSkipped
	if r.checkpoint != nil && r.checkpoint.Dir() != "" {
		completed := slices.Index(r.finished, false)
		if completed < 0 {
			completed = len(r.finished)
		}
		err := r.checkpoint.SaveCursor(checkpoint.Cursor{
			RunID:     r.rc.RunID,
			Completed: completed,
			Total:     len(r.finished),
			UpdatedAt: time.Now(),
		})
		if err != nil {
			r.log.Warn("failed to save cursor", "error", err)
		}
	}
}

func (r *Runner) checkpointKey(rec *models.RowRecord) (string, bool) {
	if r.checkpoint == nil || r.checkpoint.Dir() == "" {
		return "", false
	}
	key, err := checkpoint.Key(checkpoint.KeyInput{
		Schema:     string(r.rc.Schema),
		Engine:     r.rc.Engine,
		Model:      r.rc.ModelID,
		Paraphrase: r.rc.Prompts.Paraphrase(),
		Templates:  r.rc.Prompts.Texts(),
		Row:        rec.Clean,
	})
	if err != nil {
		r.log.Warn("cannot compute checkpoint key", "row", rec.ID, "error", err)
		return "", false
	}
	return key, true
}

func hasFields(outputs map[string]string, fields []string) bool {
	for _, f := range fields {
		if _, ok := outputs[f]; !ok {
			return false
		}
	}
	return true
}
