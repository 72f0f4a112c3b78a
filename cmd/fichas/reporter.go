package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/pipeline"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// padRight pads s to the given display width, accounting for wide runes.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func stateIcon(state models.RowState) string {
	switch state {
	case models.StateDone:
		return "✓"
	case models.StateSkipped:
		return "-"
	default:
		return "✗"
	}
}

func verboseProgressListener(w io.Writer) pipeline.ProgressListener {
	return func(event pipeline.ProgressEvent) {
		switch event.EventType {
		case pipeline.EventBatchStart:
			fmt.Fprintf(w, "Starting batch with %d row(s)...\n\n", event.TotalRows)
		case pipeline.EventRowStart:
			fmt.Fprintf(w, "[%d/%d] Row %s\n", event.RowNum, event.TotalRows, event.RowID)
		case pipeline.EventStageComplete:
			duration := time.Duration(event.DurationMs) * time.Millisecond
			fmt.Fprintf(w, "  %s (%s)\n", event.Stage, formatDuration(duration))
		case pipeline.EventRowCached:
			fmt.Fprintf(w, "[%d/%d] Row %s [cached]\n\n", event.RowNum, event.TotalRows, event.RowID)
		case pipeline.EventRowComplete:
			fmt.Fprintf(w, "  Row %s: %s\n", event.RowID, event.State)
			if gaps, ok := event.Details["gaps"].([]string); ok && len(gaps) > 0 {
				fmt.Fprintf(w, "  [GAPS] %s\n", strings.Join(gaps, ", "))
			}
			if e, ok := event.Details["error"].(string); ok && e != "" {
				fmt.Fprintf(w, "  [ERROR] %s\n", e)
			}
			fmt.Fprintln(w)
		case pipeline.EventBatchStopped:
			fmt.Fprintf(w, "Batch stopped, remaining rows are skipped\n\n")
		case pipeline.EventBatchComplete:
			duration := time.Duration(event.DurationMs) * time.Millisecond
			fmt.Fprintf(w, "Batch completed in %s\n\n", formatDuration(duration))
		}
	}
}

func simpleProgressListener(w io.Writer) pipeline.ProgressListener {
	return func(event pipeline.ProgressEvent) {
		switch event.EventType {
		case pipeline.EventRowCached:
			fmt.Fprintf(w, "✓ [%d/%d] %s [cached]\n", event.Completed, event.TotalRows, event.RowID)
		case pipeline.EventRowComplete:
			fmt.Fprintf(w, "%s [%d/%d] %s\n", stateIcon(event.State), event.Completed, event.TotalRows, event.RowID)
		case pipeline.EventBatchStopped:
			fmt.Fprintln(w, "Batch stopped, remaining rows are skipped")
		}
	}
}

func printSummary(w io.Writer, result *models.BatchResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "="+strings.Repeat("=", 50))
	fmt.Fprintln(w, " BATCH RESULTS")
	fmt.Fprintln(w, "="+strings.Repeat("=", 50))
	fmt.Fprintln(w)

	d := result.Digest
	fmt.Fprintf(w, "Job:            %s\n", result.JobName)
	fmt.Fprintf(w, "Schema:         %s\n", result.Schema)
	fmt.Fprintf(w, "Model:          %s (%s)\n", result.ModelID, result.Engine)
	fmt.Fprintf(w, "Total Rows:     %d\n", d.Rows)
	fmt.Fprintf(w, "Done:           %d\n", d.Done)
	fmt.Fprintf(w, "Errors:         %d\n", d.Errored)
	fmt.Fprintf(w, "Skipped:        %d\n", d.Skipped)
	fmt.Fprintf(w, "From checkpoint: %d\n", d.Cached)
	fmt.Fprintf(w, "Missing fields: %d\n", d.Gaps)
	fmt.Fprintf(w, "Duration:       %s\n", formatDuration(result.Duration))
	fmt.Fprintln(w)

	var problems []models.RowResult
	for _, r := range result.Rows {
		if r.State != models.StateDone || len(r.Gaps) > 0 {
			problems = append(problems, r)
		}
	}
	if len(problems) == 0 {
		return
	}

	width := len("Row")
	for _, r := range problems {
		width = max(width, runewidth.StringWidth(r.ID))
	}

	fmt.Fprintln(w, "-"+strings.Repeat("-", 50))
	fmt.Fprintln(w, " ROWS NEEDING ATTENTION")
	fmt.Fprintln(w, "-"+strings.Repeat("-", 50))
	for _, r := range problems {
		detail := r.Error
		if detail == "" {
			detail = "missing: " + strings.Join(r.Gaps, ", ")
		}
		fmt.Fprintf(w, "%s %s  %s  %s\n", stateIcon(r.State), padRight(r.ID, width), padRight(string(r.State), 7), detail)
	}
	fmt.Fprintln(w)
}
