package models

import "time"

// RowResult is the outcome of one row in a batch.
type RowResult struct {
	Index  int      `json:"index"`
	ID     string   `json:"id"`
	State  RowState `json:"state"`
	Error  string   `json:"error,omitempty"`
	Cached bool     `json:"cached,omitempty"`
	// Gaps lists the output fields that received a placeholder instead of generated text.
	Gaps     []string      `json:"gaps,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// BatchDigest aggregates row outcomes.
type BatchDigest struct {
	Rows    int `json:"rows"`
	Done    int `json:"done"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Cached  int `json:"cached"`
	Gaps    int `json:"gaps"`
}

// BatchResult is the complete result of an enrichment run.
type BatchResult struct {
	RunID     string        `json:"run_id"`
	JobName   string        `json:"job"`
	Schema    SchemaVersion `json:"schema"`
	Engine    string        `json:"engine"`
	ModelID   string        `json:"model"`
	Timestamp time.Time     `json:"timestamp"`
	Rows      []RowResult   `json:"rows"`
	Digest    BatchDigest   `json:"summary"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Summarize recomputes the digest from the row results.
func (b *BatchResult) Summarize() {
	d := BatchDigest{Rows: len(b.Rows)}
	for _, r := range b.Rows {
		switch r.State {
		case StateDone:
			d.Done++
		case StateError:
			d.Errored++
		case StateSkipped:
			d.Skipped++
		}
		if r.Cached {
			d.Cached++
		}
		d.Gaps += len(r.Gaps)
	}
	b.Digest = d
}

// Succeeded reports whether every row finished DONE.
func (b *BatchResult) Succeeded() bool {
	return b.Digest.Done == b.Digest.Rows && !b.Cancelled
}
