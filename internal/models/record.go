package models

import (
	"fmt"
	"strings"
)

// RowState is where a row stands in the enrichment pipeline.
type RowState string

const (
	StateStage1Pending     RowState = "STAGE1_PENDING"
	StateStage2Pending     RowState = "STAGE2_PENDING"
	StateParaphrasePending RowState = "PARAPHRASE_PENDING"
	StateStage3Pending     RowState = "STAGE3_PENDING"
	StateDone              RowState = "DONE"
	StateError             RowState = "ERROR"
	// StateSkipped marks rows never started because the batch was cancelled.
	StateSkipped RowState = "SKIPPED"
)

// Terminal reports whether no further transition can happen.
func (s RowState) Terminal() bool {
	return s == StateDone || s == StateError || s == StateSkipped
}

// RowRecord is one assessment item with its input and output fields.
type RowRecord struct {
	// Index is the 0-based position in the source table.
	Index int
	// ID is the identifier column value, or fila-<n> when blank.
	ID string
	// Source holds the cell values exactly as loaded.
	Source map[string]string
	// Clean holds the sanitized cell values used for prompts and documents.
	Clean map[string]string
	// Outputs holds the generated fields, committed as a group.
	Outputs map[string]string
}

// NewRowRecord builds a record, resolving its identifier from idColumn.
func NewRowRecord(index int, idColumn string, source, clean map[string]string) *RowRecord {
	id := strings.TrimSpace(source[idColumn])
	if id == "" {
		id = fmt.Sprintf("fila-%d", index+1)
	}
	return &RowRecord{
		Index:   index,
		ID:      id,
		Source:  source,
		Clean:   clean,
		Outputs: map[string]string{},
	}
}

// Field returns the sanitized value of column, or fallback when it is blank.
func (r *RowRecord) Field(column, fallback string) string {
	v := strings.TrimSpace(r.Clean[column])
	if v == "" {
		return fallback
	}
	return v
}

// Commit replaces all output fields at once.
func (r *RowRecord) Commit(fields map[string]string) {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	r.Outputs = out
}

// Fail overwrites every listed output field with the uniform error marker.
func (r *RowRecord) Fail(fields []string, cause string) {
	out := make(map[string]string, len(fields))
	marker := ErrorMarker(cause)
	for _, f := range fields {
		out[f] = marker
	}
	r.Outputs = out
}
