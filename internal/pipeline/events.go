package pipeline

import "github.com/itemforge/fichas/internal/models"

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventBatchStart    EventType = "batch_start"
	EventBatchComplete EventType = "batch_complete"
	EventBatchStopped  EventType = "batch_stopped"
	EventRowStart      EventType = "row_start"
	EventStageComplete EventType = "stage_complete"
	EventRowComplete   EventType = "row_complete"
	EventRowCached     EventType = "row_cached"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType EventType
	RowID     string
	// RowNum is 1-based.
	RowNum    int
	TotalRows int
	// Completed counts finished rows and never decreases within a batch.
	Completed  int
	Stage      string
	State      models.RowState
	DurationMs int64
	Details    map[string]any
}
