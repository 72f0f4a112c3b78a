// Package pipeline runs the staged generation of every row in a table.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/prompts"
	"github.com/itemforge/fichas/internal/segment"
)

// RunContext is the state shared by every row of one batch.
type RunContext struct {
	RunID     string
	JobName   string
	Schema    models.SchemaVersion
	Engine    string
	ModelID   string
	Prompts   *prompts.Set
	Segmenter segment.Segmenter
}

// NewRunContext creates the context of a new batch with a fresh run id.
func NewRunContext(jobName, engine, modelID string, set *prompts.Set) *RunContext {
	return &RunContext{
		RunID:     uuid.NewString(),
		JobName:   jobName,
		Schema:    set.Version,
		Engine:    engine,
		ModelID:   modelID,
		Prompts:   set,
		Segmenter: segment.New(set.Version),
	}
}

// OutputFields returns the output columns of the batch schema.
func (rc *RunContext) OutputFields() []string {
	return models.OutputFields(rc.Schema)
}
