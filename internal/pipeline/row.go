package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itemforge/fichas/internal/generation"
	"github.com/itemforge/fichas/internal/logger"
	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/prompts"
)

// StageListener is told when a stage of a row has produced its text.
type StageListener func(stage string, d time.Duration)

// RowOutcome is the terminal state of one row after RowPipeline.Run.
type RowOutcome struct {
	State models.RowState
	// Failed is the state the row was in when it moved to ERROR.
	Failed models.RowState
	Gaps   []string
	Err    error
}

// RowPipeline moves one row through analysis, synthesis, optional paraphrase
// and recommendations. Stages within a row are strictly sequential.
type RowPipeline struct {
	rc  *RunContext
	gen generation.Generator
	log *logger.Logger
}

// NewRowPipeline creates a row pipeline for a batch.
func NewRowPipeline(rc *RunContext, gen generation.Generator, log *logger.Logger) *RowPipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &RowPipeline{rc: rc, gen: gen, log: log}
}

// Run processes rec and commits its output fields. It never returns an
// error: failures leave the row in ERROR with every output field set to the
// error marker.
func (p *RowPipeline) Run(ctx context.Context, rec *models.RowRecord, onStage StageListener) RowOutcome {
	log := p.log.With("row", rec.ID)
	state := models.StateStage1Pending
	outputs := make(map[string]string, len(p.rc.OutputFields()))
	var gaps []string

	fail := func(err error) RowOutcome {
		rec.Fail(p.rc.OutputFields(), err.Error())
		log.Warn("row failed", "state", state, "error", err)
		return RowOutcome{State: models.StateError, Failed: state, Gaps: gaps, Err: err}
	}

	call := func(stage, prompt string) (string, error) {
		if err := context.Cause(ctx); err != nil {
			return "", err
		}
		start := time.Now()
		resp, err := p.gen.Generate(ctx, &generation.Request{RowID: rec.ID, Stage: stage, Prompt: prompt})
		if err != nil {
			return "", err
		}
		log.Debug("stage complete", "stage", stage, "chars", len(resp.Text))
		if onStage != nil {
			onStage(stage, time.Since(start))
		}
		return resp.Text, nil
	}

	// stage 1: analysis
	prompt, err := p.rc.Prompts.BuildAnalysis(rec)
	if err != nil {
		return fail(err)
	}
	analysis, err := call(prompts.StageAnalysis, prompt)
	if err != nil {
		return fail(err)
	}
	seg, err := p.rc.Segmenter.Analysis(analysis, rec.Field(models.ColClave, ""))
	if err != nil {
		return fail(err)
	}
	for k, v := range seg.Fields {
		outputs[k] = v
	}
	gaps = append(gaps, seg.Gaps...)
	state = models.StateStage2Pending

	// stage 2: synthesis
	if prompt, err = p.rc.Prompts.BuildSynthesis(rec, analysis); err != nil {
		return fail(err)
	}
	queEvalua, err := call(prompts.StageSynthesis, prompt)
	if err != nil {
		return fail(err)
	}
	queEvalua = strings.TrimSpace(queEvalua)

	if p.rc.Prompts.Paraphrase() {
		state = models.StateParaphrasePending
		if prompt, err = p.rc.Prompts.BuildParaphrase(rec, queEvalua); err != nil {
			return fail(err)
		}
		rewritten, err := call(prompts.StageParaphrase, prompt)
		if err != nil {
			return fail(err)
		}
		queEvalua = strings.TrimSpace(rewritten)
	}
	outputs[models.FieldQueEvalua] = queEvalua
	state = models.StateStage3Pending

	// stage 3: recommendations
	if prompt, err = p.rc.Prompts.BuildRecommendations(rec, queEvalua, analysis); err != nil {
		return fail(err)
	}
	recs, err := call(prompts.StageRecommendations, prompt)
	if err != nil {
		return fail(err)
	}
	seg = p.rc.Segmenter.Recommendations(recs)
	for k, v := range seg.Fields {
		outputs[k] = v
	}
	gaps = append(gaps, seg.Gaps...)

	for _, f := range p.rc.OutputFields() {
		if _, ok := outputs[f]; !ok {
			return fail(fmt.Errorf("output field %s was not produced", f))
		}
	}
	rec.Commit(outputs)
	if len(gaps) > 0 {
		log.Info("row done with gaps", "gaps", gaps)
	}
	return RowOutcome{State: models.StateDone, Gaps: gaps}
}
