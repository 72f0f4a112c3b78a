// Package segment splits raw model output into named output fields.
//
// Two failure grades exist. A HardError aborts the row (the analysis has no
// distractor header in the v1 format). Everything else is a soft gap: the field
// receives a placeholder and the gap is listed in the Result.
package segment

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/itemforge/fichas/internal/models"
)

// Result maps output field names to text. Every field of the stage is present.
type Result struct {
	Fields map[string]string
	Gaps   []string
}

func newResult() Result {
	return Result{Fields: map[string]string{}}
}

func (r *Result) set(field, text string) {
	r.Fields[field] = text
}

func (r *Result) gap(field, placeholder string) {
	r.Fields[field] = placeholder
	r.Gaps = append(r.Gaps, field)
}

// HardError is a segmentation failure that aborts the row.
type HardError struct {
	Reason string
}

func (e *HardError) Error() string {
	return "segmentation failed: " + e.Reason
}

// MissingOption is the placeholder for an option whose justification block is absent.
func MissingOption(letter string) string {
	return fmt.Sprintf("[NO ENCONTRADO: justificación de la opción %s]", letter)
}

// NotGenerated is the placeholder for a recommendation block the model did not produce.
func NotGenerated(field string) string {
	return fmt.Sprintf("[NO GENERADO: %s]", field)
}

// Segmenter splits stage outputs according to a schema version.
type Segmenter interface {
	Version() models.SchemaVersion
	// Analysis segments the stage-1 output. key is the row's correct option letter.
	Analysis(raw, key string) (Result, error)
	// Recommendations segments the stage-3 output. It never fails.
	Recommendations(raw string) Result
	AnalysisFields() []string
	RecommendationFields() []string
}

// New returns the segmenter for a schema version.
func New(v models.SchemaVersion) Segmenter {
	if v == models.SchemaV1 {
		return v1Segmenter{}
	}
	return v2Segmenter{}
}

func normalize(s string) string {
	return norm.NFC.String(s)
}

type v1Segmenter struct{}

func (v1Segmenter) Version() models.SchemaVersion { return models.SchemaV1 }

func (v1Segmenter) AnalysisFields() []string {
	return []string{models.FieldJustificacionCorrecta, models.FieldAnalisisDistractores}
}

func (v1Segmenter) RecommendationFields() []string {
	return []string{models.FieldRecFortalecer, models.FieldRecAvanzar}
}

func (v1Segmenter) Analysis(raw, _ string) (Result, error) {
	correct, distractors, err := SplitOnHeader(normalize(raw))
	if err != nil {
		return Result{}, err
	}
	res := newResult()
	res.set(models.FieldJustificacionCorrecta, correct)
	res.set(models.FieldAnalisisDistractores, distractors)
	return res, nil
}

func (v1Segmenter) Recommendations(raw string) Result {
	return SplitRecommendations(normalize(raw), false)
}

type v2Segmenter struct{}

func (v2Segmenter) Version() models.SchemaVersion { return models.SchemaV2 }

func (v2Segmenter) AnalysisFields() []string {
	return []string{
		models.FieldJustificacionCorrecta,
		models.FieldAnalisisDistractores,
		models.FieldJustificacionA,
		models.FieldJustificacionB,
		models.FieldJustificacionC,
		models.FieldJustificacionD,
	}
}

func (v2Segmenter) RecommendationFields() []string {
	return []string{models.FieldRecFortalecer, models.FieldRecAvanzar, models.FieldOportunidadMejora}
}

func (v2Segmenter) Analysis(raw, key string) (Result, error) {
	return ExtractMarkers(normalize(raw), key), nil
}

func (v2Segmenter) Recommendations(raw string) Result {
	return SplitRecommendations(normalize(raw), true)
}
