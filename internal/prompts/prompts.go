// Package prompts builds the per-stage generation prompts from parameterized templates.
package prompts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/template"
	"github.com/itemforge/fichas/internal/templatestore"
)

//go:embed templates
var defaults embed.FS

// Stage template names, also used as <name>.txt in template sources.
const (
	StageAnalysis        = "analisis"
	StageSynthesis       = "sintesis"
	StageRecommendations = "recomendaciones"
	StageParaphrase      = "parafraseo"
)

// NotApplicable substitutes blank row fields.
const NotApplicable = "No aplica"

// Placeholders lists the keys each stage builder substitutes.
var Placeholders = map[string][]string{
	StageAnalysis: {
		"Contexto", "Enunciado", "Componente", "Competencia", "Afirmacion", "Evidencia",
		"Tipologia", "Grado", "AnalisisErrores", "Clave", "OpcionA", "OpcionB", "OpcionC", "OpcionD",
	},
	StageSynthesis:       {"Analisis", "Competencia", "Afirmacion", "Evidencia"},
	StageRecommendations: {"QueEvalua", "Analisis", "Competencia", "Evidencia", "Grado", "Enunciado"},
	StageParaphrase:      {"QueEvalua", "Competencia"},
}

// RequiredStages returns the template names a run needs.
func RequiredStages(paraphrase bool) []string {
	stages := []string{StageAnalysis, StageSynthesis, StageRecommendations}
	if paraphrase {
		stages = append(stages, StageParaphrase)
	}
	return stages
}

// Set holds the validated templates of one run.
type Set struct {
	Version    models.SchemaVersion
	templates  map[string]*template.Template
	paraphrase bool
}

// NewSet parses and checks the given stage texts. Any placeholder mismatch is a configuration error.
func NewSet(version models.SchemaVersion, sources map[string]string, paraphrase bool) (*Set, error) {
	s := &Set{Version: version, templates: map[string]*template.Template{}, paraphrase: paraphrase}
	for _, stage := range RequiredStages(paraphrase) {
		text, ok := sources[stage]
		if !ok {
			return nil, models.NewConfigError("prompt templates", fmt.Errorf("template %s not provided", stage))
		}
		t, err := template.Parse(stage, text)
		if err != nil {
			return nil, models.NewConfigError("prompt templates", err)
		}
		if err := t.Check(Placeholders[stage]); err != nil {
			return nil, models.NewConfigError("prompt templates", err)
		}
		s.templates[stage] = t
	}
	return s, nil
}

// Paraphrase reports whether the optional paraphrase stage is enabled.
func (s *Set) Paraphrase() bool { return s.paraphrase }

// Texts returns the raw template bodies by stage, for checkpoint keys.
func (s *Set) Texts() map[string]string {
	out := make(map[string]string, len(s.templates))
	for k, t := range s.templates {
		out[k] = t.Text()
	}
	return out
}

// BuildAnalysis renders the stage-1 prompt for a row.
func (s *Set) BuildAnalysis(r *models.RowRecord) (string, error) {
	return s.render(StageAnalysis, map[string]string{
		"Contexto":        r.Field(models.ColContexto, NotApplicable),
		"Enunciado":       r.Field(models.ColEnunciado, NotApplicable),
		"Componente":      r.Field(models.ColComponente, NotApplicable),
		"Competencia":     r.Field(models.ColCompetencia, NotApplicable),
		"Afirmacion":      r.Field(models.ColAfirmacion, NotApplicable),
		"Evidencia":       r.Field(models.ColEvidencia, NotApplicable),
		"Tipologia":       r.Field(models.ColTipologia, NotApplicable),
		"Grado":           r.Field(models.ColGrado, NotApplicable),
		"AnalisisErrores": r.Field(models.ColAnalisisErrores, NotApplicable),
		"Clave":           r.Field(models.ColClave, NotApplicable),
		"OpcionA":         r.Field(models.ColOpcionA, NotApplicable),
		"OpcionB":         r.Field(models.ColOpcionB, NotApplicable),
		"OpcionC":         r.Field(models.ColOpcionC, NotApplicable),
		"OpcionD":         r.Field(models.ColOpcionD, NotApplicable),
	})
}

// BuildSynthesis renders the stage-2 prompt from the full analysis text.
func (s *Set) BuildSynthesis(r *models.RowRecord, analysis string) (string, error) {
	return s.render(StageSynthesis, map[string]string{
		"Analisis":    analysis,
		"Competencia": r.Field(models.ColCompetencia, NotApplicable),
		"Afirmacion":  r.Field(models.ColAfirmacion, NotApplicable),
		"Evidencia":   r.Field(models.ColEvidencia, NotApplicable),
	})
}

// BuildParaphrase renders the optional rewrite prompt for the synthesized statement.
func (s *Set) BuildParaphrase(r *models.RowRecord, queEvalua string) (string, error) {
	return s.render(StageParaphrase, map[string]string{
		"QueEvalua":   queEvalua,
		"Competencia": r.Field(models.ColCompetencia, NotApplicable),
	})
}

// BuildRecommendations renders the stage-3 prompt.
func (s *Set) BuildRecommendations(r *models.RowRecord, queEvalua, analysis string) (string, error) {
	return s.render(StageRecommendations, map[string]string{
		"QueEvalua":   queEvalua,
		"Analisis":    analysis,
		"Competencia": r.Field(models.ColCompetencia, NotApplicable),
		"Evidencia":   r.Field(models.ColEvidencia, NotApplicable),
		"Grado":       r.Field(models.ColGrado, NotApplicable),
		"Enunciado":   r.Field(models.ColEnunciado, NotApplicable),
	})
}

func (s *Set) render(stage string, vars map[string]string) (string, error) {
	t, ok := s.templates[stage]
	if !ok {
		return "", fmt.Errorf("stage %s is not configured", stage)
	}
	return t.Render(vars)
}

// Defaults returns the embedded template bodies for a schema version.
func Defaults(version models.SchemaVersion) (map[string]string, error) {
	out := map[string]string{}
	for _, stage := range RequiredStages(true) {
		data, err := defaults.ReadFile(path.Join("templates", string(version), stage+".txt"))
		if err != nil {
			return nil, fmt.Errorf("no embedded %s template for schema %s: %w", stage, version, err)
		}
		out[stage] = string(data)
	}
	return out, nil
}

// Load fetches the stage templates from a template source and validates them.
func Load(ctx context.Context, store templatestore.Store, version models.SchemaVersion, paraphrase bool) (*Set, error) {
	sources := map[string]string{}
	for _, stage := range RequiredStages(paraphrase) {
		text, err := store.Load(ctx, stage)
		if err != nil {
			if errors.Is(err, templatestore.ErrNotFound) {
				return nil, models.NewConfigError("prompt templates", fmt.Errorf("template %s not found in %s", stage, store))
			}
			return nil, models.NewConfigError("prompt templates", fmt.Errorf("loading %s: %w", stage, err))
		}
		sources[stage] = text
	}
	return NewSet(version, sources, paraphrase)
}

// OpenStore returns the template source a job configures. The embedded source serves Defaults.
func OpenStore(ctx context.Context, cfg models.TemplateConfig, version models.SchemaVersion, opts ...templatestore.OpenOption) (templatestore.Store, error) {
	if cfg.Source == "" || cfg.Source == models.SourceEmbedded {
		texts, err := Defaults(version)
		if err != nil {
			return nil, models.NewConfigError("prompt templates", err)
		}
		return templatestore.NewMapStore("embedded:"+string(version), texts), nil
	}
	store, err := templatestore.Open(ctx, cfg.Source, cfg.Location, opts...)
	if err != nil {
		return nil, models.NewConfigError("template source", err)
	}
	if err := store.Check(ctx); err != nil {
		return nil, models.NewConfigError("template source", err)
	}
	return store, nil
}
