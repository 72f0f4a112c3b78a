package prompts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/templatestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRow() *models.RowRecord {
	clean := map[string]string{
		models.ColItemID:      "LC-001",
		models.ColContexto:    "Había una vez un barquito en una botella.",
		models.ColEnunciado:   "Los personajes del cuento son:",
		models.ColCompetencia: "Comprensión de textos",
		models.ColEvidencia:   "Reconoce información específica en el texto.",
		models.ColClave:       "A",
		models.ColOpcionA:     "Un hombre y un hombrecito.",
		models.ColOpcionB:     "Un narrador.",
		models.ColOpcionC:     "",
		models.ColOpcionD:     "Un hombre y el narrador.",
	}
	return models.NewRowRecord(0, models.ColItemID, clean, clean)
}

func TestDefaults_Valid(t *testing.T) {
	for _, v := range []models.SchemaVersion{models.SchemaV1, models.SchemaV2} {
		t.Run(string(v), func(t *testing.T) {
			texts, err := Defaults(v)
			require.NoError(t, err)
			_, err = NewSet(v, texts, true)
			require.NoError(t, err)
		})
	}
}

func TestBuildAnalysis_SubstitutesNoAplica(t *testing.T) {
	texts, err := Defaults(models.SchemaV2)
	require.NoError(t, err)
	set, err := NewSet(models.SchemaV2, texts, false)
	require.NoError(t, err)

	prompt, err := set.BuildAnalysis(sampleRow())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Descripción del Ítem: Los personajes del cuento son:")
	assert.Contains(t, prompt, "Opción C: No aplica")
	assert.Contains(t, prompt, "Componente: No aplica")
	assert.Contains(t, prompt, "[JUSTIFICACION_A]")
	assert.NotContains(t, prompt, "{{")
}

func TestBuildStages(t *testing.T) {
	set, err := NewSet(models.SchemaV1, map[string]string{
		StageAnalysis:        strings.Join(wrap(Placeholders[StageAnalysis]), " "),
		StageSynthesis:       "S {{.Analisis}}|{{.Competencia}}|{{.Afirmacion}}|{{.Evidencia}}",
		StageRecommendations: "R {{.QueEvalua}}|{{.Analisis}}|{{.Competencia}}|{{.Evidencia}}|{{.Grado}}|{{.Enunciado}}",
		StageParaphrase:      "P {{.QueEvalua}}|{{.Competencia}}",
	}, true)
	require.NoError(t, err)
	assert.True(t, set.Paraphrase())

	row := sampleRow()

	got, err := set.BuildSynthesis(row, "ANALISIS")
	require.NoError(t, err)
	assert.Equal(t, "S ANALISIS|Comprensión de textos|No aplica|Reconoce información específica en el texto.", got)

	got, err = set.BuildRecommendations(row, "QE", "ANALISIS")
	require.NoError(t, err)
	assert.Equal(t, "R QE|ANALISIS|Comprensión de textos|Reconoce información específica en el texto.|No aplica|Los personajes del cuento son:", got)

	got, err = set.BuildParaphrase(row, "QE")
	require.NoError(t, err)
	assert.Equal(t, "P QE|Comprensión de textos", got)

	assert.Len(t, set.Texts(), 4)
}

func wrap(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = "{{." + k + "}}"
	}
	return out
}

func TestNewSet_Errors(t *testing.T) {
	texts, err := Defaults(models.SchemaV2)
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantErr string
	}{
		{
			name:    "missing placeholder",
			mutate:  func(m map[string]string) { m[StageSynthesis] = "{{.Analisis}} {{.Competencia}} {{.Afirmacion}}" },
			wantErr: "missing placeholders: Evidencia",
		},
		{
			name:    "unknown placeholder",
			mutate:  func(m map[string]string) { m[StageParaphrase] = "{{.QueEvalua}} {{.Competencia}} {{.Nivel}}" },
			wantErr: "unknown placeholders: Nivel",
		},
		{
			name:    "parse error",
			mutate:  func(m map[string]string) { m[StageRecommendations] = "{{.QueEvalua" },
			wantErr: "parse",
		},
		{
			name:    "absent stage",
			mutate:  func(m map[string]string) { delete(m, StageAnalysis) },
			wantErr: "not provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := map[string]string{}
			for k, v := range texts {
				m[k] = v
			}
			tt.mutate(m)

			_, err := NewSet(models.SchemaV2, m, true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var cfgErr *models.ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestLoad_FromDir(t *testing.T) {
	dir := t.TempDir()
	texts, err := Defaults(models.SchemaV1)
	require.NoError(t, err)
	for _, stage := range RequiredStages(false) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, stage+".txt"), []byte(texts[stage]), 0o644))
	}

	set, err := Load(context.Background(), templatestore.NewDirStore(dir), models.SchemaV1, false)
	require.NoError(t, err)
	assert.False(t, set.Paraphrase())

	_, err = Load(context.Background(), templatestore.NewDirStore(dir), models.SchemaV1, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parafraseo not found")
}

func TestOpenStore_Embedded(t *testing.T) {
	store, err := OpenStore(context.Background(), models.TemplateConfig{}, models.SchemaV2)
	require.NoError(t, err)
	assert.Equal(t, "embedded:v2", store.String())

	_, err = OpenStore(context.Background(), models.TemplateConfig{Source: models.SourceDir, Location: filepath.Join(t.TempDir(), "missing")}, models.SchemaV2)
	require.Error(t, err)
	var cfgErr *models.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
