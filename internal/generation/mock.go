package generation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/itemforge/fichas/internal/models"
)

// Stage names carried in Request.Stage.
const (
	StageAnalysis        = "analisis"
	StageSynthesis       = "sintesis"
	StageParaphrase      = "parafraseo"
	StageRecommendations = "recomendaciones"
)

// MockEngine returns well-formed canned output for each stage, offline.
type MockEngine struct {
	modelID string
	version models.SchemaVersion
	calls   atomic.Int64
}

// NewMockEngine creates a mock engine producing output in the given schema format.
func NewMockEngine(modelID string, version models.SchemaVersion) *MockEngine {
	return &MockEngine{modelID: modelID, version: version}
}

func (m *MockEngine) Initialize(context.Context) error {
	return nil
}

// Calls returns how many prompts the engine has answered.
func (m *MockEngine) Calls() int64 {
	return m.calls.Load()
}

func (m *MockEngine) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to MockEngine.Generate")
	}
	m.calls.Add(1)

	var text string
	switch req.Stage {
	case StageAnalysis:
		text = m.analysis(req.RowID)
	case StageSynthesis:
		text = "Este ítem evalúa la capacidad del estudiante para identificar información explícita y relacionarla con el propósito del texto."
	case StageParaphrase:
		text = "Este ítem evalúa la capacidad del estudiante para reconocer datos explícitos y vincularlos con la intención comunicativa del texto."
	case StageRecommendations:
		text = m.recommendations()
	default:
		text = fmt.Sprintf("Mock response for: %s", req.Prompt)
	}
	return &Response{Text: text, ModelID: m.modelID}, nil
}

func (m *MockEngine) Shutdown(context.Context) error {
	return nil
}

func (m *MockEngine) analysis(rowID string) string {
	var b strings.Builder
	b.WriteString("Ruta Cognitiva Correcta:\n")
	fmt.Fprintf(&b, "Para responder el ítem %s, el estudiante lee el texto, localiza la información solicitada y la contrasta con cada opción.\n\n", rowID)
	if m.version == models.SchemaV1 {
		b.WriteString("Análisis de Opciones No Válidas:\n")
		b.WriteString("- **Opción B:** Confunde un detalle secundario con la idea solicitada.\n")
		b.WriteString("- **Opción C:** Generaliza a partir de un fragmento aislado.\n")
		b.WriteString("- **Opción D:** Introduce información que no aparece en el texto.\n")
		return b.String()
	}
	for _, l := range models.OptionLetters {
		fmt.Fprintf(&b, "[JUSTIFICACION_%s]\nAnálisis de la opción %s frente a la información del texto.\n\n", l, l)
	}
	return b.String()
}

func (m *MockEngine) recommendations() string {
	s := "RECOMENDACIÓN PARA FORTALECER EL APRENDIZAJE EVALUADO EN EL ÍTEM\n" +
		"Organizar lecturas en voz alta en las que el grupo señale oralmente los datos que responden a una pregunta.\n\n" +
		"RECOMENDACIÓN PARA AVANZAR EN EL APRENDIZAJE EVALUADO EN EL ÍTEM\n" +
		"Proponer juegos de clasificación de fragmentos según su función dentro del texto."
	if m.version == models.SchemaV1 {
		return s
	}
	return s + "\n\nOPORTUNIDAD DE MEJORA\nRevisar con el grupo por qué los detalles secundarios no responden a la pregunta."
}
