package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/itemforge/fichas/internal/models"
)

type fakeModels struct {
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	text      string
	err       error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGenAIEngine_Generate(t *testing.T) {
	fake := &fakeModels{text: "  Ruta Cognitiva Correcta: ...  "}
	e := NewGenAIEngine(GenAIConfig{Engine: "vertex", Model: "gemini-2.5-pro", Params: DefaultParams()})
	e.models = fake

	resp, err := e.Generate(context.Background(), &Request{Prompt: "hola", Stage: StageAnalysis})
	require.NoError(t, err)
	assert.Equal(t, "Ruta Cognitiva Correcta: ...", resp.Text)
	assert.Equal(t, "gemini-2.5-pro", fake.gotModel)

	cfg := fake.gotConfig
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.6, *cfg.Temperature, 1e-6)
	assert.InDelta(t, 32, *cfg.TopK, 1e-6)
	assert.Equal(t, int32(8192), cfg.MaxOutputTokens)
	require.Len(t, cfg.SafetySettings, 4)
	for _, s := range cfg.SafetySettings {
		assert.Equal(t, genai.HarmBlockThresholdBlockOnlyHigh, s.Threshold)
	}
}

func TestGenAIEngine_Errors(t *testing.T) {
	e := NewGenAIEngine(GenAIConfig{Engine: "vertex", Model: "m"})
	_, err := e.Generate(context.Background(), &Request{})
	assert.Error(t, err, "not initialized")

	e.models = &fakeModels{err: errors.New("quota exceeded")}
	_, err = e.Generate(context.Background(), &Request{Prompt: "x"})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "quota exceeded")

	e.models = &fakeModels{text: ""}
	_, err = e.Generate(context.Background(), &Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnusableContent)
}

func TestGenAIEngine_InitializeRequiresCredentials(t *testing.T) {
	err := NewGenAIEngine(GenAIConfig{Engine: "vertex"}).Initialize(context.Background())
	assert.ErrorContains(t, err, "project id")

	err = NewGenAIEngine(GenAIConfig{Engine: "gemini"}).Initialize(context.Background())
	assert.ErrorContains(t, err, "API key")
}

type fakeChat struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIEngine_Generate(t *testing.T) {
	fake := &fakeChat{resp: openai.ChatCompletionResponse{
		Model:   "gpt-4o-2024",
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "Este ítem evalúa..."}}},
	}}
	e := NewOpenAIEngine("gpt-4o", DefaultParams())
	e.client = fake

	resp, err := e.Generate(context.Background(), &Request{Prompt: "sintetiza"})
	require.NoError(t, err)
	assert.Equal(t, "Este ítem evalúa...", resp.Text)
	assert.Equal(t, "gpt-4o-2024", resp.ModelID)
	require.Len(t, fake.req.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, fake.req.Messages[0].Role)
	assert.Equal(t, 8192, fake.req.MaxTokens)

	fake.resp = openai.ChatCompletionResponse{}
	_, err = e.Generate(context.Background(), &Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnusableContent)
}

func TestOpenAIEngine_InitializeRequiresKey(t *testing.T) {
	err := NewOpenAIEngine("gpt-4o", DefaultParams()).Initialize(context.Background())
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	p := DefaultParams()
	p.APIKey = "sk-test"
	assert.NoError(t, NewOpenAIEngine("gpt-4o", p).Initialize(context.Background()))
}

func TestMockEngine(t *testing.T) {
	for _, v := range []models.SchemaVersion{models.SchemaV1, models.SchemaV2} {
		m := NewMockEngine("mock-model", v)
		resp, err := m.Generate(context.Background(), &Request{RowID: "X-1", Stage: StageAnalysis})
		require.NoError(t, err)
		assert.Contains(t, resp.Text, "X-1")
		if v == models.SchemaV1 {
			assert.Contains(t, resp.Text, "Análisis de Opciones No Válidas:")
		} else {
			assert.Contains(t, resp.Text, "[JUSTIFICACION_D]")
		}

		resp, err = m.Generate(context.Background(), &Request{Stage: StageRecommendations})
		require.NoError(t, err)
		assert.Equal(t, v == models.SchemaV2, strings.Contains(resp.Text, "OPORTUNIDAD DE MEJORA"))
		assert.Equal(t, int64(2), m.Calls())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockEngine("m", models.SchemaV2).Generate(ctx, &Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
