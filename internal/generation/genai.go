package generation

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// contentGenerator is an interface over [genai.Models.GenerateContent].
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIConfig selects the genai backend.
type GenAIConfig struct {
	// Engine is "vertex" or "gemini".
	Engine   string
	Model    string
	Project  string
	Location string
	Params   Params
}

// GenAIEngine calls Gemini models through Vertex AI or the Gemini API.
type GenAIEngine struct {
	cfg    GenAIConfig
	models contentGenerator
	config *genai.GenerateContentConfig
}

// NewGenAIEngine returns an engine that connects on Initialize.
func NewGenAIEngine(cfg GenAIConfig) *GenAIEngine {
	return &GenAIEngine{cfg: cfg, config: contentConfig(cfg.Params)}
}

func contentConfig(p Params) *genai.GenerateContentConfig {
	threshold := genai.HarmBlockThreshold(p.SafetyThreshold)
	if threshold == "" {
		threshold = genai.HarmBlockThresholdBlockOnlyHigh
	}
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	safety := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		safety = append(safety, &genai.SafetySetting{Category: c, Threshold: threshold})
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.Temperature),
		TopP:            genai.Ptr(p.TopP),
		TopK:            genai.Ptr(p.TopK),
		MaxOutputTokens: p.MaxOutputTokens,
		SafetySettings:  safety,
	}
}

func (e *GenAIEngine) Initialize(ctx context.Context) error {
	if e.models != nil {
		return nil
	}
	cc := &genai.ClientConfig{}
	switch e.cfg.Engine {
	case "gemini":
		if e.cfg.Params.APIKey == "" {
			return fmt.Errorf("gemini engine requires an API key (GEMINI_API_KEY)")
		}
		cc.APIKey = e.cfg.Params.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		if e.cfg.Project == "" {
			return fmt.Errorf("vertex engine requires a project id (GCP_PROJECT_ID)")
		}
		cc.Project = e.cfg.Project
		cc.Location = e.cfg.Location
		cc.Backend = genai.BackendVertexAI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	e.models = client.Models
	return nil
}

func (e *GenAIEngine) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to GenAIEngine.Generate")
	}
	if e.models == nil {
		return nil, fmt.Errorf("genai engine is not initialized")
	}

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := e.models.GenerateContent(ctx, e.cfg.Model, contents, e.config)
	if err != nil {
		return nil, providerErr(e.cfg.Engine, e.cfg.Model, err)
	}

	text, err := checkText(e.cfg.Engine, e.cfg.Model, resp.Text())
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, ModelID: e.cfg.Model, DurationMs: time.Since(start).Milliseconds()}, nil
}

func (e *GenAIEngine) Shutdown(context.Context) error {
	return nil
}
