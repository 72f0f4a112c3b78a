package generation

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// chatCompleter is an interface over [openai.Client.CreateChatCompletion].
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIEngine calls an OpenAI-compatible chat completions endpoint.
type OpenAIEngine struct {
	model  string
	params Params
	client chatCompleter
}

func NewOpenAIEngine(model string, params Params) *OpenAIEngine {
	return &OpenAIEngine{model: model, params: params}
}

func (e *OpenAIEngine) Initialize(context.Context) error {
	if e.client != nil {
		return nil
	}
	if e.params.APIKey == "" {
		return fmt.Errorf("openai engine requires an API key (OPENAI_API_KEY)")
	}
	cfg := openai.DefaultConfig(e.params.APIKey)
	if e.params.BaseURL != "" {
		cfg.BaseURL = e.params.BaseURL
	}
	e.client = openai.NewClientWithConfig(cfg)
	return nil
}

func (e *OpenAIEngine) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to OpenAIEngine.Generate")
	}
	if e.client == nil {
		return nil, fmt.Errorf("openai engine is not initialized")
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: e.params.Temperature,
		TopP:        e.params.TopP,
		MaxTokens:   int(e.params.MaxOutputTokens),
	})
	if err != nil {
		return nil, providerErr("openai", e.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, providerErr("openai", e.model, ErrUnusableContent)
	}

	text, err := checkText("openai", e.model, resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	modelID := resp.Model
	if modelID == "" {
		modelID = e.model
	}
	return &Response{Text: text, ModelID: modelID, DurationMs: time.Since(start).Milliseconds()}, nil
}

func (e *OpenAIEngine) Shutdown(context.Context) error {
	return nil
}
