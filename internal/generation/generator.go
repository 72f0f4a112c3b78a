// Package generation adapts hosted text-generation services to a single call contract.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

//go:generate go tool mockgen -package generation -destination mock_generator.go . Generator

// Generator is the interface every engine implements.
type Generator interface {
	// Initialize prepares the engine. Failures here are configuration errors.
	Initialize(ctx context.Context) error

	// Generate sends one prompt and returns the model's text.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Shutdown releases resources.
	Shutdown(ctx context.Context) error
}

// Request is one generation call.
type Request struct {
	// RowID and Stage label the call for logs, metrics and spans.
	RowID  string
	Stage  string
	Prompt string
}

// Response is the text of one successful call.
type Response struct {
	Text       string
	ModelID    string
	DurationMs int64
}

// ErrUnusableContent is wrapped by a ProviderError when the service returns no text.
var ErrUnusableContent = errors.New("response has no usable text")

// ProviderError is a failure of the generation service for one call.
type ProviderError struct {
	Engine string
	Model  string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Engine, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerErr(engine, model string, err error) error {
	return &ProviderError{Engine: engine, Model: model, Err: err}
}

// checkText turns blank output into ErrUnusableContent.
func checkText(engine, model, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", providerErr(engine, model, ErrUnusableContent)
	}
	return text, nil
}

// Params are the sampling parameters passed to the service.
type Params struct {
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top_p"`
	TopK            float32 `mapstructure:"top_k"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
	// SafetyThreshold is a genai HarmBlockThreshold name applied to every harm category.
	SafetyThreshold string `mapstructure:"safety_threshold"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
}

// DefaultParams returns the parameters used when a job sets none.
func DefaultParams() Params {
	return Params{
		Temperature:     0.6,
		TopP:            1.0,
		TopK:            32,
		MaxOutputTokens: 8192,
		SafetyThreshold: "BLOCK_ONLY_HIGH",
	}
}

// DecodeParams overlays a job's provider options onto DefaultParams.
func DecodeParams(options map[string]any) (Params, error) {
	p := DefaultParams()
	if len(options) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(options); err != nil {
		return p, fmt.Errorf("invalid provider options: %w", err)
	}
	return p, nil
}
