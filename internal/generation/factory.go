package generation

import (
	"fmt"

	"github.com/itemforge/fichas/internal/models"
)

// EngineConfig is what New needs to build an engine.
type EngineConfig struct {
	Engine   string
	Model    string
	Project  string
	Location string
	Options  map[string]any
	Schema   models.SchemaVersion
}

// New builds the engine a job names. Errors are configuration errors.
func New(cfg EngineConfig) (Generator, error) {
	params, err := DecodeParams(cfg.Options)
	if err != nil {
		return nil, models.NewConfigError("provider.options", err)
	}

	switch cfg.Engine {
	case models.EngineVertex, models.EngineGemini:
		return NewGenAIEngine(GenAIConfig{
			Engine:   cfg.Engine,
			Model:    cfg.Model,
			Project:  cfg.Project,
			Location: cfg.Location,
			Params:   params,
		}), nil
	case models.EngineOpenAI:
		return NewOpenAIEngine(cfg.Model, params), nil
	case models.EngineCopilot:
		return NewCopilotEngine(cfg.Model, nil), nil
	case models.EngineMock:
		return NewMockEngine(cfg.Model, cfg.Schema), nil
	default:
		return nil, models.NewConfigError("provider.engine", fmt.Errorf("unknown engine %q", cfg.Engine))
	}
}
