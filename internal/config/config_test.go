package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemforge/fichas/internal/models"
)

func newSpec(t *testing.T, yaml string) *models.JobSpec {
	t.Helper()
	spec, err := models.ParseJobSpec([]byte(yaml))
	require.NoError(t, err)
	return spec
}

func TestNewRunConfig_DefaultValues(t *testing.T) {
	spec := newSpec(t, "name: prueba\ninput: items.xlsx\nprovider:\n  engine: mock\n")

	cfg := NewRunConfig(spec, WithJobDir("/jobs/a"))

	assert.Same(t, spec, cfg.Spec())
	assert.Equal(t, "/jobs/a/items.xlsx", cfg.InputPath())
	assert.Equal(t, "/jobs/a/"+DefaultOutputName, cfg.OutputPath())
	assert.Equal(t, "/jobs/a/"+DefaultArchiveName, cfg.ArchivePath())
	assert.Empty(t, cfg.CheckpointDir())
	assert.False(t, cfg.Verbose())
	assert.Empty(t, cfg.MetricsPath())
	assert.Empty(t, cfg.TracePath())

	policy := cfg.Policy()
	assert.Equal(t, time.Second, policy.MinDelay)
	assert.Equal(t, 120*time.Second, policy.Timeout)
	assert.Zero(t, policy.MaxRetries)
	assert.Equal(t, 2*time.Second, policy.Backoff)
}

func TestNewRunConfig_AppliesFunctionalOptions(t *testing.T) {
	spec := newSpec(t, `
name: prueba
input: items.csv
output: out/enriquecido.csv
checkpoint_dir: .fichas
templates:
  source: dir
  location: plantillas
policy:
  min_delay_ms: 0
  timeout_seconds: 30
  max_retries: 2
provider:
  engine: mock
`)

	cfg := NewRunConfig(spec,
		WithJobDir("/jobs/b"),
		WithVerbose(true),
		WithMetricsPath("m.prom"),
		WithTracePath("t.json"),
	)
	assert.Equal(t, "/jobs/b/out/enriquecido.csv", cfg.OutputPath())
	assert.Equal(t, "/jobs/b/.fichas", cfg.CheckpointDir())
	assert.Equal(t, "/jobs/b/plantillas", cfg.TemplateLocation())
	assert.True(t, cfg.Verbose())
	assert.Equal(t, "m.prom", cfg.MetricsPath())
	assert.Equal(t, "t.json", cfg.TracePath())

	policy := cfg.Policy()
	assert.Zero(t, policy.MinDelay)
	assert.Equal(t, 30*time.Second, policy.Timeout)
	assert.Equal(t, 2, policy.MaxRetries)

	cfg = NewRunConfig(spec,
		WithJobDir("/jobs/b"),
		WithInputPath("other.xlsx"),
		WithOutputPath("x.xlsx"),
		WithCheckpointDir("/tmp/cp"),
	)
	assert.Equal(t, "other.xlsx", cfg.InputPath())
	assert.Equal(t, "x.xlsx", cfg.OutputPath())
	assert.Equal(t, "/tmp/cp", cfg.CheckpointDir())
}

func TestOptionOrder_LastOptionWins(t *testing.T) {
	spec := newSpec(t, "name: a\ninput: i.csv\nprovider:\n  engine: mock\n")
	cfg := NewRunConfig(spec, WithVerbose(true), WithVerbose(false), WithOutputPath("a"), WithOutputPath("b"))

	assert.False(t, cfg.Verbose())
	assert.Equal(t, "b", cfg.OutputPath())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("GCP_PROJECT_ID=from-file\nOPENAI_API_KEY=sk-file\nGOOGLE_API_KEY=g-file\n"), 0o644))

	t.Setenv("GCP_PROJECT_ID", "from-env")
	t.Setenv("GCP_LOCATION", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")
	// godotenv sets unset variables; register cleanup for them
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.Unsetenv("GOOGLE_API_KEY"))

	env := LoadEnv(dir)
	assert.Equal(t, "from-env", env.ProjectID, "existing variables win over .env")
	assert.Equal(t, "sk-file", env.OpenAIAPIKey)
	assert.Equal(t, "g-file", env.GeminiAPIKey, "GOOGLE_API_KEY is the fallback")
	assert.Equal(t, "http://localhost:8080/v1", env.OpenAIBaseURL)
}

func TestApplyEnv(t *testing.T) {
	env := Env{
		ProjectID:     "proj",
		Location:      "europe-west1",
		GeminiAPIKey:  "g-key",
		OpenAIAPIKey:  "sk-key",
		OpenAIBaseURL: "http://proxy",
	}

	tests := []struct {
		name        string
		provider    models.ProviderConfig
		wantProject string
		wantOptions map[string]any
	}{
		{
			name:        "vertex takes project and location only",
			provider:    models.ProviderConfig{Engine: models.EngineVertex},
			wantProject: "proj",
		},
		{
			name:        "gemini takes api key",
			provider:    models.ProviderConfig{Engine: models.EngineGemini},
			wantProject: "proj",
			wantOptions: map[string]any{"api_key": "g-key"},
		},
		{
			name:        "openai keeps explicit options",
			provider:    models.ProviderConfig{Engine: models.EngineOpenAI, Project: "mine", Options: map[string]any{"api_key": "explicit"}},
			wantProject: "mine",
			wantOptions: map[string]any{"api_key": "explicit", "base_url": "http://proxy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &models.JobSpec{Provider: tt.provider}
			ApplyEnv(spec, env)
			assert.Equal(t, tt.wantProject, spec.Provider.Project)
			assert.Equal(t, "europe-west1", spec.Provider.Location)
			assert.Equal(t, tt.wantOptions, spec.Provider.Options)
		})
	}
}

func TestTemplateOptions(t *testing.T) {
	spec := newSpec(t, "name: a\ninput: i.csv\nprovider:\n  engine: mock\n")
	assert.Empty(t, NewRunConfig(spec).TemplateOptions())
	assert.Len(t, NewRunConfig(spec, WithEnv(Env{AzureConnectionString: "DefaultEndpointsProtocol=https"})).TemplateOptions(), 1)
}
