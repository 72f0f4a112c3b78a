// Package config resolves the settings of one run from the job file, the
// environment and command-line overrides.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/itemforge/fichas/internal/generation"
	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/internal/templatestore"
)

// Default output names, relative to the job directory.
const (
	DefaultOutputName  = "excel_enriquecido_con_ia.xlsx"
	DefaultArchiveName = "fichas_tecnicas_generadas.zip"
)

// Env holds the settings read from the environment.
type Env struct {
	ProjectID             string
	Location              string
	GeminiAPIKey          string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	AzureConnectionString string
}

// LoadEnv reads .env files from dirs (missing files are ignored; variables
// already set win) and then the process environment.
func LoadEnv(dirs ...string) Env {
	for _, dir := range dirs {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("gcp_location", models.DefaultLocation)

	gemini := v.GetString("gemini_api_key")
	if gemini == "" {
		gemini = v.GetString("google_api_key")
	}
	return Env{
		ProjectID:             v.GetString("gcp_project_id"),
		Location:              v.GetString("gcp_location"),
		GeminiAPIKey:          gemini,
		OpenAIAPIKey:          v.GetString("openai_api_key"),
		OpenAIBaseURL:         v.GetString("openai_base_url"),
		AzureConnectionString: v.GetString("azure_storage_connection_string"),
	}
}

// ApplyEnv fills provider settings the job file leaves blank.
func ApplyEnv(spec *models.JobSpec, env Env) {
	p := &spec.Provider
	if p.Project == "" {
		p.Project = env.ProjectID
	}
	if p.Location == "" {
		p.Location = env.Location
	}

	var key, baseURL string
	switch p.Engine {
	case models.EngineGemini:
		key = env.GeminiAPIKey
	case models.EngineOpenAI:
		key, baseURL = env.OpenAIAPIKey, env.OpenAIBaseURL
	}
	if key == "" && baseURL == "" {
		return
	}
	if p.Options == nil {
		p.Options = map[string]any{}
	}
	if _, set := p.Options["api_key"]; !set && key != "" {
		p.Options["api_key"] = key
	}
	if _, set := p.Options["base_url"]; !set && baseURL != "" {
		p.Options["base_url"] = baseURL
	}
}

// RunConfig holds the resolved settings of a run.
type RunConfig struct {
	spec          *models.JobSpec
	env           Env
	jobDir        string
	inputPath     string
	outputPath    string
	checkpointDir string
	metricsPath   string
	tracePath     string
	verbose       bool
}

// Option configures a RunConfig.
type Option func(*RunConfig)

// WithJobDir sets the directory relative paths in the job file resolve against.
func WithJobDir(dir string) Option {
	return func(c *RunConfig) {
		c.jobDir = dir
	}
}

// WithInputPath overrides the job's input table.
func WithInputPath(path string) Option {
	return func(c *RunConfig) {
		c.inputPath = path
	}
}

// WithOutputPath overrides the job's output table.
func WithOutputPath(path string) Option {
	return func(c *RunConfig) {
		c.outputPath = path
	}
}

// WithCheckpointDir overrides the job's checkpoint directory.
func WithCheckpointDir(dir string) Option {
	return func(c *RunConfig) {
		c.checkpointDir = dir
	}
}

func WithVerbose(verbose bool) Option {
	return func(c *RunConfig) {
		c.verbose = verbose
	}
}

// WithMetricsPath writes prometheus metrics to path after the run.
func WithMetricsPath(path string) Option {
	return func(c *RunConfig) {
		c.metricsPath = path
	}
}

// WithTracePath writes spans to path.
func WithTracePath(path string) Option {
	return func(c *RunConfig) {
		c.tracePath = path
	}
}

// WithEnv sets the environment settings.
func WithEnv(env Env) Option {
	return func(c *RunConfig) {
		c.env = env
	}
}

// NewRunConfig creates a run configuration
func NewRunConfig(spec *models.JobSpec, opts ...Option) *RunConfig {
	c := &RunConfig{spec: spec}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *RunConfig) Spec() *models.JobSpec { return c.spec }
func (c *RunConfig) Env() Env              { return c.env }
func (c *RunConfig) JobDir() string        { return c.jobDir }
func (c *RunConfig) Verbose() bool         { return c.verbose }
func (c *RunConfig) MetricsPath() string   { return c.metricsPath }
func (c *RunConfig) TracePath() string     { return c.tracePath }

// InputPath is the table to enrich.
func (c *RunConfig) InputPath() string {
	if c.inputPath != "" {
		return c.inputPath
	}
	return models.ResolvePath(c.jobDir, c.spec.Input)
}

// OutputPath is the enriched table written after the run.
func (c *RunConfig) OutputPath() string {
	if c.outputPath != "" {
		return c.outputPath
	}
	if c.spec.Output != "" {
		return models.ResolvePath(c.jobDir, c.spec.Output)
	}
	return filepath.Join(c.jobDir, DefaultOutputName)
}

// CheckpointDir is where finished rows are kept. Empty disables checkpoints.
func (c *RunConfig) CheckpointDir() string {
	if c.checkpointDir != "" {
		return c.checkpointDir
	}
	return models.ResolvePath(c.jobDir, c.spec.CheckpointDir)
}

// TemplateLocation resolves a dir template source against the job directory.
func (c *RunConfig) TemplateLocation() string {
	t := c.spec.Templates
	if t.Source == models.SourceDir {
		return models.ResolvePath(c.jobDir, t.Location)
	}
	return t.Location
}

// DocumentTemplate is the .docx template path.
func (c *RunConfig) DocumentTemplate() string {
	return models.ResolvePath(c.jobDir, c.spec.Documents.Template)
}

// ArchivePath is the zip of rendered documents.
func (c *RunConfig) ArchivePath() string {
	if c.spec.Documents.Archive != "" {
		return models.ResolvePath(c.jobDir, c.spec.Documents.Archive)
	}
	return filepath.Join(c.jobDir, DefaultArchiveName)
}

// EngineConfig returns what generation.New needs.
func (c *RunConfig) EngineConfig() generation.EngineConfig {
	p := c.spec.Provider
	return generation.EngineConfig{
		Engine:   p.Engine,
		Model:    p.Model,
		Project:  p.Project,
		Location: p.Location,
		Options:  p.Options,
		Schema:   c.spec.Schema,
	}
}

// Policy returns the call policy of the job.
func (c *RunConfig) Policy() generation.Policy {
	p := c.spec.Policy
	return generation.Policy{
		MinDelay:   time.Duration(p.MinDelay()) * time.Millisecond,
		Timeout:    time.Duration(p.Timeout()) * time.Second,
		MaxRetries: p.MaxRetries,
		Backoff:    time.Duration(p.RetryBackoffMs) * time.Millisecond,
	}
}

// TemplateOptions returns the template source options derived from the environment.
func (c *RunConfig) TemplateOptions() []templatestore.OpenOption {
	var opts []templatestore.OpenOption
	if s := strings.TrimSpace(c.env.AzureConnectionString); s != "" {
		opts = append(opts, templatestore.WithAzureConnectionString(s))
	}
	return opts
}
