package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported generation engines.
const (
	EngineVertex  = "vertex"
	EngineGemini  = "gemini"
	EngineOpenAI  = "openai"
	EngineCopilot = "copilot"
	EngineMock    = "mock"
)

// Supported template sources.
const (
	SourceEmbedded = "embedded"
	SourceDir      = "dir"
	SourceGCS      = "gcs"
	SourceAzBlob   = "azblob"
)

// JobSpec is the content of a fichas.yaml job file.
type JobSpec struct {
	Name          string         `yaml:"name" json:"name"`
	Description   string         `yaml:"description,omitempty" json:"description,omitempty"`
	Schema        SchemaVersion  `yaml:"schema,omitempty" json:"schema,omitempty"`
	Input         string         `yaml:"input" json:"input"`
	Sheet         string         `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Output        string         `yaml:"output,omitempty" json:"output,omitempty"`
	IDColumn      string         `yaml:"id_column,omitempty" json:"id_column,omitempty"`
	Provider      ProviderConfig `yaml:"provider" json:"provider"`
	Templates     TemplateConfig `yaml:"templates,omitempty" json:"templates,omitempty"`
	Policy        PolicyConfig   `yaml:"policy,omitempty" json:"policy,omitempty"`
	Workers       int            `yaml:"workers,omitempty" json:"workers,omitempty"`
	CheckpointDir string         `yaml:"checkpoint_dir,omitempty" json:"checkpoint_dir,omitempty"`
	Documents     DocumentConfig `yaml:"documents,omitempty" json:"documents,omitempty"`
}

// ProviderConfig selects the generation engine and its parameters.
type ProviderConfig struct {
	Engine   string         `yaml:"engine" json:"engine"`
	Model    string         `yaml:"model,omitempty" json:"model,omitempty"`
	Project  string         `yaml:"project,omitempty" json:"project,omitempty"`
	Location string         `yaml:"location,omitempty" json:"location,omitempty"`
	Options  map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// TemplateConfig says where prompt templates come from.
type TemplateConfig struct {
	Source     string `yaml:"source,omitempty" json:"source,omitempty"`
	Location   string `yaml:"location,omitempty" json:"location,omitempty"`
	Paraphrase bool   `yaml:"paraphrase,omitempty" json:"paraphrase,omitempty"`
}

// PolicyConfig tunes pacing, timeouts and retries of generation calls.
type PolicyConfig struct {
	MinDelayMs     *int `yaml:"min_delay_ms,omitempty" json:"min_delay_ms,omitempty"`
	TimeoutSec     *int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	MaxRetries     int  `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryBackoffMs int  `yaml:"retry_backoff_ms,omitempty" json:"retry_backoff_ms,omitempty"`
}

// DocumentConfig controls per-row document rendering.
type DocumentConfig struct {
	Template   string `yaml:"template,omitempty" json:"template,omitempty"`
	Archive    string `yaml:"archive,omitempty" json:"archive,omitempty"`
	NameColumn string `yaml:"name_column,omitempty" json:"name_column,omitempty"`
	PlainText  bool   `yaml:"plain_text,omitempty" json:"plain_text,omitempty"`
}

// Policy defaults.
const (
	DefaultMinDelayMs     = 1000
	DefaultTimeoutSec     = 120
	DefaultRetryBackoffMs = 2000
	DefaultModel          = "gemini-2.5-pro"
	DefaultLocation       = "us-central1"
)

// LoadJobSpec reads, defaults and validates a job file.
func LoadJobSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseJobSpec(data)
}

// ParseJobSpec decodes a job file body.
func ParseJobSpec(data []byte) (*JobSpec, error) {
	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, NewConfigError("parsing job file", err)
	}
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ApplyDefaults fills the fields a job may leave out.
func (s *JobSpec) ApplyDefaults() {
	if s.Schema == "" {
		s.Schema = DefaultSchema
	}
	if s.IDColumn == "" {
		s.IDColumn = ColItemID
	}
	if s.Provider.Engine == "" {
		s.Provider.Engine = EngineVertex
	}
	if s.Provider.Model == "" {
		s.Provider.Model = DefaultModel
	}
	if s.Templates.Source == "" {
		s.Templates.Source = SourceEmbedded
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	if s.Policy.RetryBackoffMs == 0 {
		s.Policy.RetryBackoffMs = DefaultRetryBackoffMs
	}
	if s.Documents.NameColumn == "" {
		s.Documents.NameColumn = s.IDColumn
	}
}

// Validate checks the semantic rules the JSON schema cannot express.
func (s *JobSpec) Validate() error {
	if _, err := ParseSchemaVersion(string(s.Schema)); err != nil {
		return NewConfigError("schema", err)
	}
	switch s.Provider.Engine {
	case EngineVertex, EngineGemini, EngineOpenAI, EngineCopilot, EngineMock:
	default:
		return NewConfigError("provider.engine", fmt.Errorf("unknown engine %q", s.Provider.Engine))
	}
	switch s.Templates.Source {
	case SourceEmbedded:
	case SourceDir, SourceGCS, SourceAzBlob:
		if strings.TrimSpace(s.Templates.Location) == "" {
			return NewConfigError("templates.location", fmt.Errorf("required for source %q", s.Templates.Source))
		}
	default:
		return NewConfigError("templates.source", fmt.Errorf("unknown source %q", s.Templates.Source))
	}
	if s.Policy.MinDelayMs != nil && *s.Policy.MinDelayMs < 0 {
		return NewConfigError("policy.min_delay_ms", fmt.Errorf("must be >= 0, got %d", *s.Policy.MinDelayMs))
	}
	if s.Policy.TimeoutSec != nil && *s.Policy.TimeoutSec < 0 {
		return NewConfigError("policy.timeout_seconds", fmt.Errorf("must be >= 0, got %d", *s.Policy.TimeoutSec))
	}
	if s.Policy.MaxRetries < 0 {
		return NewConfigError("policy.max_retries", fmt.Errorf("must be >= 0, got %d", s.Policy.MaxRetries))
	}
	return nil
}

// MinDelay returns the configured delay in milliseconds or its default.
func (p PolicyConfig) MinDelay() int {
	if p.MinDelayMs == nil {
		return DefaultMinDelayMs
	}
	return *p.MinDelayMs
}

// Timeout returns the configured per-call timeout in seconds or its default. Zero disables it.
func (p PolicyConfig) Timeout() int {
	if p.TimeoutSec == nil {
		return DefaultTimeoutSec
	}
	return *p.TimeoutSec
}

// ResolvePath makes p absolute relative to the job file directory.
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
