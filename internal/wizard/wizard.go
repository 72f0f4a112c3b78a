// Package wizard collects the settings of a new job interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/itemforge/fichas/internal/models"
)

// JobAnswers holds all fields collected during the interactive wizard.
type JobAnswers struct {
	Name             string
	Input            string
	Schema           string
	Engine           string
	Model            string
	Project          string
	TemplateSource   string
	TemplateLocation string
	Paraphrase       bool
	Workers          int
	DocumentTemplate string
}

// DefaultAnswers are the values offered when the wizard starts.
func DefaultAnswers() JobAnswers {
	return JobAnswers{
		Schema:         string(models.DefaultSchema),
		Engine:         models.EngineVertex,
		Model:          models.DefaultModel,
		TemplateSource: models.SourceEmbedded,
		Workers:        1,
	}
}

const jobYAMLTemplate = `# fichas job file
name: {{ .Name }}
schema: {{ .Schema }}
input: {{ quote .Input }}
provider:
  engine: {{ .Engine }}
  model: {{ .Model }}
{{- if .Project }}
  project: {{ .Project }}
{{- end }}
templates:
  source: {{ .TemplateSource }}
{{- if .TemplateLocation }}
  location: {{ quote .TemplateLocation }}
{{- end }}
{{- if .Paraphrase }}
  paraphrase: true
{{- end }}
policy:
  min_delay_ms: 1000
  timeout_seconds: 120
  max_retries: 0
workers: {{ .Workers }}
checkpoint_dir: .fichas
{{- if .DocumentTemplate }}
documents:
  template: {{ quote .DocumentTemplate }}
  plain_text: true
{{- end }}
`

// RunJobWizard runs an interactive huh form to collect job settings.
func RunJobWizard(in io.Reader, out io.Writer, defaults JobAnswers) (*JobAnswers, error) {
	a := defaults
	workers := strconv.Itoa(max(defaults.Workers, 1))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Job name").
				Placeholder("lectura-grado-5").
				Value(&a.Name).
				Validate(ValidateName),
			huh.NewInput().
				Title("Input table").
				Description("Path to the .xlsx or .csv file with one item per row").
				Placeholder("items.xlsx").
				Value(&a.Input).
				Validate(ValidateInput),
			huh.NewSelect[string]().
				Title("Output schema").
				Options(
					huh.NewOption("v2: per-option justifications, three recommendations", string(models.SchemaV2)),
					huh.NewOption("v1: correct path and distractor analysis, two recommendations", string(models.SchemaV1)),
				).
				Value(&a.Schema),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Generation engine").
				Options(
					huh.NewOption("Vertex AI", models.EngineVertex),
					huh.NewOption("Gemini API", models.EngineGemini),
					huh.NewOption("OpenAI compatible", models.EngineOpenAI),
					huh.NewOption("GitHub Copilot", models.EngineCopilot),
					huh.NewOption("Offline mock", models.EngineMock),
				).
				Value(&a.Engine),
			huh.NewInput().
				Title("Model").
				Value(&a.Model).
				Validate(required("model")),
			huh.NewInput().
				Title("GCP project").
				Description("Vertex AI only; leave blank to use GCP_PROJECT_ID").
				Value(&a.Project),
			huh.NewInput().
				Title("Workers").
				Description("Rows processed at once").
				Value(&workers).
				Validate(ValidateWorkers),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Prompt templates").
				Options(
					huh.NewOption("Built-in", models.SourceEmbedded),
					huh.NewOption("Local directory", models.SourceDir),
					huh.NewOption("Google Cloud Storage", models.SourceGCS),
					huh.NewOption("Azure Blob Storage", models.SourceAzBlob),
				).
				Value(&a.TemplateSource),
			huh.NewInput().
				Title("Template location").
				Description("Directory, gs://bucket/prefix or https://account.blob.core.windows.net/container/prefix").
				Value(&a.TemplateLocation),
			huh.NewConfirm().
				Title("Paraphrase the synthesized statement?").
				Value(&a.Paraphrase),
			huh.NewInput().
				Title("Document template").
				Description("Optional .docx with {Column} placeholders").
				Value(&a.DocumentTemplate),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(workers))
	if err != nil {
		return nil, fmt.Errorf("workers: %w", err)
	}
	a.Workers = n
	a.Name = strings.TrimSpace(a.Name)
	a.Input = strings.TrimSpace(a.Input)
	a.TemplateLocation = strings.TrimSpace(a.TemplateLocation)
	a.DocumentTemplate = strings.TrimSpace(a.DocumentTemplate)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks cross-field rules the form cannot express.
func (a *JobAnswers) Validate() error {
	if err := ValidateName(a.Name); err != nil {
		return err
	}
	if err := ValidateInput(a.Input); err != nil {
		return err
	}
	if a.TemplateSource != models.SourceEmbedded && a.TemplateLocation == "" {
		return fmt.Errorf("template location is required for source %q", a.TemplateSource)
	}
	if a.DocumentTemplate != "" && !strings.EqualFold(filepath.Ext(a.DocumentTemplate), ".docx") {
		return fmt.Errorf("document template must be a .docx file")
	}
	return nil
}

// GenerateJobYAML renders a fichas.yaml from the given answers.
func GenerateJobYAML(a *JobAnswers) (string, error) {
	tmpl, err := template.New("job").Funcs(template.FuncMap{"quote": strconv.Quote}).Parse(jobYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, a); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// ValidateName accepts names without whitespace.
func ValidateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("job name is required")
	}
	if strings.ContainsAny(s, " \t") {
		return fmt.Errorf("job name must not contain spaces")
	}
	return nil
}

// ValidateInput accepts .csv and .xlsx paths.
func ValidateInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("input table is required")
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".csv", ".xlsx", ".xlsm":
		return nil
	default:
		return fmt.Errorf("input table must be .csv or .xlsx")
	}
}

// ValidateWorkers accepts integers from 1 to 32.
func ValidateWorkers(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 32 {
		return fmt.Errorf("workers must be a number between 1 and 32")
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
