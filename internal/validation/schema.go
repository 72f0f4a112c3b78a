// Package validation checks job files against the embedded JSON Schema.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/itemforge/fichas/internal/models"
	"github.com/itemforge/fichas/schemas"
)

// printer formats schema violation messages.
var printer = message.NewPrinter(language.English)

const jobSchemaName = "job.schema.json"

var jobSchema = sync.OnceValue(func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemas.JobSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("embedded %s: %v", jobSchemaName, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(jobSchemaName, doc); err != nil {
		panic(fmt.Sprintf("embedded %s: %v", jobSchemaName, err))
	}
	return c.MustCompile(jobSchemaName)
})

// ValidateJobBytes returns every violation of the job schema in a YAML job
// file, sorted by location. An empty result means the file is valid.
func ValidateJobBytes(data []byte) []string {
	instance, err := yamlInstance(data)
	if err != nil {
		return []string{err.Error()}
	}

	err = jobSchema().Validate(instance)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("/: %v", err)}
	}
	var problems []string
	collect(ve, &problems)
	sort.Strings(problems)
	return problems
}

// CheckJobBytes returns a configuration error listing every schema violation.
func CheckJobBytes(data []byte) error {
	problems := ValidateJobBytes(data)
	if len(problems) == 0 {
		return nil
	}
	return models.NewConfigError("validating job file",
		errors.New(printer.Sprintf("%d problem(s):\n  %s", len(problems), strings.Join(problems, "\n  "))))
}

// yamlInstance decodes YAML into the JSON value model the validator expects.
func yamlInstance(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parse error: %v", err)
	}
	if doc == nil {
		return nil, errors.New("/: job file is empty")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("/: job file is not a JSON-compatible document: %v", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

func collect(ve *jsonschema.ValidationError, problems *[]string) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			collect(c, problems)
		}
		return
	}
	*problems = append(*problems, fmt.Sprintf("/%s: %s",
		strings.Join(ve.InstanceLocation, "/"), ve.ErrorKind.LocalizedString(printer)))
}
