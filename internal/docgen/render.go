package docgen

import (
	"fmt"
	"io"
	"os"

	"github.com/lukasjarosch/go-docx"
)

// Renderer fills a .docx template whose placeholders are {Column} names.
type Renderer struct {
	path     string
	template []byte
}

// NewRenderer reads the template once; every Render works on a fresh copy.
func NewRenderer(path string) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document template %s: %w", path, err)
	}
	r := &Renderer{path: path, template: data}
	// fail early on files that are not documents
	doc, err := docx.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("opening document template %s: %w", path, err)
	}
	doc.Close() //nolint:errcheck
	return r, nil
}

// Render writes the template with values substituted to w.
func (r *Renderer) Render(values map[string]string, w io.Writer) error {
	doc, err := docx.OpenBytes(r.template)
	if err != nil {
		return fmt.Errorf("opening document template %s: %w", r.path, err)
	}
	defer doc.Close() //nolint:errcheck

	replacements := make(docx.PlaceholderMap, len(values))
	for k, v := range values {
		replacements[k] = v
	}
	if err := doc.ReplaceAll(replacements); err != nil {
		return fmt.Errorf("filling document template: %w", err)
	}
	if err := doc.Write(w); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
