package docgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zip"

	"github.com/itemforge/fichas/internal/dataset"
	"github.com/itemforge/fichas/internal/logger"
)

// Options control document assembly.
type Options struct {
	// Template is the .docx template path.
	Template string
	// Archive is the zip file written.
	Archive string
	// NameColumn names the column whose value becomes the entry name.
	NameColumn string
	// PlainText converts markdown in output columns to plain text.
	PlainText bool
	Logger    *logger.Logger
}

// Report describes a written archive.
type Report struct {
	Archive string
	Entries []string
}

// RowValues maps every column to the text placed in the document: sanitized
// source values and generated outputs. Absent values are empty.
func RowValues(t *dataset.Table, row int, plain bool) map[string]string {
	clean := t.Clean(row)
	values := make(map[string]string, len(t.Columns)+len(t.OutputColumns))
	for _, c := range t.HeaderRow() {
		if slices.Contains(t.OutputColumns, c) {
			v := t.Output(row, c)
			if plain {
				v = PlainText(v)
			}
			values[c] = v
			continue
		}
		values[c] = clean[c]
	}
	return values
}

// Assemble renders one document per row, whatever its state, into a zip archive.
// A failed assembly leaves no archive behind.
func Assemble(ctx context.Context, t *dataset.Table, opts Options) (_ *Report, err error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.NameColumn == "" {
		return nil, fmt.Errorf("assemble: name column is required")
	}
	if !t.HasColumn(opts.NameColumn) && !slices.Contains(t.OutputColumns, opts.NameColumn) {
		return nil, fmt.Errorf("assemble: name column %q not found in table", opts.NameColumn)
	}

	renderer, err := NewRenderer(opts.Template)
	if err != nil {
		return nil, err
	}

	keys := make([]string, t.Len())
	for i := range keys {
		keys[i] = t.Clean(i)[opts.NameColumn]
		if slices.Contains(t.OutputColumns, opts.NameColumn) {
			keys[i] = t.Output(i, opts.NameColumn)
		}
	}
	names := EntryNames(keys)

	if dir := filepath.Dir(opts.Archive); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("assemble: creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(opts.Archive)
	if err != nil {
		return nil, fmt.Errorf("assemble: creating archive: %w", err)
	}
	defer f.Close() //nolint:errcheck
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(opts.Archive)
		}
	}()

	zw := zip.NewWriter(f)
	report := &Report{Archive: opts.Archive}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("assemble: %w", err)
		}
		entry := name + ".docx"
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("assemble: adding %s: %w", entry, err)
		}
		if err := renderer.Render(RowValues(t, i, opts.PlainText), w); err != nil {
			return nil, fmt.Errorf("assemble: row %d (%s): %w", i+1, entry, err)
		}
		log.Debug("document rendered", "row", i+1, "entry", entry)
		report.Entries = append(report.Entries, entry)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("assemble: finishing archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("assemble: closing archive: %w", err)
	}
	log.Info("archive written", "path", opts.Archive, "documents", len(report.Entries))
	return report, nil
}
