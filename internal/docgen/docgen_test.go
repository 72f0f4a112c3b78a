package docgen

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemforge/fichas/internal/dataset"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>{ItemId}</w:t></w:r></w:p><w:p><w:r><w:t>{Que_Evalua}</w:t></w:r></w:p></w:body></w:document>`

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "plantilla.docx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"[Content_Types].xml": contentTypes,
		"_rels/.rels":         rels,
		"word/document.xml":   documentXML,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func readEntry(t *testing.T, f *zip.File, name string) string {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck
	inner, err := io.ReadAll(rc)
	require.NoError(t, err)

	zr, err := zip.NewReader(strings.NewReader(string(inner)), int64(len(inner)))
	require.NoError(t, err)
	for _, e := range zr.File {
		if e.Name == name {
			r, err := e.Open()
			require.NoError(t, err)
			defer r.Close() //nolint:errcheck
			b, err := io.ReadAll(r)
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func TestEntryNames(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{name: "plain", values: []string{"M-01", "M-02"}, want: []string{"M-01", "M-02"}},
		{name: "separators", values: []string{"a/b", `c\d`}, want: []string{"a_b", "c_d"}},
		{name: "blank", values: []string{"", "  "}, want: []string{"ficha_1", "ficha_2"}},
		{name: "duplicates", values: []string{"X", "X", "X"}, want: []string{"X", "X_2", "X_3"}},
		{name: "suffix collision", values: []string{"X_2", "X", "X"}, want: []string{"X_2", "X", "X_3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntryNames(tt.values))
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want string
	}{
		{name: "empty", md: "", want: ""},
		{name: "emphasis", md: "El **estudiante** *identifica* la idea.", want: "El estudiante identifica la idea."},
		{name: "heading and paragraph", md: "## Título\n\nTexto.", want: "Título\n\nTexto."},
		{name: "list", md: "- uno\n- dos", want: "- uno\n- dos"},
		{name: "link", md: "Ver [guía](http://x.org).", want: "Ver guía."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.md))
		})
	}
}

func TestAssemble(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir)

	table := &dataset.Table{
		Columns: []string{"ItemId", "Enunciado"},
		Rows: []dataset.Row{
			{"ItemId": "M/01", "Enunciado": "<b>Lee</b>"},
			{"ItemId": "M/01", "Enunciado": "Otro"},
			{"ItemId": "", "Enunciado": "Sin id"},
		},
	}
	table.SetOutputs([]string{"Que_Evalua"})
	table.Outputs[0]["Que_Evalua"] = "Evalúa **la lectura**"
	table.Outputs[1]["Que_Evalua"] = "ERROR EN PROCESAMIENTO: timeout"

	archive := filepath.Join(dir, "out", "fichas.zip")
	report, err := Assemble(context.Background(), table, Options{
		Template:   tmpl,
		Archive:    archive,
		NameColumn: "ItemId",
		PlainText:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"M_01.docx", "M_01_2.docx", "ficha_3.docx"}, report.Entries)

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close() //nolint:errcheck
	require.Len(t, zr.File, 3)
	assert.Equal(t, zip.Deflate, zr.File[0].Method)

	doc := readEntry(t, zr.File[0], "word/document.xml")
	assert.Contains(t, doc, "M/01")
	assert.Contains(t, doc, "Evalúa la lectura")
	assert.NotContains(t, doc, "{Que_Evalua}")

	doc = readEntry(t, zr.File[1], "word/document.xml")
	assert.Contains(t, doc, "ERROR EN PROCESAMIENTO: timeout")
}

func TestAssemble_CancelledRemovesArchive(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir)
	table := &dataset.Table{Columns: []string{"ItemId"}, Rows: []dataset.Row{{"ItemId": "A"}, {"ItemId": "B"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	archive := filepath.Join(dir, "fichas.zip")
	_, err := Assemble(ctx, table, Options{Template: tmpl, Archive: archive, NameColumn: "ItemId"})
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(archive)
	assert.True(t, os.IsNotExist(statErr), "no partial archive is left")
}

func TestAssemble_UnknownNameColumn(t *testing.T) {
	table := &dataset.Table{Columns: []string{"ItemId"}, Rows: []dataset.Row{{"ItemId": "A"}}}
	_, err := Assemble(context.Background(), table, Options{
		Template:   "unused.docx",
		Archive:    filepath.Join(t.TempDir(), "a.zip"),
		NameColumn: "Nombre",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `name column "Nombre" not found`)
}

func TestRowValues(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"Enunciado", "Extra"},
		Rows:    []dataset.Row{{"Enunciado": "<p>Hola</p>"}},
	}
	table.SetOutputs([]string{"Que_Evalua"})
	table.Outputs[0]["Que_Evalua"] = "*Texto*"

	got := RowValues(table, 0, false)
	assert.Equal(t, map[string]string{"Enunciado": "Hola", "Extra": "", "Que_Evalua": "*Texto*"}, got)

	got = RowValues(table, 0, true)
	assert.Equal(t, "Texto", got["Que_Evalua"])
}
