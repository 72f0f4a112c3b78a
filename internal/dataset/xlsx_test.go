package dataset

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, dir string, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	p := filepath.Join(dir, "in.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	p := writeXLSX(t, dir, "Items", [][]any{
		{"ItemId", "Enunciado", "ItemGradoId", "Clave"},
		{"M-01", "<p>Calcula</p>", 5, "B"},
		{},
		{"M-02", "Halla <i>x</i>", 7, "C"},
	})

	table, err := LoadXLSX(p, "")
	require.NoError(t, err)
	assert.Equal(t, "Items", table.Sheet)
	assert.Equal(t, []string{"ItemId", "Enunciado", "ItemGradoId", "Clave"}, table.Columns)
	require.Len(t, table.Rows, 2, "blank rows are skipped")

	assert.Equal(t, "<p>Calcula</p>", table.Rows[0]["Enunciado"])
	assert.Equal(t, KindText, table.Kind(0, "Enunciado"))
	assert.Equal(t, KindNumber, table.Kind(0, "ItemGradoId"))
	assert.Equal(t, "5", table.Rows[0]["ItemGradoId"])

	clean := table.Clean(1)
	assert.Equal(t, "Halla x", clean["Enunciado"])
}

func TestLoadXLSX_UnknownSheet(t *testing.T) {
	p := writeXLSX(t, t.TempDir(), "Items", [][]any{{"ItemId"}, {"A"}})
	_, err := LoadXLSX(p, "Otra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no sheet "Otra"`)
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := writeXLSX(t, dir, "Items", [][]any{
		{"ItemId", "Enunciado", "ItemGradoId"},
		{"M-01", "<p>Calcula</p>", 5},
	})
	table, err := Load(in, "Items")
	require.NoError(t, err)

	table.SetOutputs([]string{"Que Evalua"})
	table.Outputs[0]["Que Evalua"] = "Evalúa el cálculo"

	out := filepath.Join(dir, "out.xlsx")
	require.NoError(t, Write(out, table))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	assert.Equal(t, []string{OutputSheet}, f.GetSheetList())

	v, err := f.GetCellValue(OutputSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "<p>Calcula</p>", v, "source values are written unsanitized")

	ct, err := f.GetCellType(OutputSheet, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, ct, "numbers stay numeric")

	v, err = f.GetCellValue(OutputSheet, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Que Evalua", v)
	v, err = f.GetCellValue(OutputSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Evalúa el cálculo", v)
}

func TestWriteXLSX_KeepsNumberFormats(t *testing.T) {
	dir := t.TempDir()
	in := writeXLSX(t, dir, "Items", [][]any{
		{"ItemId", "Publicado", "Puntaje"},
		{"M-01", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 0.75},
	})

	src, err := excelize.OpenFile(in)
	require.NoError(t, err)
	pct, err := src.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	require.NoError(t, src.SetCellStyle("Items", "C2", "C2", pct))
	require.NoError(t, src.Save())
	wantDate, err := src.GetCellValue("Items", "B2")
	require.NoError(t, err)
	wantPct, err := src.GetCellValue("Items", "C2")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	table, err := Load(in, "")
	require.NoError(t, err)
	assert.Equal(t, "45366", table.Rows[0]["Publicado"], "stored value is the raw serial")
	assert.Equal(t, wantDate, table.Clean(0)["Publicado"], "prompts and documents see the displayed date")
	assert.Equal(t, wantPct, table.Display(0, "Puntaje"))
	_, ok := table.Format(0, "ItemId")
	assert.False(t, ok)

	table.SetOutputs([]string{"Que Evalua"})
	out := filepath.Join(dir, "out.xlsx")
	require.NoError(t, Write(out, table))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	got, err := f.GetCellValue(OutputSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, wantDate, got)
	got, err = f.GetCellValue(OutputSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, wantPct, got)

	raw, err := f.GetCellValue(OutputSheet, "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "45366", raw)
}
