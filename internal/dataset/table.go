package dataset

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/itemforge/fichas/internal/sanitize"
)

// Row represents a single row with column name to value mapping.
type Row map[string]string

// CellKind is the type a spreadsheet cell was stored with.
type CellKind int

const (
	KindText CellKind = iota
	KindNumber
	KindBool
	KindDate
	KindEmpty
)

// NumFormat is a spreadsheet number format: a built-in ID or a custom code.
type NumFormat struct {
	ID     int
	Custom string
}

// Table is a loaded input table plus the output fields generated for it.
type Table struct {
	Columns []string
	// Rows hold source values exactly as loaded.
	Rows []Row
	// Kinds holds per-cell kinds for spreadsheet input; nil means every cell is text.
	Kinds []map[string]CellKind
	// Formats holds the number format of formatted spreadsheet cells.
	Formats []map[string]NumFormat
	// Shown holds cell text as the spreadsheet displays it, where it differs
	// from the stored value (dates, currency, percentages).
	Shown []map[string]string
	// Sheet is the worksheet read, blank for CSV.
	Sheet string

	OutputColumns []string
	Outputs       []map[string]string
}

// OutputSheet is the worksheet name used when writing spreadsheets.
const OutputSheet = "Datos Enriquecidos"

// Load reads a .csv or .xlsx file. sheet selects a worksheet and defaults to the first.
func Load(path, sheet string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("dataset: unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// Write saves source columns and output columns to a .csv or .xlsx file.
func Write(path string, t *Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSV(path, t)
	case ".xlsx":
		return WriteXLSX(path, t)
	default:
		return fmt.Errorf("dataset: unsupported output format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Kind returns the stored kind of a cell.
func (t *Table) Kind(row int, column string) CellKind {
	if t.Kinds == nil || row >= len(t.Kinds) {
		return KindText
	}
	k, ok := t.Kinds[row][column]
	if !ok {
		return KindText
	}
	return k
}

// Format returns the number format of a source cell, if it has one.
func (t *Table) Format(row int, column string) (NumFormat, bool) {
	if t.Formats == nil || row >= len(t.Formats) {
		return NumFormat{}, false
	}
	nf, ok := t.Formats[row][column]
	return nf, ok
}

// Display returns a source cell as the spreadsheet shows it.
func (t *Table) Display(row int, column string) string {
	if t.Shown != nil && row < len(t.Shown) {
		if v, ok := t.Shown[row][column]; ok {
			return v
		}
	}
	return t.Rows[row][column]
}

// HasColumn reports whether the input has a column.
func (t *Table) HasColumn(column string) bool {
	return slices.Contains(t.Columns, column)
}

// Clean returns the row with markup stripped from text cells. Other cells
// carry their displayed text.
func (t *Table) Clean(row int) Row {
	src := t.Rows[row]
	out := make(Row, len(src))
	for k, v := range src {
		if t.Kind(row, k) == KindText {
			out[k] = sanitize.String(v)
		} else {
			out[k] = t.Display(row, k)
		}
	}
	return out
}

// SetOutputs declares the output columns and allocates empty output rows.
func (t *Table) SetOutputs(columns []string) {
	t.OutputColumns = slices.Clone(columns)
	t.Outputs = make([]map[string]string, len(t.Rows))
	for i := range t.Outputs {
		t.Outputs[i] = map[string]string{}
	}
}

// AdoptOutputs treats columns already present in the input as output columns,
// as when reading back an enriched table. Absent columns are ignored.
func (t *Table) AdoptOutputs(columns []string) {
	var present []string
	for _, c := range columns {
		if t.HasColumn(c) {
			present = append(present, c)
		}
	}
	t.SetOutputs(present)
	for i, row := range t.Rows {
		for _, c := range present {
			t.Outputs[i][c] = row[c]
		}
	}
}

// Output returns the value of an output column for a row.
func (t *Table) Output(row int, column string) string {
	if row >= len(t.Outputs) || t.Outputs[row] == nil {
		return ""
	}
	return t.Outputs[row][column]
}

// HeaderRow returns input columns followed by output columns not already present.
func (t *Table) HeaderRow() []string {
	header := slices.Clone(t.Columns)
	for _, c := range t.OutputColumns {
		if !slices.Contains(header, c) {
			header = append(header, c)
		}
	}
	return header
}

// Value returns the cell written for a column: the output when the column is an
// output column, the source value otherwise.
func (t *Table) Value(row int, column string) string {
	if slices.Contains(t.OutputColumns, column) {
		return t.Output(row, column)
	}
	return t.Rows[row][column]
}

// Range keeps rows [start, end] (1-based, inclusive), clamping end to the table.
func (t *Table) Range(start, end int) (*Table, error) {
	if start < 1 {
		return nil, fmt.Errorf("dataset: range start must be >= 1, got %d", start)
	}
	if end < start {
		return nil, fmt.Errorf("dataset: range end (%d) must be >= start (%d)", end, start)
	}
	if end > len(t.Rows) {
		end = len(t.Rows)
	}
	out := &Table{Columns: t.Columns, Sheet: t.Sheet}
	if start > len(t.Rows) {
		return out, nil
	}
	out.Rows = t.Rows[start-1 : end]
	if t.Kinds != nil {
		out.Kinds = t.Kinds[start-1 : end]
	}
	if t.Formats != nil {
		out.Formats = t.Formats[start-1 : end]
	}
	if t.Shown != nil {
		out.Shown = t.Shown[start-1 : end]
	}
	return out, nil
}
