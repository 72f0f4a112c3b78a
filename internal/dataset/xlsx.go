package dataset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads a worksheet. The first row holds column names.
func LoadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("xlsx: %s has no sheet %q (sheets: %s)", path, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read %s: %w", path, err)
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("xlsx: %s sheet %q is empty (no header row)", path, sheet)
	}

	headers := records[0]
	t := &Table{Columns: headers, Sheet: sheet}

	for r, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make(Row, len(headers))
		kinds := make(map[string]CellKind, len(headers))
		formats := map[string]NumFormat{}
		display := map[string]string{}
		for c, h := range headers {
			if h == "" {
				continue
			}
			var v string
			if c < len(record) {
				v = record[c]
			}
			row[h] = v

			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			kind, err := cellKind(f, sheet, cell, v)
			if err != nil {
				return nil, fmt.Errorf("xlsx: cell %s: %w", cell, err)
			}
			kinds[h] = kind
			if kind == KindText || kind == KindEmpty {
				continue
			}

			nf, ok, err := cellFormat(f, sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("xlsx: cell %s: %w", cell, err)
			}
			if ok {
				formats[h] = nf
			}
			if r+1 < len(shown) && c < len(shown[r+1]) && shown[r+1][c] != v {
				display[h] = shown[r+1][c]
			}
		}
		t.Rows = append(t.Rows, row)
		t.Kinds = append(t.Kinds, kinds)
		t.Formats = append(t.Formats, formats)
		t.Shown = append(t.Shown, display)
	}
	return t, nil
}

// cellFormat reads the number format applied to a cell. General is no format.
func cellFormat(f *excelize.File, sheet, cell string) (NumFormat, bool, error) {
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return NumFormat{}, false, err
	}
	style, err := f.GetStyle(idx)
	if err != nil {
		return NumFormat{}, false, err
	}
	nf := NumFormat{ID: style.NumFmt}
	if style.CustomNumFmt != nil {
		nf.Custom = *style.CustomNumFmt
	}
	return nf, nf.ID != 0 || nf.Custom != "", nil
}

func cellKind(f *excelize.File, sheet, cell, value string) (CellKind, error) {
	if value == "" {
		return KindEmpty, nil
	}
	ct, err := f.GetCellType(sheet, cell)
	if err != nil {
		return KindText, err
	}
	switch ct {
	case excelize.CellTypeBool:
		return KindBool, nil
	case excelize.CellTypeDate:
		return KindDate, nil
	case excelize.CellTypeNumber:
		return KindNumber, nil
	case excelize.CellTypeUnset:
		// cells without a type attribute are numeric in the file format
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return KindNumber, nil
		}
		return KindText, nil
	default:
		return KindText, nil
	}
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteXLSX writes the table to the OutputSheet worksheet of a new workbook.
// Number and boolean cells keep their type, and source cells keep their
// number format.
func WriteXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	styles := map[NumFormat]int{}

	if err := f.SetSheetName(f.GetSheetName(0), OutputSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	header := t.HeaderRow()
	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(OutputSheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for i := range t.Rows {
		cells := make([]any, len(header))
		for j, c := range header {
			cells[j] = t.typedValue(i, c)
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(OutputSheet, start, &cells); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
		for j, c := range header {
			if slices.Contains(t.OutputColumns, c) {
				continue
			}
			nf, ok := t.Format(i, c)
			if !ok {
				continue
			}
			if err := applyFormat(f, styles, nf, j+1, i+2); err != nil {
				return fmt.Errorf("xlsx: format row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

func applyFormat(f *excelize.File, styles map[NumFormat]int, nf NumFormat, col, row int) error {
	id, ok := styles[nf]
	if !ok {
		style := &excelize.Style{NumFmt: nf.ID}
		if nf.Custom != "" {
			style.CustomNumFmt = &nf.Custom
		}
		var err error
		if id, err = f.NewStyle(style); err != nil {
			return err
		}
		styles[nf] = id
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(OutputSheet, cell, cell, id)
}

func (t *Table) typedValue(row int, column string) any {
	v := t.Value(row, column)
	if t.HasColumn(column) && !slices.Contains(t.OutputColumns, column) {
		switch t.Kind(row, column) {
		case KindNumber, KindDate:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		case KindBool:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		case KindEmpty:
			return nil
		}
	}
	return v
}
