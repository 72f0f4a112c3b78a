package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadCSV reads a CSV file. The first row is treated as headers (column names).
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	rows := make([]Row, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return &Table{Columns: headers, Rows: rows}, nil
}

// WriteCSV writes the table with a header row.
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	header := t.HeaderRow()
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	record := make([]string, len(header))
	for i := range t.Rows {
		for j, c := range header {
			record[j] = t.Value(i, c)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	return f.Close()
}
