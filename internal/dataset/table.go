package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is the in-memory tabular dataset the pipelines consume. Cells are
// kept as raw strings; coercion happens downstream so a bad cell never
// fails the whole upload.
type Table struct {
	Columns []string
	Rows    [][]string
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// NormalizeColumnName lowers, trims and strips separators so header
// variants like "STOK AKHIR" / "stok_akhir" resolve to the same column.
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// ColumnIndex returns the index of the first header matching any of the
// given names after normalization, or -1.
func (t *Table) ColumnIndex(names ...string) int {
	if len(names) == 0 {
		return -1
	}
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[NormalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.Columns {
		if _, ok := targets[NormalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell at (row, idx), or "" when out of range.
func (t *Table) Cell(row, idx int) string {
	if row < 0 || row >= len(t.Rows) || idx < 0 || idx >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][idx])
}

// ReadCSV reads a delimited dataset into a Table. The first record is the
// header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// WriteCSV writes the table as CSV, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Read loads a tabular dataset from a stream, dispatching on the original
// filename's extension. Used for uploads that never touch disk.
func Read(r io.Reader, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return ReadXLSXFrom(r)
	default:
		return ReadCSV(r)
	}
}

// ReadFile loads a tabular file, dispatching on extension. XLSX/XLS go
// through excelize, anything else is treated as delimited text.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return ReadXLSX(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	}
}

// WriteFile persists the table, dispatching on extension like ReadFile.
func (t *Table) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return t.WriteXLSX(path)
	default:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		return t.WriteCSV(f)
	}
}
