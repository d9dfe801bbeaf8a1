// Package ingest turns uploaded contact spreadsheets into stored contacts.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parse errors.
var (
	ErrUnsupportedFile = errors.New("unsupported file type, expected .csv or .xlsx")
	ErrEmptyFile       = errors.New("file has no data rows")
)

// Table is a parsed upload: normalized headers plus raw data rows.
// Headers are lowercased and trimmed; rows may be ragged.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Parse reads an uploaded file into a Table, dispatching on the extension.
// Legacy OLE-format .xls workbooks are rejected: excelize only reads the
// OOXML .xlsx container.
func Parse(filename string, reader io.Reader) (Table, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return ParseCSV(reader)
	case ".xlsx":
		return ParseXLSX(reader)
	default:
		return Table{}, ErrUnsupportedFile
	}
}

// ParseCSV reads comma-separated data; the first record is the header row.
func ParseCSV(reader io.Reader) (Table, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	return tableFromRecords(records)
}

// ParseXLSX reads the first sheet of a workbook; the first row is the header.
func ParseXLSX(reader io.Reader) (Table, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrEmptyFile
	}
	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tableFromRecords(records)
}

func tableFromRecords(records [][]string) (Table, error) {
	if len(records) < 2 {
		return Table{}, ErrEmptyFile
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return Table{Headers: headers, Rows: records[1:]}, nil
}

// cell returns the trimmed value at column col of row, or "" when the row
// is too short.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
