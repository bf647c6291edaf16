package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadTable decodes one uploaded spreadsheet into a RawTable, picking
// the decoder from the filename extension. xlsx and csv are the formats
// produced by the upstream monitoring exports.
func ReadTable(filename string, r io.Reader) (RawTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readExcel(filename, r)
	case ".csv":
		return readCSV(filename, r)
	default:
		return RawTable{}, fmt.Errorf("unsupported file type: %s", filename)
	}
}

// readExcel extracts the first sheet containing a recognizable header
// row. Monitoring exports sometimes carry cover or legend sheets before
// the data, so every sheet is probed until one maps to known columns.
func readExcel(filename string, r io.Reader) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawTable{}, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		if len(mapColumns(rows[0])) == 0 {
			continue
		}
		return RawTable{Source: filename, Header: rows[0], Rows: rows[1:]}, nil
	}

	// No sheet matched; hand the first sheet to the parser so the
	// failure surfaces as ErrMissingColumns with row context.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return RawTable{}, fmt.Errorf("open %s: workbook has no sheets", filename)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return RawTable{}, fmt.Errorf("read %s: %w", filename, err)
	}
	table := RawTable{Source: filename}
	if len(rows) > 0 {
		table.Header = rows[0]
		table.Rows = rows[1:]
	}
	return table, nil
}

func readCSV(filename string, r io.Reader) (RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return RawTable{}, fmt.Errorf("read %s: %w", filename, err)
	}

	table := RawTable{Source: filename}
	if len(records) > 0 {
		table.Header = records[0]
		table.Rows = records[1:]
	}
	return table, nil
}
