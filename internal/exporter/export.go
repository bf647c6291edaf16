package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"darkwatch/pkg/contracts/domain"
)

// Format identifies a supported export serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const timestampLayout = "2006-01-02 15:04:05"

var header = []string{"keyword", "url", "found", "timestamp"}

// ParseFormat validates a format query value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns the suggested download filename for the format.
func (f Format) Filename() string {
	return "findings." + string(f)
}

// Write serializes the findings in the given format.
func Write(w io.Writer, format Format, findings []domain.Finding) error {
	if format == FormatXLSX {
		return writeXLSX(w, findings)
	}
	return writeCSV(w, findings)
}

// writeCSV writes the findings as UTF-8 CSV. A BOM prefix keeps Excel
// from misreading the encoding.
func writeCSV(w io.Writer, findings []domain.Finding) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, f := range findings {
		record := []string{
			f.Keyword,
			f.URL,
			strconv.FormatBool(f.Found),
			f.Timestamp.Format(timestampLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, findings []domain.Finding) error {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Findings"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, f := range findings {
		values := []interface{}{
			f.Keyword,
			f.URL,
			f.Found,
			f.Timestamp.In(time.UTC).Format(timestampLayout),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
