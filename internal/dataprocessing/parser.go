package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"darkwatch/pkg/contracts/domain"
)

// ErrMissingColumns is returned when an uploaded table contains none of
// the required columns. It is the only file-level parse failure; every
// row-level problem is skipped and counted instead.
var ErrMissingColumns = errors.New("no recognizable columns in uploaded table")

// timestampLayouts are tried in order; the first layout that parses
// wins. The list covers the date styles seen in real monitoring
// exports, including what excelize renders for formatted date cells.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"01-02-2006",
	"1/2/06 15:04",
	"Jan 2, 2006",
}

// foundVocabulary coerces the found-flag cell to a boolean. Matching is
// case-insensitive over the trimmed cell value.
var foundVocabulary = map[string]bool{
	"yes":       true,
	"true":      true,
	"1":         true,
	"found":     true,
	"no":        false,
	"false":     false,
	"0":         false,
	"not found": false,
}

// ParseRows converts one uploaded table into validated findings. Rows
// missing a required field or carrying an unparseable timestamp or flag
// are skipped and reported, never fatal; only a table with none of the
// required columns fails with ErrMissingColumns.
func ParseRows(logger *slog.Logger, table RawTable) (*domain.ParseResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	columns := mapColumns(table.Header)
	if len(columns) == 0 {
		return nil, fmt.Errorf("parse %s: %w", table.Source, ErrMissingColumns)
	}

	result := &domain.ParseResult{
		Source:   table.Source,
		Findings: make([]domain.Finding, 0, len(table.Rows)),
	}

	for i, row := range table.Rows {
		// Header is row 1 in the user's spreadsheet view.
		rowNum := i + 2

		keyword := cell(row, columns, colKeyword)
		url := cell(row, columns, colURL)
		if keyword == "" || url == "" {
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: rowNum, Reason: domain.SkipMissingField})
			continue
		}

		found, ok := parseFoundFlag(cell(row, columns, colFound))
		if !ok {
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: rowNum, Reason: domain.SkipBadFoundFlag})
			continue
		}

		ts, err := parseTimestamp(cell(row, columns, colTimestamp))
		if err != nil {
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: rowNum, Reason: domain.SkipBadTimestamp})
			continue
		}

		result.Findings = append(result.Findings, domain.Finding{
			Keyword:   keyword,
			URL:       url,
			Found:     found,
			Timestamp: ts,
		})
	}

	logger.Info("parsed uploaded table",
		slog.String("source", table.Source),
		slog.Int("accepted", len(result.Findings)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

// parseFoundFlag coerces the found-flag cell using the fixed
// vocabulary. Free-text findings cells such as "Keyword found on page"
// also count as found, matching the upstream monitoring exports.
func parseFoundFlag(value string) (found, ok bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return false, false
	}
	if v, ok := foundVocabulary[normalized]; ok {
		return v, true
	}
	if strings.Contains(normalized, "not found") || strings.Contains(normalized, "no match") {
		return false, true
	}
	if strings.Contains(normalized, "keyword found") {
		return true, true
	}
	return false, false
}

// parseTimestamp tries each accepted layout in order and returns the
// first successful parse.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
