package dataprocessing

import (
	"strings"
)

// RawTable is the decoded content of one uploaded spreadsheet: a header
// row followed by data rows. Readers produce it, ParseRows consumes it.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// Canonical column names the parser works with.
const (
	colKeyword   = "keyword"
	colURL       = "url"
	colFound     = "found"
	colTimestamp = "timestamp"
)

// headerAliases maps normalized spreadsheet header names to canonical
// columns. Uploads come from different export tools, so several
// spellings are accepted for each field.
var headerAliases = map[string]string{
	"keyword":    colKeyword,
	"keywords":   colKeyword,
	"term":       colKeyword,
	"url":        colURL,
	"link":       colURL,
	"source":     colURL,
	"site":       colURL,
	"found":      colFound,
	"findings":   colFound,
	"finding":    colFound,
	"result":     colFound,
	"status":     colFound,
	"timestamp":  colTimestamp,
	"date":       colTimestamp,
	"time":       colTimestamp,
	"checked at": colTimestamp,
	"checked_at": colTimestamp,
	"datetime":   colTimestamp,
}

// mapColumns builds the canonical field map for a header row. Matching
// is case-insensitive and ignores surrounding whitespace. When two
// headers map to the same canonical column the first one wins.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, 4)
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, taken := columns[canonical]; taken {
			continue
		}
		columns[canonical] = i
	}
	return columns
}

// cell returns the trimmed value of the named canonical column for a
// row, or "" when the row is too short or the column is absent.
func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
