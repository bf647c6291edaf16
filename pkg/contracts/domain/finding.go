package domain

import (
	"time"
)

// Finding represents one observation of whether a monitored keyword
// appeared at a monitored URL at a point in time. Findings are created
// only by parsing an uploaded dataset and are immutable afterward.
type Finding struct {
	Keyword   string    `json:"keyword" validate:"required"`
	URL       string    `json:"url" validate:"required"`
	Found     bool      `json:"found"`
	Timestamp time.Time `json:"timestamp"`
}

// SkipReason classifies why a row was rejected during parsing.
type SkipReason string

const (
	SkipMissingField SkipReason = "missing_field"
	SkipBadTimestamp SkipReason = "bad_timestamp"
	SkipBadFoundFlag SkipReason = "bad_found_flag"
)

// SkippedRow records a single rejected row for user-visible diagnostics.
type SkippedRow struct {
	Row    int        `json:"row"`
	Reason SkipReason `json:"reason"`
}

// ParseResult carries the successfully parsed findings of one uploaded
// file together with the per-row diagnostics. Row-level problems never
// abort a parse; they are collected here instead.
type ParseResult struct {
	Source   string       `json:"source"`
	Findings []Finding    `json:"findings"`
	Skipped  []SkippedRow `json:"skipped,omitempty"`
}

// SkippedCount returns the number of rows rejected during parsing.
func (r *ParseResult) SkippedCount() int {
	return len(r.Skipped)
}

// WorkingSet is the in-memory union of all findings parsed from files
// uploaded in the current session. Order is preserved on merge but
// carries no meaning downstream; duplicates are intentionally kept so
// that repeated monitoring runs are counted.
type WorkingSet struct {
	Findings []Finding `json:"findings"`
}

// Size returns the number of findings in the working set.
func (ws WorkingSet) Size() int {
	return len(ws.Findings)
}

// Statistics is the derived, read-only view over a (possibly filtered)
// working set. It is recomputed whenever the working set or the active
// date filter changes and never mutated directly.
type Statistics struct {
	TotalFindings  int     `json:"total_findings"`
	UniqueKeywords int     `json:"unique_keywords"`
	UniqueURLs     int     `json:"unique_urls"`
	FoundCount     int     `json:"found_count"`
	SuccessRate    float64 `json:"success_rate"`
}

// DateFilter is an inclusive date interval over finding timestamps.
// A zero Start or End means unbounded on that side.
type DateFilter struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// IsZero reports whether no filter is active.
func (f DateFilter) IsZero() bool {
	return f.Start.IsZero() && f.End.IsZero()
}

// TimeBucket is one point of the findings-over-time series: the number
// of findings whose timestamp falls on a calendar day.
type TimeBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// KeywordCount is one point of the keyword-frequency series.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// UploadReport summarizes the outcome of ingesting a single uploaded
// file: accepted row count, skipped row diagnostics, or a file-level
// rejection (for example when no recognizable columns were present).
type UploadReport struct {
	Filename string       `json:"filename"`
	Accepted int          `json:"accepted"`
	Skipped  []SkippedRow `json:"skipped,omitempty"`
	Rejected bool         `json:"rejected"`
	Error    string       `json:"error,omitempty"`
}
