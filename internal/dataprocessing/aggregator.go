package dataprocessing

import (
	"sort"
	"time"

	"darkwatch/pkg/contracts/domain"
)

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Merge concatenates the findings of the given parse results into one
// working set. Order is preserved but not meaningful; identical rows
// from different uploads are intentionally kept so that repeated
// monitoring runs are counted.
func Merge(results ...*domain.ParseResult) domain.WorkingSet {
	total := 0
	for _, r := range results {
		if r != nil {
			total += len(r.Findings)
		}
	}
	findings := make([]domain.Finding, 0, total)
	for _, r := range results {
		if r != nil {
			findings = append(findings, r.Findings...)
		}
	}
	return domain.WorkingSet{Findings: findings}
}

// FilterByDate returns the subset of findings whose timestamp falls
// within the filter interval, inclusive on both ends. Bounds compare at
// calendar-day granularity so a finding at 15:04 on the end date is
// still included. Start after end yields an empty subset, not an error.
func FilterByDate(ws domain.WorkingSet, filter domain.DateFilter) domain.WorkingSet {
	if filter.IsZero() {
		return domain.WorkingSet{Findings: append([]domain.Finding(nil), ws.Findings...)}
	}

	subset := make([]domain.Finding, 0, len(ws.Findings))
	for _, f := range ws.Findings {
		day := truncateToDay(f.Timestamp)
		if !filter.Start.IsZero() && day.Before(truncateToDay(filter.Start)) {
			continue
		}
		if !filter.End.IsZero() && day.After(truncateToDay(filter.End)) {
			continue
		}
		subset = append(subset, f)
	}
	return domain.WorkingSet{Findings: subset}
}

// ComputeStatistics derives the aggregate view over a working set. The
// success rate is found/total and exactly zero for an empty set.
func ComputeStatistics(ws domain.WorkingSet) domain.Statistics {
	keywords := make(map[string]struct{})
	urls := make(map[string]struct{})
	found := 0
	for _, f := range ws.Findings {
		keywords[f.Keyword] = struct{}{}
		urls[f.URL] = struct{}{}
		if f.Found {
			found++
		}
	}

	stats := domain.Statistics{
		TotalFindings:  len(ws.Findings),
		UniqueKeywords: len(keywords),
		UniqueURLs:     len(urls),
		FoundCount:     found,
	}
	if stats.TotalFindings > 0 {
		stats.SuccessRate = float64(found) / float64(stats.TotalFindings)
	}
	return stats
}

// FindingsOverTime buckets findings by calendar day and returns the
// per-day counts in ascending date order. Days without findings are not
// synthesized; the chart collaborator decides how to render gaps.
func FindingsOverTime(ws domain.WorkingSet) []domain.TimeBucket {
	counts := make(map[string]int)
	for _, f := range ws.Findings {
		counts[f.Timestamp.Format("2006-01-02")]++
	}

	series := make([]domain.TimeBucket, 0, len(counts))
	for date, count := range counts {
		series = append(series, domain.TimeBucket{Date: date, Count: count})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return series
}

// KeywordFrequency counts occurrences per keyword, ordered descending
// by count with ties broken by ascending keyword so chart and test
// output is reproducible.
func KeywordFrequency(ws domain.WorkingSet) []domain.KeywordCount {
	counts := make(map[string]int)
	for _, f := range ws.Findings {
		counts[f.Keyword]++
	}

	series := make([]domain.KeywordCount, 0, len(counts))
	for keyword, count := range counts {
		series = append(series, domain.KeywordCount{Keyword: keyword, Count: count})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Count != series[j].Count {
			return series[i].Count > series[j].Count
		}
		return series[i].Keyword < series[j].Keyword
	})
	return series
}
