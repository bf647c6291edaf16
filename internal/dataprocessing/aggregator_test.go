package dataprocessing

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkwatch/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func finding(keyword, url string, found bool, ts time.Time) domain.Finding {
	return domain.Finding{Keyword: keyword, URL: url, Found: found, Timestamp: ts}
}

func TestComputeStatistics(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("bitcoin", "http://x", true, day(2024, 1, 5)),
		finding("bitcoin", "http://y", false, day(2024, 1, 5)),
		finding("creditcard", "http://z", true, day(2024, 1, 6)),
	}}

	stats := ComputeStatistics(ws)

	assert.Equal(t, 3, stats.TotalFindings)
	assert.Equal(t, 2, stats.UniqueKeywords)
	assert.Equal(t, 3, stats.UniqueURLs)
	assert.Equal(t, 2, stats.FoundCount)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(domain.WorkingSet{})

	assert.Equal(t, 0, stats.TotalFindings)
	assert.Equal(t, 0, stats.UniqueKeywords)
	assert.Equal(t, 0, stats.UniqueURLs)
	assert.Equal(t, 0, stats.FoundCount)
	assert.Zero(t, stats.SuccessRate)
}

func TestComputeStatistics_KeywordsCaseSensitive(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("Bitcoin", "http://x", true, day(2024, 1, 5)),
		finding("bitcoin", "http://x", true, day(2024, 1, 5)),
	}}

	stats := ComputeStatistics(ws)
	assert.Equal(t, 2, stats.UniqueKeywords)
	assert.Equal(t, 1, stats.UniqueURLs)
}

func TestMerge_KeepsDuplicatesAndOrderIndependent(t *testing.T) {
	a := &domain.ParseResult{Findings: []domain.Finding{
		finding("bitcoin", "http://x", true, day(2024, 1, 5)),
	}}
	b := &domain.ParseResult{Findings: []domain.Finding{
		finding("bitcoin", "http://x", true, day(2024, 1, 5)),
		finding("passport", "http://y", false, day(2024, 1, 6)),
	}}

	ab := Merge(a, b)
	ba := Merge(b, a)

	// Identical rows across uploads both survive.
	assert.Equal(t, 3, ab.Size())
	assert.Equal(t, 3, ba.Size())

	// Upload order does not change the resulting statistics.
	assert.Equal(t, ComputeStatistics(ab), ComputeStatistics(ba))
	assert.Equal(t, KeywordFrequency(ab), KeywordFrequency(ba))
}

func TestMerge_Associative(t *testing.T) {
	a := &domain.ParseResult{Findings: []domain.Finding{finding("a", "http://a", true, day(2024, 1, 1))}}
	b := &domain.ParseResult{Findings: []domain.Finding{finding("b", "http://b", false, day(2024, 1, 2))}}
	c := &domain.ParseResult{Findings: []domain.Finding{finding("c", "http://c", true, day(2024, 1, 3))}}

	left := Merge(&domain.ParseResult{Findings: Merge(a, b).Findings}, c)
	right := Merge(a, &domain.ParseResult{Findings: Merge(b, c).Findings})

	assert.Equal(t, ComputeStatistics(left), ComputeStatistics(right))
}

func TestMerge_NilResults(t *testing.T) {
	ws := Merge(nil, &domain.ParseResult{Findings: []domain.Finding{
		finding("a", "http://a", true, day(2024, 1, 1)),
	}}, nil)
	assert.Equal(t, 1, ws.Size())
}

func TestFilterByDate(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("a", "http://a", true, day(2024, 1, 1)),
		finding("b", "http://b", false, time.Date(2024, 1, 5, 15, 4, 0, 0, time.UTC)),
		finding("c", "http://c", true, day(2024, 1, 10)),
	}}

	tests := []struct {
		name   string
		filter domain.DateFilter
		want   int
	}{
		{
			name:   "no filter returns everything",
			filter: domain.DateFilter{},
			want:   3,
		},
		{
			name:   "inclusive bounds",
			filter: domain.DateFilter{Start: day(2024, 1, 1), End: day(2024, 1, 5)},
			want:   2,
		},
		{
			name:   "end date includes findings later that day",
			filter: domain.DateFilter{Start: day(2024, 1, 5), End: day(2024, 1, 5)},
			want:   1,
		},
		{
			name:   "start after end yields empty subset",
			filter: domain.DateFilter{Start: day(2024, 2, 1), End: day(2024, 1, 1)},
			want:   0,
		},
		{
			name:   "open start",
			filter: domain.DateFilter{End: day(2024, 1, 5)},
			want:   2,
		},
		{
			name:   "open end",
			filter: domain.DateFilter{Start: day(2024, 1, 5)},
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subset := FilterByDate(ws, tt.filter)
			assert.Equal(t, tt.want, subset.Size())
		})
	}
}

func TestFilterByDate_EmptyRangeHasZeroStatistics(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("a", "http://a", true, day(2024, 1, 1)),
	}}

	subset := FilterByDate(ws, domain.DateFilter{Start: day(2024, 3, 1), End: day(2024, 1, 1)})
	stats := ComputeStatistics(subset)

	assert.Zero(t, stats.TotalFindings)
	assert.Zero(t, stats.SuccessRate)
}

func TestFilterByDate_DoesNotMutateWorkingSet(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("a", "http://a", true, day(2024, 1, 1)),
		finding("b", "http://b", true, day(2024, 2, 1)),
	}}

	_ = FilterByDate(ws, domain.DateFilter{Start: day(2024, 1, 15)})
	assert.Equal(t, 2, ws.Size())
}

func TestFindingsOverTime(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("a", "http://a", true, day(2024, 1, 10)),
		finding("b", "http://b", false, day(2024, 1, 5)),
		finding("c", "http://c", true, day(2024, 1, 5)),
		finding("d", "http://d", true, time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)),
	}}

	series := FindingsOverTime(ws)

	require.Len(t, series, 2)
	assert.Equal(t, domain.TimeBucket{Date: "2024-01-05", Count: 2}, series[0])
	assert.Equal(t, domain.TimeBucket{Date: "2024-01-10", Count: 2}, series[1])
}

func TestFindingsOverTime_NoGapSynthesis(t *testing.T) {
	ws := domain.WorkingSet{Findings: []domain.Finding{
		finding("a", "http://a", true, day(2024, 1, 1)),
		finding("b", "http://b", true, day(2024, 1, 31)),
	}}

	series := FindingsOverTime(ws)
	assert.Len(t, series, 2)
}

func TestKeywordFrequency_Ordering(t *testing.T) {
	var findings []domain.Finding
	add := func(keyword string, n int) {
		for i := 0; i < n; i++ {
			findings = append(findings, finding(keyword, "http://x", true, day(2024, 1, 1)))
		}
	}
	add("abc", 3)
	add("xyz", 3)
	add("def", 5)

	series := KeywordFrequency(domain.WorkingSet{Findings: findings})

	require.Len(t, series, 3)
	assert.Equal(t, domain.KeywordCount{Keyword: "def", Count: 5}, series[0])
	assert.Equal(t, domain.KeywordCount{Keyword: "abc", Count: 3}, series[1])
	assert.Equal(t, domain.KeywordCount{Keyword: "xyz", Count: 3}, series[2])
}

func TestPipeline_SpecWorkedExample(t *testing.T) {
	table := RawTable{
		Source: "sample.xlsx",
		Header: []string{"Keyword", "URL", "Found", "Date"},
		Rows: [][]string{
			{"bitcoin", "http://x", "Yes", "2024-01-05"},
			{"bitcoin", "http://y", "No", "2024-01-05"},
			{"creditcard", "http://z", "yes", "2024-01-06"},
		},
	}

	result, err := ParseRows(slog.Default(), table)
	require.NoError(t, err)

	stats := ComputeStatistics(Merge(result))
	assert.Equal(t, 3, stats.TotalFindings)
	assert.Equal(t, 2, stats.UniqueKeywords)
	assert.Equal(t, 3, stats.UniqueURLs)
	assert.Equal(t, 2, stats.FoundCount)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
}
