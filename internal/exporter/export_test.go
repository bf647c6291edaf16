package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"darkwatch/pkg/contracts/domain"
)

func sampleFindings() []domain.Finding {
	return []domain.Finding{
		{Keyword: "abc", URL: "http://a.onion", Found: true, Timestamp: time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)},
		{Keyword: "def", URL: "http://b.onion", Found: false, Timestamp: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "csv", input: "csv", want: FormatCSV},
		{name: "xlsx", input: "xlsx", want: FormatXLSX},
		{name: "empty defaults to csv", input: "", want: FormatCSV},
		{name: "unknown", input: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleFindings()))

	// BOM prefix for Excel compatibility.
	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"keyword", "url", "found", "timestamp"}, records[0])
	assert.Equal(t, []string{"abc", "http://a.onion", "true", "2024-01-05 10:30:00"}, records[1])
	assert.Equal(t, []string{"def", "http://b.onion", "false", "2024-01-06 00:00:00"}, records[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, nil))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleFindings()))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Findings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"keyword", "url", "found", "timestamp"}, rows[0])
	assert.Equal(t, "abc", rows[1][0])
	assert.Equal(t, "TRUE", rows[1][2])
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "findings.csv", FormatCSV.Filename())
	assert.Equal(t, "findings.xlsx", FormatXLSX.Filename())
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}
