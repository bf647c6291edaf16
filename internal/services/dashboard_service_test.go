package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkwatch/pkg/contracts/domain"
)

type stubNotifier struct {
	updates []string
}

func (n *stubNotifier) BroadcastDataUpdate(sessionID string) {
	n.updates = append(n.updates, sessionID)
}

func csvUpload(name, payload string) Upload {
	return Upload{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(payload)), nil
		},
	}
}

func newTestService(t *testing.T) (*DashboardService, *SessionStore, *stubNotifier) {
	t.Helper()
	store := NewSessionStore(time.Hour, slog.Default())
	notifier := &stubNotifier{}
	return NewDashboardService(store, notifier, nil, slog.Default()), store, notifier
}

func TestDashboardService_IngestUpload(t *testing.T) {
	svc, _, notifier := newTestService(t)
	sessionID := "session-1"

	outcome, err := svc.IngestUpload(context.Background(), sessionID, []Upload{
		csvUpload("batch.csv", "Keyword,URL,Found,Date\nbitcoin,http://x,Yes,2024-01-05\nbitcoin,http://y,No,2024-01-05\ncreditcard,http://z,yes,2024-01-06\n"),
	})
	require.NoError(t, err)

	require.Len(t, outcome.Reports, 1)
	assert.Equal(t, 3, outcome.Reports[0].Accepted)
	assert.Empty(t, outcome.Reports[0].Skipped)
	assert.False(t, outcome.Reports[0].Rejected)

	assert.Equal(t, 3, outcome.Statistics.TotalFindings)
	assert.Equal(t, 2, outcome.Statistics.UniqueKeywords)
	assert.Equal(t, 3, outcome.Statistics.UniqueURLs)
	assert.Equal(t, 2, outcome.Statistics.FoundCount)
	assert.InDelta(t, 2.0/3.0, outcome.Statistics.SuccessRate, 1e-9)

	assert.Equal(t, []string{sessionID}, notifier.updates)
}

func TestDashboardService_IngestUpload_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.IngestUpload(context.Background(), "s", nil)
	assert.ErrorIs(t, err, ErrNoFilesUploaded)
}

func TestDashboardService_RejectedFileDoesNotAbortBatch(t *testing.T) {
	svc, _, _ := newTestService(t)

	outcome, err := svc.IngestUpload(context.Background(), "s", []Upload{
		csvUpload("garbage.csv", "Alpha,Beta\n1,2\n"),
		csvUpload("good.csv", "Keyword,URL,Found,Date\nbitcoin,http://x,yes,2024-01-05\n"),
	})
	require.NoError(t, err)
	require.Len(t, outcome.Reports, 2)

	assert.True(t, outcome.Reports[0].Rejected)
	assert.Equal(t, ErrFileNotRecognized.Error(), outcome.Reports[0].Error)
	assert.Zero(t, outcome.Reports[0].Accepted)

	assert.False(t, outcome.Reports[1].Rejected)
	assert.Equal(t, 1, outcome.Reports[1].Accepted)

	// The valid file still contributed its records.
	assert.Equal(t, 1, outcome.Statistics.TotalFindings)
}

func TestDashboardService_SkippedRowsReported(t *testing.T) {
	svc, _, _ := newTestService(t)

	outcome, err := svc.IngestUpload(context.Background(), "s", []Upload{
		csvUpload("partial.csv", "Keyword,URL,Found,Date\nbitcoin,http://x,yes,2024-01-05\nbitcoin,http://y,yes,not-a-date\n"),
	})
	require.NoError(t, err)

	require.Len(t, outcome.Reports, 1)
	assert.Equal(t, 1, outcome.Reports[0].Accepted)
	require.Len(t, outcome.Reports[0].Skipped, 1)
	assert.Equal(t, domain.SkipBadTimestamp, outcome.Reports[0].Skipped[0].Reason)
}

func TestDashboardService_DuplicatesAcrossUploadsSurvive(t *testing.T) {
	svc, _, _ := newTestService(t)
	row := "Keyword,URL,Found,Date\nbitcoin,http://x,yes,2024-01-05\n"

	_, err := svc.IngestUpload(context.Background(), "s", []Upload{csvUpload("one.csv", row)})
	require.NoError(t, err)
	outcome, err := svc.IngestUpload(context.Background(), "s", []Upload{csvUpload("two.csv", row)})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Statistics.TotalFindings)
	assert.Equal(t, 1, outcome.Statistics.UniqueKeywords)
}

func TestDashboardService_Snapshot(t *testing.T) {
	svc, store, _ := newTestService(t)
	sessionID := store.NewSession()

	_, err := svc.IngestUpload(context.Background(), sessionID, []Upload{
		csvUpload("batch.csv", "Keyword,URL,Found,Date\nbitcoin,http://x,yes,2024-01-05\npassport,http://y,no,2024-02-01\n"),
	})
	require.NoError(t, err)

	t.Run("unfiltered", func(t *testing.T) {
		snap, err := svc.Snapshot(context.Background(), sessionID, domain.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, snap.Statistics.TotalFindings)
		assert.Len(t, snap.OverTime, 2)
		assert.Len(t, snap.Keywords, 2)
		assert.Len(t, snap.Rows, 2)
	})

	t.Run("filtered", func(t *testing.T) {
		snap, err := svc.Snapshot(context.Background(), sessionID, domain.DateFilter{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Statistics.TotalFindings)
		require.Len(t, snap.Rows, 1)
		assert.Equal(t, "bitcoin", snap.Rows[0].Keyword)
	})

	t.Run("inverted range is empty, not an error", func(t *testing.T) {
		snap, err := svc.Snapshot(context.Background(), sessionID, domain.DateFilter{
			Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Zero(t, snap.Statistics.TotalFindings)
		assert.Zero(t, snap.Statistics.SuccessRate)
		assert.Empty(t, snap.Rows)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.Snapshot(context.Background(), "missing", domain.DateFilter{})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestDashboardService_Reset(t *testing.T) {
	svc, store, notifier := newTestService(t)
	sessionID := store.NewSession()

	_, err := svc.IngestUpload(context.Background(), sessionID, []Upload{
		csvUpload("batch.csv", "Keyword,URL,Found,Date\nbitcoin,http://x,yes,2024-01-05\n"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(context.Background(), sessionID))

	snap, err := svc.Snapshot(context.Background(), sessionID, domain.DateFilter{})
	require.NoError(t, err)
	assert.Zero(t, snap.Statistics.TotalFindings)

	assert.ErrorIs(t, svc.Reset(context.Background(), "missing"), ErrSessionNotFound)
	assert.Len(t, notifier.updates, 2)
}

func TestHealthService_Check(t *testing.T) {
	store := NewSessionStore(time.Hour, slog.Default())
	store.NewSession()

	svc := NewHealthService("v1.2.3", "2026-01-01T00:00:00Z", store, nil, slog.Default())
	status := svc.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	sessions, ok := status.Services["sessions"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, sessions["active"])
}
