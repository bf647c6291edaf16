package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"darkwatch/internal/dataprocessing"
	"darkwatch/pkg/contracts/domain"
)

// UpdateNotifier is implemented by the websocket hub. The service
// notifies it after a working set changes so open dashboard tabs can
// refresh their charts.
type UpdateNotifier interface {
	BroadcastDataUpdate(sessionID string)
}

// Upload is one file of an upload batch. Open is called once, from the
// goroutine that parses the file.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// UploadOutcome is the result of ingesting an upload batch: one report
// per file plus the refreshed statistics over the whole working set.
type UploadOutcome struct {
	Reports    []domain.UploadReport `json:"reports"`
	Statistics domain.Statistics     `json:"statistics"`
}

// Snapshot is the full dashboard view for one session under an active
// date filter: aggregate statistics, both chart series, and the rows
// for the data table.
type Snapshot struct {
	Statistics domain.Statistics     `json:"statistics"`
	OverTime   []domain.TimeBucket   `json:"findings_over_time"`
	Keywords   []domain.KeywordCount `json:"keyword_frequency"`
	Rows       []domain.Finding      `json:"rows"`
}

// DashboardService owns the upload-and-recompute cycle: it parses
// uploaded spreadsheets into findings, grows the session working set,
// and derives the aggregate views the handlers serve.
type DashboardService struct {
	store    *SessionStore
	notifier UpdateNotifier
	metrics  *IngestMetrics
	logger   *slog.Logger
}

// IngestMetrics records ingest counters. Wired to the otel meter at
// startup; a nil receiver is a no-op so tests can skip it.
type IngestMetrics struct {
	RecordUpload func(ctx context.Context, accepted, skipped int, rejected bool)
}

func (m *IngestMetrics) recordUpload(ctx context.Context, accepted, skipped int, rejected bool) {
	if m == nil || m.RecordUpload == nil {
		return
	}
	m.RecordUpload(ctx, accepted, skipped, rejected)
}

// NewDashboardService creates the dashboard service. notifier and
// metrics may be nil.
func NewDashboardService(store *SessionStore, notifier UpdateNotifier, metrics *IngestMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
}

// IngestUpload parses an upload batch into the session's working set.
// Files parse in parallel with per-file isolation: a structurally
// unusable file is reported as rejected without touching the rest of
// the batch, and row-level problems surface as skipped-row diagnostics.
func (s *DashboardService) IngestUpload(ctx context.Context, sessionID string, uploads []Upload) (*UploadOutcome, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFilesUploaded
	}

	s.logger.InfoContext(ctx, "ingesting upload batch",
		slog.String("session_id", sessionID),
		slog.Int("files", len(uploads)))

	reports := make([]domain.UploadReport, len(uploads))
	results := make([]*domain.ParseResult, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	for i, upload := range uploads {
		g.Go(func() error {
			result, err := s.parseOne(gctx, upload)
			if err != nil {
				// Per-file failure is part of the outcome, not an
				// error for the batch.
				reports[i] = domain.UploadReport{
					Filename: upload.Filename,
					Rejected: true,
					Error:    rejectionMessage(err),
				}
				s.metrics.recordUpload(gctx, 0, 0, true)
				return nil
			}
			results[i] = result
			reports[i] = domain.UploadReport{
				Filename: upload.Filename,
				Accepted: len(result.Findings),
				Skipped:  result.Skipped,
			}
			s.metrics.recordUpload(gctx, len(result.Findings), len(result.Skipped), false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := dataprocessing.Merge(results...)
	workingSet := s.store.Append(sessionID, merged.Findings)

	if s.notifier != nil && merged.Size() > 0 {
		s.notifier.BroadcastDataUpdate(sessionID)
	}

	outcome := &UploadOutcome{
		Reports:    reports,
		Statistics: dataprocessing.ComputeStatistics(workingSet),
	}

	s.logger.InfoContext(ctx, "upload batch ingested",
		slog.String("session_id", sessionID),
		slog.Int("new_findings", merged.Size()),
		slog.Int("working_set", workingSet.Size()))

	return outcome, nil
}

func (s *DashboardService) parseOne(ctx context.Context, upload Upload) (*domain.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", upload.Filename, err)
	}
	defer f.Close()

	table, err := dataprocessing.ReadTable(upload.Filename, f)
	if err != nil {
		return nil, err
	}
	return dataprocessing.ParseRows(s.logger, table)
}

// rejectionMessage maps a per-file parse failure to the user-visible
// diagnostic shown next to the filename.
func rejectionMessage(err error) string {
	if errors.Is(err, dataprocessing.ErrMissingColumns) {
		return ErrFileNotRecognized.Error()
	}
	return err.Error()
}

// Snapshot derives the dashboard view for a session under the given
// date filter. A start after end is not an error: the subset is empty
// and every statistic is zero.
func (s *DashboardService) Snapshot(ctx context.Context, sessionID string, filter domain.DateFilter) (*Snapshot, error) {
	workingSet, ok := s.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	subset := dataprocessing.FilterByDate(workingSet, filter)

	s.logger.DebugContext(ctx, "dashboard snapshot",
		slog.String("session_id", sessionID),
		slog.Int("working_set", workingSet.Size()),
		slog.Int("filtered", subset.Size()))

	return &Snapshot{
		Statistics: dataprocessing.ComputeStatistics(subset),
		OverTime:   dataprocessing.FindingsOverTime(subset),
		Keywords:   dataprocessing.KeywordFrequency(subset),
		Rows:       subset.Findings,
	}, nil
}

// Reset discards a session's working set.
func (s *DashboardService) Reset(ctx context.Context, sessionID string) error {
	if !s.store.Reset(sessionID) {
		return ErrSessionNotFound
	}
	s.logger.InfoContext(ctx, "session working set discarded",
		slog.String("session_id", sessionID))
	if s.notifier != nil {
		s.notifier.BroadcastDataUpdate(sessionID)
	}
	return nil
}
