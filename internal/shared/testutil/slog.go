// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogRecord is a captured log record.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that buffers records so tests can
// assert on them.
type CaptureHandler struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewCaptureLogger returns a logger whose records the handler captures.
func NewCaptureLogger() (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{}
	return slog.New(h), h
}

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *CaptureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records.
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Find returns the first record with the given message, or nil.
func (h *CaptureHandler) Find(message string) *LogRecord {
	for _, r := range h.Records() {
		if r.Message == message {
			rec := r
			return &rec
		}
	}
	return nil
}
