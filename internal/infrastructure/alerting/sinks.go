// Package alerting delivers run alerts to operators. The log sink is always
// on; the file sink feeds downstream pagers from a JSON-lines file.
package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/port"
)

// LogAlertSink writes each alert to the structured log at a level matching
// its severity.
type LogAlertSink struct {
	logger *slog.Logger
}

var _ port.AlertSink = (*LogAlertSink)(nil)

// NewLogAlertSink builds a sink over the given logger.
func NewLogAlertSink(logger *slog.Logger) *LogAlertSink {
	return &LogAlertSink{logger: logger}
}

// Deliver logs every alert. It never fails; a planning run must not abort
// because an operator channel is noisy.
func (s *LogAlertSink) Deliver(ctx context.Context, runID string, alerts []model.Alert) error {
	for _, a := range alerts {
		attrs := []any{
			"run_id", runID,
			"alert_id", a.ID,
			"type", a.Type,
			"metric", a.Metric,
			"value", a.Value,
			"limit", a.Limit,
		}
		if a.Dimension != "" {
			attrs = append(attrs, "dimension", a.Dimension)
		}
		switch a.Severity {
		case model.AlertSeverityCritical:
			s.logger.Error(a.Message, attrs...)
		case model.AlertSeverityWarning:
			s.logger.Warn(a.Message, attrs...)
		default:
			s.logger.Info(a.Message, attrs...)
		}
	}
	return nil
}

// alertRecord is the JSON-lines shape of one delivered alert.
type alertRecord struct {
	RunID     string    `json:"run_id"`
	AlertID   string    `json:"alert_id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Metric    string    `json:"metric,omitempty"`
	Value     float64   `json:"value"`
	Limit     float64   `json:"limit"`
	Dimension string    `json:"dimension,omitempty"`
	RaisedAt  time.Time `json:"raised_at"`
}

// FileAlertSink appends alerts to a JSON-lines file, one object per line.
type FileAlertSink struct {
	path   string
	logger *slog.Logger
}

var _ port.AlertSink = (*FileAlertSink)(nil)

// NewFileAlertSink builds a sink appending to path.
func NewFileAlertSink(path string, logger *slog.Logger) *FileAlertSink {
	return &FileAlertSink{path: path, logger: logger}
}

// Deliver appends every alert to the feed file.
func (s *FileAlertSink) Deliver(ctx context.Context, runID string, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert feed: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, a := range alerts {
		rec := alertRecord{
			RunID:     runID,
			AlertID:   a.ID,
			Type:      a.Type,
			Severity:  a.Severity,
			Message:   a.Message,
			Metric:    a.Metric,
			Value:     a.Value,
			Limit:     a.Limit,
			Dimension: a.Dimension,
			RaisedAt:  a.RaisedAt,
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("append alert %s: %w", a.ID, err)
		}
	}
	s.logger.Debug("appended alerts to feed", "run_id", runID, "count", len(alerts), "path", s.path)
	return nil
}

// MultiSink fans alerts out to every configured sink. Delivery is
// best-effort across sinks; the first error is reported after all sinks ran.
type MultiSink []port.AlertSink

var _ port.AlertSink = (MultiSink)(nil)

// Deliver sends the alerts to each sink in order.
func (m MultiSink) Deliver(ctx context.Context, runID string, alerts []model.Alert) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Deliver(ctx, runID, alerts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
