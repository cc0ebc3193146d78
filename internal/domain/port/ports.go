package port

import (
	"context"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Loader port (driven/secondary adapters)
// ---------------------------------------------------------------------------

// TableLoader hands the engine its four input tables. Implementations own
// every file and transport concern; the engine itself performs no I/O.
type TableLoader interface {
	LoadLoanRequests(ctx context.Context) ([]model.LoanRecord, error)
	LoadPortfolio(ctx context.Context) ([]model.Exposure, error)
	LoadSchedule(ctx context.Context) (model.Frame, error)
	LoadPayments(ctx context.Context) (model.Frame, error)
}

// ---------------------------------------------------------------------------
// Exporter port
// ---------------------------------------------------------------------------

// ResultExporter writes run outputs for dashboards and downstream systems.
// Each call returns the locations it wrote.
type ResultExporter interface {
	ExportSelection(ctx context.Context, result model.SelectionResult) ([]string, error)
	ExportDPDSummary(ctx context.Context, profiles []model.RiskProfile) (string, error)
	ExportClassified(ctx context.Context, loans []model.ClassifiedLoan) (string, error)
}

// ---------------------------------------------------------------------------
// Alerting port
// ---------------------------------------------------------------------------

// AlertSink delivers run alerts to operators.
type AlertSink interface {
	Deliver(ctx context.Context, runID string, alerts []model.Alert) error
}
