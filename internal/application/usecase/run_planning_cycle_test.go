package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/application/dto"
	"github.com/Jeninefer/Commercial-View-sub000/internal/application/usecase"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// --- Mock implementations ---

type mockTableLoader struct {
	loadRequestsFunc  func(ctx context.Context) ([]model.LoanRecord, error)
	loadPortfolioFunc func(ctx context.Context) ([]model.Exposure, error)
	loadScheduleFunc  func(ctx context.Context) (model.Frame, error)
	loadPaymentsFunc  func(ctx context.Context) (model.Frame, error)
}

func (m *mockTableLoader) LoadLoanRequests(ctx context.Context) ([]model.LoanRecord, error) {
	if m.loadRequestsFunc != nil {
		return m.loadRequestsFunc(ctx)
	}
	return nil, nil
}

func (m *mockTableLoader) LoadPortfolio(ctx context.Context) ([]model.Exposure, error) {
	if m.loadPortfolioFunc != nil {
		return m.loadPortfolioFunc(ctx)
	}
	return nil, nil
}

func (m *mockTableLoader) LoadSchedule(ctx context.Context) (model.Frame, error) {
	if m.loadScheduleFunc != nil {
		return m.loadScheduleFunc(ctx)
	}
	return emptyLedger(), nil
}

func (m *mockTableLoader) LoadPayments(ctx context.Context) (model.Frame, error) {
	if m.loadPaymentsFunc != nil {
		return m.loadPaymentsFunc(ctx)
	}
	return emptyLedger(), nil
}

type mockResultExporter struct {
	exportSelectionFunc  func(ctx context.Context, result model.SelectionResult) ([]string, error)
	exportDPDFunc        func(ctx context.Context, profiles []model.RiskProfile) (string, error)
	exportClassifiedFunc func(ctx context.Context, loans []model.ClassifiedLoan) (string, error)
	selections           []model.SelectionResult
	profiles             [][]model.RiskProfile
	classified           [][]model.ClassifiedLoan
}

func (m *mockResultExporter) ExportSelection(ctx context.Context, result model.SelectionResult) ([]string, error) {
	if m.exportSelectionFunc != nil {
		return m.exportSelectionFunc(ctx, result)
	}
	m.selections = append(m.selections, result)
	return []string{"out/disbursement_selection.csv", "out/selection_report.json"}, nil
}

func (m *mockResultExporter) ExportDPDSummary(ctx context.Context, profiles []model.RiskProfile) (string, error) {
	if m.exportDPDFunc != nil {
		return m.exportDPDFunc(ctx, profiles)
	}
	m.profiles = append(m.profiles, profiles)
	return "out/dpd_summary.csv", nil
}

func (m *mockResultExporter) ExportClassified(ctx context.Context, loans []model.ClassifiedLoan) (string, error) {
	if m.exportClassifiedFunc != nil {
		return m.exportClassifiedFunc(ctx, loans)
	}
	m.classified = append(m.classified, loans)
	return "out/classified_requests.csv", nil
}

type mockAlertSink struct {
	deliverFunc func(ctx context.Context, runID string, alerts []model.Alert) error
	runIDs      []string
	delivered   [][]model.Alert
}

func (m *mockAlertSink) Deliver(ctx context.Context, runID string, alerts []model.Alert) error {
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, runID, alerts)
	}
	m.runIDs = append(m.runIDs, runID)
	m.delivered = append(m.delivered, alerts)
	return nil
}

// --- Fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// emptyLedger is a ledger frame with canonical headers and no rows, the
// shape an empty but well-formed ledger file loads into.
func emptyLedger() model.Frame {
	return model.Frame{Columns: []string{"loan_id", "date", "amount"}}
}

func planningServices(t *testing.T) usecase.PlanningServices {
	t.Helper()
	classifier, err := service.NewClassifier(service.DefaultClassifierConfig())
	require.NoError(t, err)
	reconciler, err := service.NewTimelineReconciler(
		service.DefaultReconcilerConfig(),
		service.NewStandardizer(service.NewSchemaResolver()),
		discardLogger(),
	)
	require.NoError(t, err)
	scorer, err := service.NewRiskScorer(service.DefaultScorerWeights(), reconciler.DPDBucketCount())
	require.NoError(t, err)
	return usecase.PlanningServices{
		Classifier:  classifier,
		Reconciler:  reconciler,
		Scorer:      scorer,
		Optimizer:   service.NewDisbursementOptimizer(discardLogger()),
		AlertEngine: service.NewAlertEngine(service.DefaultAlertThresholds()),
	}
}

func planRequests() []model.LoanRecord {
	return []model.LoanRecord{
		{
			LoanID: "L-1", CustomerID: "C-1",
			Amount: decimal.NewFromInt(250_000), APR: 22.5,
			Industry: "Technology", DPDHistoryPct: 3,
			Revenue: decimal.NewFromInt(8_000_000), YearsActive: 6,
			RowIndex: 0,
		},
		{
			LoanID: "L-2", CustomerID: "C-2",
			Amount: decimal.NewFromInt(400_000), APR: 27,
			Industry: "Retail", DPDHistoryPct: 12,
			Revenue: decimal.NewFromInt(60_000_000), YearsActive: 12,
			RowIndex: 1,
		},
	}
}

func planBook() []model.Exposure {
	return []model.Exposure{
		{
			LoanID: "F-1", CustomerID: "C-9", Industry: "Logistics",
			PayerGrade: valueobject.PayerGradeA, APR: 12,
			Outstanding: decimal.NewFromInt(100_000),
		},
	}
}

func settledLedger() (model.Frame, model.Frame) {
	schedule := model.Frame{
		Columns: []string{"loan_id", "date", "amount"},
		Rows:    [][]string{{"L-1", "2024-01-01", "1000"}},
	}
	payments := model.Frame{
		Columns: []string{"loan_id", "date", "amount"},
		Rows:    [][]string{{"L-1", "2024-01-05", "1000"}},
	}
	return schedule, payments
}

func fullLoader() *mockTableLoader {
	schedule, payments := settledLedger()
	return &mockTableLoader{
		loadRequestsFunc: func(_ context.Context) ([]model.LoanRecord, error) {
			return planRequests(), nil
		},
		loadPortfolioFunc: func(_ context.Context) ([]model.Exposure, error) {
			return planBook(), nil
		},
		loadScheduleFunc: func(_ context.Context) (model.Frame, error) {
			return schedule, nil
		},
		loadPaymentsFunc: func(_ context.Context) (model.Frame, error) {
			return payments, nil
		},
	}
}

func newPlanningUseCase(t *testing.T, loader *mockTableLoader, exporter *mockResultExporter, sink *mockAlertSink, limits usecase.Limits) *usecase.RunPlanningCycleUseCase {
	t.Helper()
	return usecase.NewRunPlanningCycleUseCase(
		loader, exporter, sink,
		planningServices(t),
		service.Constraints{},
		limits,
		discardLogger(),
	)
}

func validPlanRequest() dto.PlanRequest {
	return dto.PlanRequest{
		ReferenceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AvailableCash: decimal.NewFromInt(1_000_000),
	}
}

// --- Tests ---

func TestRunPlanningCycle_Execute(t *testing.T) {
	t.Run("runs a full cycle over a healthy book", func(t *testing.T) {
		loader := fullLoader()
		exporter := &mockResultExporter{}
		sink := &mockAlertSink{}
		uc := newPlanningUseCase(t, loader, exporter, sink, usecase.Limits{})

		summary, err := uc.Execute(context.Background(), validPlanRequest())

		require.NoError(t, err)
		assert.NotEmpty(t, summary.RunID)
		assert.Equal(t, 2, summary.CandidateCount)
		assert.Equal(t, 2, summary.SelectedCount)
		assert.Equal(t, 0, summary.RejectedCount)
		assert.Equal(t, 0, summary.SkippedCount)
		assert.True(t, decimal.NewFromInt(650_000).Equal(summary.TotalSelected))
		assert.True(t, decimal.NewFromInt(350_000).Equal(summary.RemainingCash))
		assert.InDelta(t, 0.65, summary.CashUtilization, 1e-9)
		assert.Equal(t, 1, summary.ReconciledLoans)
		assert.Equal(t, 0, summary.ExcludedLoans)
		assert.Zero(t, summary.DefaultRate)
		assert.Equal(t, 0, summary.AlertCount)
		assert.Equal(t, 0, summary.CriticalAlerts)
		assert.Equal(t, []string{
			"out/disbursement_selection.csv",
			"out/selection_report.json",
			"out/dpd_summary.csv",
		}, summary.OutputPaths)

		require.Len(t, exporter.selections, 1)
		assert.Len(t, exporter.selections[0].Rows, 2)
		require.Len(t, exporter.profiles, 1)
		require.Len(t, exporter.profiles[0], 1)
		assert.Equal(t, "L-1", exporter.profiles[0][0].LoanID)
		assert.Zero(t, exporter.profiles[0][0].RiskScore)

		require.Equal(t, []string{summary.RunID}, sink.runIDs)
		assert.Empty(t, sink.delivered[0])
	})

	t.Run("raises alerts over a delinquent book", func(t *testing.T) {
		loader := fullLoader()
		loader.loadRequestsFunc = func(_ context.Context) ([]model.LoanRecord, error) {
			return planRequests()[:1], nil
		}
		loader.loadPaymentsFunc = func(_ context.Context) (model.Frame, error) {
			return model.Frame{
				Columns: []string{"loan_id", "date", "amount"},
				Rows:    [][]string{{"L-1", "2024-01-02", "10"}},
			}, nil
		}
		exporter := &mockResultExporter{}
		sink := &mockAlertSink{}
		uc := newPlanningUseCase(t, loader, exporter, sink, usecase.Limits{})

		req := validPlanRequest()
		req.ReferenceDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		summary, err := uc.Execute(context.Background(), req)

		require.NoError(t, err)
		assert.InDelta(t, 1.0, summary.DefaultRate, 1e-9)
		assert.Equal(t, 2, summary.AlertCount)
		assert.Equal(t, 1, summary.CriticalAlerts)

		require.Len(t, sink.delivered, 1)
		require.Len(t, sink.delivered[0], 2)
		assert.Equal(t, model.AlertTypeDefaultRate, sink.delivered[0][0].Type)
		assert.Equal(t, model.AlertTypeLoanDefault, sink.delivered[0][1].Type)

		// The candidate carries its delinquency standing into selection.
		require.Len(t, exporter.selections, 1)
		assert.Equal(t, 121, exporter.selections[0].Rows[0].Candidate.Risk.DPDDays)
		assert.True(t, exporter.selections[0].Rows[0].Candidate.Risk.InDefault)
	})

	t.Run("scores requests without ledger history as current", func(t *testing.T) {
		loader := &mockTableLoader{
			loadRequestsFunc: func(_ context.Context) ([]model.LoanRecord, error) {
				return planRequests()[1:], nil
			},
		}
		exporter := &mockResultExporter{}
		sink := &mockAlertSink{}
		uc := newPlanningUseCase(t, loader, exporter, sink, usecase.Limits{})

		summary, err := uc.Execute(context.Background(), validPlanRequest())

		require.NoError(t, err)
		assert.Equal(t, 0, summary.ReconciledLoans)
		require.Len(t, exporter.selections, 1)
		require.Len(t, exporter.selections[0].Rows, 1)

		risk := exporter.selections[0].Rows[0].Candidate.Risk
		assert.Equal(t, "current", risk.DPDBucket)
		assert.Equal(t, 0, risk.DPDSeverity)
		assert.False(t, risk.InDefault)
		// Grade B with no delinquency signal scores on the payer term alone.
		assert.InDelta(t, 0.55/3.0, risk.RiskScore, 1e-9)
	})

	t.Run("fails when the reference date is missing", func(t *testing.T) {
		uc := newPlanningUseCase(t, &mockTableLoader{}, &mockResultExporter{}, &mockAlertSink{}, usecase.Limits{})

		req := validPlanRequest()
		req.ReferenceDate = time.Time{}
		_, err := uc.Execute(context.Background(), req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reference date")
	})

	t.Run("fails when available cash is negative", func(t *testing.T) {
		uc := newPlanningUseCase(t, &mockTableLoader{}, &mockResultExporter{}, &mockAlertSink{}, usecase.Limits{})

		req := validPlanRequest()
		req.AvailableCash = decimal.NewFromInt(-1)
		_, err := uc.Execute(context.Background(), req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "available cash")
	})

	t.Run("fails when a table load fails", func(t *testing.T) {
		loader := fullLoader()
		loader.loadPortfolioFunc = func(_ context.Context) ([]model.Exposure, error) {
			return nil, fmt.Errorf("bucket unavailable")
		}
		uc := newPlanningUseCase(t, loader, &mockResultExporter{}, &mockAlertSink{}, usecase.Limits{})

		_, err := uc.Execute(context.Background(), validPlanRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "load portfolio")
	})

	t.Run("enforces the candidate limit", func(t *testing.T) {
		uc := newPlanningUseCase(t, fullLoader(), &mockResultExporter{}, &mockAlertSink{}, usecase.Limits{MaxCandidates: 1})

		_, err := uc.Execute(context.Background(), validPlanRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "candidate count 2 exceeds limit 1")
	})

	t.Run("enforces the ledger row limit", func(t *testing.T) {
		uc := newPlanningUseCase(t, fullLoader(), &mockResultExporter{}, &mockAlertSink{}, usecase.Limits{MaxLedgerRows: 1})

		_, err := uc.Execute(context.Background(), validPlanRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger row count 2 exceeds limit 1")
	})

	t.Run("fails when the selection export fails", func(t *testing.T) {
		exporter := &mockResultExporter{
			exportSelectionFunc: func(_ context.Context, _ model.SelectionResult) ([]string, error) {
				return nil, fmt.Errorf("disk full")
			},
		}
		uc := newPlanningUseCase(t, fullLoader(), exporter, &mockAlertSink{}, usecase.Limits{})

		_, err := uc.Execute(context.Background(), validPlanRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "export selection")
	})

	t.Run("fails when alert delivery fails", func(t *testing.T) {
		sink := &mockAlertSink{
			deliverFunc: func(_ context.Context, _ string, _ []model.Alert) error {
				return fmt.Errorf("channel unavailable")
			},
		}
		uc := newPlanningUseCase(t, fullLoader(), &mockResultExporter{}, sink, usecase.Limits{})

		_, err := uc.Execute(context.Background(), validPlanRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "deliver alerts")
	})
}
