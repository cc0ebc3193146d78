package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/application/dto"
	"github.com/Jeninefer/Commercial-View-sub000/internal/application/usecase"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
)

func newDPDReportUseCase(t *testing.T, loader *mockTableLoader, exporter *mockResultExporter) *usecase.GenerateDPDReportUseCase {
	t.Helper()
	svcs := planningServices(t)
	return usecase.NewGenerateDPDReportUseCase(
		loader, exporter,
		svcs.Classifier, svcs.Reconciler, svcs.Scorer,
		discardLogger(),
	)
}

func TestGenerateDPDReport_Execute(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("builds the scored delinquency summary", func(t *testing.T) {
		loader := &mockTableLoader{
			loadRequestsFunc: func(_ context.Context) ([]model.LoanRecord, error) {
				return []model.LoanRecord{
					{LoanID: "L-1", CustomerID: "C-1", Amount: decimal.NewFromInt(100_000), APR: 20, DPDHistoryPct: 12},
				}, nil
			},
			loadScheduleFunc: func(_ context.Context) (model.Frame, error) {
				return model.Frame{
					Columns: []string{"loan_id", "date", "amount"},
					Rows:    [][]string{{"L-1", "2024-01-01", "1000"}},
				}, nil
			},
			loadPaymentsFunc: func(_ context.Context) (model.Frame, error) {
				return model.Frame{
					Columns: []string{"loan_id", "date", "amount"},
					Rows:    [][]string{{"L-1", "2024-01-10", "400"}},
				}, nil
			},
		}
		exporter := &mockResultExporter{}
		uc := newDPDReportUseCase(t, loader, exporter)

		summary, err := uc.Execute(context.Background(), dto.DPDReportRequest{ReferenceDate: asOf})

		require.NoError(t, err)
		assert.NotEmpty(t, summary.RunID)
		assert.Equal(t, 1, summary.LoanCount)
		assert.Equal(t, 0, summary.InDefault)
		assert.Zero(t, summary.DefaultRate)
		assert.Equal(t, 0, summary.ExcludedLoans)
		assert.Equal(t, "out/dpd_summary.csv", summary.OutputPath)

		require.Len(t, exporter.profiles, 1)
		require.Len(t, exporter.profiles[0], 1)
		p := exporter.profiles[0][0]
		assert.Equal(t, "L-1", p.LoanID)
		assert.Equal(t, 60, p.DPDDays)
		assert.Equal(t, "31-60", p.DPDBucket)
		assert.False(t, p.InDefault)
		// Grade B payer term plus the 31-60 bucket term.
		assert.InDelta(t, 0.55/3.0+0.45*2.0/6.0, p.RiskScore, 1e-9)
	})

	t.Run("scores ledger-only loans with the unclassified grade", func(t *testing.T) {
		loader := &mockTableLoader{
			loadScheduleFunc: func(_ context.Context) (model.Frame, error) {
				return model.Frame{
					Columns: []string{"loan_id", "date", "amount"},
					Rows:    [][]string{{"L-9", "2024-01-01", "500"}},
				}, nil
			},
			loadPaymentsFunc: func(_ context.Context) (model.Frame, error) {
				return model.Frame{
					Columns: []string{"loan_id", "date", "amount"},
					Rows:    [][]string{{"L-9", "2024-01-01", "500"}},
				}, nil
			},
		}
		exporter := &mockResultExporter{}
		uc := newDPDReportUseCase(t, loader, exporter)

		_, err := uc.Execute(context.Background(), dto.DPDReportRequest{ReferenceDate: asOf})

		require.NoError(t, err)
		require.Len(t, exporter.profiles, 1)
		require.Len(t, exporter.profiles[0], 1)
		// No matching request, so the payer term uses the worst grade.
		assert.InDelta(t, 0.55, exporter.profiles[0][0].RiskScore, 1e-9)
	})

	t.Run("fails when the reference date is missing", func(t *testing.T) {
		uc := newDPDReportUseCase(t, &mockTableLoader{}, &mockResultExporter{})

		_, err := uc.Execute(context.Background(), dto.DPDReportRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reference date")
	})

	t.Run("fails when a ledger load fails", func(t *testing.T) {
		loader := &mockTableLoader{
			loadScheduleFunc: func(_ context.Context) (model.Frame, error) {
				return model.Frame{}, fmt.Errorf("bucket unavailable")
			},
		}
		uc := newDPDReportUseCase(t, loader, &mockResultExporter{})

		_, err := uc.Execute(context.Background(), dto.DPDReportRequest{ReferenceDate: asOf})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "load schedule")
	})

	t.Run("fails when the export fails", func(t *testing.T) {
		exporter := &mockResultExporter{
			exportDPDFunc: func(_ context.Context, _ []model.RiskProfile) (string, error) {
				return "", fmt.Errorf("disk full")
			},
		}
		uc := newDPDReportUseCase(t, &mockTableLoader{}, exporter)

		_, err := uc.Execute(context.Background(), dto.DPDReportRequest{ReferenceDate: asOf})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "export dpd summary")
	})
}
