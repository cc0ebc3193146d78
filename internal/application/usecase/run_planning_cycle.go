package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Jeninefer/Commercial-View-sub000/internal/application/dto"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/port"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
)

// PlanningServices bundles the domain services one planning cycle runs
// through, in pipeline order.
type PlanningServices struct {
	Classifier  *service.Classifier
	Reconciler  *service.TimelineReconciler
	Scorer      *service.RiskScorer
	Optimizer   *service.DisbursementOptimizer
	AlertEngine *service.AlertEngine
}

// Limits bounds the batch so one oversized input set cannot blow the batch
// window. A zero limit disables its check.
type Limits struct {
	MaxCandidates int
	MaxLedgerRows int
}

// RunPlanningCycleUseCase executes one full planning cycle: load, classify,
// reconcile, score, optimize, export, alert.
type RunPlanningCycleUseCase struct {
	loader      port.TableLoader
	exporter    port.ResultExporter
	alertSink   port.AlertSink
	services    PlanningServices
	constraints service.Constraints
	limits      Limits
	logger      *slog.Logger
}

// NewRunPlanningCycleUseCase wires dependencies.
func NewRunPlanningCycleUseCase(
	loader port.TableLoader,
	exporter port.ResultExporter,
	alertSink port.AlertSink,
	services PlanningServices,
	constraints service.Constraints,
	limits Limits,
	logger *slog.Logger,
) *RunPlanningCycleUseCase {
	return &RunPlanningCycleUseCase{
		loader:      loader,
		exporter:    exporter,
		alertSink:   alertSink,
		services:    services,
		constraints: constraints,
		limits:      limits,
		logger:      logger,
	}
}

// Execute runs one planning cycle as of the request's reference date.
func (uc *RunPlanningCycleUseCase) Execute(ctx context.Context, req dto.PlanRequest) (dto.PlanSummary, error) {
	// 1. Validate the run parameters.
	if req.ReferenceDate.IsZero() {
		return dto.PlanSummary{}, fmt.Errorf("reference date is required")
	}
	if req.AvailableCash.IsNegative() {
		return dto.PlanSummary{}, fmt.Errorf("available cash must not be negative, got %s", req.AvailableCash)
	}

	runID := uuid.New().String()
	uc.logger.Info("planning cycle started",
		"run_id", runID,
		"reference_date", req.ReferenceDate.Format("2006-01-02"),
		"available_cash", req.AvailableCash.String(),
	)

	// 2. Load the four input tables concurrently.
	var (
		requests []model.LoanRecord
		book     []model.Exposure
		schedule model.Frame
		payments model.Frame
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if requests, err = uc.loader.LoadLoanRequests(gctx); err != nil {
			return fmt.Errorf("load loan requests: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if book, err = uc.loader.LoadPortfolio(gctx); err != nil {
			return fmt.Errorf("load portfolio: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if schedule, err = uc.loader.LoadSchedule(gctx); err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if payments, err = uc.loader.LoadPayments(gctx); err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return dto.PlanSummary{}, err
	}

	// 3. Enforce the batch size guards before any computation starts.
	if uc.limits.MaxCandidates > 0 && len(requests) > uc.limits.MaxCandidates {
		return dto.PlanSummary{}, fmt.Errorf("candidate count %d exceeds limit %d", len(requests), uc.limits.MaxCandidates)
	}
	if ledgerRows := len(schedule.Rows) + len(payments.Rows); uc.limits.MaxLedgerRows > 0 && ledgerRows > uc.limits.MaxLedgerRows {
		return dto.PlanSummary{}, fmt.Errorf("ledger row count %d exceeds limit %d", ledgerRows, uc.limits.MaxLedgerRows)
	}

	// 4. Classify the requests and fill missing bucket labels on the book so
	// the optimizer's mix aggregates see consistent tiers.
	classified := uc.services.Classifier.ClassifyAll(requests)
	for i := range book {
		if book[i].AprBucket == "" {
			book[i].AprBucket = uc.services.Classifier.BucketAPR(book[i].APR)
		}
	}
	portfolio := model.NewPortfolio(book)

	// 5. Reconcile the payment ledgers as of the reference date.
	dpdResult, err := uc.services.Reconciler.CalculateDPD(schedule, payments, req.ReferenceDate)
	if err != nil {
		return dto.PlanSummary{}, fmt.Errorf("reconcile ledgers: %w", err)
	}

	// 6. Score every reconciled profile, then pair each classified request
	// with its delinquency profile.
	applyRiskScores(dpdResult.Profiles, classified, uc.services.Scorer)
	candidates := uc.buildCandidates(classified, dpdResult.ProfileByLoan())

	// 7. Select disbursements under cash and concentration limits.
	result := uc.services.Optimizer.Optimize(candidates, portfolio, req.AvailableCash, uc.constraints)

	// 8. Export the selection table, run report and delinquency summary.
	paths, err := uc.exporter.ExportSelection(ctx, result)
	if err != nil {
		return dto.PlanSummary{}, fmt.Errorf("export selection: %w", err)
	}
	dpdPath, err := uc.exporter.ExportDPDSummary(ctx, dpdResult.Profiles)
	if err != nil {
		return dto.PlanSummary{}, fmt.Errorf("export dpd summary: %w", err)
	}
	paths = append(paths, dpdPath)

	// 9. Evaluate and deliver operator alerts.
	alerts := uc.services.AlertEngine.Evaluate(result.Report, dpdResult, req.ReferenceDate)
	if err := uc.alertSink.Deliver(ctx, runID, alerts); err != nil {
		return dto.PlanSummary{}, fmt.Errorf("deliver alerts: %w", err)
	}

	critical := 0
	for _, a := range alerts {
		if a.Severity == model.AlertSeverityCritical {
			critical++
		}
	}

	uc.logger.Info("planning cycle complete",
		"run_id", runID,
		"candidates", len(candidates),
		"selected", result.Report.CountSelected,
		"total_selected", result.Report.TotalSelected.String(),
		"alerts", len(alerts),
	)

	return dto.PlanSummary{
		RunID:           runID,
		ReferenceDate:   req.ReferenceDate,
		CandidateCount:  len(candidates),
		SelectedCount:   result.Report.CountSelected,
		RejectedCount:   result.Report.CountRejected,
		SkippedCount:    result.Report.CountSkipped,
		TotalSelected:   result.Report.TotalSelected,
		RemainingCash:   result.Report.RemainingCash,
		CashUtilization: result.Report.CashUtilization,
		ReconciledLoans: len(dpdResult.Profiles),
		ExcludedLoans:   len(dpdResult.Excluded),
		DefaultRate:     dpdResult.DefaultRate(),
		AlertCount:      len(alerts),
		CriticalAlerts:  critical,
		OutputPaths:     paths,
	}, nil
}

// buildCandidates pairs each classified request with its reconciled profile.
// Requests without ledger history count as current: a new client carries no
// adverse delinquency signal, only its payer-grade term.
func (uc *RunPlanningCycleUseCase) buildCandidates(classified []model.ClassifiedLoan, profiles map[string]model.RiskProfile) []model.DisbursementCandidate {
	candidates := make([]model.DisbursementCandidate, len(classified))
	for i, c := range classified {
		profile, ok := profiles[c.LoanID]
		if !ok {
			label, severity := uc.services.Reconciler.BucketDPD(0)
			profile = model.RiskProfile{
				LoanID:      c.LoanID,
				DPDBucket:   label,
				DPDSeverity: severity,
			}
			profile.RiskScore = uc.services.Scorer.Score(c, severity)
		}
		candidates[i] = model.DisbursementCandidate{ClassifiedLoan: c, Risk: profile}
	}
	return candidates
}
