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

// GenerateDPDReportUseCase produces the standalone per-loan delinquency
// summary. The request table is loaded alongside the ledgers so the summary
// can carry risk scores, not just day counts.
type GenerateDPDReportUseCase struct {
	loader     port.TableLoader
	exporter   port.ResultExporter
	classifier *service.Classifier
	reconciler *service.TimelineReconciler
	scorer     *service.RiskScorer
	logger     *slog.Logger
}

// NewGenerateDPDReportUseCase wires dependencies.
func NewGenerateDPDReportUseCase(
	loader port.TableLoader,
	exporter port.ResultExporter,
	classifier *service.Classifier,
	reconciler *service.TimelineReconciler,
	scorer *service.RiskScorer,
	logger *slog.Logger,
) *GenerateDPDReportUseCase {
	return &GenerateDPDReportUseCase{
		loader:     loader,
		exporter:   exporter,
		classifier: classifier,
		reconciler: reconciler,
		scorer:     scorer,
		logger:     logger,
	}
}

// Execute reconciles the ledgers and exports the delinquency summary.
func (uc *GenerateDPDReportUseCase) Execute(ctx context.Context, req dto.DPDReportRequest) (dto.DPDReportSummary, error) {
	// 1. Validate the run parameters.
	if req.ReferenceDate.IsZero() {
		return dto.DPDReportSummary{}, fmt.Errorf("reference date is required")
	}

	runID := uuid.New().String()

	// 2. Load the ledgers and the request table concurrently.
	var (
		requests []model.LoanRecord
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
		return dto.DPDReportSummary{}, err
	}

	// 3. Reconcile as of the reference date.
	dpdResult, err := uc.reconciler.CalculateDPD(schedule, payments, req.ReferenceDate)
	if err != nil {
		return dto.DPDReportSummary{}, fmt.Errorf("reconcile ledgers: %w", err)
	}

	// 4. Score the profiles with the payer grades from the request table.
	classified := uc.classifier.ClassifyAll(requests)
	applyRiskScores(dpdResult.Profiles, classified, uc.scorer)

	// 5. Export the summary.
	path, err := uc.exporter.ExportDPDSummary(ctx, dpdResult.Profiles)
	if err != nil {
		return dto.DPDReportSummary{}, fmt.Errorf("export dpd summary: %w", err)
	}

	uc.logger.Info("dpd report complete",
		"run_id", runID,
		"loans", len(dpdResult.Profiles),
		"in_default", dpdResult.CountInDefault(),
		"excluded", len(dpdResult.Excluded),
	)

	return dto.DPDReportSummary{
		RunID:         runID,
		ReferenceDate: req.ReferenceDate,
		LoanCount:     len(dpdResult.Profiles),
		InDefault:     dpdResult.CountInDefault(),
		DefaultRate:   dpdResult.DefaultRate(),
		ExcludedLoans: len(dpdResult.Excluded),
		OutputPath:    path,
	}, nil
}
