package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jeninefer/Commercial-View-sub000/internal/application/dto"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/port"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// ClassifyRequestsUseCase tags the request table with bucket labels and
// exports it, with no selection pass. Useful for reviewing classification
// output before committing cash.
type ClassifyRequestsUseCase struct {
	loader     port.TableLoader
	exporter   port.ResultExporter
	classifier *service.Classifier
	logger     *slog.Logger
}

// NewClassifyRequestsUseCase wires dependencies.
func NewClassifyRequestsUseCase(
	loader port.TableLoader,
	exporter port.ResultExporter,
	classifier *service.Classifier,
	logger *slog.Logger,
) *ClassifyRequestsUseCase {
	return &ClassifyRequestsUseCase{
		loader:     loader,
		exporter:   exporter,
		classifier: classifier,
		logger:     logger,
	}
}

// Execute classifies the request table and exports the tagged rows.
func (uc *ClassifyRequestsUseCase) Execute(ctx context.Context) (dto.ClassifySummary, error) {
	requests, err := uc.loader.LoadLoanRequests(ctx)
	if err != nil {
		return dto.ClassifySummary{}, fmt.Errorf("load loan requests: %w", err)
	}

	classified := uc.classifier.ClassifyAll(requests)

	unclassified := 0
	for _, c := range classified {
		if c.AprBucket == service.UnclassifiedLabel ||
			c.LineBucket == service.UnclassifiedLabel ||
			c.PayerGrade.Equal(valueobject.PayerGradeUnclassified) ||
			c.ClientType.Equal(valueobject.ClientTypeUnclassified) {
			unclassified++
		}
	}

	path, err := uc.exporter.ExportClassified(ctx, classified)
	if err != nil {
		return dto.ClassifySummary{}, fmt.Errorf("export classified requests: %w", err)
	}

	uc.logger.Info("classification complete",
		"rows", len(classified),
		"unclassified", unclassified,
		"path", path,
	)

	return dto.ClassifySummary{
		Total:        len(classified),
		Unclassified: unclassified,
		OutputPath:   path,
	}, nil
}
