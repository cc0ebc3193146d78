// Package export writes planning-run outputs as CSV tables and a JSON report
// so dashboards and downstream systems can consume them without touching the
// engine.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/port"
)

// Output file names under the configured output directory.
const (
	SelectionFileName  = "disbursement_selection.csv"
	ReportFileName     = "selection_report.json"
	DPDFileName        = "dpd_summary.csv"
	ClassifiedFileName = "classified_requests.csv"
)

// CSVExporter writes run outputs under one output directory.
type CSVExporter struct {
	outputDir string
	logger    *slog.Logger
}

var _ port.ResultExporter = (*CSVExporter)(nil)

// NewCSVExporter builds an exporter rooted at outputDir. The directory is
// created on first write.
func NewCSVExporter(outputDir string, logger *slog.Logger) *CSVExporter {
	return &CSVExporter{outputDir: outputDir, logger: logger}
}

// ExportSelection writes the full selection table and the run report, and
// returns the paths written.
func (e *CSVExporter) ExportSelection(ctx context.Context, result model.SelectionResult) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	selectionPath := filepath.Join(e.outputDir, SelectionFileName)
	if err := e.writeSelectionCSV(selectionPath, result.Rows); err != nil {
		return nil, err
	}
	reportPath := filepath.Join(e.outputDir, ReportFileName)
	if err := e.writeReportJSON(reportPath, result.Report); err != nil {
		return nil, err
	}

	e.logger.Info("exported selection",
		"rows", len(result.Rows),
		"selected", result.Report.CountSelected,
		"dir", e.outputDir,
	)
	return []string{selectionPath, reportPath}, nil
}

// ExportDPDSummary writes the per-loan delinquency summary and returns the
// path written.
func (e *CSVExporter) ExportDPDSummary(ctx context.Context, profiles []model.RiskProfile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, DPDFileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"loan_id", "dpd_days", "dpd_bucket", "dpd_severity", "in_default", "risk_score"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	for _, p := range profiles {
		record := []string{
			p.LoanID,
			strconv.Itoa(p.DPDDays),
			p.DPDBucket,
			strconv.Itoa(p.DPDSeverity),
			strconv.FormatBool(p.InDefault),
			formatFloat(p.RiskScore),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	e.logger.Info("exported dpd summary", "loans", len(profiles), "path", path)
	return path, nil
}

// ExportClassified writes the classified request table and returns the path
// written.
func (e *CSVExporter) ExportClassified(ctx context.Context, loans []model.ClassifiedLoan) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, ClassifiedFileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"loan_id", "customer_id", "amount", "apr", "industry",
		"apr_bucket", "line_bucket", "payer_grade", "client_type",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	for _, loan := range loans {
		record := []string{
			loan.LoanID,
			loan.CustomerID,
			loan.Amount.String(),
			formatFloat(loan.APR),
			loan.Industry,
			loan.AprBucket,
			loan.LineBucket,
			loan.PayerGrade.String(),
			loan.ClientType.String(),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	e.logger.Info("exported classified requests", "rows", len(loans), "path", path)
	return path, nil
}

func (e *CSVExporter) writeSelectionCSV(path string, rows []model.SelectionRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"loan_id", "customer_id", "amount", "apr",
		"apr_bucket", "line_bucket", "payer_grade", "client_type",
		"dpd_bucket", "risk_score", "priority",
		"selected", "reject_reason", "selected_amount_cum",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range rows {
		c := row.Candidate
		record := []string{
			c.LoanID,
			c.CustomerID,
			c.Amount.String(),
			formatFloat(c.APR),
			c.AprBucket,
			c.LineBucket,
			c.PayerGrade.String(),
			c.ClientType.String(),
			c.Risk.DPDBucket,
			formatFloat(c.Risk.RiskScore),
			formatFloat(row.Priority),
			strconv.FormatBool(row.Selected),
			row.RejectReason,
			row.SelectedAmountCum.String(),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// reportView is the serialized shape of the run report. Decimal amounts
// marshal as strings so downstream consumers never see float drift.
type reportView struct {
	CountEvaluated int `json:"count_evaluated"`
	CountSelected  int `json:"count_selected"`
	CountRejected  int `json:"count_rejected"`
	CountSkipped   int `json:"count_skipped"`

	TotalSelected   string  `json:"total_selected"`
	AvailableCash   string  `json:"available_cash"`
	RemainingCash   string  `json:"remaining_cash"`
	CashUtilization float64 `json:"cash_utilization"`

	Constraints []constraintView `json:"constraints"`
	APRMix      []mixView        `json:"apr_mix"`
}

type constraintView struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Dimension   string   `json:"dimension,omitempty"`
	Actual      float64  `json:"actual"`
	Limit       float64  `json:"limit"`
	Utilization *float64 `json:"utilization"`
	Breached    bool     `json:"breached"`
}

type mixView struct {
	Bucket      string  `json:"bucket"`
	ActualShare float64 `json:"actual_share"`
	TargetShare float64 `json:"target_share"`
	OnTarget    *bool   `json:"on_target"`
}

func (e *CSVExporter) writeReportJSON(path string, report model.SelectionReport) error {
	view := reportView{
		CountEvaluated:  report.CountEvaluated,
		CountSelected:   report.CountSelected,
		CountRejected:   report.CountRejected,
		CountSkipped:    report.CountSkipped,
		TotalSelected:   report.TotalSelected.String(),
		AvailableCash:   report.AvailableCash.String(),
		RemainingCash:   report.RemainingCash.String(),
		CashUtilization: report.CashUtilization,
		Constraints:     make([]constraintView, 0, len(report.Constraints)),
		APRMix:          make([]mixView, 0, len(report.APRMix)),
	}
	for _, c := range report.Constraints {
		view.Constraints = append(view.Constraints, constraintView{
			Name:        c.Name,
			Kind:        c.Kind,
			Dimension:   c.Dimension,
			Actual:      c.Actual,
			Limit:       c.Limit,
			Utilization: c.Utilization,
			Breached:    c.Breached,
		})
	}
	for _, m := range report.APRMix {
		view.APRMix = append(view.APRMix, mixView{
			Bucket:      m.Bucket,
			ActualShare: m.ActualShare,
			TargetShare: m.TargetShare,
			OnTarget:    m.OnTarget,
		})
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// formatFloat renders a float with the shortest exact representation, which
// keeps exports byte-stable across runs.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
