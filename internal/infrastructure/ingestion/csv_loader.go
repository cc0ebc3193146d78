// Package ingestion reads the four planning input tables from CSV files and
// lifts them into domain types. Header spelling differences are absorbed by
// the schema registry; the engine downstream only ever sees canonical frames
// and typed records.
package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/port"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// Paths locates the four input tables on disk.
type Paths struct {
	Requests  string
	Portfolio string
	Schedule  string
	Payments  string
}

// CSVTableLoader loads planning inputs from CSV files. Request and portfolio
// tables are typed here; the two payment ledgers stay as raw frames because
// the reconciler standardizes them itself.
type CSVTableLoader struct {
	paths        Paths
	standardizer *service.Standardizer
	logger       *slog.Logger
}

var _ port.TableLoader = (*CSVTableLoader)(nil)

// NewCSVTableLoader builds a loader over the given file locations.
func NewCSVTableLoader(paths Paths, standardizer *service.Standardizer, logger *slog.Logger) *CSVTableLoader {
	return &CSVTableLoader{paths: paths, standardizer: standardizer, logger: logger}
}

// LoadLoanRequests reads and types the financing-request table. Rows whose
// cells cannot be parsed are logged and dropped; rows that parse but are
// semantically invalid (missing ids, non-positive amounts) pass through so
// the optimizer can surface them in its output.
func (l *CSVTableLoader) LoadLoanRequests(ctx context.Context) ([]model.LoanRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := l.readFrame(l.paths.Requests)
	if err != nil {
		return nil, fmt.Errorf("load loan requests: %w", err)
	}
	canonical, err := l.standardizer.Standardize(frame, service.RequestSchema())
	if err != nil {
		return nil, fmt.Errorf("load loan requests: %w", err)
	}

	var (
		idIdx       = canonical.ColumnIndex("loan_id")
		custIdx     = canonical.ColumnIndex("customer_id")
		amountIdx   = canonical.ColumnIndex("amount")
		aprIdx      = canonical.ColumnIndex("apr")
		industryIdx = canonical.ColumnIndex("industry")
		dpdIdx      = canonical.ColumnIndex("dpd_history_pct")
		revenueIdx  = canonical.ColumnIndex("revenue")
		yearsIdx    = canonical.ColumnIndex("years_active")
	)

	records := make([]model.LoanRecord, 0, len(canonical.Rows))
	for i, row := range canonical.Rows {
		line := i + 2 // 1-based file line, after the header

		amount, err := parseAmount(cell(row, amountIdx))
		if err != nil {
			l.logger.Warn("skipping request row", "line", line, "reason", fmt.Sprintf("amount: %v", err))
			continue
		}
		apr, err := parsePercent(cell(row, aprIdx))
		if err != nil {
			l.logger.Warn("skipping request row", "line", line, "reason", fmt.Sprintf("apr: %v", err))
			continue
		}
		dpdHist, err := parseOptionalPercent(cell(row, dpdIdx))
		if err != nil {
			l.logger.Warn("skipping request row", "line", line, "reason", fmt.Sprintf("dpd_history_pct: %v", err))
			continue
		}
		revenue, err := parseOptionalAmount(cell(row, revenueIdx))
		if err != nil {
			l.logger.Warn("skipping request row", "line", line, "reason", fmt.Sprintf("revenue: %v", err))
			continue
		}
		years, err := parseOptionalFloat(cell(row, yearsIdx))
		if err != nil {
			l.logger.Warn("skipping request row", "line", line, "reason", fmt.Sprintf("years_active: %v", err))
			continue
		}

		records = append(records, model.LoanRecord{
			LoanID:        cell(row, idIdx),
			CustomerID:    cell(row, custIdx),
			Amount:        amount,
			APR:           apr,
			Industry:      cell(row, industryIdx),
			DPDHistoryPct: dpdHist,
			Revenue:       revenue,
			YearsActive:   years,
			RowIndex:      i,
		})
	}
	l.logger.Debug("loaded loan requests", "path", l.paths.Requests, "rows", len(records))
	return records, nil
}

// LoadPortfolio reads and types the current-book exposure table. Book rows
// must be sane for the concentration aggregates, so identity and balance
// defects drop the row with a warning.
func (l *CSVTableLoader) LoadPortfolio(ctx context.Context) ([]model.Exposure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := l.readFrame(l.paths.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	canonical, err := l.standardizer.Standardize(frame, service.PortfolioSchema())
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	var (
		idIdx          = canonical.ColumnIndex("loan_id")
		custIdx        = canonical.ColumnIndex("customer_id")
		industryIdx    = canonical.ColumnIndex("industry")
		gradeIdx       = canonical.ColumnIndex("payer_grade")
		aprIdx         = canonical.ColumnIndex("apr")
		outstandingIdx = canonical.ColumnIndex("outstanding")
	)

	exposures := make([]model.Exposure, 0, len(canonical.Rows))
	for i, row := range canonical.Rows {
		line := i + 2

		loanID := cell(row, idIdx)
		customerID := cell(row, custIdx)
		if loanID == "" || customerID == "" {
			l.logger.Warn("skipping portfolio row", "line", line, "reason", "missing loan_id or customer_id")
			continue
		}
		outstanding, err := parseAmount(cell(row, outstandingIdx))
		if err != nil {
			l.logger.Warn("skipping portfolio row", "line", line, "reason", fmt.Sprintf("outstanding: %v", err))
			continue
		}
		if outstanding.IsNegative() {
			l.logger.Warn("skipping portfolio row", "line", line, "reason", "negative outstanding")
			continue
		}
		apr, err := parseOptionalPercent(cell(row, aprIdx))
		if err != nil {
			l.logger.Warn("skipping portfolio row", "line", line, "reason", fmt.Sprintf("apr: %v", err))
			continue
		}

		grade := valueobject.PayerGradeUnclassified
		if raw := cell(row, gradeIdx); raw != "" {
			parsed, err := valueobject.PayerGradeFromString(strings.ToUpper(raw))
			if err != nil {
				l.logger.Warn("unknown payer grade on book, treating as unclassified", "line", line, "grade", raw)
			} else {
				grade = parsed
			}
		}

		exposures = append(exposures, model.Exposure{
			LoanID:      loanID,
			CustomerID:  customerID,
			Industry:    cell(row, industryIdx),
			PayerGrade:  grade,
			APR:         apr,
			Outstanding: outstanding,
		})
	}
	l.logger.Debug("loaded portfolio", "path", l.paths.Portfolio, "rows", len(exposures))
	return exposures, nil
}

// LoadSchedule reads the contractual due ledger as a raw frame.
func (l *CSVTableLoader) LoadSchedule(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	frame, err := l.readFrame(l.paths.Schedule)
	if err != nil {
		return model.Frame{}, fmt.Errorf("load schedule: %w", err)
	}
	return frame, nil
}

// LoadPayments reads the observed receipts ledger as a raw frame.
func (l *CSVTableLoader) LoadPayments(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	frame, err := l.readFrame(l.paths.Payments)
	if err != nil {
		return model.Frame{}, fmt.Errorf("load payments: %w", err)
	}
	return frame, nil
}

// readFrame reads a CSV file into a header-plus-rows frame.
func (l *CSVTableLoader) readFrame(path string) (model.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Frame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // ragged rows are a row-level concern

	records, err := reader.ReadAll()
	if err != nil {
		return model.Frame{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return model.Frame{}, fmt.Errorf("%s: file has no header row", path)
	}
	return model.Frame{Columns: records[0], Rows: records[1:]}, nil
}

// cell returns the trimmed cell at idx, or "" when the column is absent or
// the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseAmount parses a money cell, tolerating currency symbols and thousands
// separators.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// parseOptionalAmount is parseAmount with empty treated as zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseAmount(s)
}

// parsePercent parses a rate cell, tolerating a trailing percent sign.
// "22.5" and "22.5%" both mean 22.5 percent.
func parsePercent(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if cleaned == "" {
		return 0, fmt.Errorf("empty rate")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	return v, nil
}

// parseOptionalPercent is parsePercent with empty treated as zero.
func parseOptionalPercent(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return parsePercent(s)
}

// parseOptionalFloat parses a plain numeric cell with empty treated as zero.
func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
