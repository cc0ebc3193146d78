package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// PlanRequest carries the parameters of one planning cycle. The reference
// date anchors every date computation in the run; the engine never consults
// the wall clock.
type PlanRequest struct {
	ReferenceDate time.Time       `json:"reference_date"`
	AvailableCash decimal.Decimal `json:"available_cash"`
}

// DPDReportRequest carries the parameters of a standalone delinquency report.
type DPDReportRequest struct {
	ReferenceDate time.Time `json:"reference_date"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// PlanSummary is the operator-facing outcome of one planning cycle.
type PlanSummary struct {
	RunID         string    `json:"run_id"`
	ReferenceDate time.Time `json:"reference_date"`

	CandidateCount int `json:"candidate_count"`
	SelectedCount  int `json:"selected_count"`
	RejectedCount  int `json:"rejected_count"`
	SkippedCount   int `json:"skipped_count"`

	TotalSelected   decimal.Decimal `json:"total_selected"`
	RemainingCash   decimal.Decimal `json:"remaining_cash"`
	CashUtilization float64         `json:"cash_utilization"`

	ReconciledLoans int     `json:"reconciled_loans"`
	ExcludedLoans   int     `json:"excluded_loans"`
	DefaultRate     float64 `json:"default_rate"`

	AlertCount     int `json:"alert_count"`
	CriticalAlerts int `json:"critical_alerts"`

	OutputPaths []string `json:"output_paths"`
}

// DPDReportSummary is the outcome of a standalone delinquency report.
type DPDReportSummary struct {
	RunID         string    `json:"run_id"`
	ReferenceDate time.Time `json:"reference_date"`

	LoanCount     int     `json:"loan_count"`
	InDefault     int     `json:"in_default"`
	DefaultRate   float64 `json:"default_rate"`
	ExcludedLoans int     `json:"excluded_loans"`

	OutputPath string `json:"output_path"`
}

// ClassifySummary is the outcome of a standalone classification pass.
type ClassifySummary struct {
	Total        int `json:"total"`
	Unclassified int `json:"unclassified"`

	OutputPath string `json:"output_path"`
}
