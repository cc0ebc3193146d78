package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntry is one contractual due line from the payment schedule ledger.
// Duplicate (loan, date, amount) lines are distinct obligations.
type ScheduleEntry struct {
	LoanID string
	Date   time.Time
	Amount decimal.Decimal
}

// PaymentReceipt is one observed payment line from the payments ledger.
type PaymentReceipt struct {
	LoanID string
	Date   time.Time
	Amount decimal.Decimal
}

// TimelineEntry is one row of the merged per-loan cash-flow timeline. Due and
// paid lines interleave in date order and the cumulative columns carry
// running totals up to and including the row.
type TimelineEntry struct {
	LoanID         string
	Date           time.Time
	DueAmount      decimal.Decimal
	PaidAmount     decimal.Decimal
	CumulativeDue  decimal.Decimal
	CumulativePaid decimal.Decimal
}

// RiskProfile is the delinquency standing of one loan as of a reference date.
type RiskProfile struct {
	LoanID      string
	DPDDays     int
	DPDBucket   string
	DPDSeverity int  // ordinal index of DPDBucket, 0 = current
	InDefault   bool // DPDDays reached the configured default threshold
	RiskScore   float64
}

// ExcludedLoan records a ledger loan dropped from reconciliation together
// with the reason it could not be processed.
type ExcludedLoan struct {
	LoanID string
	Reason string
}

// DPDResult is the complete output of one reconciliation pass.
type DPDResult struct {
	Profiles []RiskProfile
	Timeline []TimelineEntry
	Excluded []ExcludedLoan
}

// ProfileByLoan indexes the reconciled profiles by loan identifier.
func (r DPDResult) ProfileByLoan() map[string]RiskProfile {
	out := make(map[string]RiskProfile, len(r.Profiles))
	for _, p := range r.Profiles {
		out[p.LoanID] = p
	}
	return out
}

// CountInDefault returns how many reconciled loans sit at or beyond the
// default threshold.
func (r DPDResult) CountInDefault() int {
	n := 0
	for _, p := range r.Profiles {
		if p.InDefault {
			n++
		}
	}
	return n
}

// DefaultRate returns the share of reconciled loans in default, or 0 when
// nothing was reconciled.
func (r DPDResult) DefaultRate() float64 {
	if len(r.Profiles) == 0 {
		return 0
	}
	return float64(r.CountInDefault()) / float64(len(r.Profiles))
}
