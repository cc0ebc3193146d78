package model

import "github.com/shopspring/decimal"

// Reject reasons recorded on selection rows.
const (
	RejectMalformed        = "MALFORMED_ROW"
	RejectIndustryShare    = "INDUSTRY_SHARE_CEILING"
	RejectPayerDShare      = "PAYER_D_CEILING"
	RejectPayerAFloor      = "PAYER_A_FLOOR"
	RejectTopClientShare   = "TOP_CLIENT_CEILING"
	RejectInsufficientCash = "INSUFFICIENT_CASH"
)

// SelectionRow is the optimizer's verdict on one candidate, listed in
// evaluation order.
type SelectionRow struct {
	Candidate    DisbursementCandidate
	Priority     float64
	Selected     bool
	RejectReason string // empty when selected
	// SelectedAmountCum is the running total of accepted amounts after this
	// row was processed. It never decreases down the table.
	SelectedAmountCum decimal.Decimal
}

// ConstraintUtilization reports one concentration limit against the final
// post-selection book.
type ConstraintUtilization struct {
	Name      string
	Kind      string // "ceiling" or "floor"
	Dimension string // industry, grade or customer the limit applies to; empty for scalar limits
	Actual    float64
	Limit     float64
	// Utilization is Actual divided by Limit. It is nil when the limit is
	// zero or NaN and no comparison is available.
	Utilization *float64
	Breached    bool
}

// APRMixEntry compares the realized share of one APR bucket with its target.
type APRMixEntry struct {
	Bucket      string
	ActualShare float64
	TargetShare float64
	// OnTarget is nil when the target share is zero or NaN.
	OnTarget *bool
}

// SelectionReport summarizes one optimization pass for operators and the
// alert engine.
type SelectionReport struct {
	CountEvaluated int
	CountSelected  int
	CountRejected  int
	CountSkipped   int

	TotalSelected   decimal.Decimal
	AvailableCash   decimal.Decimal
	RemainingCash   decimal.Decimal
	CashUtilization float64 // TotalSelected / AvailableCash, 0 when cash is zero

	Constraints []ConstraintUtilization
	APRMix      []APRMixEntry
}

// SelectionResult is the complete outcome of one optimization pass. Rows is
// never nil: an empty candidate set yields an empty table and a populated
// report, not an absent one.
type SelectionResult struct {
	Rows   []SelectionRow
	Report SelectionReport
}

// SelectedRows returns only the accepted rows, in evaluation order.
func (r SelectionResult) SelectedRows() []SelectionRow {
	out := make([]SelectionRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Selected {
			out = append(out, row)
		}
	}
	return out
}
