package model

import (
	"github.com/shopspring/decimal"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// LoanRecord is one financing request row as ingested. Fields are facts about
// the request; classification adds derived labels without touching them.
type LoanRecord struct {
	LoanID        string
	CustomerID    string
	Amount        decimal.Decimal // requested disbursement amount
	APR           float64         // annual percentage rate in percent (22.5 means 22.5%)
	Industry      string
	DPDHistoryPct float64 // share of the payer's past invoices that ran late, in percent
	Revenue       decimal.Decimal
	YearsActive   float64
	RowIndex      int // position in the source table, kept for stable ordering
}

// ClassifiedLoan is a LoanRecord tagged with the engine's classification
// labels. Every label is total: rows the classifier cannot place land in the
// dedicated unclassified bucket rather than failing.
type ClassifiedLoan struct {
	LoanRecord
	AprBucket  string
	LineBucket string
	PayerGrade valueobject.PayerGrade
	ClientType valueobject.ClientType
}

// DisbursementCandidate pairs a classified request with its delinquency
// profile. This is the unit the optimizer ranks and selects.
type DisbursementCandidate struct {
	ClassifiedLoan
	Risk RiskProfile
}
