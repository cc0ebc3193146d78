package model

import (
	"github.com/shopspring/decimal"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// Exposure is one outstanding position on the current book.
type Exposure struct {
	LoanID      string
	CustomerID  string
	Industry    string
	PayerGrade  valueobject.PayerGrade
	APR         float64
	AprBucket   string
	Outstanding decimal.Decimal
}

// Portfolio is the lender's existing book. It seeds the optimizer's
// concentration aggregates and is never mutated by a planning run.
type Portfolio struct {
	exposures []Exposure
}

// NewPortfolio builds a portfolio over its own copy of the exposures.
func NewPortfolio(exposures []Exposure) Portfolio {
	cp := make([]Exposure, len(exposures))
	copy(cp, exposures)
	return Portfolio{exposures: cp}
}

// Exposures returns a copy of the underlying positions.
func (p Portfolio) Exposures() []Exposure {
	cp := make([]Exposure, len(p.exposures))
	copy(cp, p.exposures)
	return cp
}

// Size returns the number of positions on the book.
func (p Portfolio) Size() int {
	return len(p.exposures)
}

// TotalOutstanding sums the outstanding amount across the book.
func (p Portfolio) TotalOutstanding() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p.exposures {
		total = total.Add(e.Outstanding)
	}
	return total
}

// OutstandingByIndustry sums outstanding amounts per industry.
func (p Portfolio) OutstandingByIndustry() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range p.exposures {
		out[e.Industry] = out[e.Industry].Add(e.Outstanding)
	}
	return out
}

// OutstandingByGrade sums outstanding amounts per payer grade.
func (p Portfolio) OutstandingByGrade() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range p.exposures {
		out[e.PayerGrade.String()] = out[e.PayerGrade.String()].Add(e.Outstanding)
	}
	return out
}

// OutstandingByCustomer sums outstanding amounts per customer.
func (p Portfolio) OutstandingByCustomer() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range p.exposures {
		out[e.CustomerID] = out[e.CustomerID].Add(e.Outstanding)
	}
	return out
}

// OutstandingByAprBucket sums outstanding amounts per APR bucket. Positions
// without a bucket label are grouped under the empty key.
func (p Portfolio) OutstandingByAprBucket() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range p.exposures {
		out[e.AprBucket] = out[e.AprBucket].Add(e.Outstanding)
	}
	return out
}
