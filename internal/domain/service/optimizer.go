package service

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// Constraints bounds one optimization pass. Every share is a fraction of
// total post-selection exposure. A zero or NaN ceiling or floor means the
// limit is not configured and its check is skipped.
type Constraints struct {
	// PayerAMin is a floor on the A-grade share of the book.
	PayerAMin float64
	// PayerDMax is a ceiling on the D-grade share of the book.
	PayerDMax float64
	// IndustryMaxShare is a ceiling on any single industry's share.
	IndustryMaxShare float64
	// TopClientMax is a ceiling on any single customer's share.
	TopClientMax float64
	// TargetAPRMix is the desired share of disbursed amount per APR bucket.
	// A ranking aid, never a hard limit.
	TargetAPRMix map[string]float64
	// MixTolerance is the relative tolerance for the on-target comparison in
	// the report.
	MixTolerance float64
	// MixBoost is added to a candidate's priority when its APR bucket is
	// underweight against the target mix on the existing book.
	MixBoost float64
}

// DefaultConstraints returns the production risk-mix limits.
func DefaultConstraints() Constraints {
	return Constraints{
		PayerAMin:        0.2,
		PayerDMax:        0.15,
		IndustryMaxShare: 0.6,
		TopClientMax:     0.25,
		TargetAPRMix:     map[string]float64{},
		MixTolerance:     0.1,
		MixBoost:         0,
	}
}

// DisbursementOptimizer selects which funding requests to disburse under the
// cash and concentration limits. The scan is greedy and single pass: one
// candidate's rejection never stops the scan, and infeasibility is reported
// through the result, never raised.
type DisbursementOptimizer struct {
	logger *slog.Logger
}

// NewDisbursementOptimizer builds an optimizer.
func NewDisbursementOptimizer(logger *slog.Logger) *DisbursementOptimizer {
	return &DisbursementOptimizer{logger: logger}
}

type rankedCandidate struct {
	cand     model.DisbursementCandidate
	priority float64
}

// Optimize ranks the candidates by risk-adjusted yield and accepts each one
// whose tentative addition keeps every configured limit satisfied and stays
// within cash. It always returns a populated result; an empty candidate list
// yields an empty row table plus a report, never an absent value.
func (o *DisbursementOptimizer) Optimize(
	requests []model.DisbursementCandidate,
	portfolio model.Portfolio,
	availableCash decimal.Decimal,
	constraints Constraints,
) model.SelectionResult {
	// 1. Rank by priority descending; equal priorities keep the original
	// stable row order.
	portfolioMix := portfolioAPRMix(portfolio)
	ranked := make([]rankedCandidate, len(requests))
	for i, c := range requests {
		ranked[i] = rankedCandidate{cand: c, priority: priorityOf(c, portfolioMix, constraints)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		return ranked[i].cand.RowIndex < ranked[j].cand.RowIndex
	})

	// 2. Running aggregates, seeded with the existing book so pre-existing
	// concentration counts against the limits.
	totalExposure := portfolio.TotalOutstanding()
	byIndustry := portfolio.OutstandingByIndustry()
	byGrade := portfolio.OutstandingByGrade()
	byCustomer := portfolio.OutstandingByCustomer()
	selectedTotal := decimal.Zero
	selectedByAPR := make(map[string]decimal.Decimal)

	rows := make([]model.SelectionRow, 0, len(requests))
	countSelected, countRejected, countSkipped := 0, 0, 0

	// 3. Single greedy pass. Concentration is checked before cash so a
	// rejection records the binding business rule, and a skip never ends the
	// scan.
	for _, rc := range ranked {
		row := model.SelectionRow{Candidate: rc.cand, Priority: rc.priority}

		if reason := malformedReason(rc.cand); reason != "" {
			o.logger.Warn("skipping malformed candidate",
				"loan_id", rc.cand.LoanID, "row", rc.cand.RowIndex, "reason", reason)
			row.RejectReason = model.RejectMalformed
			row.SelectedAmountCum = selectedTotal
			rows = append(rows, row)
			countSkipped++
			continue
		}

		amount := rc.cand.Amount
		tentativeTotal := totalExposure.Add(amount)
		grade := rc.cand.PayerGrade
		// Share limits compare against total prior exposure; on an empty
		// book there is nothing to concentrate against and no comparison is
		// available, so the checks pass vacuously.
		comparable := totalExposure.IsPositive()

		reject := ""
		if comparable && limitConfigured(constraints.IndustryMaxShare) {
			share := shareOf(byIndustry[rc.cand.Industry].Add(amount), tentativeTotal)
			if share > constraints.IndustryMaxShare {
				reject = model.RejectIndustryShare
			}
		}
		if reject == "" && comparable && limitConfigured(constraints.PayerDMax) && grade.Equal(valueobject.PayerGradeD) {
			share := shareOf(byGrade[grade.String()].Add(amount), tentativeTotal)
			if share > constraints.PayerDMax {
				reject = model.RejectPayerDShare
			}
		}
		// The floor only rejects candidates that dilute the A share below
		// it; an A-grade candidate improves the ratio and is never blocked.
		if reject == "" && comparable && limitConfigured(constraints.PayerAMin) && !grade.Equal(valueobject.PayerGradeA) {
			share := shareOf(byGrade[valueobject.PayerGradeA.String()], tentativeTotal)
			if share < constraints.PayerAMin {
				reject = model.RejectPayerAFloor
			}
		}
		if reject == "" && comparable && limitConfigured(constraints.TopClientMax) {
			share := shareOf(byCustomer[rc.cand.CustomerID].Add(amount), tentativeTotal)
			if share > constraints.TopClientMax {
				reject = model.RejectTopClientShare
			}
		}
		if reject == "" && selectedTotal.Add(amount).GreaterThan(availableCash) {
			reject = model.RejectInsufficientCash
		}

		if reject != "" {
			row.RejectReason = reject
			row.SelectedAmountCum = selectedTotal
			rows = append(rows, row)
			countRejected++
			continue
		}

		selectedTotal = selectedTotal.Add(amount)
		totalExposure = tentativeTotal
		byIndustry[rc.cand.Industry] = byIndustry[rc.cand.Industry].Add(amount)
		byGrade[grade.String()] = byGrade[grade.String()].Add(amount)
		byCustomer[rc.cand.CustomerID] = byCustomer[rc.cand.CustomerID].Add(amount)
		selectedByAPR[rc.cand.AprBucket] = selectedByAPR[rc.cand.AprBucket].Add(amount)

		row.Selected = true
		row.SelectedAmountCum = selectedTotal
		rows = append(rows, row)
		countSelected++
	}

	report := o.buildReport(reportInputs{
		constraints:   constraints,
		availableCash: availableCash,
		selectedTotal: selectedTotal,
		totalExposure: totalExposure,
		byIndustry:    byIndustry,
		byGrade:       byGrade,
		byCustomer:    byCustomer,
		selectedByAPR: selectedByAPR,
		countEval:     len(requests),
		countSelected: countSelected,
		countRejected: countRejected,
		countSkipped:  countSkipped,
	})

	return model.SelectionResult{Rows: rows, Report: report}
}

type reportInputs struct {
	constraints   Constraints
	availableCash decimal.Decimal
	selectedTotal decimal.Decimal
	totalExposure decimal.Decimal
	byIndustry    map[string]decimal.Decimal
	byGrade       map[string]decimal.Decimal
	byCustomer    map[string]decimal.Decimal
	selectedByAPR map[string]decimal.Decimal
	countEval     int
	countSelected int
	countRejected int
	countSkipped  int
}

// buildReport computes per-constraint utilization on the final post-selection
// aggregates. Utilization is nil wherever the configured limit offers no
// comparison.
func (o *DisbursementOptimizer) buildReport(in reportInputs) model.SelectionReport {
	report := model.SelectionReport{
		CountEvaluated: in.countEval,
		CountSelected:  in.countSelected,
		CountRejected:  in.countRejected,
		CountSkipped:   in.countSkipped,
		TotalSelected:  in.selectedTotal,
		AvailableCash:  in.availableCash,
		RemainingCash:  in.availableCash.Sub(in.selectedTotal),
	}
	if in.availableCash.IsPositive() {
		report.CashUtilization = in.selectedTotal.Div(in.availableCash).InexactFloat64()
	}

	// One entry per industry on the final book, sorted for stable output.
	industries := make([]string, 0, len(in.byIndustry))
	for name, amount := range in.byIndustry {
		if amount.IsPositive() {
			industries = append(industries, name)
		}
	}
	sort.Strings(industries)
	for _, name := range industries {
		share := shareOf(in.byIndustry[name], in.totalExposure)
		report.Constraints = append(report.Constraints, constraintEntry(
			"industry_max_share", "ceiling", name, share, in.constraints.IndustryMaxShare))
	}

	dShare := shareOf(in.byGrade[valueobject.PayerGradeD.String()], in.totalExposure)
	report.Constraints = append(report.Constraints, constraintEntry(
		"payer_d_max", "ceiling", valueobject.PayerGradeD.String(), dShare, in.constraints.PayerDMax))

	aShare := shareOf(in.byGrade[valueobject.PayerGradeA.String()], in.totalExposure)
	aEntry := constraintEntry("payer_a_min", "floor", valueobject.PayerGradeA.String(), aShare, in.constraints.PayerAMin)
	aEntry.Breached = limitConfigured(in.constraints.PayerAMin) && in.totalExposure.IsPositive() && aShare < in.constraints.PayerAMin
	report.Constraints = append(report.Constraints, aEntry)

	topCustomer, topShare := "", 0.0
	customers := make([]string, 0, len(in.byCustomer))
	for c := range in.byCustomer {
		customers = append(customers, c)
	}
	sort.Strings(customers)
	for _, c := range customers {
		if share := shareOf(in.byCustomer[c], in.totalExposure); share > topShare {
			topCustomer, topShare = c, share
		}
	}
	report.Constraints = append(report.Constraints, constraintEntry(
		"top_client_max", "ceiling", topCustomer, topShare, in.constraints.TopClientMax))

	// APR mix over the disbursed amount, compared against the target where
	// one exists.
	buckets := make(map[string]bool)
	for b := range in.constraints.TargetAPRMix {
		buckets[b] = true
	}
	for b := range in.selectedByAPR {
		buckets[b] = true
	}
	for _, b := range sortedKeys(buckets) {
		actual := shareOf(in.selectedByAPR[b], in.selectedTotal)
		target := in.constraints.TargetAPRMix[b]
		report.APRMix = append(report.APRMix, model.APRMixEntry{
			Bucket:      b,
			ActualShare: actual,
			TargetShare: target,
			OnTarget:    WithinTolerance(actual, target, in.constraints.MixTolerance),
		})
	}

	return report
}

func constraintEntry(name, kind, dimension string, actual, limit float64) model.ConstraintUtilization {
	entry := model.ConstraintUtilization{
		Name:      name,
		Kind:      kind,
		Dimension: dimension,
		Actual:    actual,
		Limit:     limit,
	}
	if limitConfigured(limit) {
		util := actual / limit
		entry.Utilization = &util
		if kind == "ceiling" {
			entry.Breached = actual > limit
		}
	}
	return entry
}

// priorityOf computes the ranking key: yield discounted by risk, plus the
// optional underweight-mix boost.
func priorityOf(c model.DisbursementCandidate, portfolioMix map[string]float64, constraints Constraints) float64 {
	p := c.APR * (1 - c.Risk.RiskScore)
	if constraints.MixBoost > 0 {
		if target, ok := constraints.TargetAPRMix[c.AprBucket]; ok && target > 0 && portfolioMix[c.AprBucket] < target {
			p += constraints.MixBoost
		}
	}
	return p
}

func portfolioAPRMix(portfolio model.Portfolio) map[string]float64 {
	total := portfolio.TotalOutstanding()
	mix := make(map[string]float64)
	if !total.IsPositive() {
		return mix
	}
	for bucket, amount := range portfolio.OutstandingByAprBucket() {
		mix[bucket] = shareOf(amount, total)
	}
	return mix
}

func malformedReason(c model.DisbursementCandidate) string {
	switch {
	case strings.TrimSpace(c.LoanID) == "":
		return "missing loan_id"
	case strings.TrimSpace(c.CustomerID) == "":
		return "missing customer_id"
	case !c.Amount.IsPositive():
		return "non-positive amount"
	case math.IsNaN(c.APR):
		return "apr is not a number"
	default:
		return ""
	}
}

func limitConfigured(limit float64) bool {
	return limit > 0 && !math.IsNaN(limit)
}

func shareOf(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).InexactFloat64()
}
