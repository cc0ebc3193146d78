package service

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// ClassifierConfig carries every classification threshold explicitly. No
// package-level bounds exist, so tests and replays can override per call
// site.
type ClassifierConfig struct {
	// APRBounds are the ascending lower bounds of the APR tiers, in percent.
	APRBounds []float64
	// LineBounds are the ascending lower bounds of the credit-line tiers.
	LineBounds []float64
	// PayerBounds are the ascending lower bounds of the four payer grades
	// (A through D), in delinquency-history percent. Exactly four bounds.
	PayerBounds []float64
	// Maturity segmentation thresholds.
	StartupRevenueMax decimal.Decimal
	GrowingRevenueMax decimal.Decimal
	StartupYearsMax   float64
}

// DefaultClassifierConfig returns the production classification thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		APRBounds:         []float64{0, 15, 20, 25, 30},
		LineBounds:        []float64{0, 100_000, 250_000, 500_000, 1_000_000, 5_000_000},
		PayerBounds:       []float64{0, 5, 15, 30},
		StartupRevenueMax: decimal.NewFromInt(5_000_000),
		GrowingRevenueMax: decimal.NewFromInt(50_000_000),
		StartupYearsMax:   3,
	}
}

var payerGradesByTier = []valueobject.PayerGrade{
	valueobject.PayerGradeA,
	valueobject.PayerGradeB,
	valueobject.PayerGradeC,
	valueobject.PayerGradeD,
}

// clientRule is one row of the maturity precedence list. The first matching
// rule wins, so precedence reads top to bottom.
type clientRule struct {
	result valueobject.ClientType
	match  func(revenue decimal.Decimal, years float64) bool
}

// Classifier maps loan attributes onto named buckets. All lookups are total:
// out-of-domain input lands in the unclassified bucket instead of failing, so
// downstream aggregation never silently drops rows.
type Classifier struct {
	aprTable    BucketTable
	lineTable   BucketTable
	payerTable  BucketTable
	clientRules []clientRule
}

// NewClassifier validates the configured bounds and builds the lookup tables.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	aprTable, err := NewBucketTable(cfg.APRBounds, APRBucketLabels(cfg.APRBounds))
	if err != nil {
		return nil, fmt.Errorf("build apr table: %w", err)
	}
	lineTable, err := NewBucketTable(cfg.LineBounds, LineBucketLabels(cfg.LineBounds))
	if err != nil {
		return nil, fmt.Errorf("build line table: %w", err)
	}
	if len(cfg.PayerBounds) != len(payerGradesByTier) {
		return nil, fmt.Errorf("payer bounds must have exactly %d entries, got %d", len(payerGradesByTier), len(cfg.PayerBounds))
	}
	gradeLabels := make([]string, len(payerGradesByTier))
	for i, g := range payerGradesByTier {
		gradeLabels[i] = g.String()
	}
	payerTable, err := NewBucketTable(cfg.PayerBounds, gradeLabels)
	if err != nil {
		return nil, fmt.Errorf("build payer table: %w", err)
	}
	if cfg.StartupRevenueMax.GreaterThanOrEqual(cfg.GrowingRevenueMax) {
		return nil, fmt.Errorf("startup revenue ceiling %s must be below growing ceiling %s", cfg.StartupRevenueMax, cfg.GrowingRevenueMax)
	}

	startupRevenueMax := cfg.StartupRevenueMax
	growingRevenueMax := cfg.GrowingRevenueMax
	startupYearsMax := cfg.StartupYearsMax
	rules := []clientRule{
		{
			result: valueobject.ClientTypeStartup,
			match: func(revenue decimal.Decimal, years float64) bool {
				return revenue.LessThan(startupRevenueMax) && years <= startupYearsMax
			},
		},
		{
			result: valueobject.ClientTypeGrowing,
			match: func(revenue decimal.Decimal, years float64) bool {
				return revenue.GreaterThanOrEqual(startupRevenueMax) &&
					revenue.LessThan(growingRevenueMax) &&
					years > startupYearsMax
			},
		},
	}

	return &Classifier{
		aprTable:    aprTable,
		lineTable:   lineTable,
		payerTable:  payerTable,
		clientRules: rules,
	}, nil
}

// BucketAPR maps an APR (in percent) onto its tier label. Boundaries are
// half-open and lower-inclusive: exactly 15.0 lands in "15-20%".
func (c *Classifier) BucketAPR(apr float64) string {
	label, _ := c.aprTable.Bucket(apr)
	return label
}

// BucketLine maps a requested amount onto its credit-line tier label.
func (c *Classifier) BucketLine(amount decimal.Decimal) string {
	label, _ := c.lineTable.BucketDecimal(amount)
	return label
}

// BucketPayer grades a payer by its historical delinquency percentage.
func (c *Classifier) BucketPayer(dpdHistoryPct float64) valueobject.PayerGrade {
	_, idx := c.payerTable.Bucket(dpdHistoryPct)
	if idx < 0 {
		return valueobject.PayerGradeUnclassified
	}
	return payerGradesByTier[idx]
}

// ClassifyClient segments a borrower by company maturity using the ordered
// rule list; anything no rule claims is Enterprise. Combinations like
// revenue below the startup ceiling with a long operating history fall
// through both rules and resolve to Enterprise.
func (c *Classifier) ClassifyClient(revenue decimal.Decimal, yearsActive float64) valueobject.ClientType {
	if revenue.IsNegative() || math.IsNaN(yearsActive) || yearsActive < 0 {
		return valueobject.ClientTypeUnclassified
	}
	for _, rule := range c.clientRules {
		if rule.match(revenue, yearsActive) {
			return rule.result
		}
	}
	return valueobject.ClientTypeEnterprise
}

// Classify tags one record with all four classification labels. Pure and
// total; the input record is copied, never mutated.
func (c *Classifier) Classify(rec model.LoanRecord) model.ClassifiedLoan {
	return model.ClassifiedLoan{
		LoanRecord: rec,
		AprBucket:  c.BucketAPR(rec.APR),
		LineBucket: c.BucketLine(rec.Amount),
		PayerGrade: c.BucketPayer(rec.DPDHistoryPct),
		ClientType: c.ClassifyClient(rec.Revenue, rec.YearsActive),
	}
}

// ClassifyAll tags every record, preserving order.
func (c *Classifier) ClassifyAll(recs []model.LoanRecord) []model.ClassifiedLoan {
	out := make([]model.ClassifiedLoan, len(recs))
	for i, rec := range recs {
		out[i] = c.Classify(rec)
	}
	return out
}

// APRBucketLabelSet returns the configured APR tier labels in ascending
// order, for report and mix construction.
func (c *Classifier) APRBucketLabelSet() []string {
	return c.aprTable.Labels()
}
