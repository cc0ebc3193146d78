package service

import (
	"fmt"
	"math"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
)

// ScorerWeights blends the two risk axes. Weights must be non-negative and
// sum to 1.
type ScorerWeights struct {
	Payer float64
	DPD   float64
}

// DefaultScorerWeights returns the production blend, leaning slightly on the
// payer's history over the loan's current delinquency.
func DefaultScorerWeights() ScorerWeights {
	return ScorerWeights{Payer: 0.55, DPD: 0.45}
}

// RiskScorer combines the payer grade with the DPD bucket into one bounded
// score. The score is deterministic, stays in [0,1], rises (or holds) with
// DPD severity for a fixed grade, and rises (or holds) with grade severity
// for a fixed DPD bucket. The optimizer's ranking depends on that ordering
// staying stable.
type RiskScorer struct {
	weights        ScorerWeights
	dpdBucketCount int
}

// NewRiskScorer validates the weights. dpdBucketCount is the number of
// configured DPD buckets and normalizes bucket severity onto [0,1].
func NewRiskScorer(weights ScorerWeights, dpdBucketCount int) (*RiskScorer, error) {
	if weights.Payer < 0 || weights.DPD < 0 {
		return nil, fmt.Errorf("scorer weights must be non-negative, got payer=%v dpd=%v", weights.Payer, weights.DPD)
	}
	if math.Abs(weights.Payer+weights.DPD-1) > 1e-9 {
		return nil, fmt.Errorf("scorer weights must sum to 1, got %v", weights.Payer+weights.DPD)
	}
	if dpdBucketCount < 2 {
		return nil, fmt.Errorf("need at least two dpd buckets, got %d", dpdBucketCount)
	}
	return &RiskScorer{weights: weights, dpdBucketCount: dpdBucketCount}, nil
}

// Score blends payer-grade severity and DPD-bucket severity into [0,1].
// An unclassified or negative DPD severity scores as the worst bucket so
// unplaceable rows never rank as safe.
func (s *RiskScorer) Score(loan model.ClassifiedLoan, dpdSeverity int) float64 {
	gradeSeverity := float64(loan.PayerGrade.Severity()) / 3.0

	maxDPD := float64(s.dpdBucketCount - 1)
	if dpdSeverity < 0 || dpdSeverity > s.dpdBucketCount-1 {
		dpdSeverity = s.dpdBucketCount - 1
	}
	bucketSeverity := float64(dpdSeverity) / maxDPD

	score := s.weights.Payer*gradeSeverity + s.weights.DPD*bucketSeverity
	return clamp01(score)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
