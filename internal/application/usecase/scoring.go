package usecase

import (
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

// applyRiskScores fills each profile's risk score in place, using the payer
// grade of the matching classified request. Ledger loans without a matching
// request score with the unclassified grade, which is the worst one, so an
// unknown payer never looks safer than a graded one.
func applyRiskScores(profiles []model.RiskProfile, classified []model.ClassifiedLoan, scorer *service.RiskScorer) {
	byLoan := make(map[string]model.ClassifiedLoan, len(classified))
	for _, c := range classified {
		byLoan[c.LoanID] = c
	}
	for i := range profiles {
		loan, ok := byLoan[profiles[i].LoanID]
		if !ok {
			loan = model.ClassifiedLoan{PayerGrade: valueobject.PayerGradeUnclassified}
		}
		profiles[i].RiskScore = scorer.Score(loan, profiles[i].DPDSeverity)
	}
}
