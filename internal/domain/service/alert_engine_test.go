package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
)

func TestAlertEngine_CleanRunRaisesNothing(t *testing.T) {
	engine := service.NewAlertEngine(service.DefaultAlertThresholds())

	report := model.SelectionReport{CashUtilization: 0.4}
	alerts := engine.Evaluate(report, model.DPDResult{}, day("2024-06-30"))

	assert.Empty(t, alerts)
}

func TestAlertEngine_ConstraintBreach(t *testing.T) {
	engine := service.NewAlertEngine(service.DefaultAlertThresholds())

	util := 1.0 / 0.6
	report := model.SelectionReport{
		Constraints: []model.ConstraintUtilization{
			{Name: "industry_max_share", Kind: "ceiling", Dimension: "Tech", Actual: 1.0, Limit: 0.6, Utilization: &util, Breached: true},
			{Name: "payer_d_max", Kind: "ceiling", Dimension: "D", Actual: 0.1, Limit: 0.15},
		},
	}
	alerts := engine.Evaluate(report, model.DPDResult{}, day("2024-06-30"))

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, model.AlertTypeConstraintBreach, a.Type)
	assert.Equal(t, model.AlertSeverityCritical, a.Severity)
	assert.Equal(t, "industry_max_share", a.Metric)
	assert.Equal(t, "Tech", a.Dimension)
	assert.Contains(t, a.Message, "exceeds limit")
	assert.Equal(t, day("2024-06-30"), a.RaisedAt)
	assert.NotEmpty(t, a.ID)
}

func TestAlertEngine_CashPressure(t *testing.T) {
	engine := service.NewAlertEngine(service.AlertThresholds{CashUtilizationWarn: 0.9})

	report := model.SelectionReport{CashUtilization: 0.95}
	alerts := engine.Evaluate(report, model.DPDResult{}, day("2024-06-30"))

	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertTypeCashExhaustion, alerts[0].Type)
	assert.Equal(t, model.AlertSeverityWarning, alerts[0].Severity)
}

func TestAlertEngine_MixDrift(t *testing.T) {
	engine := service.NewAlertEngine(service.AlertThresholds{})

	off := false
	on := true
	report := model.SelectionReport{
		APRMix: []model.APRMixEntry{
			{Bucket: "15-20%", ActualShare: 0.2, TargetShare: 0.5, OnTarget: &off},
			{Bucket: "20-25%", ActualShare: 0.5, TargetShare: 0.5, OnTarget: &on},
			{Bucket: "30%+", ActualShare: 0.3},
		},
	}
	alerts := engine.Evaluate(report, model.DPDResult{}, day("2024-06-30"))

	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertTypeAPRMixDrift, alerts[0].Type)
	assert.Equal(t, "15-20%", alerts[0].Dimension)
}

func TestAlertEngine_Delinquency(t *testing.T) {
	engine := service.NewAlertEngine(service.DefaultAlertThresholds())

	dpd := model.DPDResult{
		Profiles: []model.RiskProfile{
			{LoanID: "L-1", DPDDays: 0, DPDBucket: "current"},
			{LoanID: "L-2", DPDDays: 121, DPDBucket: "121-180", InDefault: true},
		},
	}
	alerts := engine.Evaluate(model.SelectionReport{}, dpd, day("2024-06-30"))

	// Default rate 50% trips the portfolio alert, plus one loan alert.
	require.Len(t, alerts, 2)
	assert.Equal(t, model.AlertTypeDefaultRate, alerts[0].Type)
	assert.Equal(t, model.AlertSeverityCritical, alerts[0].Severity)
	assert.InDelta(t, 0.5, alerts[0].Value, 1e-12)

	assert.Equal(t, model.AlertTypeLoanDefault, alerts[1].Type)
	assert.Equal(t, "L-2", alerts[1].Dimension)
	assert.InDelta(t, 121, alerts[1].Value, 1e-12)
	assert.Contains(t, alerts[1].Message, "121 days past due")
}
