package service

import (
	"fmt"
	"time"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
)

// AlertThresholds configures when a planning run raises operator alerts.
type AlertThresholds struct {
	// CashUtilizationWarn flags the run once disbursement consumes this
	// share of available cash.
	CashUtilizationWarn float64
	// DefaultRateWarn flags the run once this share of reconciled loans is
	// at or beyond the default threshold.
	DefaultRateWarn float64
}

// DefaultAlertThresholds returns the production alerting thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{CashUtilizationWarn: 0.9, DefaultRateWarn: 0.1}
}

// AlertEngine turns a selection report and a reconciliation result into
// operator alerts. Evaluation is pure and ordered; delivery belongs to the
// sink.
type AlertEngine struct {
	thresholds AlertThresholds
}

// NewAlertEngine builds an alert engine.
func NewAlertEngine(thresholds AlertThresholds) *AlertEngine {
	return &AlertEngine{thresholds: thresholds}
}

// Evaluate inspects the run outputs and returns alerts in a deterministic
// order: constraint breaches, cash pressure, mix drift, then delinquency.
// RaisedAt carries the run's reference date so replays reproduce the batch.
func (e *AlertEngine) Evaluate(report model.SelectionReport, dpd model.DPDResult, asOf time.Time) []model.Alert {
	alerts := make([]model.Alert, 0)

	for _, c := range report.Constraints {
		if !c.Breached {
			continue
		}
		verb := "exceeds limit"
		if c.Kind == "floor" {
			verb = "is below floor"
		}
		a := model.NewAlert(model.AlertTypeConstraintBreach, model.AlertSeverityCritical,
			fmt.Sprintf("%s: %s share %.1f%% %s %.1f%%", c.Name, c.Dimension, c.Actual*100, verb, c.Limit*100))
		a.Metric = c.Name
		a.Value = c.Actual
		a.Limit = c.Limit
		a.Dimension = c.Dimension
		a.RaisedAt = asOf
		alerts = append(alerts, a)
	}

	if e.thresholds.CashUtilizationWarn > 0 && report.CashUtilization >= e.thresholds.CashUtilizationWarn {
		a := model.NewAlert(model.AlertTypeCashExhaustion, model.AlertSeverityWarning,
			fmt.Sprintf("cash utilization %.1f%% at or above %.1f%%", report.CashUtilization*100, e.thresholds.CashUtilizationWarn*100))
		a.Metric = "cash_utilization"
		a.Value = report.CashUtilization
		a.Limit = e.thresholds.CashUtilizationWarn
		a.RaisedAt = asOf
		alerts = append(alerts, a)
	}

	for _, m := range report.APRMix {
		if m.OnTarget == nil || *m.OnTarget {
			continue
		}
		a := model.NewAlert(model.AlertTypeAPRMixDrift, model.AlertSeverityWarning,
			fmt.Sprintf("apr mix for %s at %.1f%% is off the %.1f%% target", m.Bucket, m.ActualShare*100, m.TargetShare*100))
		a.Metric = "apr_mix"
		a.Value = m.ActualShare
		a.Limit = m.TargetShare
		a.Dimension = m.Bucket
		a.RaisedAt = asOf
		alerts = append(alerts, a)
	}

	if rate := dpd.DefaultRate(); e.thresholds.DefaultRateWarn > 0 && rate >= e.thresholds.DefaultRateWarn {
		a := model.NewAlert(model.AlertTypeDefaultRate, model.AlertSeverityCritical,
			fmt.Sprintf("portfolio default rate %.1f%% at or above %.1f%%", rate*100, e.thresholds.DefaultRateWarn*100))
		a.Metric = "default_rate"
		a.Value = rate
		a.Limit = e.thresholds.DefaultRateWarn
		a.RaisedAt = asOf
		alerts = append(alerts, a)
	}

	for _, p := range dpd.Profiles {
		if !p.InDefault {
			continue
		}
		a := model.NewAlert(model.AlertTypeLoanDefault, model.AlertSeverityWarning,
			fmt.Sprintf("loan %s is %d days past due (bucket %s)", p.LoanID, p.DPDDays, p.DPDBucket))
		a.Metric = "dpd_days"
		a.Value = float64(p.DPDDays)
		a.Dimension = p.LoanID
		a.RaisedAt = asOf
		alerts = append(alerts, a)
	}

	return alerts
}
