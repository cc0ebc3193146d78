package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert severities.
const (
	AlertSeverityInfo     = "INFO"
	AlertSeverityWarning  = "WARNING"
	AlertSeverityCritical = "CRITICAL"
)

// Alert types.
const (
	AlertTypeConstraintBreach = "CONSTRAINT_BREACH"
	AlertTypeCashExhaustion   = "CASH_EXHAUSTION"
	AlertTypeAPRMixDrift      = "APR_MIX_DRIFT"
	AlertTypeDefaultRate      = "PORTFOLIO_DEFAULT_RATE"
	AlertTypeLoanDefault      = "LOAN_DEFAULT"
)

// Alert is one operator-facing signal raised by a planning run. RaisedAt is
// the run's reference date, not the wall clock, so replays of the same inputs
// produce the same alerts.
type Alert struct {
	ID        string
	Type      string
	Severity  string
	Message   string
	Metric    string
	Value     float64
	Limit     float64
	Dimension string
	RaisedAt  time.Time
}

// NewAlert mints an alert with a fresh identifier. The identifier is the only
// non-deterministic field on an alert.
func NewAlert(alertType, severity, message string) Alert {
	return Alert{
		ID:       uuid.New().String(),
		Type:     alertType,
		Severity: severity,
		Message:  message,
	}
}
