package service

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
)

// ReconcilerConfig carries the DPD bucketing thresholds explicitly.
type ReconcilerConfig struct {
	// DPDBounds are the ascending lower bounds of the DPD day buckets. The
	// first bound must be 0 so fully-paid loans land in the current bucket.
	DPDBounds []int
	// DefaultThresholdDays marks a loan as in default once its DPD reaches
	// it. Policy allows 90, 120 or 180.
	DefaultThresholdDays int
}

// DefaultReconcilerConfig returns the production DPD thresholds.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		DPDBounds:            []int{0, 1, 31, 61, 91, 121, 181},
		DefaultThresholdDays: 90,
	}
}

var allowedDefaultThresholds = map[int]bool{90: true, 120: true, 180: true}

// TimelineReconciler merges the contractual due ledger against observed
// receipts and derives days-past-due per loan. Input frames may arrive with
// heterogeneous headers; each frame is standardized at most once per call,
// and the timeline sub-computation skips frames that are already canonical.
type TimelineReconciler struct {
	standardizer         *Standardizer
	dpdTable             BucketTable
	defaultThresholdDays int
	logger               *slog.Logger
}

// NewTimelineReconciler validates the configuration and builds a reconciler.
func NewTimelineReconciler(cfg ReconcilerConfig, standardizer *Standardizer, logger *slog.Logger) (*TimelineReconciler, error) {
	if len(cfg.DPDBounds) == 0 || cfg.DPDBounds[0] != 0 {
		return nil, fmt.Errorf("dpd bounds must start at 0, got %v", cfg.DPDBounds)
	}
	if !allowedDefaultThresholds[cfg.DefaultThresholdDays] {
		return nil, fmt.Errorf("default threshold must be 90, 120 or 180 days, got %d", cfg.DefaultThresholdDays)
	}
	bounds := make([]float64, len(cfg.DPDBounds))
	for i, b := range cfg.DPDBounds {
		bounds[i] = float64(b)
	}
	table, err := NewBucketTable(bounds, DPDBucketLabels(cfg.DPDBounds))
	if err != nil {
		return nil, fmt.Errorf("build dpd table: %w", err)
	}
	return &TimelineReconciler{
		standardizer:         standardizer,
		dpdTable:             table,
		defaultThresholdDays: cfg.DefaultThresholdDays,
		logger:               logger,
	}, nil
}

// DPDBucketCount returns the number of configured DPD buckets, which scorers
// use to normalize bucket severity.
func (r *TimelineReconciler) DPDBucketCount() int {
	return r.dpdTable.Size()
}

// BucketDPD maps a day count onto its bucket label and severity index.
func (r *TimelineReconciler) BucketDPD(days int) (string, int) {
	return r.dpdTable.Bucket(float64(days))
}

// CalculateDPD reconciles the two ledgers as of referenceDate. The reference
// date is a required explicit parameter; the reconciler never consults the
// wall clock, so a rerun over the same inputs reproduces the same result.
func (r *TimelineReconciler) CalculateDPD(schedule, payments model.Frame, referenceDate time.Time) (model.DPDResult, error) {
	if referenceDate.IsZero() {
		return model.DPDResult{}, fmt.Errorf("reference date is required")
	}

	canonSchedule, err := r.ensureCanonical(schedule, ScheduleSchema())
	if err != nil {
		return model.DPDResult{}, err
	}
	canonPayments, err := r.ensureCanonical(payments, PaymentSchema())
	if err != nil {
		return model.DPDResult{}, err
	}

	timeline, excluded, err := r.CalculatePaymentTimeline(canonSchedule, canonPayments)
	if err != nil {
		return model.DPDResult{}, err
	}

	profiles := r.deriveProfiles(timeline, referenceDate)
	return model.DPDResult{Profiles: profiles, Timeline: timeline, Excluded: excluded}, nil
}

// ReconcileEntries runs the same reconciliation over already-typed ledger
// entries, for callers that hold parsed data rather than raw frames. No
// standardization happens on this path.
func (r *TimelineReconciler) ReconcileEntries(schedule []model.ScheduleEntry, payments []model.PaymentReceipt, referenceDate time.Time) (model.DPDResult, error) {
	if referenceDate.IsZero() {
		return model.DPDResult{}, fmt.Errorf("reference date is required")
	}

	dues := make([]ledgerLine, 0, len(schedule))
	for i, e := range schedule {
		if e.LoanID == "" || e.Date.IsZero() {
			r.logger.Warn("skipping incomplete schedule entry", "index", i)
			continue
		}
		if e.Amount.IsNegative() {
			r.logger.Warn("skipping negative due amount", "loan_id", e.LoanID, "amount", e.Amount)
			continue
		}
		dues = append(dues, ledgerLine{loanID: e.LoanID, date: e.Date, amount: e.Amount, kind: lineKindDue, seq: i})
	}
	paid := make([]ledgerLine, 0, len(payments))
	for i, e := range payments {
		if e.LoanID == "" || e.Date.IsZero() {
			r.logger.Warn("skipping incomplete payment entry", "index", i)
			continue
		}
		paid = append(paid, ledgerLine{loanID: e.LoanID, date: e.Date, amount: e.Amount, kind: lineKindPaid, seq: i})
	}

	timeline, excluded := r.mergeLines(dues, paid)
	profiles := r.deriveProfiles(timeline, referenceDate)
	return model.DPDResult{Profiles: profiles, Timeline: timeline, Excluded: excluded}, nil
}

// CalculatePaymentTimeline merges due and paid lines per loan into a dated
// timeline with running cumulative columns. Frames that already expose the
// canonical columns are used as-is; raw frames are standardized first.
// Loans present on only one side of the ledger pair are excluded and
// reported, not fatal.
func (r *TimelineReconciler) CalculatePaymentTimeline(schedule, payments model.Frame) ([]model.TimelineEntry, []model.ExcludedLoan, error) {
	canonSchedule, err := r.ensureCanonical(schedule, ScheduleSchema())
	if err != nil {
		return nil, nil, err
	}
	canonPayments, err := r.ensureCanonical(payments, PaymentSchema())
	if err != nil {
		return nil, nil, err
	}

	dues := r.parseLedger(canonSchedule, "schedule")
	paid := r.parseLedger(canonPayments, "payments")

	timeline, excluded := r.mergeLines(dues, paid)
	return timeline, excluded, nil
}

// mergeLines joins the two ledger sides on loan id and builds the dated
// timeline. Loans present on only one side are excluded and reported.
func (r *TimelineReconciler) mergeLines(dues, paid []ledgerLine) ([]model.TimelineEntry, []model.ExcludedLoan) {
	scheduleIDs := ledgerLoanIDs(dues)
	paymentIDs := ledgerLoanIDs(paid)
	excluded := make([]model.ExcludedLoan, 0)
	for _, id := range sortedKeys(scheduleIDs) {
		if !paymentIDs[id] {
			r.logger.Warn("excluding loan from reconciliation", "loan_id", id, "reason", "no payment rows")
			excluded = append(excluded, model.ExcludedLoan{LoanID: id, Reason: "no payment rows for loan"})
		}
	}
	for _, id := range sortedKeys(paymentIDs) {
		if !scheduleIDs[id] {
			r.logger.Warn("excluding loan from reconciliation", "loan_id", id, "reason", "no schedule rows")
			excluded = append(excluded, model.ExcludedLoan{LoanID: id, Reason: "no schedule rows for loan"})
		}
	}

	lines := make(map[string][]ledgerLine)
	for _, l := range dues {
		if paymentIDs[l.loanID] {
			lines[l.loanID] = append(lines[l.loanID], l)
		}
	}
	for _, l := range paid {
		if scheduleIDs[l.loanID] {
			lines[l.loanID] = append(lines[l.loanID], l)
		}
	}

	loanIDs := make([]string, 0, len(lines))
	for id := range lines {
		loanIDs = append(loanIDs, id)
	}
	sort.Strings(loanIDs)

	timeline := make([]model.TimelineEntry, 0)
	for _, id := range loanIDs {
		loanLines := lines[id]
		// Date order; due lines before paid lines on the same date; source
		// order breaks remaining ties.
		sort.SliceStable(loanLines, func(i, j int) bool {
			if !loanLines[i].date.Equal(loanLines[j].date) {
				return loanLines[i].date.Before(loanLines[j].date)
			}
			if loanLines[i].kind != loanLines[j].kind {
				return loanLines[i].kind < loanLines[j].kind
			}
			return loanLines[i].seq < loanLines[j].seq
		})

		cumDue, cumPaid := decimal.Zero, decimal.Zero
		for _, l := range loanLines {
			entry := model.TimelineEntry{LoanID: id, Date: l.date}
			if l.kind == lineKindDue {
				entry.DueAmount = l.amount
				cumDue = cumDue.Add(l.amount)
			} else {
				entry.PaidAmount = l.amount
				cumPaid = cumPaid.Add(l.amount)
			}
			entry.CumulativeDue = cumDue
			entry.CumulativePaid = cumPaid
			timeline = append(timeline, entry)
		}
	}

	return timeline, excluded
}

func (r *TimelineReconciler) deriveProfiles(timeline []model.TimelineEntry, referenceDate time.Time) []model.RiskProfile {
	byLoan := make(map[string][]model.TimelineEntry)
	for _, e := range timeline {
		byLoan[e.LoanID] = append(byLoan[e.LoanID], e)
	}

	loanIDs := make([]string, 0, len(byLoan))
	for id := range byLoan {
		loanIDs = append(loanIDs, id)
	}
	sort.Strings(loanIDs)

	profiles := make([]model.RiskProfile, 0, len(byLoan))
	for _, id := range loanIDs {
		dpd := dpdAsOf(byLoan[id], referenceDate)
		label, severity := r.dpdTable.Bucket(float64(dpd))
		profiles = append(profiles, model.RiskProfile{
			LoanID:      id,
			DPDDays:     dpd,
			DPDBucket:   label,
			DPDSeverity: severity,
			InDefault:   dpd >= r.defaultThresholdDays,
		})
	}
	return profiles
}

// dpdAsOf applies cumulative receipts against dues in date order (first in,
// first out). DPD is the age of the oldest due line the receipts as of the
// reference date do not fully cover.
func dpdAsOf(entries []model.TimelineEntry, referenceDate time.Time) int {
	cumPaid := decimal.Zero
	for _, e := range entries {
		if !e.Date.After(referenceDate) {
			cumPaid = cumPaid.Add(e.PaidAmount)
		}
	}

	runningDue := decimal.Zero
	for _, e := range entries {
		if e.Date.After(referenceDate) || e.DueAmount.IsZero() {
			continue
		}
		runningDue = runningDue.Add(e.DueAmount)
		if cumPaid.LessThan(runningDue) {
			return daysBetween(e.Date, referenceDate)
		}
	}
	return 0
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func (r *TimelineReconciler) ensureCanonical(frame model.Frame, schema Schema) (model.Frame, error) {
	if schema.IsCanonical(frame) {
		return frame, nil
	}
	return r.standardizer.Standardize(frame, schema)
}

// ------- ledger parsing -------

const (
	lineKindDue = iota
	lineKindPaid
)

type ledgerLine struct {
	loanID string
	date   time.Time
	amount decimal.Decimal
	kind   int
	seq    int
}

var ledgerDateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02", "01/02/2006"}

// parseLedger reads a canonical frame into ledger lines. Defective rows are
// logged and skipped so one bad line never aborts the batch.
func (r *TimelineReconciler) parseLedger(frame model.Frame, name string) []ledgerLine {
	idIdx := frame.ColumnIndex("loan_id")
	dateIdx := frame.ColumnIndex("date")
	amountIdx := frame.ColumnIndex("amount")

	kind := lineKindDue
	if name == "payments" {
		kind = lineKindPaid
	}

	out := make([]ledgerLine, 0, len(frame.Rows))
	for i, row := range frame.Rows {
		if idIdx >= len(row) || dateIdx >= len(row) || amountIdx >= len(row) {
			r.logger.Warn("skipping short ledger row", "ledger", name, "row", i+1)
			continue
		}
		id := strings.TrimSpace(row[idIdx])
		if id == "" {
			r.logger.Warn("skipping ledger row without loan id", "ledger", name, "row", i+1)
			continue
		}
		date, err := parseLedgerDate(row[dateIdx])
		if err != nil {
			r.logger.Warn("skipping ledger row", "ledger", name, "row", i+1, "error", err)
			continue
		}
		amount, err := parseLedgerAmount(row[amountIdx])
		if err != nil {
			r.logger.Warn("skipping ledger row", "ledger", name, "row", i+1, "error", err)
			continue
		}
		if kind == lineKindDue && amount.IsNegative() {
			r.logger.Warn("skipping negative due amount", "ledger", name, "row", i+1, "amount", amount)
			continue
		}
		out = append(out, ledgerLine{loanID: id, date: date, amount: amount, kind: kind, seq: i})
	}
	return out
}

func parseLedgerDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range ledgerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseLedgerAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable amount %q", s)
	}
	return d, nil
}

func ledgerLoanIDs(lines []ledgerLine) map[string]bool {
	out := make(map[string]bool, len(lines))
	for _, l := range lines {
		out[l.loanID] = true
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
