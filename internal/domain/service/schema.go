package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
)

// FieldSpec is one logical field together with the header spellings that map
// onto it. Candidates are compared in normalized form (lower-cased,
// underscores and spaces equivalent, separator runs collapsed) and in order,
// so more specific spellings sit before generic ones.
type FieldSpec struct {
	Name       string
	Candidates []string
	Required   bool
}

// Schema is the declarative header-mapping table for one table kind. The
// table is data, not code: adding a new upstream spelling means adding a
// candidate, never another scan routine.
type Schema struct {
	Name   string
	Fields []FieldSpec
}

// IsCanonical reports whether the frame already exposes every required
// canonical column under its canonical name, meaning standardization can be
// skipped.
func (s Schema) IsCanonical(frame model.Frame) bool {
	if len(frame.Columns) == 0 {
		return false
	}
	for _, f := range s.Fields {
		if f.Required && frame.ColumnIndex(f.Name) < 0 {
			return false
		}
	}
	return true
}

// ScheduleSchema describes the contractual due ledger. The candidate lists
// carry the header variants upstream systems actually send.
func ScheduleSchema() Schema {
	return Schema{
		Name: "schedule",
		Fields: []FieldSpec{
			{Name: "loan_id", Required: true, Candidates: []string{
				"loan id", "loan no", "loan number", "loan ref", "contract id", "id",
			}},
			{Name: "date", Required: true, Candidates: []string{
				"due date", "payment date", "scheduled date", "installment date", "date",
			}},
			{Name: "amount", Required: true, Candidates: []string{
				"due amount", "total payment", "amount due", "installment amount", "scheduled amount", "amount",
			}},
		},
	}
}

// PaymentSchema describes the observed receipts ledger.
func PaymentSchema() Schema {
	return Schema{
		Name: "payments",
		Fields: []FieldSpec{
			{Name: "loan_id", Required: true, Candidates: []string{
				"loan id", "loan no", "loan number", "loan ref", "contract id", "id",
			}},
			{Name: "date", Required: true, Candidates: []string{
				"payment date", "paid date", "receipt date", "value date", "date",
			}},
			{Name: "amount", Required: true, Candidates: []string{
				"payment amount", "paid amount", "amount paid", "receipt amount", "total payment", "amount",
			}},
		},
	}
}

// RequestSchema describes the incoming financing-request table. Only the
// identity and pricing columns are required; payer history and company
// profile columns default when the upstream feed omits them.
func RequestSchema() Schema {
	return Schema{
		Name: "requests",
		Fields: []FieldSpec{
			{Name: "loan_id", Required: true, Candidates: []string{
				"loan id", "request id", "application id", "id",
			}},
			{Name: "customer_id", Required: true, Candidates: []string{
				"customer id", "client id", "borrower id", "customer",
			}},
			{Name: "amount", Required: true, Candidates: []string{
				"requested amount", "loan amount", "disbursement amount", "principal", "amount",
			}},
			{Name: "apr", Required: true, Candidates: []string{
				"apr", "annual percentage rate", "interest rate", "annual rate", "rate",
			}},
			{Name: "industry", Candidates: []string{
				"industry", "sector", "vertical",
			}},
			{Name: "dpd_history_pct", Candidates: []string{
				"dpd history pct", "dpd history", "late payment pct", "past due pct", "delinquency rate",
			}},
			{Name: "revenue", Candidates: []string{
				"annual revenue", "yearly revenue", "turnover", "revenue",
			}},
			{Name: "years_active", Candidates: []string{
				"years active", "years in business", "company age", "age",
			}},
		},
	}
}

// PortfolioSchema describes the current-book exposure table.
func PortfolioSchema() Schema {
	return Schema{
		Name: "portfolio",
		Fields: []FieldSpec{
			{Name: "loan_id", Required: true, Candidates: []string{
				"loan id", "facility id", "contract id", "id",
			}},
			{Name: "customer_id", Required: true, Candidates: []string{
				"customer id", "client id", "borrower id", "customer",
			}},
			{Name: "industry", Candidates: []string{
				"industry", "sector", "vertical",
			}},
			{Name: "payer_grade", Candidates: []string{
				"payer grade", "risk grade", "payer rating", "grade",
			}},
			{Name: "apr", Candidates: []string{
				"apr", "annual percentage rate", "interest rate", "annual rate", "rate",
			}},
			{Name: "outstanding", Required: true, Candidates: []string{
				"outstanding balance", "current balance", "outstanding", "exposure", "balance",
			}},
		},
	}
}

// SchemaResolver maps raw frame headers onto a schema's canonical fields.
// Resolution runs once per distinct header set and is cached by schema
// fingerprint; rows never trigger re-resolution. Safe for concurrent use by
// loaders.
type SchemaResolver struct {
	mu          sync.Mutex
	cache       map[string]map[string]int
	resolutions int
}

// NewSchemaResolver returns an empty resolver.
func NewSchemaResolver() *SchemaResolver {
	return &SchemaResolver{cache: make(map[string]map[string]int)}
}

// Resolve returns the column index of every schema field found in the
// headers. A required field with no matching header is an ingestion-boundary
// error naming the logical field and the headers seen.
func (r *SchemaResolver) Resolve(schema Schema, columns []string) (map[string]int, error) {
	fp := fingerprint(schema.Name, columns)

	r.mu.Lock()
	if cached, ok := r.cache[fp]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	headerIdx := make(map[string]int, len(columns))
	for i, col := range columns {
		key := normalizeHeader(col)
		// First occurrence wins on duplicate headers.
		if _, seen := headerIdx[key]; !seen {
			headerIdx[key] = i
		}
	}

	mapping := make(map[string]int, len(schema.Fields))
	for _, field := range schema.Fields {
		idx, found := -1, false
		for _, cand := range field.Candidates {
			if i, ok := headerIdx[normalizeHeader(cand)]; ok {
				idx, found = i, true
				break
			}
		}
		if !found {
			if field.Required {
				return nil, fmt.Errorf("%s: cannot resolve required field %q from headers %v", schema.Name, field.Name, columns)
			}
			continue
		}
		mapping[field.Name] = idx
	}

	r.mu.Lock()
	r.cache[fp] = mapping
	r.resolutions++
	r.mu.Unlock()
	return mapping, nil
}

// ResolutionCount returns how many distinct schemas have actually been
// resolved, cache hits excluded.
func (r *SchemaResolver) ResolutionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolutions
}

func fingerprint(schemaName string, columns []string) string {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = normalizeHeader(c)
	}
	return schemaName + "\x00" + strings.Join(normalized, "\x1f")
}

func normalizeHeader(h string) string {
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

// Standardizer rewrites raw frames into canonical column form and counts its
// own invocations, which keeps the standardize-once contract enforceable in
// tests.
type Standardizer struct {
	resolver *SchemaResolver

	mu    sync.Mutex
	count int
}

// NewStandardizer builds a standardizer over the shared resolver.
func NewStandardizer(resolver *SchemaResolver) *Standardizer {
	return &Standardizer{resolver: resolver}
}

// Standardize projects the frame onto the schema's canonical columns, in
// schema field order. The input frame is left untouched.
func (s *Standardizer) Standardize(frame model.Frame, schema Schema) (model.Frame, error) {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	mapping, err := s.resolver.Resolve(schema, frame.Columns)
	if err != nil {
		return model.Frame{}, fmt.Errorf("standardize %s frame: %w", schema.Name, err)
	}

	cols := make([]string, 0, len(schema.Fields))
	srcIdx := make([]int, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if idx, ok := mapping[f.Name]; ok {
			cols = append(cols, f.Name)
			srcIdx = append(srcIdx, idx)
		}
	}

	rows := make([][]string, len(frame.Rows))
	for i, row := range frame.Rows {
		out := make([]string, len(srcIdx))
		for j, idx := range srcIdx {
			if idx < len(row) {
				out[j] = row[idx]
			}
		}
		rows[i] = out
	}
	return model.Frame{Columns: cols, Rows: rows}, nil
}

// StandardizeCount returns how many times Standardize has run.
func (s *Standardizer) StandardizeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
