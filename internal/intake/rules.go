package intake

import (
	"fmt"
	"strings"

	"salesintake/internal/domain"
)

// SheetRule checks the sheet as a whole, before any row is examined.
type SheetRule interface {
	Key() string
	CheckSheet(s *Sheet) []string
}

// RowRule checks one non-ignorable data row. rowNumber is the 1-based
// spreadsheet row, counting the header.
type RowRule interface {
	Key() string
	CheckRow(row Row, rowNumber int) []string
}

// Registry holds rules in the order they report.
type Registry struct {
	sheetRules []SheetRule
	rowRules   []RowRule
	keys       map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]bool)}
}

// RegisterSheetRule appends a sheet rule. Duplicate keys panic.
func (r *Registry) RegisterSheetRule(rule SheetRule) {
	r.claim(rule.Key())
	r.sheetRules = append(r.sheetRules, rule)
}

// RegisterRowRule appends a row rule. Duplicate keys panic.
func (r *Registry) RegisterRowRule(rule RowRule) {
	r.claim(rule.Key())
	r.rowRules = append(r.rowRules, rule)
}

func (r *Registry) claim(key string) {
	if r.keys[key] {
		panic(fmt.Sprintf("intake: rule %q registered twice", key))
	}
	r.keys[key] = true
}

// Keys lists registered rule keys, sheet rules first.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.sheetRules)+len(r.rowRules))
	for _, s := range r.sheetRules {
		out = append(out, s.Key())
	}
	for _, s := range r.rowRules {
		out = append(out, s.Key())
	}
	return out
}

// Validate runs every rule against s. Ignorable rows are skipped but still
// counted.
func (r *Registry) Validate(s *Sheet) *domain.ValidationReport {
	var errs []string
	for _, rule := range r.sheetRules {
		errs = append(errs, rule.CheckSheet(s)...)
	}
	for idx, row := range s.Rows {
		if IsIgnorable(row.Cells()) {
			continue
		}
		for _, rule := range r.rowRules {
			errs = append(errs, rule.CheckRow(row, idx+2)...)
		}
	}
	return domain.NewValidationReport(errs, len(s.Rows))
}

// Member sheet columns the CAF check reads.
const (
	FieldPurchaseDollars = "purchase_dollars"
	FieldCAF             = "caf"
	FieldCAFDollars      = "caf_dollars"
)

// NewMemberRegistry registers the member sales rules for required.
func NewMemberRegistry(required []string) *Registry {
	r := NewRegistry()
	r.RegisterSheetRule(requiredHeadersRule{fields: required})
	r.RegisterRowRule(cafDollarsRule{})
	r.RegisterRowRule(requiredValuesRule{fields: required})
	return r
}

type requiredHeadersRule struct {
	fields []string
}

func (requiredHeadersRule) Key() string { return "required.headers" }

func (v requiredHeadersRule) CheckSheet(s *Sheet) []string {
	var errs []string
	for _, f := range v.fields {
		if !s.HasHeader(f) {
			errs = append(errs, fmt.Sprintf("Row 1: Missing required field: %s", f))
		}
	}
	return errs
}

// cafDollarsRule checks caf_dollars == purchase_dollars * caf at cent precision.
type cafDollarsRule struct{}

func (cafDollarsRule) Key() string { return "math.caf_dollars" }

func (cafDollarsRule) CheckRow(row Row, n int) []string {
	purchase := parseAmount(row.Get(FieldPurchaseDollars))
	caf := parseAmount(row.Get(FieldCAF))
	cafDollars := parseAmount(row.Get(FieldCAFDollars))

	expected := round2(purchase * caf)
	got := round2(cafDollars)
	if expected == got {
		return nil
	}
	return []string{fmt.Sprintf("Row %d: CAF Dollars mismatch (expected %s, got %s)", n, formatAmount(expected), formatAmount(got))}
}

type requiredValuesRule struct {
	fields []string
}

func (requiredValuesRule) Key() string { return "required.values" }

func (v requiredValuesRule) CheckRow(row Row, n int) []string {
	var errs []string
	for _, f := range v.fields {
		if strings.TrimSpace(row.Get(f)) == "" {
			errs = append(errs, fmt.Sprintf("Row %d: Missing value for %s", n, f))
		}
	}
	return errs
}
