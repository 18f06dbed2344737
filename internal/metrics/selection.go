package metrics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
)

// AmountRange bounds the absolute transaction amount; nil sides are open
type AmountRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Contains reports whether |amount| lies within the inclusive bounds
func (r AmountRange) Contains(amount decimal.Decimal) bool {
	abs := amount.Abs()
	if r.Min != nil && abs.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && abs.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// Selection is the finance facet state. Empty id sets mean "no restriction".
type Selection struct {
	Technicians   []string
	JobSources    []string
	Categories    []string
	Interval      *daterange.Interval
	Amount        *AmountRange
	PaymentMethod string
	Search        string
}

// HasActiveFilters reports whether any facet narrows the transactions
func (s Selection) HasActiveFilters() bool {
	return len(s.Technicians) > 0 ||
		len(s.JobSources) > 0 ||
		len(s.Categories) > 0 ||
		s.Interval != nil ||
		s.Amount != nil ||
		s.PaymentMethod != "" ||
		strings.TrimSpace(s.Search) != ""
}

// matcher is a Selection compiled for repeated membership tests
type matcher struct {
	technicians map[string]struct{}
	sources     map[string]struct{}
	categories  map[string]struct{}
	interval    *daterange.Interval
	amount      *AmountRange
	payment     string
	search      string
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s Selection) compile() matcher {
	return matcher{
		technicians: toSet(s.Technicians),
		sources:     toSet(s.JobSources),
		categories:  toSet(s.Categories),
		interval:    s.Interval,
		amount:      s.Amount,
		payment:     strings.ToLower(strings.TrimSpace(s.PaymentMethod)),
		search:      strings.ToLower(strings.TrimSpace(s.Search)),
	}
}

// inSet treats a nil set as "everything"
func inSet(set map[string]struct{}, id string) bool {
	if set == nil {
		return true
	}
	_, ok := set[id]
	return ok
}

// match expects a well-formed transaction (amount and date present)
func (m matcher) match(e EnrichedTransaction) bool {
	if !inSet(m.technicians, e.TechnicianID) ||
		!inSet(m.sources, e.JobSourceID) ||
		!inSet(m.categories, categoryName(e.Category)) {
		return false
	}
	if m.interval != nil && !m.interval.Contains(*e.Date) {
		return false
	}
	if m.amount != nil && !m.amount.Contains(*e.Amount) {
		return false
	}
	if m.payment != "" && strings.ToLower(strings.TrimSpace(e.PaymentMethod)) != m.payment {
		return false
	}
	if m.search != "" {
		fields := []string{e.ID, e.TechnicianName, e.JobSourceName, e.Category, e.Description}
		return slices.ContainsFunc(fields, func(f string) bool {
			return f != "" && strings.Contains(strings.ToLower(f), m.search)
		})
	}
	return true
}
