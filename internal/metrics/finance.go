package metrics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// UncategorizedLabel groups expenses that carry no category
const UncategorizedLabel = "Uncategorized"

var hundred = decimal.NewFromInt(100)

// Group is one row of a breakdown
type Group struct {
	Key      string
	Name     string
	Revenue  decimal.Decimal
	Expenses decimal.Decimal // positive magnitude
	Net      decimal.Decimal // Revenue - Expenses
	Total    decimal.Decimal // ordering key; see Aggregate
	Margin   decimal.Decimal // Net / Revenue * 100, 0 without revenue
	Count    int
}

// SkippedRecord explains why a transaction was left out of aggregation
type SkippedRecord struct {
	TransactionID string
	Reason        string
}

// AggregateResult holds the finance dashboard figures for one selection
type AggregateResult struct {
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalProfit   decimal.Decimal
	ProfitMargin  decimal.Decimal

	TransactionCount int
	OrphanedCount    int

	ByTechnician []Group
	ByJobSource  []Group
	ByCategory   []Group

	Skipped []SkippedRecord
}

// Aggregate filters transactions by the selection and computes totals and
// breakdowns.
//
// Transactions missing an amount or date are reported in Skipped and
// excluded. Orphaned transactions count toward the totals but are left out
// of the breakdown whose key did not resolve.
//
// Technician and job source groups are ordered by Net descending, category
// groups (expenses only) by expense total descending; ties go to the name in
// ascending order.
func Aggregate(txs []EnrichedTransaction, sel Selection) AggregateResult {
	m := sel.compile()

	result := AggregateResult{
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
		TotalProfit:   decimal.Zero,
		ProfitMargin:  decimal.Zero,
		ByTechnician:  []Group{},
		ByJobSource:   []Group{},
		ByCategory:    []Group{},
	}

	byTech := newGrouper()
	bySource := newGrouper()
	byCategory := newGrouper()

	for _, tx := range txs {
		if reason := malformed(tx.Transaction); reason != "" {
			result.Skipped = append(result.Skipped, SkippedRecord{TransactionID: tx.ID, Reason: reason})
			continue
		}
		if !m.match(tx) {
			continue
		}

		revenue, expense := split(tx.Transaction)
		result.TotalRevenue = result.TotalRevenue.Add(revenue)
		result.TotalExpenses = result.TotalExpenses.Add(expense)
		result.TransactionCount++
		if tx.Orphaned() {
			result.OrphanedCount++
		}

		if tx.hasTechnician() {
			byTech.add(tx.TechnicianID, tx.TechnicianName, revenue, expense)
		}
		if tx.hasJobSource() {
			bySource.add(tx.JobSourceID, tx.JobSourceName, revenue, expense)
		}
		if expense.IsPositive() {
			name := categoryName(tx.Category)
			byCategory.add(name, name, decimal.Zero, expense)
		}
	}

	result.TotalProfit = result.TotalRevenue.Sub(result.TotalExpenses)
	result.ProfitMargin = safePercent(result.TotalProfit, result.TotalRevenue)

	result.ByTechnician = byTech.sorted(func(g Group) decimal.Decimal { return g.Net })
	result.ByJobSource = bySource.sorted(func(g Group) decimal.Decimal { return g.Net })
	result.ByCategory = byCategory.sorted(func(g Group) decimal.Decimal { return g.Expenses })

	return result
}

// AggregateFinance correlates and aggregates in one call
func AggregateFinance(txs []domain.Transaction, technicians []domain.Technician, sources []domain.JobSource, sel Selection) AggregateResult {
	return Aggregate(Correlate(txs, technicians, sources), sel)
}

// Select returns the well-formed transactions matching sel, in input order
func Select(txs []EnrichedTransaction, sel Selection) []EnrichedTransaction {
	m := sel.compile()
	out := make([]EnrichedTransaction, 0, len(txs))
	for _, tx := range txs {
		if malformed(tx.Transaction) != "" || !m.match(tx) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func malformed(tx domain.Transaction) string {
	switch {
	case tx.Amount == nil && tx.Date == nil:
		return "missing amount and date"
	case tx.Amount == nil:
		return "missing amount"
	case tx.Date == nil:
		return "missing date"
	}
	return ""
}

// split returns the revenue and expense magnitudes of a transaction. An
// explicit kind wins over the sign of the amount.
func split(tx domain.Transaction) (revenue, expense decimal.Decimal) {
	amount := *tx.Amount
	switch tx.Kind {
	case domain.KindRevenue:
		return amount.Abs(), decimal.Zero
	case domain.KindExpense:
		return decimal.Zero, amount.Abs()
	}
	if amount.IsNegative() {
		return decimal.Zero, amount.Abs()
	}
	return amount, decimal.Zero
}

func categoryName(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return UncategorizedLabel
	}
	return c
}

// safePercent returns part/whole*100, or zero when whole is zero
func safePercent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// grouper accumulates groups keeping first-seen order for determinism
type grouper struct {
	index  map[string]int
	groups []Group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(key, name string, revenue, expense decimal.Decimal) {
	i, ok := g.index[key]
	if !ok {
		if name == "" {
			name = key
		}
		i = len(g.groups)
		g.index[key] = i
		g.groups = append(g.groups, Group{
			Key:      key,
			Name:     name,
			Revenue:  decimal.Zero,
			Expenses: decimal.Zero,
		})
	}
	grp := &g.groups[i]
	grp.Revenue = grp.Revenue.Add(revenue)
	grp.Expenses = grp.Expenses.Add(expense)
	grp.Count++
}

func (g *grouper) sorted(total func(Group) decimal.Decimal) []Group {
	out := make([]Group, len(g.groups))
	for i, grp := range g.groups {
		grp.Net = grp.Revenue.Sub(grp.Expenses)
		grp.Margin = safePercent(grp.Net, grp.Revenue)
		grp.Total = total(grp)
		out[i] = grp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
