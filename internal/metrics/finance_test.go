package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

var (
	technicians = []domain.Technician{
		{ID: "A", Name: "Alice"},
		{ID: "B", Name: "Bob"},
		{ID: "C", Name: "Carmen"},
	}
	sources = []domain.JobSource{
		{ID: "X", Name: "Google Ads"},
		{ID: "Y", Name: "Referral"},
	}
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func date(d int) *time.Time {
	t := time.Date(2024, 6, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func tx(id, amount, tech, source string) domain.Transaction {
	return domain.Transaction{
		ID:           id,
		Amount:       dec(amount),
		TechnicianID: tech,
		JobSourceID:  source,
		Date:         date(10),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func groupKeys(gs []Group) []string {
	keys := make([]string, 0, len(gs))
	for _, g := range gs {
		keys = append(keys, g.Key)
	}
	return keys
}

func TestAggregateTotalsAndTechnicianOrdering(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "100", "A", "X"),
		tx("2", "-40", "A", "Y"),
		tx("3", "50", "B", "X"),
	}

	result := AggregateFinance(txs, technicians, sources, Selection{})

	assertDecimal(t, "150", result.TotalRevenue)
	assertDecimal(t, "40", result.TotalExpenses)
	assertDecimal(t, "110", result.TotalProfit)
	assert.Equal(t, 3, result.TransactionCount)

	require.Len(t, result.ByTechnician, 2)
	assert.Equal(t, []string{"A", "B"}, groupKeys(result.ByTechnician))
	assertDecimal(t, "60", result.ByTechnician[0].Net)
	assertDecimal(t, "50", result.ByTechnician[1].Net)
	assert.Equal(t, "Alice", result.ByTechnician[0].Name)

	assert.Equal(t, []string{"X", "Y"}, groupKeys(result.ByJobSource))
	assertDecimal(t, "150", result.ByJobSource[0].Net)
	assertDecimal(t, "-40", result.ByJobSource[1].Net)
}

func TestOrphanedTransactionCountsInTotalsOnly(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "100", "A", "X"),
		tx("2", "75", "ghost", "X"),
	}

	result := AggregateFinance(txs, technicians, sources, Selection{})

	assertDecimal(t, "175", result.TotalRevenue)
	assert.Equal(t, 1, result.OrphanedCount)
	assert.Equal(t, []string{"A"}, groupKeys(result.ByTechnician))
	// the job source resolved, so the source breakdown still sees it
	require.Len(t, result.ByJobSource, 1)
	assertDecimal(t, "175", result.ByJobSource[0].Net)
}

func TestCorrelateFlagsOrphans(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "10", "A", "X"),
		tx("2", "10", "nobody", "X"),
		tx("3", "10", "A", "nowhere"),
		tx("4", "10", "", ""),
	}

	enriched := Correlate(txs, technicians, sources)
	require.Len(t, enriched, 4)

	assert.Equal(t, "Alice", enriched[0].TechnicianName)
	assert.Equal(t, "Google Ads", enriched[0].JobSourceName)
	assert.False(t, enriched[0].Orphaned())

	assert.True(t, enriched[1].TechnicianOrphaned)
	assert.True(t, enriched[1].Orphaned())

	assert.True(t, enriched[2].JobSourceOrphaned)
	assert.False(t, enriched[2].TechnicianOrphaned)

	// empty keys are unassigned, not orphaned
	assert.False(t, enriched[3].Orphaned())
}

func TestEmptySelectionEqualsAllSelected(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "100", "A", "X"),
		tx("2", "-40", "A", "Y"),
		tx("3", "50", "B", "X"),
		tx("4", "-10", "C", "Y"),
	}
	enriched := Correlate(txs, technicians, sources)

	none := Aggregate(enriched, Selection{})
	all := Aggregate(enriched, Selection{
		Technicians: []string{"A", "B", "C"},
		JobSources:  []string{"X", "Y"},
	})

	assert.True(t, none.TotalRevenue.Equal(all.TotalRevenue))
	assert.True(t, none.TotalExpenses.Equal(all.TotalExpenses))
	assert.Equal(t, groupKeys(none.ByTechnician), groupKeys(all.ByTechnician))
	assert.Equal(t, groupKeys(none.ByJobSource), groupKeys(all.ByJobSource))
}

func TestSelectionFacets(t *testing.T) {
	cash := tx("1", "100", "A", "X")
	cash.PaymentMethod = "Cash"
	card := tx("2", "300", "B", "Y")
	card.PaymentMethod = "credit card"
	card.Date = date(20)
	fuel := tx("3", "-25", "A", "X")
	fuel.Category = "Fuel"
	fuel.Description = "Shell station"

	enriched := Correlate([]domain.Transaction{cash, card, fuel}, technicians, sources)

	t.Run("technician", func(t *testing.T) {
		r := Aggregate(enriched, Selection{Technicians: []string{"B"}})
		assertDecimal(t, "300", r.TotalRevenue)
		assert.Equal(t, 1, r.TransactionCount)
	})

	t.Run("job source", func(t *testing.T) {
		r := Aggregate(enriched, Selection{JobSources: []string{"X"}})
		assertDecimal(t, "100", r.TotalRevenue)
		assertDecimal(t, "25", r.TotalExpenses)
	})

	t.Run("interval", func(t *testing.T) {
		from, to := *date(15), *date(25)
		iv, err := daterange.Resolve(daterange.Custom, daterange.CustomRange{From: &from, To: &to}, from)
		require.NoError(t, err)
		r := Aggregate(enriched, Selection{Interval: iv})
		assertDecimal(t, "300", r.TotalRevenue)
		assert.Equal(t, 1, r.TransactionCount)
	})

	t.Run("amount range uses magnitude", func(t *testing.T) {
		r := Aggregate(enriched, Selection{Amount: &AmountRange{Min: dec("20"), Max: dec("100")}})
		assertDecimal(t, "100", r.TotalRevenue)
		assertDecimal(t, "25", r.TotalExpenses)
	})

	t.Run("payment method", func(t *testing.T) {
		r := Aggregate(enriched, Selection{PaymentMethod: "CASH"})
		assertDecimal(t, "100", r.TotalRevenue)
		assert.Equal(t, 1, r.TransactionCount)
	})

	t.Run("category", func(t *testing.T) {
		r := Aggregate(enriched, Selection{Categories: []string{"Fuel"}})
		assertDecimal(t, "0", r.TotalRevenue)
		assertDecimal(t, "25", r.TotalExpenses)
	})

	t.Run("search", func(t *testing.T) {
		r := Aggregate(enriched, Selection{Search: "shell"})
		assert.Equal(t, 1, r.TransactionCount)
		r = Aggregate(enriched, Selection{Search: "referral"})
		assertDecimal(t, "300", r.TotalRevenue)
	})
}

func TestKindOverridesSign(t *testing.T) {
	refund := tx("1", "-30", "A", "X")
	refund.Kind = domain.KindRevenue
	parts := tx("2", "80", "A", "X")
	parts.Kind = domain.KindExpense

	r := AggregateFinance([]domain.Transaction{refund, parts}, technicians, sources, Selection{})
	assertDecimal(t, "30", r.TotalRevenue)
	assertDecimal(t, "80", r.TotalExpenses)
	assertDecimal(t, "-50", r.TotalProfit)
}

func TestCategoryBreakdownCoversExpenses(t *testing.T) {
	a := tx("1", "-30", "A", "X")
	a.Category = "Parts"
	b := tx("2", "-30", "B", "X")
	b.Category = "Fuel"
	c := tx("3", "-50", "B", "X")
	d := tx("4", "500", "B", "X")
	d.Category = "Service"

	r := AggregateFinance([]domain.Transaction{a, b, c, d}, technicians, sources, Selection{})

	// 50 uncategorized first, then the 30/30 tie broken by name
	assert.Equal(t, []string{UncategorizedLabel, "Fuel", "Parts"}, groupKeys(r.ByCategory))
	assertDecimal(t, "50", r.ByCategory[0].Total)
}

func TestTiesBreakByName(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "50", "C", "X"),
		tx("2", "50", "B", "X"),
		tx("3", "50", "A", "X"),
	}
	r := AggregateFinance(txs, technicians, sources, Selection{})
	assert.Equal(t, []string{"A", "B", "C"}, groupKeys(r.ByTechnician))
}

func TestEmptyInputYieldsZeros(t *testing.T) {
	r := Aggregate(nil, Selection{})

	assert.True(t, r.TotalRevenue.IsZero())
	assert.True(t, r.TotalExpenses.IsZero())
	assert.True(t, r.TotalProfit.IsZero())
	assert.True(t, r.ProfitMargin.IsZero())
	assert.NotNil(t, r.ByTechnician)
	assert.Empty(t, r.ByTechnician)
	assert.Empty(t, r.ByJobSource)
	assert.Empty(t, r.ByCategory)
	assert.Empty(t, r.Skipped)
}

func TestMarginIsZeroWithoutRevenue(t *testing.T) {
	r := AggregateFinance([]domain.Transaction{tx("1", "-20", "A", "X")}, technicians, sources, Selection{})

	assert.True(t, r.ProfitMargin.IsZero())
	require.Len(t, r.ByTechnician, 1)
	assert.True(t, r.ByTechnician[0].Margin.IsZero())
}

func TestProfitMargin(t *testing.T) {
	r := AggregateFinance([]domain.Transaction{
		tx("1", "200", "A", "X"),
		tx("2", "-50", "A", "X"),
	}, technicians, sources, Selection{})

	assertDecimal(t, "75", r.ProfitMargin)
}

func TestMalformedTransactionsAreSkipped(t *testing.T) {
	noAmount := tx("bad-1", "0", "A", "X")
	noAmount.Amount = nil
	noDate := tx("bad-2", "10", "A", "X")
	noDate.Date = nil

	r := AggregateFinance([]domain.Transaction{
		noAmount,
		tx("ok", "40", "A", "X"),
		noDate,
	}, technicians, sources, Selection{})

	assertDecimal(t, "40", r.TotalRevenue)
	assert.Equal(t, 1, r.TransactionCount)
	assert.Equal(t, []SkippedRecord{
		{TransactionID: "bad-1", Reason: "missing amount"},
		{TransactionID: "bad-2", Reason: "missing date"},
	}, r.Skipped)
}

func TestSelectKeepsOrderAndDropsMalformed(t *testing.T) {
	noDate := tx("bad", "5", "A", "X")
	noDate.Date = nil
	enriched := Correlate([]domain.Transaction{
		tx("t3", "30", "B", "X"),
		noDate,
		tx("t1", "10", "A", "Y"),
		tx("t2", "-20", "A", "X"),
	}, technicians, sources)

	got := Select(enriched, Selection{Technicians: []string{"A"}})
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, "t2", got[1].ID)
	assert.Equal(t, "Alice", got[0].TechnicianName)

	assert.Len(t, Select(enriched, Selection{}), 3)
}
