package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// JobMetric represents calculated profitability for a single job
type JobMetric struct {
	JobID            string
	CustomerName     string
	TechnicianID     string
	Revenue          decimal.Decimal
	TotalCosts       decimal.Decimal
	GrossProfit      decimal.Decimal
	GrossMarginPct   decimal.NullDecimal
	TransactionCount int
}

// CalculateJobMetrics computes profitability for completed jobs from the
// transactions recorded against them.
//
// Revenue is the sum of the job's revenue transactions; when a job has none,
// its billed amount is used instead. Malformed transactions are ignored here,
// Aggregate reports them.
func CalculateJobMetrics(jobs []domain.Job, txs []domain.Transaction) []JobMetric {
	// Group transactions by job ID
	txsByJob := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		if tx.JobID == "" || tx.Amount == nil {
			continue
		}
		txsByJob[tx.JobID] = append(txsByJob[tx.JobID], tx)
	}

	var results []JobMetric

	for _, job := range jobs {
		// Only calculate for completed jobs
		if job.Status != domain.StatusCompleted {
			continue
		}

		metric := calculateSingleJobMetric(job, txsByJob[job.ID])
		if metric.Revenue.IsZero() && metric.TotalCosts.IsZero() {
			continue
		}
		results = append(results, metric)
	}

	return results
}

func calculateSingleJobMetric(job domain.Job, txs []domain.Transaction) JobMetric {
	metric := JobMetric{
		JobID:            job.ID,
		CustomerName:     job.CustomerName,
		TechnicianID:     job.TechnicianID,
		Revenue:          decimal.Zero,
		TotalCosts:       decimal.Zero,
		TransactionCount: len(txs),
	}

	for _, tx := range txs {
		revenue, expense := split(tx)
		metric.Revenue = metric.Revenue.Add(revenue)
		metric.TotalCosts = metric.TotalCosts.Add(expense)
	}

	// No payment recorded yet: fall back to what the job was billed at
	if metric.Revenue.IsZero() {
		metric.Revenue = job.Amount
	}

	metric.GrossProfit = metric.Revenue.Sub(metric.TotalCosts)

	if metric.Revenue.GreaterThan(decimal.Zero) {
		metric.GrossMarginPct = decimal.NullDecimal{
			Decimal: metric.GrossProfit.Div(metric.Revenue).Mul(hundred),
			Valid:   true,
		}
	}

	return metric
}

// JobsWithLoss returns the metrics with negative gross profit, worst first
func JobsWithLoss(metrics []JobMetric) []JobMetric {
	var losses []JobMetric
	for _, m := range metrics {
		if m.GrossProfit.IsNegative() {
			losses = append(losses, m)
		}
	}
	sort.SliceStable(losses, func(i, j int) bool {
		return losses[i].GrossProfit.LessThan(losses[j].GrossProfit)
	})
	return losses
}
