package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

// maxRedFlagJobs caps the loss table in the summary
const maxRedFlagJobs = 25

// SummaryReport contains all data for the summary report
type SummaryReport struct {
	GeneratedAt time.Time
	FromDate    *time.Time
	ToDate      *time.Time

	// Job board
	TotalJobs    int
	StatusCounts []StatusCount

	// Executive summary
	TotalRevenue     decimal.Decimal
	TotalExpenses    decimal.Decimal
	TotalProfit      decimal.Decimal
	ProfitMargin     decimal.Decimal
	TransactionCount int
	OrphanedCount    int
	SkippedCount     int

	// Breakdowns
	ByTechnician []metrics.Group
	ByJobSource  []metrics.Group
	ByCategory   []metrics.Group

	// Completed jobs whose costs exceeded revenue
	JobsWithLoss int
	TotalLoss    decimal.Decimal
	RedFlagJobs  []RedFlagJob

	Technicians *TechnicianReport
}

// StatusCount is one status tab
type StatusCount struct {
	Status domain.Status
	Label  string
	Count  int
}

// RedFlagJob represents a completed job with negative gross profit
type RedFlagJob struct {
	JobID        string
	CustomerName string
	Technician   string
	Revenue      decimal.Decimal
	Costs        decimal.Decimal
	Loss         decimal.Decimal
}

// SummaryInput is what the dashboard computed for one filter state
type SummaryInput struct {
	GeneratedAt time.Time
	Interval    *daterange.Interval
	Counts      jobs.StatusCounts
	Finance     metrics.AggregateResult
	JobProfit   []metrics.JobMetric
	Technicians []metrics.TechnicianMetric
	Roster      []domain.Technician
}

// BuildSummary assembles the summary report
func BuildSummary(in SummaryInput) *SummaryReport {
	report := &SummaryReport{
		GeneratedAt:      in.GeneratedAt,
		TotalJobs:        in.Counts.Total(),
		StatusCounts:     statusCounts(in.Counts),
		TotalRevenue:     in.Finance.TotalRevenue,
		TotalExpenses:    in.Finance.TotalExpenses,
		TotalProfit:      in.Finance.TotalProfit,
		ProfitMargin:     in.Finance.ProfitMargin,
		TransactionCount: in.Finance.TransactionCount,
		OrphanedCount:    in.Finance.OrphanedCount,
		SkippedCount:     len(in.Finance.Skipped),
		ByTechnician:     in.Finance.ByTechnician,
		ByJobSource:      in.Finance.ByJobSource,
		ByCategory:       in.Finance.ByCategory,
		TotalLoss:        decimal.Zero,
		Technicians:      BuildTechnicianReport(in.Technicians, in.GeneratedAt),
	}

	if in.Interval != nil {
		from := in.Interval.Start
		report.FromDate = &from
		if !in.Interval.OpenEnded() {
			to := in.Interval.End
			report.ToDate = &to
		}
	}

	flags := RedFlags(in.JobProfit, in.Roster)
	report.JobsWithLoss = len(flags)
	for _, f := range flags {
		report.TotalLoss = report.TotalLoss.Add(f.Loss)
	}
	if len(flags) > maxRedFlagJobs {
		flags = flags[:maxRedFlagJobs]
	}
	report.RedFlagJobs = flags

	return report
}

// RedFlags lists the completed jobs that lost money, worst first, with the
// technician resolved against roster
func RedFlags(profit []metrics.JobMetric, roster []domain.Technician) []RedFlagJob {
	names := make(map[string]string, len(roster))
	for _, t := range roster {
		names[t.ID] = t.Name
	}

	losses := metrics.JobsWithLoss(profit)
	flags := make([]RedFlagJob, 0, len(losses))
	for _, m := range losses {
		flags = append(flags, RedFlagJob{
			JobID:        m.JobID,
			CustomerName: m.CustomerName,
			Technician:   names[m.TechnicianID],
			Revenue:      m.Revenue,
			Costs:        m.TotalCosts,
			Loss:         m.GrossProfit.Neg(),
		})
	}
	return flags
}

// statusCounts lists the tabs in display order
func statusCounts(counts jobs.StatusCounts) []StatusCount {
	out := make([]StatusCount, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out = append(out, StatusCount{Status: s, Label: StatusLabel(s), Count: counts[s]})
	}
	return out
}
