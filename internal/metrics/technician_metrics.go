package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// TechnicianMetric represents job performance for a single technician
type TechnicianMetric struct {
	TechnicianID string
	Name         string
	Active       bool

	// Workload over the jobs passed in
	TotalJobs     int
	CompletedJobs int
	CancelledJobs int
	OpenJobs      int // scheduled or in progress

	// Billed amount of completed jobs
	CompletedRevenue decimal.Decimal

	// Calculated metrics
	AvgTicket      decimal.NullDecimal // CompletedRevenue / CompletedJobs
	CompletionRate decimal.NullDecimal // CompletedJobs / (TotalJobs - OpenJobs) * 100
}

// CalculateTechnicianMetrics computes per-technician job metrics. Every
// roster member gets a row even without jobs; jobs of technicians missing
// from the roster are ignored. Rows come back ordered by completed revenue,
// highest first, then by name.
func CalculateTechnicianMetrics(technicians []domain.Technician, jobs []domain.Job) []TechnicianMetric {
	// Initialize metrics for each technician
	metricsMap := make(map[string]*TechnicianMetric, len(technicians))
	order := make([]string, 0, len(technicians))
	for _, t := range technicians {
		if _, dup := metricsMap[t.ID]; dup {
			continue
		}
		metricsMap[t.ID] = &TechnicianMetric{
			TechnicianID:     t.ID,
			Name:             t.Name,
			Active:           t.Active(),
			CompletedRevenue: decimal.Zero,
		}
		order = append(order, t.ID)
	}

	for _, job := range jobs {
		m := metricsMap[job.TechnicianID]
		if m == nil {
			continue
		}

		m.TotalJobs++
		switch job.Status {
		case domain.StatusCompleted:
			m.CompletedJobs++
			m.CompletedRevenue = m.CompletedRevenue.Add(job.Amount)
		case domain.StatusCancelled:
			m.CancelledJobs++
		default:
			m.OpenJobs++
		}
	}

	results := make([]TechnicianMetric, 0, len(order))
	for _, id := range order {
		m := metricsMap[id]
		calculateTechnicianAverages(m)
		results = append(results, *m)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if c := results[i].CompletedRevenue.Cmp(results[j].CompletedRevenue); c != 0 {
			return c > 0
		}
		return results[i].Name < results[j].Name
	})

	return results
}

func calculateTechnicianAverages(m *TechnicianMetric) {
	// Average ticket = CompletedRevenue / CompletedJobs
	if m.CompletedJobs > 0 {
		m.AvgTicket = decimal.NullDecimal{
			Decimal: m.CompletedRevenue.Div(decimal.NewFromInt(int64(m.CompletedJobs))),
			Valid:   true,
		}
	}

	// Completion rate over closed jobs only
	closed := m.CompletedJobs + m.CancelledJobs
	if closed > 0 {
		m.CompletionRate = decimal.NullDecimal{
			Decimal: decimal.NewFromInt(int64(m.CompletedJobs)).
				Div(decimal.NewFromInt(int64(closed))).
				Mul(hundred),
			Valid: true,
		}
	}
}
