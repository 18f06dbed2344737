package report

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

// TechnicianReport contains all data for the technician performance report
type TechnicianReport struct {
	GeneratedAt time.Time

	// Summary stats
	TotalTechnicians   int
	ActiveTechnicians  int
	TotalJobs          int
	TotalJobsCompleted int
	TotalRevenue       decimal.Decimal
	AvgCompletionRate  decimal.NullDecimal

	// Individual technician performance
	Technicians []metrics.TechnicianMetric
}

// BuildTechnicianReport summarizes per-technician metrics. The average
// completion rate only counts technicians with at least one closed job.
func BuildTechnicianReport(ms []metrics.TechnicianMetric, generatedAt time.Time) *TechnicianReport {
	report := &TechnicianReport{
		GeneratedAt:      generatedAt,
		TotalTechnicians: len(ms),
		TotalRevenue:     decimal.Zero,
		Technicians:      ms,
	}

	totalRate := decimal.Zero
	rated := 0
	for _, m := range ms {
		if m.Active {
			report.ActiveTechnicians++
		}
		report.TotalJobs += m.TotalJobs
		report.TotalJobsCompleted += m.CompletedJobs
		report.TotalRevenue = report.TotalRevenue.Add(m.CompletedRevenue)
		if m.CompletionRate.Valid {
			totalRate = totalRate.Add(m.CompletionRate.Decimal)
			rated++
		}
	}
	if rated > 0 {
		report.AvgCompletionRate = decimal.NewNullDecimal(totalRate.Div(decimal.NewFromInt(int64(rated))))
	}

	return report
}

// WriteTechnicians renders the technician table
func WriteTechnicians(w io.Writer, r *TechnicianReport) {
	tw := newTable(w, "Technician Performance")
	tw.AppendHeader(table.Row{"Technician", "Active", "Jobs", "Completed", "Cancelled", "Open", "Revenue", "Avg Ticket", "Completion"})
	for _, m := range r.Technicians {
		active := ""
		if m.Active {
			active = "yes"
		}
		avg := "N/A"
		if m.AvgTicket.Valid {
			avg = FormatMoney(m.AvgTicket.Decimal)
		}
		tw.AppendRow(table.Row{
			m.Name, active, m.TotalJobs, m.CompletedJobs, m.CancelledJobs, m.OpenJobs,
			FormatMoney(m.CompletedRevenue), avg, FormatRate(m.CompletionRate),
		})
	}
	tw.AppendFooter(table.Row{
		"Total", r.ActiveTechnicians, r.TotalJobs, r.TotalJobsCompleted, "", "",
		FormatMoney(r.TotalRevenue), "", FormatRate(r.AvgCompletionRate),
	})
	tw.SetColumnConfigs(rightAligned(3, 4, 5, 6, 7, 8, 9))
	tw.Render()
}

// rightAligned aligns the numbered (1-based) columns to the right
func rightAligned(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	return configs
}
