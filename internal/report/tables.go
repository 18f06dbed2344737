package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

func newTable(w io.Writer, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

// WriteStatusTabs renders the status tab badges; the active bucket is starred
func WriteStatusTabs(w io.Writer, counts jobs.StatusCounts, active jobs.Bucket) {
	tw := newTable(w, "")
	header := table.Row{tabLabel("All", active == jobs.AllBuckets)}
	row := table.Row{counts.Total()}
	for _, s := range domain.Statuses {
		header = append(header, tabLabel(StatusLabel(s), active == jobs.StatusBucket(s)))
		row = append(row, counts[s])
	}
	tw.AppendHeader(header)
	tw.AppendRow(row)
	tw.Render()
}

func tabLabel(label string, active bool) string {
	if active {
		return "*" + label
	}
	return label
}

// WriteJobs renders the rows of one status bucket
func WriteJobs(w io.Writer, rows []domain.Job, technicians []domain.Technician, sources []domain.JobSource) {
	techNames := make(map[string]string, len(technicians))
	for _, t := range technicians {
		techNames[t.ID] = t.Name
	}
	sourceNames := make(map[string]string, len(sources))
	for _, s := range sources {
		sourceNames[s.ID] = s.Name
	}

	tw := newTable(w, "Jobs")
	tw.AppendHeader(table.Row{"Job", "Status", "Scheduled", "Technician", "Source", "Customer", "Type", "Amount"})

	total := decimal.Zero
	for _, j := range rows {
		total = total.Add(j.Amount)
		tw.AppendRow(table.Row{
			j.ID,
			StatusLabel(j.Status),
			formatDate(j.ScheduledDate),
			techNames[j.TechnicianID],
			sourceNames[j.JobSourceID],
			truncate(j.CustomerName, 28),
			truncate(j.JobType, 20),
			FormatMoney(j.Amount),
		})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d jobs", len(rows)), "", "", "", "", "", "", FormatMoney(total)})
	tw.SetColumnConfigs(rightAligned(8))
	tw.Render()
}

// WriteFinance renders totals followed by the three breakdowns
func WriteFinance(w io.Writer, r metrics.AggregateResult) {
	tw := newTable(w, "Finance")
	tw.AppendRows([]table.Row{
		{"Revenue", FormatMoney(r.TotalRevenue)},
		{"Expenses", FormatMoney(r.TotalExpenses)},
		{"Profit", FormatMoney(r.TotalProfit)},
		{"Margin", FormatPercent(r.ProfitMargin)},
		{"Transactions", r.TransactionCount},
		{"Orphaned", r.OrphanedCount},
	})
	tw.SetColumnConfigs(rightAligned(2))
	tw.Render()

	writeGroups(w, "By Technician", r.ByTechnician, true)
	writeGroups(w, "By Job Source", r.ByJobSource, true)
	writeGroups(w, "By Category", r.ByCategory, false)

	if len(r.Skipped) > 0 {
		WriteSkipped(w, r.Skipped)
	}
}

func writeGroups(w io.Writer, title string, groups []metrics.Group, withRevenue bool) {
	tw := newTable(w, title)
	if len(groups) == 0 {
		tw.AppendRow(table.Row{"No transactions"})
		tw.Render()
		return
	}

	if withRevenue {
		tw.AppendHeader(table.Row{"Name", "Count", "Revenue", "Expenses", "Net", "Margin"})
		for _, g := range groups {
			tw.AppendRow(table.Row{
				g.Name, g.Count, FormatMoney(g.Revenue), FormatMoney(g.Expenses),
				FormatMoney(g.Net), FormatPercent(g.Margin),
			})
		}
		tw.SetColumnConfigs(rightAligned(2, 3, 4, 5, 6))
	} else {
		tw.AppendHeader(table.Row{"Category", "Count", "Expenses"})
		for _, g := range groups {
			tw.AppendRow(table.Row{g.Name, g.Count, FormatMoney(g.Expenses)})
		}
		tw.SetColumnConfigs(rightAligned(2, 3))
	}
	tw.Render()
}

// WriteSkipped lists transactions left out of aggregation
func WriteSkipped(w io.Writer, skipped []metrics.SkippedRecord) {
	tw := newTable(w, "Skipped Transactions")
	tw.AppendHeader(table.Row{"Transaction", "Reason"})
	for _, s := range skipped {
		tw.AppendRow(table.Row{s.TransactionID, s.Reason})
	}
	tw.Render()
}

// WriteInterval prints a resolved date filter on one line
func WriteInterval(w io.Writer, ft daterange.FilterType, iv *daterange.Interval) {
	switch {
	case iv == nil:
		fmt.Fprintf(w, "%s: all dates\n", ft)
	case iv.OpenEnded():
		fmt.Fprintf(w, "%s: from %s\n", ft, iv.Start.Format("2006-01-02 15:04:05"))
	default:
		fmt.Fprintf(w, "%s: %s to %s\n", ft,
			iv.Start.Format("2006-01-02 15:04:05"), iv.End.Format("2006-01-02 15:04:05"))
	}
}

// WriteWarnings prints validation warnings as a bulleted list
func WriteWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		fmt.Fprintln(w, "✅ No issues found")
		return
	}
	fmt.Fprintf(w, "⚠️  %d issue(s):\n", len(warnings))
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(msg))
	}
}

// WriteRedFlags lists money-losing jobs with the combined loss in the footer
func WriteRedFlags(w io.Writer, flags []RedFlagJob) {
	if len(flags) == 0 {
		fmt.Fprintln(w, "✅ No completed jobs ran at a loss")
		return
	}

	total := decimal.Zero
	tw := newTable(w, "Jobs With Negative Profit")
	tw.AppendHeader(table.Row{"Job", "Customer", "Technician", "Revenue", "Costs", "Loss"})
	for _, f := range flags {
		total = total.Add(f.Loss)
		tw.AppendRow(table.Row{
			f.JobID,
			truncate(f.CustomerName, 25),
			f.Technician,
			FormatMoney(f.Revenue),
			FormatMoney(f.Costs),
			FormatMoney(f.Loss),
		})
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d jobs", len(flags)), "", "", FormatMoney(total)})
	tw.SetColumnConfigs(rightAligned(4, 5, 6))
	tw.Render()
}
