package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
	"github.com/datsun80zx/fieldboard.git/internal/report"
)

func summaryCmd() *cobra.Command {
	var (
		f      jobFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate an HTML dashboard summary",
		Long: `Generate an HTML report with status counts, finance breakdowns, technician
performance and money-losing jobs. Finance figures use the same technician
and date range as the job filters.`,
		Example: `  fieldboard summary --data ./exports --date last-month
  fieldboard summary --from 2024-10-01 --to 2024-12-31 --output q4.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := f.state(cmd)
			if err != nil {
				return err
			}
			ds, err := a.dataset(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("fieldboard-summary-%s.html", a.engine.Now().Format("2006-01-02"))
			}
			if !strings.HasSuffix(strings.ToLower(output), ".html") {
				output += ".html"
			}

			listed, err := a.engine.Jobs(ds, state.Jobs, jobs.AllBuckets)
			if err != nil {
				return err
			}

			sel := metrics.Selection{Interval: listed.Interval}
			if id, ok := state.Jobs.Technician.ID(); ok {
				sel.Technicians = []string{id}
			}
			finance, err := a.engine.Finance(ds, sel)
			if err != nil {
				return err
			}
			profit, err := a.engine.JobProfit(ds, state.Jobs)
			if err != nil {
				return err
			}
			technicians, err := a.engine.Technicians(ds, state.Jobs)
			if err != nil {
				return err
			}

			summary := report.BuildSummary(report.SummaryInput{
				GeneratedAt: a.engine.Now(),
				Interval:    listed.Interval,
				Counts:      listed.Counts,
				Finance:     finance,
				JobProfit:   profit,
				Technicians: technicians,
				Roster:      ds.Technicians,
			})

			renderer, err := report.NewRenderer()
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errors.Wrapf(err, "failed to create %s", dir)
				}
			}
			file, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "failed to create %s", output)
			}
			if err := renderer.RenderSummary(file, summary); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return errors.Wrapf(err, "failed to write %s", output)
			}

			absPath, _ := filepath.Abs(output)
			fmt.Fprintln(a.out, "✅ Report generated successfully!")
			fmt.Fprintln(a.out)
			fmt.Fprintf(a.out, "  File:        %s\n", absPath)
			fmt.Fprintf(a.out, "  Jobs:        %d\n", summary.TotalJobs)
			fmt.Fprintf(a.out, "  Revenue:     %s\n", report.FormatMoney(summary.TotalRevenue))
			fmt.Fprintf(a.out, "  Profit:      %s (%s)\n", report.FormatMoney(summary.TotalProfit), report.FormatPercent(summary.ProfitMargin))
			if summary.JobsWithLoss > 0 {
				fmt.Fprintf(a.out, "  Red flags:   %d jobs lost %s\n", summary.JobsWithLoss, report.FormatMoney(summary.TotalLoss))
			}
			fmt.Fprintf(a.out, "  Generated:   %s\n", summary.GeneratedAt.Format(time.RFC1123))
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, "💡 Open the file in your browser to view the report")
			return nil
		},
	}

	f.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default fieldboard-summary-DATE.html)")
	return cmd
}
