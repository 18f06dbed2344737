package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/dashboard"
	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/report"
	"github.com/datsun80zx/fieldboard.git/internal/selection"
)

type jobsOutput struct {
	Status       string              `json:"status"`
	Counts       jobs.StatusCounts   `json:"counts"`
	Total        int                 `json:"total"`
	Interval     *daterange.Interval `json:"interval,omitempty"`
	DateFallback bool                `json:"date_fallback,omitempty"`
	Jobs         []domain.Job        `json:"jobs"`
}

func jobsCmd() *cobra.Command {
	var f jobFlags

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs matching the filters, with per-status counts",
		Example: `  fieldboard jobs --data ./exports --date this-week
  fieldboard jobs --technician t1 --status completed
  fieldboard jobs --from 2024-06-01 --to 2024-06-30 --search "main st"
  fieldboard jobs --view alice-this-week`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := f.actions(cmd)
			if err != nil {
				return err
			}
			ds, err := a.dataset(cmd.Context())
			if err != nil {
				return err
			}

			var (
				result dashboard.JobsResult
				runErr error
			)
			store := selection.NewStore(selection.State{})
			store.Subscribe(func(s selection.State) {
				result, runErr = a.engine.Jobs(ds, s.Jobs, s.Bucket)
			})
			state := store.Dispatch(actions...)
			if runErr != nil {
				return runErr
			}

			if a.jsonOutput() {
				return printJSON(a.out, jobsOutput{
					Status:       state.Bucket.String(),
					Counts:       result.Counts,
					Total:        result.Counts.Total(),
					Interval:     result.Interval,
					DateFallback: result.DateFallback,
					Jobs:         result.Rows,
				})
			}

			if result.DateFallback {
				fmt.Fprintf(a.out, "⚠️  Unknown date filter %q, showing all dates\n\n", state.Jobs.DateFilter)
			}
			report.WriteStatusTabs(a.out, result.Counts, state.Bucket)
			if len(result.Rows) == 0 {
				fmt.Fprintln(a.out, "No jobs match the current filters")
				if state.Jobs.HasActiveFilters() {
					fmt.Fprintln(a.out)
					fmt.Fprintln(a.out, "💡 Widen the search or try --date all")
				}
				return nil
			}
			report.WriteJobs(a.out, result.Rows, ds.Technicians, ds.JobSources)
			return nil
		},
	}

	f.register(cmd, true)
	return cmd
}
