package main

import (
	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/config"
	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/report"
)

type intervalOutput struct {
	Filter   daterange.FilterType `json:"filter"`
	Interval *daterange.Interval  `json:"interval"`
}

func datesCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "dates [token...]",
		Short: "Show the time range each date filter resolves to",
		Example: `  fieldboard dates
  fieldboard dates this-week last-month --timezone America/Chicago
  fieldboard dates custom --from 2024-06-01 --to 2024-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := args
			if len(tokens) == 0 {
				tokens = []string{"today", "yesterday", "tomorrow", "thisWeek", "lastWeek", "nextWeek", "thisMonth", "lastMonth", "nextMonth"}
			}

			custom, err := config.ParseCustomRange(from, to, a.loc)
			if err != nil {
				return err
			}

			var out []intervalOutput
			for _, token := range tokens {
				ft, err := daterange.ParseFilterType(token)
				if err != nil {
					return err
				}
				iv, err := a.engine.ResolveSelection(ft, custom)
				if err != nil {
					return err
				}
				out = append(out, intervalOutput{Filter: ft, Interval: iv})
			}

			if a.jsonOutput() {
				return printJSON(a.out, out)
			}
			for _, o := range out {
				report.WriteInterval(a.out, o.Filter, o.Interval)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "custom range end (YYYY-MM-DD)")
	return cmd
}
