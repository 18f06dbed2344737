package main

import (
	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/report"
)

func redFlagsCmd() *cobra.Command {
	var (
		f   jobFlags
		top int
	)

	cmd := &cobra.Command{
		Use:     "red-flags",
		Aliases: []string{"losses"},
		Short:   "List completed jobs whose costs exceeded their revenue",
		Example: `  fieldboard red-flags --data ./exports
  fieldboard red-flags --technician t1 --date last-month --top 10`,
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

			profit, err := a.engine.JobProfit(ds, state.Jobs)
			if err != nil {
				return err
			}
			flags := report.RedFlags(profit, ds.Technicians)
			if top > 0 && len(flags) > top {
				flags = flags[:top]
			}

			if a.jsonOutput() {
				return printJSON(a.out, flags)
			}
			report.WriteRedFlags(a.out, flags)
			return nil
		},
	}

	f.register(cmd, false)
	cmd.Flags().IntVar(&top, "top", 0, "show only the N worst jobs")
	return cmd
}
