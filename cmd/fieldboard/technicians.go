package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/report"
)

func techniciansCmd() *cobra.Command {
	var f jobFlags

	cmd := &cobra.Command{
		Use:     "technicians",
		Aliases: []string{"techs"},
		Short:   "Show workload and completion metrics per technician",
		Example: `  fieldboard technicians --data ./exports
  fieldboard technicians --date this-month`,
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

			ms, err := a.engine.Technicians(ds, state.Jobs)
			if err != nil {
				return err
			}
			r := report.BuildTechnicianReport(ms, a.engine.Now())

			if a.jsonOutput() {
				return printJSON(a.out, r)
			}
			if r.TotalTechnicians == 0 {
				fmt.Fprintln(a.out, "No technicians found")
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, "💡 Add technicians.csv to the data directory, or include a technician column in jobs.csv")
				return nil
			}
			report.WriteTechnicians(a.out, r)
			return nil
		},
	}

	f.register(cmd, false)
	return cmd
}
