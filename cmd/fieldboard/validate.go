package main

import (
	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/importer"
	"github.com/datsun80zx/fieldboard.git/internal/report"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report data quality issues in the loaded dataset",
		Long: `Check the dataset for orphaned transactions, duplicate ids, jobs without a
technician and roster entries that fail validation. Findings never stop
the other commands from running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.dataset(cmd.Context())
			if err != nil {
				return err
			}

			result := a.validation
			if result == nil {
				result = importer.ValidateDataset(ds)
			}

			if a.jsonOutput() {
				return printJSON(a.out, result)
			}
			report.WriteWarnings(a.out, result.Warnings)
			return nil
		},
	}
}
