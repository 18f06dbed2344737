package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datsun80zx/fieldboard.git/internal/importer"
	"github.com/datsun80zx/fieldboard.git/internal/logger"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Load a directory of CSV exports into the database",
		Long: `Load jobs.csv, transactions.csv and the optional technicians.csv and
job_sources.csv from dir into the database named by --database-url,
replacing the previous dataset. Re-importing identical files is a no-op.`,
		Example: `  fieldboard import ./exports --database-url fieldboard.db
  FIELDBOARD_DATABASE_URL=postgres://localhost/fieldboard fieldboard import ./exports`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Data
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return errors.WithHint(errNoSource, "pass the export directory: fieldboard import <dir>")
			}
			if a.cfg.DatabaseURL == "" {
				return errors.WithHint(errors.New("import needs a database"),
					"pass --database-url fieldboard.db or set FIELDBOARD_DATABASE_URL")
			}

			fmt.Fprintln(a.out, "Starting import...")
			fmt.Fprintf(a.out, "  Directory: %s\n", dir)
			fmt.Fprintln(a.out)

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := importer.NewImporter(a.loc).ImportDir(cmd.Context(), dir, st)
			if err != nil {
				return errors.Wrap(err, "import failed")
			}

			if result.AlreadyImported {
				fmt.Fprintln(a.out, "ℹ️  These files have already been imported")
				fmt.Fprintf(a.out, "   Fingerprint: %s\n", result.Dataset.Fingerprint)
				return nil
			}

			a.log.Info("dataset imported",
				zap.String(logger.FieldFingerprint, result.Dataset.Fingerprint),
				zap.Int(logger.FieldCount, result.JobsImported),
				zap.Int(logger.FieldTotalCount, result.TransactionsImported),
				zap.Int64(logger.FieldDurationMS, result.Duration.Milliseconds()))

			fmt.Fprintln(a.out, "✅ Import successful!")
			fmt.Fprintln(a.out)
			fmt.Fprintf(a.out, "Jobs imported:          %d\n", result.JobsImported)
			fmt.Fprintf(a.out, "Transactions imported:  %d\n", result.TransactionsImported)
			if result.TechniciansDerived > 0 {
				fmt.Fprintf(a.out, "Technicians derived:    %d (no technicians.csv)\n", result.TechniciansDerived)
			}
			if result.JobSourcesDerived > 0 {
				fmt.Fprintf(a.out, "Job sources derived:    %d (no job_sources.csv)\n", result.JobSourcesDerived)
			}
			fmt.Fprintf(a.out, "Duration:               %v\n", result.Duration.Round(time.Millisecond))

			if result.ValidationResult != nil && result.ValidationResult.HasIssues() {
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, "⚠️  Warnings:")
				for _, warning := range result.ValidationResult.Warnings {
					fmt.Fprintf(a.out, "   - %s\n", warning)
				}
			}

			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, "💡 Next steps:")
			fmt.Fprintln(a.out, "   fieldboard jobs --date this-week   # Open and completed work")
			fmt.Fprintln(a.out, "   fieldboard finance                 # Revenue, expenses and profit")
			fmt.Fprintln(a.out, "   fieldboard summary                 # HTML report")
			return nil
		},
	}
}
