package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/logger"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
	"github.com/datsun80zx/fieldboard.git/internal/report"
	"github.com/datsun80zx/fieldboard.git/internal/selection"
)

func financeCmd() *cobra.Command {
	var (
		f      financeFlags
		export string
		format string
	)

	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Aggregate transactions into revenue, expense and profit breakdowns",
		Example: `  fieldboard finance --data ./exports --date this-month
  fieldboard finance --technician t1 --technician t2 --category Parts
  fieldboard finance --min 100 --payment-method card
  fieldboard finance --from 2024-01-01 --to 2024-03-31 --export q1.xlsx`,
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

			sel := selection.Reduce(selection.State{}, actions...).Finance
			result, err := a.engine.Finance(ds, sel)
			if err != nil {
				return err
			}

			if export != "" {
				return exportFinance(export, format, ds, sel, result)
			}

			if a.jsonOutput() {
				return printJSON(a.out, result)
			}
			if result.TransactionCount == 0 && len(result.Skipped) == 0 {
				fmt.Fprintln(a.out, "No transactions match the current filters")
				return nil
			}
			report.WriteFinance(a.out, result)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&export, "export", "o", "", "write the matching transactions to a .csv or .xlsx file")
	cmd.Flags().StringVar(&format, "format", "", "export format (csv, xlsx); defaults to the file extension")
	return cmd
}

func exportFinance(path, format string, ds *domain.Dataset, sel metrics.Selection, result metrics.AggregateResult) error {
	var (
		fmtKind report.Format
		err     error
	)
	if format != "" {
		fmtKind, err = report.ParseFormat(format)
	} else {
		fmtKind, err = report.FormatFromPath(path)
	}
	if err != nil {
		return errors.WithHint(err, "use a .csv or .xlsx file name, or pass --format")
	}

	txs, err := a.engine.Transactions(ds, sel)
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := report.Export(out, fmtKind, result, txs); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	a.log.Info("finance exported",
		zap.String(logger.FieldFile, path),
		zap.Int(logger.FieldCount, len(txs)))
	fmt.Fprintf(a.out, "✅ Exported %d transactions to %s\n", len(txs), path)
	return nil
}
