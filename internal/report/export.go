package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for export formats other than csv and xlsx
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts csv, xlsx and excel, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", errors.WithHint(errors.Wrapf(ErrUnknownFormat, "%q", s), "use csv or xlsx")
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ParseFormat("")
	}
	return ParseFormat(path[i+1:])
}

var transactionHeader = []string{
	"ID", "Date", "Amount", "Kind", "Technician", "Job Source", "Category", "Payment Method", "Job", "Description",
}

func transactionRecord(tx metrics.EnrichedTransaction) []string {
	technician := tx.TechnicianName
	if tx.TechnicianOrphaned {
		technician = tx.TechnicianID + " (unknown)"
	}
	source := tx.JobSourceName
	if tx.JobSourceOrphaned {
		source = tx.JobSourceID + " (unknown)"
	}
	return []string{
		tx.ID,
		formatDate(tx.Date),
		tx.Amount.StringFixed(2),
		string(tx.Kind),
		technician,
		source,
		tx.Category,
		tx.PaymentMethod,
		tx.JobID,
		tx.Description,
	}
}

// Export writes the selected transactions (csv) or the full finance
// workbook (xlsx) to w
func Export(w io.Writer, format Format, r metrics.AggregateResult, txs []metrics.EnrichedTransaction) error {
	switch format {
	case FormatCSV:
		return WriteTransactionsCSV(w, txs)
	case FormatXLSX:
		f, err := FinanceWorkbook(r, txs)
		if err != nil {
			return err
		}
		defer f.Close()
		return errors.Wrap(f.Write(w), "writing workbook")
	}
	return errors.Wrapf(ErrUnknownFormat, "%q", format)
}

// WriteTransactionsCSV writes one row per transaction
func WriteTransactionsCSV(w io.Writer, txs []metrics.EnrichedTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, tx := range txs {
		if err := cw.Write(transactionRecord(tx)); err != nil {
			return errors.Wrapf(err, "writing transaction %s", tx.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// Workbook sheet names
const (
	SheetSummary      = "Summary"
	SheetTechnicians  = "Technicians"
	SheetJobSources   = "Job Sources"
	SheetCategories   = "Categories"
	SheetTransactions = "Transactions"
)

// FinanceWorkbook builds a workbook with the totals, each breakdown and the
// selected transactions on separate sheets
func FinanceWorkbook(r metrics.AggregateResult, txs []metrics.EnrichedTransaction) (*excelize.File, error) {
	f := excelize.NewFile()

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Revenue", money(r.TotalRevenue)},
		{"Expenses", money(r.TotalExpenses)},
		{"Profit", money(r.TotalProfit)},
		{"Margin %", money(r.ProfitMargin)},
		{"Transactions", r.TransactionCount},
		{"Orphaned", r.OrphanedCount},
		{"Skipped", len(r.Skipped)},
	}
	if err := writeSheet(f, SheetSummary, summary); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetTechnicians, groupRows(r.ByTechnician)); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetJobSources, groupRows(r.ByJobSource)); err != nil {
		return nil, err
	}

	categories := [][]interface{}{{"Category", "Count", "Expenses"}}
	for _, g := range r.ByCategory {
		categories = append(categories, []interface{}{g.Name, g.Count, money(g.Expenses)})
	}
	if err := writeSheet(f, SheetCategories, categories); err != nil {
		return nil, err
	}

	rows := [][]interface{}{toRow(transactionHeader)}
	for _, tx := range txs {
		rec := transactionRecord(tx)
		row := toRow(rec)
		row[2] = money(*tx.Amount)
		rows = append(rows, row)
	}
	if err := writeSheet(f, SheetTransactions, rows); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "removing default sheet")
	}
	index, err := f.GetSheetIndex(SheetSummary)
	if err != nil {
		return nil, errors.Wrap(err, "locating summary sheet")
	}
	f.SetActiveSheet(index)
	return f, nil
}

func groupRows(groups []metrics.Group) [][]interface{} {
	rows := [][]interface{}{{"Name", "Count", "Revenue", "Expenses", "Net", "Margin %"}}
	for _, g := range groups {
		rows = append(rows, []interface{}{
			g.Name, g.Count, money(g.Revenue), money(g.Expenses), money(g.Net), money(g.Margin),
		})
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "creating sheet %s", sheet)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "resolving cell")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		last, _ := excelize.ColumnNumberToName(len(rows[0]))
		_ = f.SetColWidth(sheet, "A", last, 16)
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
		})
		if err == nil {
			_ = f.SetCellStyle(sheet, "A1", last+"1", style)
		}
	}
	return nil
}

// money rounds to cents for a numeric cell
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
