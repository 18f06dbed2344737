package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datsun80zx/fieldboard.git/internal/config"
	"github.com/datsun80zx/fieldboard.git/internal/importer"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

const (
	jobsCSV = `Job ID,Status,Scheduled Date,Technician,Job Source,Customer Name,Amount
J1,completed,2024-06-10,Alice Moreno,Google Ads,Acme,400
J2,scheduled,2024-06-12,Bob Li,Google Ads,Birch,150
J3,completed,2024-06-03,Bob Li,,Cedar,100
`
	transactionsCSV = `Transaction ID,Job ID,Amount,Date,Technician,Job Source,Category
T1,J1,400,2024-06-10,Alice Moreno,Google Ads,
T2,J1,-80,2024-06-10,Alice Moreno,,Parts
T3,J3,100,2024-06-03,Bob Li,,
T4,J3,-250,2024-06-03,Bob Li,,Parts
`
	techniciansCSV = "ID,Name\nt-alice,Alice Moreno\nt-bob,Bob Li\n"
	jobSourcesCSV  = "ID,Name\ns-google,Google Ads\n"
)

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		importer.JobsFile:         jobsCSV,
		importer.TransactionsFile: transactionsCSV,
		importer.TechniciansFile:  techniciansCSV,
		importer.JobSourcesFile:   jobSourcesCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestJobsCommandShowsBucket(t *testing.T) {
	out, err := run(t, "jobs", "--data", dataDir(t), "--status", "completed")
	require.NoError(t, err)

	assert.Contains(t, out, "*COMPLETED")
	assert.Contains(t, out, "J1")
	assert.Contains(t, out, "J3")
	assert.NotContains(t, out, "Birch")
}

func TestJobsCommandJSON(t *testing.T) {
	out, err := run(t, "jobs", "--data", dataDir(t), "--technician", "t-bob", "--json")
	require.NoError(t, err)

	var got jobsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "all", got.Status)
	assert.Equal(t, 2, got.Total)
	assert.Len(t, got.Jobs, 2)
}

func TestJobsCommandFallsBackOnUnknownDate(t *testing.T) {
	out, err := run(t, "jobs", "--data", dataDir(t), "--date", "fortnight")
	require.NoError(t, err)

	assert.Contains(t, out, `Unknown date filter "fortnight"`)
	assert.Contains(t, out, "Birch")
}

func TestFinanceCommandJSON(t *testing.T) {
	out, err := run(t, "finance", "--data", dataDir(t), "--technician", "t-alice", "--json")
	require.NoError(t, err)

	var got metrics.AggregateResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, decimal.NewFromInt(400).Equal(got.TotalRevenue))
	assert.True(t, decimal.NewFromInt(80).Equal(got.TotalExpenses))
	assert.Equal(t, 2, got.TransactionCount)
}

func TestFinanceCommandExportsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.csv")
	out, err := run(t, "finance", "--data", dataDir(t), "--category", "Parts", "--export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 transactions")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "T2", records[1][0])
	assert.Equal(t, "T4", records[2][0])
}

func TestFinanceCommandRejectsUnknownExportFormat(t *testing.T) {
	_, err := run(t, "finance", "--data", dataDir(t), "--export", filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestImportThenQueryDatabase(t *testing.T) {
	dir := dataDir(t)
	db := filepath.Join(t.TempDir(), "fieldboard.db")

	out, err := run(t, "import", dir, "--database-url", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Import successful")
	assert.Contains(t, out, "Jobs imported:          3")

	out, err = run(t, "import", dir, "--database-url", db)
	require.NoError(t, err)
	assert.Contains(t, out, "already been imported")

	out, err = run(t, "jobs", "--database-url", db, "--json")
	require.NoError(t, err)
	var got jobsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Total)
}

func TestImportNeedsDatabase(t *testing.T) {
	_, err := run(t, "import", dataDir(t))
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestSummaryCommandWritesHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "june")
	out, err := run(t, "summary", "--data", dataDir(t), "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Report generated successfully")
	assert.Contains(t, out, "Red flags:   1 jobs lost $150.00")

	html, err := os.ReadFile(path + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Cedar")
	assert.Contains(t, string(html), "Alice Moreno")
}

func TestRedFlagsCommand(t *testing.T) {
	out, err := run(t, "red-flags", "--data", dataDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "J3")
	assert.Contains(t, out, "$150.00")
	assert.NotContains(t, out, "Acme")

	out, err = run(t, "losses", "--data", dataDir(t), "--technician", "t-alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No completed jobs ran at a loss")
}

func TestTechniciansCommand(t *testing.T) {
	out, err := run(t, "technicians", "--data", dataDir(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Alice Moreno")
	assert.Contains(t, out, "Bob Li")
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "--data", dataDir(t), "--json")
	require.NoError(t, err)

	var got importer.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got.OrphanedTransactions)
	assert.Empty(t, got.DuplicateJobIDs)
}

func TestSavedViews(t *testing.T) {
	dir := dataDir(t)
	views := filepath.Join(t.TempDir(), "views.yaml")
	require.NoError(t, os.WriteFile(views, []byte(`
views:
  bob:
    description: Bob's board
    jobs:
      technician: t-bob
    finance:
      technicians: [t-bob]
`), 0o644))

	out, err := run(t, "views", "--views", views)
	require.NoError(t, err)
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "tech=t-bob")
	assert.Contains(t, out, "Bob's board")

	out, err = run(t, "jobs", "--data", dir, "--views", views, "--view", "bob", "--json")
	require.NoError(t, err)
	var got jobsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Total)

	// flags override the view
	out, err = run(t, "jobs", "--data", dir, "--views", views, "--view", "bob", "--technician", "all", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Total)

	_, err = run(t, "jobs", "--data", dir, "--views", views, "--view", "nope")
	assert.ErrorIs(t, err, config.ErrUnknownView)
}

func TestDatesCommand(t *testing.T) {
	out, err := run(t, "dates", "custom", "all", "--from", "2024-06-01", "--to", "2024-06-30", "--timezone", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "custom: 2024-06-01 00:00:00 to 2024-06-30 23:59:59\nall: all dates\n", out)

	_, err = run(t, "dates", "fortnight")
	assert.Error(t, err)
}

func TestCommandsNeedADataSource(t *testing.T) {
	_, err := run(t, "jobs")
	require.ErrorIs(t, err, errNoSource)

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "❌")
	assert.Contains(t, buf.String(), "💡 pass --data")
}

func TestInvalidConfigFails(t *testing.T) {
	_, err := run(t, "jobs", "--timezone", "Mars/Olympus")
	assert.Error(t, err)
}
