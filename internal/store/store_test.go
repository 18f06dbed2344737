package store

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

func openTemp(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fieldboard.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleDataset() *domain.Dataset {
	amount := decimal.RequireFromString("125.50")
	refund := decimal.RequireFromString("-40")
	on := time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC)
	return &domain.Dataset{
		Fingerprint: "abc123",
		Technicians: []domain.Technician{
			{ID: "t2", Name: "Bob", PaymentRate: decimal.NewNullDecimal(decimal.NewFromInt(30))},
			{ID: "t1", Name: "Alice", Email: "alice@example.com", Status: domain.TechnicianActive},
		},
		JobSources: []domain.JobSource{{ID: "s1", Name: "Google Ads"}},
		Jobs: []domain.Job{
			{ID: "J2", Status: domain.StatusCompleted, ScheduledDate: on, TechnicianID: "t1", Amount: amount, CustomerName: "Acme"},
			{ID: "J1", Status: domain.StatusScheduled, TechnicianID: "t2"},
		},
		Transactions: []domain.Transaction{
			{ID: "X1", JobID: "J2", Amount: &amount, Kind: domain.KindRevenue, TechnicianID: "t1", JobSourceID: "s1", Date: &on},
			{ID: "X2", Amount: &refund, Category: "Parts", Date: &on},
			{ID: "X3", TechnicianID: "t2"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	in := sampleDataset()

	require.NoError(t, s.Save(ctx, in))
	out, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "abc123", out.Fingerprint)

	// rosters come back ordered by name
	require.Len(t, out.Technicians, 2)
	assert.Equal(t, "Alice", out.Technicians[0].Name)
	assert.Equal(t, "alice@example.com", out.Technicians[0].Email)
	assert.False(t, out.Technicians[0].PaymentRate.Valid)
	require.True(t, out.Technicians[1].PaymentRate.Valid)
	assert.True(t, decimal.NewFromInt(30).Equal(out.Technicians[1].PaymentRate.Decimal))

	// jobs and transactions keep source order
	require.Len(t, out.Jobs, 2)
	assert.Equal(t, "J2", out.Jobs[0].ID)
	assert.Equal(t, domain.StatusCompleted, out.Jobs[0].Status)
	assert.True(t, in.Jobs[0].ScheduledDate.Equal(out.Jobs[0].ScheduledDate))
	assert.True(t, decimal.RequireFromString("125.5").Equal(out.Jobs[0].Amount))
	assert.True(t, out.Jobs[1].ScheduledDate.IsZero())

	require.Len(t, out.Transactions, 3)
	assert.Equal(t, domain.KindRevenue, out.Transactions[0].Kind)
	require.NotNil(t, out.Transactions[1].Amount)
	assert.True(t, decimal.NewFromInt(-40).Equal(*out.Transactions[1].Amount))
	assert.Equal(t, "Parts", out.Transactions[1].Category)
	assert.Nil(t, out.Transactions[2].Amount)
	assert.Nil(t, out.Transactions[2].Date)
}

func TestSaveReplacesPreviousDataset(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Save(ctx, sampleDataset()))
	require.NoError(t, s.Save(ctx, &domain.Dataset{
		Fingerprint: "next",
		Jobs:        []domain.Job{{ID: "J9", Status: domain.StatusCancelled}},
	}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", out.Fingerprint)
	assert.Len(t, out.Jobs, 1)
	assert.Empty(t, out.Transactions)
	assert.Empty(t, out.Technicians)
}

func TestInsertHelpersAndContentFingerprint(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, WithTablePrefix("fb_"))

	fp, err := s.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Empty(t, fp)

	require.NoError(t, s.InsertTechnician(ctx, domain.Technician{ID: "t1", Name: "Alice"}))
	require.NoError(t, s.InsertJobSource(ctx, domain.JobSource{ID: "s1", Name: "Yelp"}))
	require.NoError(t, s.InsertJob(ctx, domain.Job{ID: "A", Status: domain.StatusCompleted}))
	require.NoError(t, s.InsertJob(ctx, domain.Job{ID: "B", Status: domain.StatusInProgress}))
	require.NoError(t, s.InsertTransaction(ctx, domain.Transaction{ID: "X"}))

	first, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, []string{first.Jobs[0].ID, first.Jobs[1].ID})
	assert.Equal(t, ContentFingerprint(first), first.Fingerprint)

	require.NoError(t, s.InsertJob(ctx, domain.Job{ID: "C", Status: domain.StatusScheduled}))
	second, err := s.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
}

func TestInsertAfterSaveDropsRecordedFingerprint(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Save(ctx, sampleDataset()))
	saved, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc123", saved.Fingerprint)

	require.NoError(t, s.InsertJob(ctx, domain.Job{ID: "J3", Status: domain.StatusScheduled}))

	fp, err := s.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Empty(t, fp)

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, out.Jobs, len(saved.Jobs)+1)
	assert.NotEqual(t, "abc123", out.Fingerprint)
	assert.Equal(t, ContentFingerprint(out), out.Fingerprint)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open("mysql://localhost/fieldboard")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDSN)
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, err = Open("  ")
	assert.ErrorIs(t, err, ErrUnsupportedDSN)
}

func TestResolveDSN(t *testing.T) {
	driver, source, dialect, err := resolveDSN("postgres://user@localhost/fieldboard?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, Postgres, dialect)
	assert.Equal(t, "postgres://user@localhost/fieldboard?sslmode=disable", source)

	driver, source, dialect, err = resolveDSN("data/fieldboard.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, SQLite, dialect)
	assert.Equal(t, "file:data/fieldboard.db?_pragma=foreign_keys(1)", source)

	_, source, _, err = resolveDSN("file:x.db?cache=shared")
	require.NoError(t, err)
	assert.Equal(t, "file:x.db?cache=shared&_pragma=foreign_keys(1)", source)
}

func TestPostgresPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", Postgres.placeholders(1, 3))
	assert.Equal(t, "?, ?", SQLite.placeholders(1, 2))
}

func TestSaveRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, Postgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "jobs"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "transactions"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "technicians"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "job_sources"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "technicians"`)).
		WithArgs("t1", "Alice", "", "", "", "", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = s.Save(context.Background(), &domain.Dataset{
		Technicians: []domain.Technician{{ID: "t1", Name: "Alice"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert technician t1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFingerprintQueryUsesDialect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, Postgres)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "dataset_meta" WHERE key = $1`)).
		WithArgs(fingerprintKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("deadbeef"))

	fp, err := s.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", fp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRejectsUnknownStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db, SQLite)
	mock.ExpectQuery(`SELECT id, name, email`).WillReturnRows(sqlmock.NewRows(
		[]string{"id", "name", "email", "phone", "status", "payment_type", "payment_rate"}))
	mock.ExpectQuery(`SELECT id, name FROM`).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`SELECT id, status`).WillReturnRows(sqlmock.NewRows([]string{
		"id", "status", "scheduled_date", "technician_id", "job_source_id", "customer_name",
		"customer_phone", "address", "job_type", "description", "amount", "payment_method",
	}).AddRow("J1", "paused", nil, "", "", "", "", "", "", "", "0", ""))

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
