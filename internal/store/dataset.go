package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

const fingerprintKey = "fingerprint"

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Save replaces the stored dataset with ds in one transaction
func (s *Store) Save(ctx context.Context, ds *domain.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	t := s.tables
	for _, name := range []string{t.Jobs, t.Transactions, t.Technicians, t.JobSources} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.table(name)); err != nil {
			return errors.Wrapf(err, "failed to clear %s", name)
		}
	}

	for _, tech := range ds.Technicians {
		if err := s.insertTechnician(ctx, tx, tech); err != nil {
			return err
		}
	}
	for _, src := range ds.JobSources {
		if err := s.insertJobSource(ctx, tx, src); err != nil {
			return err
		}
	}
	for i, job := range ds.Jobs {
		if err := s.insertJob(ctx, tx, i, job); err != nil {
			return err
		}
	}
	for i, txn := range ds.Transactions {
		if err := s.insertTransaction(ctx, tx, i, txn); err != nil {
			return err
		}
	}

	if err := s.setMeta(ctx, tx, fingerprintKey, ds.Fingerprint); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Fingerprint returns the fingerprint recorded by the last Save, or "" when
// nothing was saved
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	var value string
	query := `SELECT value FROM ` + s.table(s.tables.Meta) + ` WHERE key = ` + s.dialect.placeholder(1)
	err := s.db.QueryRowContext(ctx, query, fingerprintKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read fingerprint")
	}
	return value, nil
}

// InsertTechnician adds one roster entry
func (s *Store) InsertTechnician(ctx context.Context, t domain.Technician) error {
	if err := s.insertTechnician(ctx, s.db, t); err != nil {
		return err
	}
	return s.clearFingerprint(ctx)
}

// InsertJobSource adds one job source
func (s *Store) InsertJobSource(ctx context.Context, src domain.JobSource) error {
	if err := s.insertJobSource(ctx, s.db, src); err != nil {
		return err
	}
	return s.clearFingerprint(ctx)
}

// InsertJob appends a job after the existing ones
func (s *Store) InsertJob(ctx context.Context, j domain.Job) error {
	pos, err := s.nextPosition(ctx, s.tables.Jobs)
	if err != nil {
		return err
	}
	if err := s.insertJob(ctx, s.db, pos, j); err != nil {
		return err
	}
	return s.clearFingerprint(ctx)
}

// InsertTransaction appends a transaction after the existing ones
func (s *Store) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	pos, err := s.nextPosition(ctx, s.tables.Transactions)
	if err != nil {
		return err
	}
	if err := s.insertTransaction(ctx, s.db, pos, tx); err != nil {
		return err
	}
	return s.clearFingerprint(ctx)
}

// clearFingerprint drops the fingerprint recorded by Save once rows change,
// so Load hashes the current content instead
func (s *Store) clearFingerprint(ctx context.Context) error {
	query := `DELETE FROM ` + s.table(s.tables.Meta) + ` WHERE key = ` + s.dialect.placeholder(1)
	if _, err := s.db.ExecContext(ctx, query, fingerprintKey); err != nil {
		return errors.Wrap(err, "failed to clear fingerprint")
	}
	return nil
}

func (s *Store) nextPosition(ctx context.Context, table string) (int, error) {
	var pos sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM `+s.table(table)).Scan(&pos)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read position from %s", table)
	}
	if !pos.Valid {
		return 0, nil
	}
	return int(pos.Int64) + 1, nil
}

func (s *Store) insertTechnician(ctx context.Context, e execer, t domain.Technician) error {
	query := `INSERT INTO ` + s.table(s.tables.Technicians) +
		` (id, name, email, phone, status, payment_type, payment_rate) VALUES (` + s.dialect.placeholders(1, 7) + `)`
	_, err := e.ExecContext(ctx, query,
		t.ID, t.Name, t.Email, t.Phone, t.Status, t.PaymentType, nullDecimalText(t.PaymentRate))
	if err != nil {
		return errors.Wrapf(err, "failed to insert technician %s", t.ID)
	}
	return nil
}

func (s *Store) insertJobSource(ctx context.Context, e execer, src domain.JobSource) error {
	query := `INSERT INTO ` + s.table(s.tables.JobSources) +
		` (id, name) VALUES (` + s.dialect.placeholders(1, 2) + `)`
	if _, err := e.ExecContext(ctx, query, src.ID, src.Name); err != nil {
		return errors.Wrapf(err, "failed to insert job source %s", src.ID)
	}
	return nil
}

func (s *Store) insertJob(ctx context.Context, e execer, pos int, j domain.Job) error {
	query := `INSERT INTO ` + s.table(s.tables.Jobs) +
		` (position, id, status, scheduled_date, technician_id, job_source_id, customer_name,` +
		` customer_phone, address, job_type, description, amount, payment_method)` +
		` VALUES (` + s.dialect.placeholders(1, 13) + `)`
	_, err := e.ExecContext(ctx, query,
		pos, j.ID, string(j.Status), timeText(j.ScheduledDate), j.TechnicianID, j.JobSourceID,
		j.CustomerName, j.CustomerPhone, j.Address, j.JobType, j.Description,
		j.Amount.String(), j.PaymentMethod)
	if err != nil {
		return errors.Wrapf(err, "failed to insert job %s (position %d)", j.ID, pos)
	}
	return nil
}

func (s *Store) insertTransaction(ctx context.Context, e execer, pos int, tx domain.Transaction) error {
	query := `INSERT INTO ` + s.table(s.tables.Transactions) +
		` (position, id, job_id, amount, kind, technician_id, job_source_id, category,` +
		` payment_method, occurred_at, description)` +
		` VALUES (` + s.dialect.placeholders(1, 11) + `)`

	var amount, occurred sql.NullString
	if tx.Amount != nil {
		amount = sql.NullString{String: tx.Amount.String(), Valid: true}
	}
	if tx.Date != nil {
		occurred = timeText(*tx.Date)
	}

	_, err := e.ExecContext(ctx, query,
		pos, tx.ID, tx.JobID, amount, string(tx.Kind), tx.TechnicianID, tx.JobSourceID,
		tx.Category, tx.PaymentMethod, occurred, tx.Description)
	if err != nil {
		return errors.Wrapf(err, "failed to insert transaction %s (position %d)", tx.ID, pos)
	}
	return nil
}

func (s *Store) setMeta(ctx context.Context, e execer, key, value string) error {
	meta := s.table(s.tables.Meta)
	if _, err := e.ExecContext(ctx, `DELETE FROM `+meta+` WHERE key = `+s.dialect.placeholder(1), key); err != nil {
		return errors.Wrapf(err, "failed to clear %s", key)
	}
	query := `INSERT INTO ` + meta + ` (key, value) VALUES (` + s.dialect.placeholders(1, 2) + `)`
	if _, err := e.ExecContext(ctx, query, key, value); err != nil {
		return errors.Wrapf(err, "failed to record %s", key)
	}
	return nil
}

// Load reads the whole dataset. The fingerprint is the one recorded by Save
// unless rows were inserted since; otherwise it is hashed from the content.
func (s *Store) Load(ctx context.Context) (*domain.Dataset, error) {
	ds := &domain.Dataset{}
	var err error

	if ds.Technicians, err = s.loadTechnicians(ctx); err != nil {
		return nil, err
	}
	if ds.JobSources, err = s.loadJobSources(ctx); err != nil {
		return nil, err
	}
	if ds.Jobs, err = s.loadJobs(ctx); err != nil {
		return nil, err
	}
	if ds.Transactions, err = s.loadTransactions(ctx); err != nil {
		return nil, err
	}

	if ds.Fingerprint, err = s.Fingerprint(ctx); err != nil {
		return nil, err
	}
	if ds.Fingerprint == "" {
		ds.Fingerprint = ContentFingerprint(ds)
	}
	return ds, nil
}

func (s *Store) loadTechnicians(ctx context.Context) ([]domain.Technician, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, phone, status, payment_type, payment_rate FROM `+
		s.table(s.tables.Technicians)+` ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query technicians")
	}
	defer rows.Close()

	techs := make([]domain.Technician, 0)
	for rows.Next() {
		var t domain.Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.Status, &t.PaymentType, &t.PaymentRate); err != nil {
			return nil, errors.Wrap(err, "failed to scan technician")
		}
		techs = append(techs, t)
	}
	return techs, errors.Wrap(rows.Err(), "failed to read technicians")
}

func (s *Store) loadJobSources(ctx context.Context) ([]domain.JobSource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM `+s.table(s.tables.JobSources)+` ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query job sources")
	}
	defer rows.Close()

	sources := make([]domain.JobSource, 0)
	for rows.Next() {
		var src domain.JobSource
		if err := rows.Scan(&src.ID, &src.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan job source")
		}
		sources = append(sources, src)
	}
	return sources, errors.Wrap(rows.Err(), "failed to read job sources")
}

func (s *Store) loadJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, status, scheduled_date, technician_id, job_source_id,`+
		` customer_name, customer_phone, address, job_type, description, amount, payment_method FROM `+
		s.table(s.tables.Jobs)+` ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query jobs")
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0)
	for rows.Next() {
		var (
			j         domain.Job
			status    string
			scheduled sql.NullString
		)
		if err := rows.Scan(&j.ID, &status, &scheduled, &j.TechnicianID, &j.JobSourceID,
			&j.CustomerName, &j.CustomerPhone, &j.Address, &j.JobType, &j.Description,
			&j.Amount, &j.PaymentMethod); err != nil {
			return nil, errors.Wrap(err, "failed to scan job")
		}

		if j.Status, err = domain.ParseStatus(status); err != nil {
			return nil, errors.Wrapf(err, "job %s", j.ID)
		}
		if scheduled.Valid {
			t, err := parseTime(scheduled.String)
			if err != nil {
				return nil, errors.Wrapf(err, "job %s scheduled date", j.ID)
			}
			j.ScheduledDate = t
		}
		jobs = append(jobs, j)
	}
	return jobs, errors.Wrap(rows.Err(), "failed to read jobs")
}

func (s *Store) loadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, job_id, amount, kind, technician_id, job_source_id,`+
		` category, payment_method, occurred_at, description FROM `+
		s.table(s.tables.Transactions)+` ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query transactions")
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			tx       domain.Transaction
			kind     string
			amount   decimal.NullDecimal
			occurred sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.JobID, &amount, &kind, &tx.TechnicianID, &tx.JobSourceID,
			&tx.Category, &tx.PaymentMethod, &occurred, &tx.Description); err != nil {
			return nil, errors.Wrap(err, "failed to scan transaction")
		}

		tx.Kind = domain.TransactionKind(kind)
		if amount.Valid {
			tx.Amount = &amount.Decimal
		}
		// an unreadable date is left nil and reported as skipped downstream
		if occurred.Valid {
			if t, err := parseTime(occurred.String); err == nil {
				tx.Date = &t
			}
		}
		txs = append(txs, tx)
	}
	return txs, errors.Wrap(rows.Err(), "failed to read transactions")
}

// ContentFingerprint hashes every row of ds in order
func ContentFingerprint(ds *domain.Dataset) string {
	h := sha256.New()
	for _, t := range ds.Technicians {
		fmt.Fprintf(h, "T|%s|%s|%s|%s|%s|%s|%s\n", t.ID, t.Name, t.Email, t.Phone, t.Status, t.PaymentType, nullDecimalText(t.PaymentRate).String)
	}
	for _, src := range ds.JobSources {
		fmt.Fprintf(h, "S|%s|%s\n", src.ID, src.Name)
	}
	for _, j := range ds.Jobs {
		fmt.Fprintf(h, "J|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n", j.ID, j.Status, timeText(j.ScheduledDate).String,
			j.TechnicianID, j.JobSourceID, j.CustomerName, j.CustomerPhone, j.Address, j.JobType,
			j.Description, j.Amount.String(), j.PaymentMethod)
	}
	for _, tx := range ds.Transactions {
		amount, date := "", ""
		if tx.Amount != nil {
			amount = tx.Amount.String()
		}
		if tx.Date != nil {
			date = timeText(*tx.Date).String
		}
		fmt.Fprintf(h, "X|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n", tx.ID, tx.JobID, amount, tx.Kind,
			tx.TechnicianID, tx.JobSourceID, tx.Category, tx.PaymentMethod, date, tx.Description)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Times are stored as RFC 3339 text so both drivers read them the same way

func timeText(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid stored time %q", s)
	}
	return t, nil
}

func nullDecimalText(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}
