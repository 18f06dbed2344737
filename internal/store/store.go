// Package store keeps datasets in SQL. Postgres is reached through lib/pq,
// anything else is treated as a SQLite database file.
package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedDSN is returned for URLs naming a database we cannot open
var ErrUnsupportedDSN = errors.New("unsupported database url")

// Dialect selects placeholder syntax
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) placeholders(from, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

// Tables names the tables a store reads and writes
type Tables struct {
	Jobs         string
	Transactions string
	Technicians  string
	JobSources   string
	Meta         string
}

// DefaultTables returns the standard table names with an optional prefix
func DefaultTables(prefix string) Tables {
	return Tables{
		Jobs:         prefix + "jobs",
		Transactions: prefix + "transactions",
		Technicians:  prefix + "technicians",
		JobSources:   prefix + "job_sources",
		Meta:         prefix + "dataset_meta",
	}
}

// Store reads and writes one dataset
type Store struct {
	db      *sql.DB
	dialect Dialect
	tables  Tables
}

// Option configures a Store
type Option func(*Store)

// WithTablePrefix prefixes every table name
func WithTablePrefix(prefix string) Option {
	return func(s *Store) {
		s.tables = DefaultTables(prefix)
	}
}

// Open connects to dsn. postgres:// and postgresql:// URLs use lib/pq; a
// plain path or file: URL opens SQLite with foreign keys on.
func Open(dsn string, opts ...Option) (*Store, error) {
	driver, source, dialect, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	if dialect == SQLite {
		// SQLite allows one writer; a single connection avoids "database is locked"
		conn.SetMaxOpenConns(1)
	}

	return New(conn, dialect, opts...), nil
}

// New wraps an open connection
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect, tables: DefaultTables("")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func resolveDSN(dsn string) (driver, source string, dialect Dialect, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", 0, errors.WithHint(
			errors.Wrap(ErrUnsupportedDSN, "empty database url"),
			"set --database-url or FIELDBOARD_DATABASE_URL",
		)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, Postgres, nil
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite", withForeignKeys(dsn), SQLite, nil
	case strings.Contains(dsn, "://"):
		scheme := dsn[:strings.Index(dsn, "://")]
		return "", "", 0, errors.WithHint(
			errors.Wrapf(ErrUnsupportedDSN, "scheme %q", scheme),
			"use a postgres:// url or a SQLite file path",
		)
	default:
		return "sqlite", withForeignKeys("file:" + dsn), SQLite, nil
	}
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the connection for seeding and inspection
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) table(name string) string {
	return pq.QuoteIdentifier(name)
}

// Migrate creates the tables when they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	t := s.tables
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table(t.Technicians) + ` (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			payment_type TEXT NOT NULL DEFAULT '',
			payment_rate TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.table(t.JobSources) + ` (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.table(t.Jobs) + ` (
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			status TEXT NOT NULL,
			scheduled_date TEXT,
			technician_id TEXT NOT NULL DEFAULT '',
			job_source_id TEXT NOT NULL DEFAULT '',
			customer_name TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			job_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL DEFAULT '0',
			payment_method TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.table(t.Transactions) + ` (
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			job_id TEXT NOT NULL DEFAULT '',
			amount TEXT,
			kind TEXT NOT NULL DEFAULT '',
			technician_id TEXT NOT NULL DEFAULT '',
			job_source_id TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			occurred_at TEXT,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.table(t.Meta) + ` (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}
