package parser

import "github.com/datsun80zx/fieldboard.git/internal/domain"

// JobRow is a parsed row of jobs.csv.
//
// Exports may name the technician and job source instead of carrying their
// ids; the importer resolves names against the roster.
type JobRow struct {
	domain.Job

	TechnicianName string
	JobSourceName  string
}

// TransactionRow is a parsed row of transactions.csv. Amount and Date stay
// nil when the cell is blank or unreadable.
type TransactionRow struct {
	domain.Transaction

	TechnicianName string
	JobSourceName  string
}
