package parser

import (
	"fmt"
	"io"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// Parser defines the interface for parsing dashboard export files
type Parser interface {
	ParseJobs(r io.Reader) ([]JobRow, error)
	ParseTransactions(r io.Reader) ([]TransactionRow, error)
	ParseTechnicians(r io.Reader) ([]domain.Technician, error)
	ParseJobSources(r io.Reader) ([]domain.JobSource, error)
}

// ValidationError represents a parsing error with context
type ValidationError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d, column %s: failed to parse '%s': %v",
		e.Row, e.Column, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
