package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every job status in tab order
var Statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

// ErrInvalidStatus is returned for status strings outside the known set
var ErrInvalidStatus = errors.New("invalid job status")

// ParseStatus normalizes a status string from an export or a flag
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if normalized == "canceled" {
		normalized = string(StatusCancelled)
	}
	for _, st := range Statuses {
		if string(st) == normalized {
			return st, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
}

// Job is a field-service job. The engine only ever reads jobs.
type Job struct {
	ID            string
	Status        Status
	ScheduledDate time.Time
	TechnicianID  string
	JobSourceID   string

	// Customer / search-relevant text
	CustomerName  string
	CustomerPhone string
	Address       string
	JobType       string
	Description   string

	Amount        decimal.Decimal
	PaymentMethod string
}

// Technician status values accepted in a roster
const (
	TechnicianActive   = "active"
	TechnicianInactive = "inactive"
	TechnicianOnLeave  = "onLeave"
)

// Technician is a member of the field roster
type Technician struct {
	ID          string              `validate:"required"`
	Name        string              `validate:"required,min=2"`
	Email       string              `validate:"omitempty,email"`
	Phone       string              `validate:"omitempty,phone"`
	Status      string              `validate:"omitempty,oneof=active inactive onLeave"`
	PaymentType string              `validate:"omitempty,oneof=percentage flat hourly"`
	PaymentRate decimal.NullDecimal `validate:"omitempty,gte=0"`
}

// Active reports whether the technician is working; an empty status counts as active
func (t Technician) Active() bool {
	return t.Status == "" || t.Status == TechnicianActive
}

// JobSource is a lead channel (referral, ads, home warranty, ...)
type JobSource struct {
	ID   string
	Name string
}

// TransactionKind tags a transaction explicitly as revenue or expense
type TransactionKind string

const (
	KindUnspecified TransactionKind = ""
	KindRevenue     TransactionKind = "revenue"
	KindExpense     TransactionKind = "expense"
)

// Transaction is a single money movement, optionally tied to a job.
// Amount and Date are nil when the source record lacked them.
type Transaction struct {
	ID            string
	JobID         string
	Amount        *decimal.Decimal
	Kind          TransactionKind
	TechnicianID  string
	JobSourceID   string
	Category      string
	PaymentMethod string
	Date          *time.Time
	Description   string
}

// Dataset is one snapshot of the externally owned collections.
// Fingerprint identifies the snapshot's content; empty means unknown.
type Dataset struct {
	Jobs         []Job
	Transactions []Transaction
	Technicians  []Technician
	JobSources   []JobSource
	Fingerprint  string
}
