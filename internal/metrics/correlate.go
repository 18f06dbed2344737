package metrics

import (
	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// EnrichedTransaction is a transaction with its technician and job source
// display names attached.
type EnrichedTransaction struct {
	domain.Transaction

	TechnicianName string
	JobSourceName  string

	// Set when a non-empty foreign key does not resolve. An empty key means
	// "unassigned" and is not orphaned.
	TechnicianOrphaned bool
	JobSourceOrphaned  bool
}

// Orphaned reports whether any foreign key failed to resolve
func (e EnrichedTransaction) Orphaned() bool {
	return e.TechnicianOrphaned || e.JobSourceOrphaned
}

// hasTechnician reports whether the transaction belongs in the technician breakdown
func (e EnrichedTransaction) hasTechnician() bool {
	return e.TechnicianID != "" && !e.TechnicianOrphaned
}

// hasJobSource reports whether the transaction belongs in the job source breakdown
func (e EnrichedTransaction) hasJobSource() bool {
	return e.JobSourceID != "" && !e.JobSourceOrphaned
}

// Correlate attaches technician and job source names to each transaction.
// Unresolvable references are kept and flagged, never dropped.
func Correlate(txs []domain.Transaction, technicians []domain.Technician, sources []domain.JobSource) []EnrichedTransaction {
	// Build lookup maps once
	techNames := make(map[string]string, len(technicians))
	for _, t := range technicians {
		techNames[t.ID] = t.Name
	}
	sourceNames := make(map[string]string, len(sources))
	for _, s := range sources {
		sourceNames[s.ID] = s.Name
	}

	out := make([]EnrichedTransaction, len(txs))
	for i, tx := range txs {
		e := EnrichedTransaction{Transaction: tx}

		if tx.TechnicianID != "" {
			name, ok := techNames[tx.TechnicianID]
			e.TechnicianName = name
			e.TechnicianOrphaned = !ok
		}
		if tx.JobSourceID != "" {
			name, ok := sourceNames[tx.JobSourceID]
			e.JobSourceName = name
			e.JobSourceOrphaned = !ok
		}

		out[i] = e
	}

	return out
}
