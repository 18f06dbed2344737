package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

func TestValidateTechnician(t *testing.T) {
	tests := []struct {
		name    string
		tech    domain.Technician
		wantErr bool
	}{
		{name: "minimal", tech: domain.Technician{ID: "t1", Name: "Al"}},
		{name: "full", tech: domain.Technician{
			ID: "t1", Name: "Alice", Email: "a@example.com", Phone: "(555) 010-0100",
			Status: domain.TechnicianOnLeave, PaymentType: "hourly",
			PaymentRate: decimal.NewNullDecimal(decimal.NewFromInt(45)),
		}},
		{name: "short name", tech: domain.Technician{ID: "t1", Name: "A"}, wantErr: true},
		{name: "bad email", tech: domain.Technician{ID: "t1", Name: "Alice", Email: "alice"}, wantErr: true},
		{name: "short phone", tech: domain.Technician{ID: "t1", Name: "Alice", Phone: "555-0100"}, wantErr: true},
		{name: "bad status", tech: domain.Technician{ID: "t1", Name: "Alice", Status: "retired"}, wantErr: true},
		{name: "bad payment type", tech: domain.Technician{ID: "t1", Name: "Alice", PaymentType: "barter"}, wantErr: true},
		{name: "negative rate", tech: domain.Technician{
			ID: "t1", Name: "Alice", PaymentRate: decimal.NewNullDecimal(decimal.NewFromInt(-1)),
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTechnician(tt.tech)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDataset(t *testing.T) {
	amount := decimal.NewFromInt(10)
	ds := &domain.Dataset{
		Technicians: []domain.Technician{{ID: "t1", Name: "Alice"}, {ID: "t2", Name: "B"}},
		JobSources:  []domain.JobSource{{ID: "s1", Name: "Google"}},
		Jobs: []domain.Job{
			{ID: "J1", TechnicianID: "t1"},
			{ID: "J1", TechnicianID: "t1"},
			{ID: "J2"},
		},
		Transactions: []domain.Transaction{
			{ID: "X1", Amount: &amount, TechnicianID: "t1", JobSourceID: "s1"},
			{ID: "X2", Amount: &amount, TechnicianID: "ghost"},
			{ID: "X2", Amount: &amount, JobSourceID: "nowhere"},
			{ID: "X3"},
		},
	}

	result := ValidateDataset(ds)

	assert.Equal(t, []string{"X2", "X2"}, result.OrphanedTransactions)
	assert.Equal(t, []string{"J2"}, result.JobsWithoutTechnician)
	assert.Equal(t, []string{"J1"}, result.DuplicateJobIDs)
	assert.Equal(t, []string{"X2"}, result.DuplicateTransactionIDs)
	assert.Equal(t, []string{"t2"}, result.InvalidTechnicians)
	require.True(t, result.HasIssues())
	assert.Contains(t, result.Warnings[0], "name min=2")
}

func TestValidateCleanDataset(t *testing.T) {
	result := ValidateDataset(&domain.Dataset{
		Technicians: []domain.Technician{{ID: "t1", Name: "Alice"}},
		Jobs:        []domain.Job{{ID: "J1", TechnicianID: "t1"}},
	})
	assert.False(t, result.HasIssues())
	assert.Empty(t, result.OrphanedTransactions)
}
