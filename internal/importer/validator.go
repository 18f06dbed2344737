package importer

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// ValidationResult contains data quality findings for a dataset. None of
// them stop the dashboard from loading.
type ValidationResult struct {
	OrphanedTransactions    []string
	JobsWithoutTechnician   []string
	DuplicateJobIDs         []string
	DuplicateTransactionIDs []string
	InvalidTechnicians      []string
	Warnings                []string
}

// HasIssues reports whether any finding was recorded
func (r *ValidationResult) HasIssues() bool {
	return len(r.Warnings) > 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", validatePhone)
	v.RegisterCustomTypeFunc(nullDecimalValue, decimal.NullDecimal{})
	return v
}

// validatePhone requires at least ten digits, ignoring punctuation
func validatePhone(fl validator.FieldLevel) bool {
	digits := 0
	for _, r := range fl.Field().String() {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}

// nullDecimalValue lets numeric rules apply to optional decimals; an unset
// value reads as nil so omitempty skips it
func nullDecimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.NullDecimal); ok && d.Valid {
		return d.Decimal.InexactFloat64()
	}
	return nil
}

// ValidateTechnician checks one roster entry
func ValidateTechnician(t domain.Technician) error {
	return validate.Struct(t)
}

// ValidateDataset checks referential integrity and roster rules
func ValidateDataset(ds *domain.Dataset) *ValidationResult {
	result := &ValidationResult{
		OrphanedTransactions:    make([]string, 0),
		JobsWithoutTechnician:   make([]string, 0),
		DuplicateJobIDs:         make([]string, 0),
		DuplicateTransactionIDs: make([]string, 0),
		InvalidTechnicians:      make([]string, 0),
		Warnings:                make([]string, 0),
	}

	techIDs := make(map[string]struct{}, len(ds.Technicians))
	for _, t := range ds.Technicians {
		techIDs[t.ID] = struct{}{}
		if err := ValidateTechnician(t); err != nil {
			result.InvalidTechnicians = append(result.InvalidTechnicians, t.ID)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Technician %s (%s): %s", t.ID, t.Name, describe(err)))
		}
	}
	sourceIDs := make(map[string]struct{}, len(ds.JobSources))
	for _, s := range ds.JobSources {
		sourceIDs[s.ID] = struct{}{}
	}

	seenJobs := make(map[string]struct{}, len(ds.Jobs))
	for _, j := range ds.Jobs {
		if _, dup := seenJobs[j.ID]; dup {
			result.DuplicateJobIDs = append(result.DuplicateJobIDs, j.ID)
		}
		seenJobs[j.ID] = struct{}{}
		if j.TechnicianID == "" {
			result.JobsWithoutTechnician = append(result.JobsWithoutTechnician, j.ID)
		}
	}

	seenTxs := make(map[string]struct{}, len(ds.Transactions))
	for _, tx := range ds.Transactions {
		if _, dup := seenTxs[tx.ID]; dup {
			result.DuplicateTransactionIDs = append(result.DuplicateTransactionIDs, tx.ID)
		}
		seenTxs[tx.ID] = struct{}{}

		if missing(techIDs, tx.TechnicianID) || missing(sourceIDs, tx.JobSourceID) {
			result.OrphanedTransactions = append(result.OrphanedTransactions, tx.ID)
		}
	}

	if n := len(result.OrphanedTransactions); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d transactions referencing unknown technicians or job sources", n))
	}
	if n := len(result.JobsWithoutTechnician); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d jobs without an assigned technician", n))
	}
	if n := len(result.DuplicateJobIDs); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d duplicate job ids", n))
	}
	if n := len(result.DuplicateTransactionIDs); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d duplicate transaction ids", n))
	}

	return result
}

// missing reports a non-empty key that is absent from set
func missing(set map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	_, ok := set[key]
	return !ok
}

// describe flattens validator errors into "field rule" pairs
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		part := strings.ToLower(fe.Field()) + " " + fe.Tag()
		if fe.Param() != "" {
			part += "=" + fe.Param()
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
