package parser

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// transactionNamespace seeds ids for transaction rows that have none
var transactionNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("fieldboard/transactions"))

var _ Parser = (*CSVParser)(nil)

// CSVParser reads comma-separated exports with a header row
type CSVParser struct {
	TrimWhitespace bool
	SkipEmptyRows  bool

	// Location applies to dates without a zone
	Location *time.Location
}

func NewCSVParser() *CSVParser {
	return &CSVParser{
		TrimWhitespace: true,
		SkipEmptyRows:  true,
		Location:       time.UTC,
	}
}

// readRecords reads the whole file and maps its header row
func (p *CSVParser) readRecords(r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = p.TrimWhitespace
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read CSV")
	}

	if len(records) == 0 {
		return nil, nil, errors.New("CSV file is empty")
	}

	return records[1:], buildColumnMap(records[0]), nil
}

// rows yields data records with their 1-based file row number
func (p *CSVParser) rows(records [][]string, fn func(record []string, rowNum int) error) error {
	for i, record := range records {
		if p.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		if err := fn(record, i+2); err != nil {
			return err
		}
	}
	return nil
}

// ParseJobs reads a jobs CSV and returns parsed rows
func (p *CSVParser) ParseJobs(r io.Reader) ([]JobRow, error) {
	records, colMap, err := p.readRecords(r)
	if err != nil {
		return nil, err
	}

	jobs := make([]JobRow, 0, len(records))
	err = p.rows(records, func(record []string, rowNum int) error {
		job, err := p.parseJobRow(record, colMap, rowNum)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// ParseTransactions reads a transactions CSV. Rows with unreadable amounts
// or dates are kept with nil fields; aggregation reports them as skipped.
func (p *CSVParser) ParseTransactions(r io.Reader) ([]TransactionRow, error) {
	records, colMap, err := p.readRecords(r)
	if err != nil {
		return nil, err
	}

	txs := make([]TransactionRow, 0, len(records))
	err = p.rows(records, func(record []string, rowNum int) error {
		txs = append(txs, p.parseTransactionRow(record, colMap, rowNum))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// ParseTechnicians reads a technician roster CSV
func (p *CSVParser) ParseTechnicians(r io.Reader) ([]domain.Technician, error) {
	records, colMap, err := p.readRecords(r)
	if err != nil {
		return nil, err
	}

	technicians := make([]domain.Technician, 0, len(records))
	err = p.rows(records, func(record []string, rowNum int) error {
		tech, err := p.parseTechnicianRow(record, colMap, rowNum)
		if err != nil {
			return err
		}
		technicians = append(technicians, tech)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return technicians, nil
}

// ParseJobSources reads a job source CSV
func (p *CSVParser) ParseJobSources(r io.Reader) ([]domain.JobSource, error) {
	records, colMap, err := p.readRecords(r)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.JobSource, 0, len(records))
	err = p.rows(records, func(record []string, rowNum int) error {
		id, err := parseRequiredString(getField(record, colMap, "id", "job source id", "source id"), rowNum, "ID")
		if err != nil {
			return err
		}
		name := getField(record, colMap, "name", "job source", "source")
		if name == "" {
			name = id
		}
		sources = append(sources, domain.JobSource{ID: id, Name: name})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sources, nil
}

// buildColumnMap creates a case-insensitive map of column name → index
func buildColumnMap(headers []string) map[string]int {
	m := make(map[string]int)
	for i, header := range headers {
		normalized := strings.ToLower(strings.TrimSpace(header))
		normalized = strings.TrimPrefix(normalized, "\ufeff")
		if _, exists := m[normalized]; !exists {
			m[normalized] = i
		}
	}
	return m
}

// parseJobRow converts a CSV row into a JobRow struct
func (p *CSVParser) parseJobRow(record []string, colMap map[string]int, rowNum int) (JobRow, error) {
	var job JobRow
	var err error

	// Required fields
	job.ID, err = parseRequiredString(getField(record, colMap, "job id", "id", "job #"), rowNum, "Job ID")
	if err != nil {
		return job, err
	}

	statusStr, err := parseRequiredString(getField(record, colMap, "status"), rowNum, "Status")
	if err != nil {
		return job, err
	}
	job.Status, err = domain.ParseStatus(statusStr)
	if err != nil {
		return job, &ValidationError{Row: rowNum, Column: "Status", Value: statusStr, Err: err}
	}

	// Scheduling
	if dateStr := getField(record, colMap, "scheduled date", "date"); dateStr != "" {
		scheduled, ok := ParseDate(dateStr, p.Location)
		if !ok {
			return job, &ValidationError{Row: rowNum, Column: "Scheduled Date", Value: dateStr, Err: errors.New("invalid date format")}
		}
		job.ScheduledDate = scheduled
	}

	// People
	job.TechnicianID = getField(record, colMap, "technician id")
	job.TechnicianName = getField(record, colMap, "technician", "primary technician")
	job.JobSourceID = getField(record, colMap, "job source id")
	job.JobSourceName = getField(record, colMap, "job source", "campaign category")

	// Customer info
	job.CustomerName = getField(record, colMap, "customer name", "customer")
	job.CustomerPhone = getField(record, colMap, "customer phone", "phone")
	job.Address = getField(record, colMap, "address", "service address")

	// Job details
	job.JobType = getField(record, colMap, "job type")
	job.Description = getField(record, colMap, "description", "summary")
	job.PaymentMethod = getField(record, colMap, "payment method")

	// Revenue: a blank amount is a zero dollar job
	if amountStr := getField(record, colMap, "amount", "jobs total", "jobs subtotal"); amountStr != "" {
		job.Amount, err = parseDecimal(amountStr, rowNum, "Amount")
		if err != nil {
			return job, err
		}
	} else {
		job.Amount = decimal.Zero
	}

	return job, nil
}

// parseTransactionRow converts a CSV row into a TransactionRow. It never
// fails: unreadable values become nil and the row is reported downstream.
func (p *CSVParser) parseTransactionRow(record []string, colMap map[string]int, rowNum int) TransactionRow {
	var tx TransactionRow

	tx.ID = getField(record, colMap, "transaction id", "id")
	if tx.ID == "" {
		tx.ID = syntheticID(record, rowNum)
	}

	tx.JobID = getField(record, colMap, "job id", "job #")
	tx.Amount = parseNullableDecimal(getField(record, colMap, "amount", "total"))
	tx.Kind = parseKind(getField(record, colMap, "type", "kind"))
	tx.Date = parseNullableDate(getField(record, colMap, "date", "transaction date"), p.Location)

	tx.TechnicianID = getField(record, colMap, "technician id")
	tx.TechnicianName = getField(record, colMap, "technician")
	tx.JobSourceID = getField(record, colMap, "job source id")
	tx.JobSourceName = getField(record, colMap, "job source")

	tx.Category = getField(record, colMap, "category")
	tx.PaymentMethod = getField(record, colMap, "payment method")
	tx.Description = getField(record, colMap, "description", "memo")

	return tx
}

// parseTechnicianRow converts a CSV row into a roster entry
func (p *CSVParser) parseTechnicianRow(record []string, colMap map[string]int, rowNum int) (domain.Technician, error) {
	var tech domain.Technician
	var err error

	tech.ID, err = parseRequiredString(getField(record, colMap, "id", "technician id"), rowNum, "ID")
	if err != nil {
		return tech, err
	}
	tech.Name, err = parseRequiredString(getField(record, colMap, "name", "technician"), rowNum, "Name")
	if err != nil {
		return tech, err
	}

	tech.Email = getField(record, colMap, "email")
	tech.Phone = getField(record, colMap, "phone")
	tech.Status = getField(record, colMap, "status")
	tech.PaymentType = getField(record, colMap, "payment type")

	if rate := getField(record, colMap, "payment rate"); rate != "" {
		parsed, err := parseDecimal(strings.TrimSuffix(rate, "%"), rowNum, "Payment Rate")
		if err != nil {
			return tech, err
		}
		tech.PaymentRate = decimal.NewNullDecimal(parsed)
	}

	return tech, nil
}

// syntheticID derives a stable id from the row so reloading the same file
// yields the same ids
func syntheticID(record []string, rowNum int) string {
	key := strconv.Itoa(rowNum) + "|" + strings.Join(record, "|")
	return uuid.NewSHA1(transactionNamespace, []byte(key)).String()
}

// getField safely retrieves a field from a CSV row by the first column name present
func getField(record []string, colMap map[string]int, columnNames ...string) string {
	for _, name := range columnNames {
		idx, ok := colMap[strings.ToLower(name)]
		if !ok || idx >= len(record) {
			continue
		}
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
