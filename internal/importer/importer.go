package importer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/parser"
)

// File names expected in a data directory
const (
	JobsFile         = "jobs.csv"
	TransactionsFile = "transactions.csv"
	TechniciansFile  = "technicians.csv"
	JobSourcesFile   = "job_sources.csv"
)

// ErrMissingFile is returned when a required export is absent
var ErrMissingFile = errors.New("required file not found")

// Sink persists a loaded dataset
type Sink interface {
	Save(ctx context.Context, ds *domain.Dataset) error
	Fingerprint(ctx context.Context) (string, error)
}

// Importer turns a directory of CSV exports into a Dataset
type Importer struct {
	parser parser.Parser
}

// NewImporter creates a new importer instance. Dates without a zone are read in loc.
func NewImporter(loc *time.Location) *Importer {
	p := parser.NewCSVParser()
	if loc != nil {
		p.Location = loc
	}
	return &Importer{parser: p}
}

// NewImporterWithParser creates an importer reading files with p
func NewImporterWithParser(p parser.Parser) *Importer {
	return &Importer{parser: p}
}

// ImportResult contains the results of a load
type ImportResult struct {
	Dataset              *domain.Dataset
	FileHashes           map[string]string
	JobsImported         int
	TransactionsImported int
	TechniciansDerived   int
	JobSourcesDerived    int
	ValidationResult     *ValidationResult
	Duration             time.Duration
	AlreadyImported      bool
}

// LoadDir reads jobs.csv and transactions.csv plus the optional roster files
// from dir. Missing rosters are derived from the names on job and
// transaction rows.
func (i *Importer) LoadDir(dir string) (*ImportResult, error) {
	startTime := time.Now()

	jobsPath := filepath.Join(dir, JobsFile)
	txPath := filepath.Join(dir, TransactionsFile)
	techPath := filepath.Join(dir, TechniciansFile)
	sourcesPath := filepath.Join(dir, JobSourcesFile)

	for _, required := range []string{jobsPath, txPath} {
		if !fileExists(required) {
			return nil, errors.WithHint(
				errors.Wrapf(ErrMissingFile, "%s", required),
				"the data directory needs jobs.csv and transactions.csv",
			)
		}
	}
	hasTechs := fileExists(techPath)
	hasSources := fileExists(sourcesPath)

	// Step 1: Fingerprint every file that contributes to the dataset
	hashed := []string{jobsPath, txPath}
	if hasTechs {
		hashed = append(hashed, techPath)
	}
	if hasSources {
		hashed = append(hashed, sourcesPath)
	}
	fingerprint, hashes, err := CalculateFileHashes(hashed...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to calculate file hashes")
	}

	// Step 2: Parse files
	ds := &domain.Dataset{Fingerprint: fingerprint}
	if hasTechs {
		if err := parseFile(techPath, func(f *os.File) (err error) {
			ds.Technicians, err = i.parser.ParseTechnicians(f)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if hasSources {
		if err := parseFile(sourcesPath, func(f *os.File) (err error) {
			ds.JobSources, err = i.parser.ParseJobSources(f)
			return err
		}); err != nil {
			return nil, err
		}
	}

	var jobs []parser.JobRow
	if err := parseFile(jobsPath, func(f *os.File) (err error) {
		jobs, err = i.parser.ParseJobs(f)
		return err
	}); err != nil {
		return nil, err
	}

	var txs []parser.TransactionRow
	if err := parseFile(txPath, func(f *os.File) (err error) {
		txs, err = i.parser.ParseTransactions(f)
		return err
	}); err != nil {
		return nil, err
	}

	// Step 3: Resolve names to roster ids
	derivedTechs, derivedSources := resolveRosters(ds, jobs, txs, !hasTechs, !hasSources)

	// Step 4: Validate data; findings are warnings, not failures
	return &ImportResult{
		Dataset:              ds,
		FileHashes:           hashes,
		JobsImported:         len(ds.Jobs),
		TransactionsImported: len(ds.Transactions),
		TechniciansDerived:   derivedTechs,
		JobSourcesDerived:    derivedSources,
		ValidationResult:     ValidateDataset(ds),
		Duration:             time.Since(startTime),
	}, nil
}

// ImportDir loads dir and saves it into sink unless the sink already holds
// the same content
func (i *Importer) ImportDir(ctx context.Context, dir string, sink Sink) (*ImportResult, error) {
	startTime := time.Now()

	result, err := i.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	existing, err := sink.Fingerprint(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check for existing import")
	}
	if existing != "" && existing == result.Dataset.Fingerprint {
		result.AlreadyImported = true
		return result, nil
	}

	if err := sink.Save(ctx, result.Dataset); err != nil {
		return nil, errors.Wrap(err, "failed to save dataset")
	}
	result.Duration = time.Since(startTime)
	return result, nil
}

// parseFile opens path and hands it to fn, labelling any error with the file name
func parseFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filepath.Base(path))
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return errors.Wrapf(err, "failed to parse %s", filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
