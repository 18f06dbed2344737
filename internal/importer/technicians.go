package importer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/parser"
)

var (
	technicianNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("fieldboard/technicians"))
	jobSourceNamespace  = uuid.NewSHA1(uuid.NameSpaceOID, []byte("fieldboard/job-sources"))
)

// directory resolves display names to ids for one roster, deriving new
// entries for names it has not seen when derive is set
type directory struct {
	derive    bool
	namespace uuid.UUID
	byName    map[string]string // lower-cased name -> id
	derived   []string          // ids created in first-seen order
	names     map[string]string // id -> display name for derived entries
}

func newDirectory(namespace uuid.UUID, derive bool) *directory {
	return &directory{
		derive:    derive,
		namespace: namespace,
		byName:    make(map[string]string),
		names:     make(map[string]string),
	}
}

func (d *directory) register(id, name string) {
	key := nameKey(name)
	if key == "" {
		return
	}
	if _, ok := d.byName[key]; !ok {
		d.byName[key] = id
	}
}

// resolve returns the id for name, or "" when it is unknown and the
// directory does not derive entries
func (d *directory) resolve(name string) string {
	key := nameKey(name)
	if key == "" {
		return ""
	}
	if id, ok := d.byName[key]; ok {
		return id
	}
	if !d.derive {
		return ""
	}

	id := uuid.NewSHA1(d.namespace, []byte(key)).String()
	d.byName[key] = id
	d.derived = append(d.derived, id)
	d.names[id] = strings.TrimSpace(name)
	return id
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// resolveRosters fills in technician and job source ids on job and
// transaction rows that only carry names. Without a roster file the roster
// is derived from the names themselves, with ids stable across imports.
func resolveRosters(ds *domain.Dataset, jobs []parser.JobRow, txs []parser.TransactionRow, deriveTechs, deriveSources bool) (derivedTechs, derivedSources int) {
	techs := newDirectory(technicianNamespace, deriveTechs)
	for _, t := range ds.Technicians {
		techs.register(t.ID, t.Name)
	}
	sources := newDirectory(jobSourceNamespace, deriveSources)
	for _, s := range ds.JobSources {
		sources.register(s.ID, s.Name)
	}

	ds.Jobs = make([]domain.Job, 0, len(jobs))
	for _, row := range jobs {
		job := row.Job
		if job.TechnicianID == "" {
			job.TechnicianID = techs.resolve(primaryTechnician(row.TechnicianName))
		}
		if job.JobSourceID == "" {
			job.JobSourceID = sources.resolve(row.JobSourceName)
		}
		ds.Jobs = append(ds.Jobs, job)
	}

	ds.Transactions = make([]domain.Transaction, 0, len(txs))
	for _, row := range txs {
		tx := row.Transaction
		if tx.TechnicianID == "" {
			tx.TechnicianID = techs.resolve(primaryTechnician(row.TechnicianName))
		}
		if tx.JobSourceID == "" {
			tx.JobSourceID = sources.resolve(row.JobSourceName)
		}
		ds.Transactions = append(ds.Transactions, tx)
	}

	for _, id := range techs.derived {
		ds.Technicians = append(ds.Technicians, domain.Technician{
			ID:     id,
			Name:   techs.names[id],
			Status: domain.TechnicianActive,
		})
	}
	for _, id := range sources.derived {
		ds.JobSources = append(ds.JobSources, domain.JobSource{ID: id, Name: sources.names[id]})
	}

	return len(techs.derived), len(sources.derived)
}

// primaryTechnician picks the first name of an assigned-technicians list
func primaryTechnician(names string) string {
	parts := splitTechnicianNames(names)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// splitTechnicianNames handles the comma-separated list of technician names
func splitTechnicianNames(names string) []string {
	var result []string
	parts := strings.Split(names, ",")
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name != "" {
			result = append(result, name)
		}
	}
	return result
}
