package jobs

import (
	"strings"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// Predicate decides whether a job belongs to the filtered set
type Predicate func(domain.Job) bool

// MatchAll accepts every job
func MatchAll(domain.Job) bool { return true }

// BuildPredicate composes the search, technician and date facets with AND.
// A nil interval means the date facet is unresolved and always passes.
// Status is deliberately not part of the predicate; see Apply and Bucket.
func BuildPredicate(f Filters, iv *daterange.Interval, technicians []domain.Technician) Predicate {
	var facets []Predicate

	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		names := make(map[string]string, len(technicians))
		for _, t := range technicians {
			names[t.ID] = t.Name
		}
		facets = append(facets, func(j domain.Job) bool {
			return matchesSearch(j, names[j.TechnicianID], term)
		})
	}

	if id, ok := f.Technician.ID(); ok {
		facets = append(facets, func(j domain.Job) bool {
			return j.TechnicianID == id
		})
	}

	if iv != nil {
		interval := *iv
		facets = append(facets, func(j domain.Job) bool {
			return interval.Contains(j.ScheduledDate)
		})
	}

	if len(facets) == 0 {
		return MatchAll
	}

	return func(j domain.Job) bool {
		for _, facet := range facets {
			if !facet(j) {
				return false
			}
		}
		return true
	}
}

// searchableFields lists the job text a search term is matched against
func searchableFields(j domain.Job, technicianName string) []string {
	return []string{
		j.ID,
		j.CustomerName,
		j.CustomerPhone,
		j.Address,
		j.JobType,
		j.Description,
		technicianName,
	}
}

// matchesSearch expects term already lower-cased
func matchesSearch(j domain.Job, technicianName, term string) bool {
	for _, field := range searchableFields(j, technicianName) {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
