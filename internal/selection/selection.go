// Package selection holds dashboard facet state as an immutable value and
// the pure transitions between states.
//
// Every transition returns a new State and leaves its input untouched, so a
// State can be shared freely between the caller and a recompute.
package selection

import (
	"slices"
	"strings"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

// State is every facet selection on the dashboard
type State struct {
	Jobs    jobs.Filters
	Bucket  jobs.Bucket
	Finance metrics.Selection
}

// Action is a state transition
type Action func(State) State

// Reduce applies actions in order
func Reduce(s State, actions ...Action) State {
	for _, a := range actions {
		s = a(s)
	}
	return s
}

// Job list facets

// SetSearch sets the free-text job search
func SetSearch(term string) Action {
	return func(s State) State {
		s.Jobs.SearchTerm = term
		return s
	}
}

// SelectTechnician narrows the job list to one technician, or all
func SelectTechnician(f jobs.TechnicianFilter) Action {
	return func(s State) State {
		s.Jobs.Technician = f
		return s
	}
}

// SetDateFilter switches the date token. Leaving Custom drops the custom range.
func SetDateFilter(ft daterange.FilterType) Action {
	return func(s State) State {
		s.Jobs.DateFilter = ft
		if ft != daterange.Custom {
			s.Jobs.CustomRange = daterange.CustomRange{}
		}
		return s
	}
}

// SetCustomRange selects an explicit range and switches the token to Custom
func SetCustomRange(r daterange.CustomRange) Action {
	return func(s State) State {
		s.Jobs.DateFilter = daterange.Custom
		s.Jobs.CustomRange = r
		return s
	}
}

// SetBucket switches the status tab
func SetBucket(b jobs.Bucket) Action {
	return func(s State) State {
		s.Bucket = b
		return s
	}
}

// ClearJobs resets the job facets and the status tab
func ClearJobs() Action {
	return func(s State) State {
		s.Jobs = jobs.Filters{}
		s.Bucket = jobs.AllBuckets
		return s
	}
}

// Finance facets

// ToggleTechnician adds id to the technician set, or removes it if present
func ToggleTechnician(id string) Action {
	return func(s State) State {
		s.Finance.Technicians = toggle(s.Finance.Technicians, id)
		return s
	}
}

// ToggleJobSource adds id to the job source set, or removes it if present
func ToggleJobSource(id string) Action {
	return func(s State) State {
		s.Finance.JobSources = toggle(s.Finance.JobSources, id)
		return s
	}
}

// ToggleCategory adds name to the category set, or removes it if present
func ToggleCategory(name string) Action {
	return func(s State) State {
		s.Finance.Categories = toggle(s.Finance.Categories, name)
		return s
	}
}

// SelectAllTechnicians replaces the technician set; other facets are kept
func SelectAllTechnicians(ids []string) Action {
	return func(s State) State {
		s.Finance.Technicians = normalize(ids)
		return s
	}
}

// DeselectAllTechnicians empties the technician set
func DeselectAllTechnicians() Action {
	return func(s State) State {
		s.Finance.Technicians = nil
		return s
	}
}

// SelectAllJobSources replaces the job source set; other facets are kept
func SelectAllJobSources(ids []string) Action {
	return func(s State) State {
		s.Finance.JobSources = normalize(ids)
		return s
	}
}

// DeselectAllJobSources empties the job source set
func DeselectAllJobSources() Action {
	return func(s State) State {
		s.Finance.JobSources = nil
		return s
	}
}

// SetCategories replaces the category set
func SetCategories(names []string) Action {
	return func(s State) State {
		s.Finance.Categories = normalize(names)
		return s
	}
}

// SetInterval sets the finance date interval; nil means all dates
func SetInterval(iv *daterange.Interval) Action {
	return func(s State) State {
		if iv != nil {
			cp := *iv
			iv = &cp
		}
		s.Finance.Interval = iv
		return s
	}
}

// SetAmountRange sets the amount bounds; nil drops them
func SetAmountRange(r *metrics.AmountRange) Action {
	return func(s State) State {
		if r != nil {
			cp := *r
			r = &cp
		}
		s.Finance.Amount = r
		return s
	}
}

// SetPaymentMethod filters finance by payment method; empty means any
func SetPaymentMethod(method string) Action {
	return func(s State) State {
		s.Finance.PaymentMethod = strings.TrimSpace(method)
		return s
	}
}

// SetFinanceSearch sets the free-text transaction search
func SetFinanceSearch(term string) Action {
	return func(s State) State {
		s.Finance.Search = term
		return s
	}
}

// ClearFinance resets every finance facet
func ClearFinance() Action {
	return func(s State) State {
		s.Finance = metrics.Selection{}
		return s
	}
}

// Clear resets the whole dashboard
func Clear() Action {
	return func(State) State {
		return State{}
	}
}

// HasActiveFilters reports whether any facet of either view is set
func (s State) HasActiveFilters() bool {
	return s.Jobs.HasActiveFilters() || s.Finance.HasActiveFilters()
}

// toggle returns a new sorted set with id added or removed
func toggle(set []string, id string) []string {
	if i, found := slices.BinarySearch(set, id); found {
		out := make([]string, 0, len(set)-1)
		out = append(out, set[:i]...)
		return append(out, set[i+1:]...)
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set...)
	out = append(out, id)
	slices.Sort(out)
	return out
}

// normalize copies ids into a sorted set without duplicates or blanks
func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
