package jobs

import (
	"strings"
	"time"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// TechnicianFilter selects either every technician or exactly one.
// The zero value matches all technicians.
type TechnicianFilter struct {
	id string
}

// AllTechnicians matches jobs of any technician
func AllTechnicians() TechnicianFilter {
	return TechnicianFilter{}
}

// SpecificTechnician matches jobs assigned to id
func SpecificTechnician(id string) TechnicianFilter {
	return TechnicianFilter{id: id}
}

// ParseTechnicianFilter maps the "all" sentinel (or empty) to AllTechnicians
func ParseTechnicianFilter(s string) TechnicianFilter {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllTechnicians()
	}
	return SpecificTechnician(s)
}

// ID returns the selected technician id; ok is false for AllTechnicians
func (f TechnicianFilter) ID() (id string, ok bool) {
	return f.id, f.id != ""
}

// IsAll reports whether the filter matches every technician
func (f TechnicianFilter) IsAll() bool {
	return f.id == ""
}

func (f TechnicianFilter) String() string {
	if f.IsAll() {
		return "all"
	}
	return f.id
}

// Filters holds the job-list facets other than status
type Filters struct {
	SearchTerm  string
	Technician  TechnicianFilter
	DateFilter  daterange.FilterType
	CustomRange daterange.CustomRange
}

// HasActiveFilters reports whether any facet narrows the job list
func (f Filters) HasActiveFilters() bool {
	if strings.TrimSpace(f.SearchTerm) != "" || !f.Technician.IsAll() {
		return true
	}
	switch f.DateFilter {
	case "", daterange.AllDates:
		return false
	case daterange.Custom:
		return f.CustomRange.From != nil
	default:
		return true
	}
}

// Interval resolves the date facet. The custom range only matters when
// DateFilter is Custom.
func (f Filters) Interval(r daterange.Resolver, now time.Time) (*daterange.Interval, error) {
	custom := daterange.CustomRange{}
	if f.DateFilter == daterange.Custom {
		custom = f.CustomRange
	}
	return r.Resolve(f.DateFilter, custom, now)
}

// Bucket is a status tab: every job, or only jobs in one status.
// The zero value is the "all" bucket.
type Bucket struct {
	status domain.Status
}

// AllBuckets is the bucket holding every filtered job
var AllBuckets = Bucket{}

// StatusBucket holds only jobs in status s
func StatusBucket(s domain.Status) Bucket {
	return Bucket{status: s}
}

// ParseBucket accepts "all" (or empty) and any status spelling ParseStatus knows
func ParseBucket(s string) (Bucket, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(strings.TrimSpace(s), "all") {
		return AllBuckets, nil
	}
	st, err := domain.ParseStatus(s)
	if err != nil {
		return AllBuckets, err
	}
	return StatusBucket(st), nil
}

// Status returns the bucket's status; ok is false for the all bucket
func (b Bucket) Status() (domain.Status, bool) {
	return b.status, b.status != ""
}

func (b Bucket) String() string {
	if b.status == "" {
		return "all"
	}
	return string(b.status)
}
