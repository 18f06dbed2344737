package jobs

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

var now = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

func at(d int, hour int) time.Time {
	return time.Date(2024, 6, d, hour, 0, 0, 0, time.UTC)
}

var roster = []domain.Technician{
	{ID: "t1", Name: "Alice Moreno"},
	{ID: "t2", Name: "Bob Chen"},
}

func sampleJobs() []domain.Job {
	return []domain.Job{
		{ID: "J-100", Status: domain.StatusScheduled, ScheduledDate: at(12, 9), TechnicianID: "t1", CustomerName: "Acme Plumbing", Amount: decimal.NewFromInt(250)},
		{ID: "J-101", Status: domain.StatusCompleted, ScheduledDate: at(10, 0), TechnicianID: "t2", CustomerName: "Jane Doe", Address: "12 Oak St"},
		{ID: "J-102", Status: domain.StatusInProgress, ScheduledDate: at(16, 23), TechnicianID: "t1", CustomerName: "John Smith"},
		{ID: "J-103", Status: domain.StatusCancelled, ScheduledDate: at(20, 8), TechnicianID: "t2", CustomerName: "ACME Corp"},
		{ID: "J-104", Status: domain.StatusCompleted, ScheduledDate: at(3, 8), TechnicianID: "t3", CustomerName: "Zed Holdings"},
		{ID: "J-105", Status: domain.StatusScheduled, ScheduledDate: at(11, 14), TechnicianID: "t2", CustomerName: "Mary Poppins", JobType: "Drain cleaning"},
	}
}

func ids(js []domain.Job) []string {
	out := make([]string, 0, len(js))
	for _, j := range js {
		out = append(out, j.ID)
	}
	return out
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	p := BuildPredicate(Filters{SearchTerm: "acme"}, nil, roster)
	assert.Equal(t, []string{"J-100", "J-103"}, ids(Filter(sampleJobs(), p, AllBuckets)))

	p = BuildPredicate(Filters{SearchTerm: "j-10"}, nil, roster)
	assert.Len(t, Filter(sampleJobs(), p, AllBuckets), 6, "job id is searchable")

	p = BuildPredicate(Filters{SearchTerm: "OAK"}, nil, roster)
	assert.Equal(t, []string{"J-101"}, ids(Filter(sampleJobs(), p, AllBuckets)))

	p = BuildPredicate(Filters{SearchTerm: "drain"}, nil, roster)
	assert.Equal(t, []string{"J-105"}, ids(Filter(sampleJobs(), p, AllBuckets)))
}

func TestSearchMatchesTechnicianName(t *testing.T) {
	p := BuildPredicate(Filters{SearchTerm: "moreno"}, nil, roster)
	assert.Equal(t, []string{"J-100", "J-102"}, ids(Filter(sampleJobs(), p, AllBuckets)))
}

func TestBlankSearchMatchesEverything(t *testing.T) {
	p := BuildPredicate(Filters{SearchTerm: "   "}, nil, roster)
	assert.Len(t, Filter(sampleJobs(), p, AllBuckets), len(sampleJobs()))
}

func TestTechnicianFacet(t *testing.T) {
	p := BuildPredicate(Filters{Technician: SpecificTechnician("t2")}, nil, roster)
	assert.Equal(t, []string{"J-101", "J-103", "J-105"}, ids(Filter(sampleJobs(), p, AllBuckets)))

	p = BuildPredicate(Filters{Technician: AllTechnicians()}, nil, roster)
	assert.Len(t, Filter(sampleJobs(), p, AllBuckets), 6)

	p = BuildPredicate(Filters{Technician: ParseTechnicianFilter("all")}, nil, roster)
	assert.Len(t, Filter(sampleJobs(), p, AllBuckets), 6)
}

func TestDateFacetIsInclusive(t *testing.T) {
	f := Filters{DateFilter: daterange.ThisWeek}
	iv, err := f.Interval(daterange.DefaultResolver, now)
	require.NoError(t, err)

	p := BuildPredicate(f, iv, roster)
	// Monday 00:00 and Sunday 23:00 are both inside [2024-06-10, 2024-06-16].
	assert.Equal(t, []string{"J-100", "J-101", "J-102", "J-105"}, ids(Filter(sampleJobs(), p, AllBuckets)))
}

func TestUnresolvedDatePasses(t *testing.T) {
	f := Filters{DateFilter: daterange.Custom}
	iv, err := f.Interval(daterange.DefaultResolver, now)
	require.NoError(t, err)
	assert.Nil(t, iv)

	p := BuildPredicate(f, iv, roster)
	assert.Len(t, Filter(sampleJobs(), p, AllBuckets), 6)
}

func TestFacetsCombineWithAnd(t *testing.T) {
	f := Filters{SearchTerm: "acme", Technician: SpecificTechnician("t1"), DateFilter: daterange.Today}
	iv, err := f.Interval(daterange.DefaultResolver, now)
	require.NoError(t, err)

	p := BuildPredicate(f, iv, roster)
	assert.Equal(t, []string{"J-100"}, ids(Filter(sampleJobs(), p, AllBuckets)))
}

func TestBucketsSliceFilteredSet(t *testing.T) {
	p := BuildPredicate(Filters{Technician: SpecificTechnician("t2")}, nil, roster)
	jobs := sampleJobs()

	assert.Equal(t, []string{"J-105"}, ids(Filter(jobs, p, StatusBucket(domain.StatusScheduled))))
	assert.Equal(t, []string{"J-101"}, ids(Filter(jobs, p, StatusBucket(domain.StatusCompleted))))
	assert.Empty(t, Filter(jobs, p, StatusBucket(domain.StatusInProgress)))
}

func TestCountsAgreeWithRows(t *testing.T) {
	jobs := sampleJobs()
	filters := []Filters{
		{},
		{SearchTerm: "acme"},
		{Technician: SpecificTechnician("t2")},
		{DateFilter: daterange.ThisWeek},
		{SearchTerm: "nothing matches this"},
	}

	for _, f := range filters {
		iv, err := f.Interval(daterange.DefaultResolver, now)
		require.NoError(t, err)
		p := BuildPredicate(f, iv, roster)

		counts := CountByStatus(jobs, p)
		assert.Equal(t, len(Filter(jobs, p, AllBuckets)), counts.Total())
		for _, s := range domain.Statuses {
			assert.Equal(t, len(Filter(jobs, p, StatusBucket(s))), counts[s], "status %s", s)
		}
	}
}

func TestCountsAreZeroFilled(t *testing.T) {
	counts := CountByStatus(nil, MatchAll)
	for _, s := range domain.Statuses {
		v, ok := counts[s]
		assert.True(t, ok)
		assert.Zero(t, v)
	}
	assert.Zero(t, counts.Total())
}

func TestFilteringIsStableAndNonDestructive(t *testing.T) {
	jobs := sampleJobs()
	before := ids(jobs)
	p := BuildPredicate(Filters{SearchTerm: "o"}, nil, roster)

	first := ids(Filter(jobs, p, AllBuckets))
	second := ids(Filter(jobs, p, AllBuckets))

	assert.Equal(t, first, second)
	assert.Equal(t, before, ids(jobs))
}

func TestHasActiveFilters(t *testing.T) {
	from := now
	assert.False(t, Filters{}.HasActiveFilters())
	assert.False(t, Filters{DateFilter: daterange.AllDates}.HasActiveFilters())
	assert.False(t, Filters{DateFilter: daterange.Custom}.HasActiveFilters())
	assert.True(t, Filters{DateFilter: daterange.Custom, CustomRange: daterange.CustomRange{From: &from}}.HasActiveFilters())
	assert.True(t, Filters{SearchTerm: "x"}.HasActiveFilters())
	assert.True(t, Filters{Technician: SpecificTechnician("t1")}.HasActiveFilters())
	assert.True(t, Filters{DateFilter: daterange.Today}.HasActiveFilters())
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("all")
	require.NoError(t, err)
	assert.Equal(t, AllBuckets, b)

	b, err = ParseBucket("In Progress")
	require.NoError(t, err)
	s, ok := b.Status()
	assert.True(t, ok)
	assert.Equal(t, domain.StatusInProgress, s)

	_, err = ParseBucket("archived")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
