package jobs

import (
	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

// StatusCounts is the number of filtered jobs per status
type StatusCounts map[domain.Status]int

// Total sums every status count
func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// View is one filtering pass: the matched jobs in source order and the
// per-status counts taken from exactly those jobs. Tab rows and tab badges
// must both be read from the same View.
type View struct {
	Matched []domain.Job
	Counts  StatusCounts
}

// Apply runs the predicate over jobs once. The input slice is never
// reordered or modified.
func Apply(jobs []domain.Job, p Predicate) View {
	if p == nil {
		p = MatchAll
	}

	counts := make(StatusCounts, len(domain.Statuses))
	for _, s := range domain.Statuses {
		counts[s] = 0
	}

	matched := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if !p(j) {
			continue
		}
		matched = append(matched, j)
		counts[j.Status]++
	}

	return View{Matched: matched, Counts: counts}
}

// Jobs returns the rows of one status bucket
func (v View) Jobs(b Bucket) []domain.Job {
	status, ok := b.Status()
	if !ok {
		return v.Matched
	}
	rows := make([]domain.Job, 0, v.Counts[status])
	for _, j := range v.Matched {
		if j.Status == status {
			rows = append(rows, j)
		}
	}
	return rows
}

// Filter returns the jobs satisfying p that fall in bucket b
func Filter(jobs []domain.Job, p Predicate, b Bucket) []domain.Job {
	return Apply(jobs, p).Jobs(b)
}

// CountByStatus returns per-status counts of the jobs satisfying p
func CountByStatus(jobs []domain.Job, p Predicate) StatusCounts {
	return Apply(jobs, p).Counts
}
