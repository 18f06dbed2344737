// Package dashboard combines the filter and aggregation engines behind one
// memoizing entry point. It is the only engine-facing package that logs.
package dashboard

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/logger"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
)

const defaultCacheSize = 128

// Options configure an Engine
type Options struct {
	Now       func() time.Time
	Location  *time.Location
	CacheSize int

	// Resolver defaults to daterange.DefaultResolver
	Resolver *daterange.Resolver
}

// ErrNoDataset is returned when a query runs before any data was loaded
var ErrNoDataset = errors.New("no dataset loaded")

// Engine answers dashboard queries over a Dataset
type Engine struct {
	Now      func() time.Time
	Resolver daterange.Resolver

	loc        *time.Location
	log        *zap.Logger
	views      *lru.Cache[viewKey, jobs.View]
	correlated *lru.Cache[string, []metrics.EnrichedTransaction]
}

// viewKey identifies one filtering pass. The resolved interval is part of
// the key so relative tokens like "today" never reuse yesterday's result.
type viewKey struct {
	fingerprint    string
	search         string
	technician     string
	allTechnicians bool
	start, end     int64
	dated          bool
}

// JobsResult is the job list for one filter state. Its slices may be shared
// with the cache and must not be modified.
type JobsResult struct {
	View     jobs.View
	Rows     []domain.Job
	Counts   jobs.StatusCounts
	Interval *daterange.Interval

	// DateFallback is set when the date token was invalid and all dates were used
	DateFallback bool
}

// New creates an Engine. A nil logger is replaced by a no-op one.
func New(log *zap.Logger, opts Options) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}

	views, err := lru.New[viewKey, jobs.View](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create view cache")
	}
	correlated, err := lru.New[string, []metrics.EnrichedTransaction](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create correlation cache")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	resolver := daterange.DefaultResolver
	if opts.Resolver != nil {
		resolver = *opts.Resolver
	}

	return &Engine{
		Now:        now,
		Resolver:   resolver,
		loc:        opts.Location,
		log:        log,
		views:      views,
		correlated: correlated,
	}, nil
}

// now reads the clock once per query, in the configured zone
func (e *Engine) now() time.Time {
	t := e.Now()
	if e.loc != nil {
		t = t.In(e.loc)
	}
	return t
}

// Jobs filters the dataset's jobs and returns the rows of bucket plus the
// per-status counts of the same pass
func (e *Engine) Jobs(ds *domain.Dataset, f jobs.Filters, b jobs.Bucket) (JobsResult, error) {
	if ds == nil {
		return JobsResult{}, ErrNoDataset
	}

	var result JobsResult
	iv, err := f.Interval(e.Resolver, e.now())
	if err != nil {
		if !errors.Is(err, daterange.ErrInvalidFilterToken) {
			return JobsResult{}, err
		}
		e.log.Warn("invalid date filter, showing all dates",
			zap.String(logger.FieldToken, string(f.DateFilter)),
			zap.Error(err))
		iv = nil
		result.DateFallback = true
	}
	result.Interval = iv

	key := newViewKey(ds.Fingerprint, f, iv)
	view, ok := e.cachedView(key)
	if !ok {
		view = jobs.Apply(ds.Jobs, jobs.BuildPredicate(f, iv, ds.Technicians))
		if key.fingerprint != "" {
			e.views.Add(key, view)
		}
	}

	result.View = view
	result.Rows = view.Jobs(b)
	result.Counts = view.Counts
	return result, nil
}

func (e *Engine) cachedView(key viewKey) (jobs.View, bool) {
	if key.fingerprint == "" {
		return jobs.View{}, false
	}
	view, ok := e.views.Get(key)
	if ok {
		e.log.Debug("job view cache hit",
			zap.String(logger.FieldFingerprint, key.fingerprint),
			zap.Bool(logger.FieldCacheHit, true))
	}
	return view, ok
}

func newViewKey(fingerprint string, f jobs.Filters, iv *daterange.Interval) viewKey {
	// search is keyed the way the predicate compares it
	key := viewKey{
		fingerprint: fingerprint,
		search:      strings.ToLower(strings.TrimSpace(f.SearchTerm)),
	}
	id, ok := f.Technician.ID()
	key.technician = id
	key.allTechnicians = !ok
	if iv != nil {
		key.dated = true
		key.start = iv.Start.UnixNano()
		if !iv.OpenEnded() {
			key.end = iv.End.UnixNano()
		}
	}
	return key
}

// Finance aggregates the dataset's transactions under sel. Correlation is
// cached per dataset; the aggregation itself runs every call.
func (e *Engine) Finance(ds *domain.Dataset, sel metrics.Selection) (metrics.AggregateResult, error) {
	if ds == nil {
		return metrics.AggregateResult{}, ErrNoDataset
	}

	enriched := e.correlate(ds)
	result := metrics.Aggregate(enriched, sel)

	for _, s := range result.Skipped {
		e.log.Warn("skipping malformed transaction",
			zap.String(logger.FieldTransaction, s.TransactionID),
			zap.String(logger.FieldReason, s.Reason))
	}
	if result.OrphanedCount > 0 {
		e.log.Debug("transactions reference unknown technicians or job sources",
			zap.Int(logger.FieldCount, result.OrphanedCount),
			zap.Int(logger.FieldTotalCount, result.TransactionCount))
	}
	return result, nil
}

func (e *Engine) correlate(ds *domain.Dataset) []metrics.EnrichedTransaction {
	if ds.Fingerprint != "" {
		if enriched, ok := e.correlated.Get(ds.Fingerprint); ok {
			e.log.Debug("correlation cache hit", zap.String(logger.FieldFingerprint, ds.Fingerprint))
			return enriched
		}
	}
	enriched := metrics.Correlate(ds.Transactions, ds.Technicians, ds.JobSources)
	if ds.Fingerprint != "" {
		e.correlated.Add(ds.Fingerprint, enriched)
	}
	return enriched
}

// Transactions lists the well-formed transactions matching sel
func (e *Engine) Transactions(ds *domain.Dataset, sel metrics.Selection) ([]metrics.EnrichedTransaction, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}
	return metrics.Select(e.correlate(ds), sel), nil
}

// ResolveSelection resolves a date token for the finance view against the
// engine's clock
func (e *Engine) ResolveSelection(ft daterange.FilterType, custom daterange.CustomRange) (*daterange.Interval, error) {
	return e.Resolver.Resolve(ft, custom, e.now())
}

// Technicians computes per-technician job metrics over the filtered job view
func (e *Engine) Technicians(ds *domain.Dataset, f jobs.Filters) ([]metrics.TechnicianMetric, error) {
	res, err := e.Jobs(ds, f, jobs.AllBuckets)
	if err != nil {
		return nil, err
	}
	return metrics.CalculateTechnicianMetrics(ds.Technicians, res.View.Matched), nil
}

// JobProfit computes profitability of the completed jobs in the filtered view
func (e *Engine) JobProfit(ds *domain.Dataset, f jobs.Filters) ([]metrics.JobMetric, error) {
	res, err := e.Jobs(ds, f, jobs.AllBuckets)
	if err != nil {
		return nil, err
	}
	return metrics.CalculateJobMetrics(res.View.Matched, ds.Transactions), nil
}

// Purge drops every cached result
func (e *Engine) Purge() {
	e.views.Purge()
	e.correlated.Purge()
}
