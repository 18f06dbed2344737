// Package daterange turns named date filters into concrete inclusive intervals.
//
// Every resolution is relative to a caller-supplied "now", so a single filter
// pass sees one consistent calendar day and tests can pin the clock.
package daterange

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// FilterType is a named date filter token
type FilterType string

const (
	AllDates  FilterType = "all"
	Today     FilterType = "today"
	Tomorrow  FilterType = "tomorrow"
	Yesterday FilterType = "yesterday"
	ThisWeek  FilterType = "thisWeek"
	NextWeek  FilterType = "nextWeek"
	LastWeek  FilterType = "lastWeek"
	ThisMonth FilterType = "thisMonth"
	NextMonth FilterType = "nextMonth"
	LastMonth FilterType = "lastMonth"
	Custom    FilterType = "custom"
)

var filterTypes = []FilterType{
	AllDates, Today, Tomorrow, Yesterday,
	ThisWeek, NextWeek, LastWeek,
	ThisMonth, NextMonth, LastMonth,
	Custom,
}

// ErrInvalidFilterToken is returned for tokens outside the known set.
// Callers should fall back to AllDates.
var ErrInvalidFilterToken = errors.New("invalid date filter token")

// ParseFilterType accepts tokens case-insensitively, with or without
// separators ("thisWeek", "this-week", "this_week", "THISWEEK").
func ParseFilterType(s string) (FilterType, error) {
	key := normalizeToken(s)
	if key == "" {
		return AllDates, nil
	}
	for _, ft := range filterTypes {
		if normalizeToken(string(ft)) == key {
			return ft, nil
		}
	}
	return "", invalidToken(s)
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

func invalidToken(s string) error {
	return errors.WithHint(
		errors.Wrapf(ErrInvalidFilterToken, "%q", s),
		"use today, tomorrow, yesterday, thisWeek, nextWeek, lastWeek, thisMonth, nextMonth, lastMonth, custom or all",
	)
}

// CustomRange is an explicit from/to pair; either side may be missing
type CustomRange struct {
	From *time.Time
	To   *time.Time
}

// Interval is a resolved date interval, both ends inclusive.
// A zero End means the interval has no upper bound.
type Interval struct {
	Start time.Time
	End   time.Time
}

// OpenEnded reports whether the interval has no upper bound
func (i Interval) OpenEnded() bool {
	return i.End.IsZero()
}

// Contains reports whether t falls inside the interval
func (i Interval) Contains(t time.Time) bool {
	if t.Before(i.Start) {
		return false
	}
	return i.OpenEnded() || !t.After(i.End)
}

// Resolver resolves tokens with a configurable first day of the week
type Resolver struct {
	WeekStart time.Weekday
}

// DefaultResolver starts weeks on Monday
var DefaultResolver = Resolver{WeekStart: time.Monday}

// Resolve resolves a token with the default resolver
func Resolve(ft FilterType, custom CustomRange, now time.Time) (*Interval, error) {
	return DefaultResolver.Resolve(ft, custom, now)
}

// Resolve turns a token into an interval relative to now.
//
// A nil interval with a nil error means "unresolved": no date constraint
// applies. That happens for AllDates and for a custom range without From.
func (r Resolver) Resolve(ft FilterType, custom CustomRange, now time.Time) (*Interval, error) {
	switch ft {
	case AllDates, "":
		return nil, nil
	case Today:
		return dayInterval(now, 0), nil
	case Tomorrow:
		return dayInterval(now, 1), nil
	case Yesterday:
		return dayInterval(now, -1), nil
	case ThisWeek:
		return r.weekInterval(now, 0), nil
	case NextWeek:
		return r.weekInterval(now, 1), nil
	case LastWeek:
		return r.weekInterval(now, -1), nil
	case ThisMonth:
		return monthInterval(now, 0), nil
	case NextMonth:
		return monthInterval(now, 1), nil
	case LastMonth:
		return monthInterval(now, -1), nil
	case Custom:
		return customInterval(custom), nil
	default:
		return nil, invalidToken(string(ft))
	}
}

// StartOfDay returns midnight of t's calendar day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func dayInterval(now time.Time, offsetDays int) *Interval {
	day := StartOfDay(now).AddDate(0, 0, offsetDays)
	return &Interval{Start: day, End: EndOfDay(day)}
}

func (r Resolver) weekInterval(now time.Time, offsetWeeks int) *Interval {
	today := StartOfDay(now)
	back := (int(today.Weekday()) - int(r.WeekStart) + 7) % 7
	start := today.AddDate(0, 0, -back+7*offsetWeeks)
	return &Interval{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

func monthInterval(now time.Time, offsetMonths int) *Interval {
	// Day 1 never overflows when shifting months.
	start := time.Date(now.Year(), now.Month()+time.Month(offsetMonths), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return &Interval{Start: start, End: end}
}

func customInterval(c CustomRange) *Interval {
	if c.From == nil {
		return nil
	}
	from := *c.From
	if c.To == nil {
		return &Interval{Start: StartOfDay(from)}
	}
	to := *c.To
	if to.Before(from) {
		from, to = to, from
	}
	return &Interval{Start: StartOfDay(from), End: EndOfDay(to)}
}

// ParseWeekday parses a weekday name ("monday", "Sun", ...). An unknown name
// returns the zero weekday and an error.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if key == name || (len(key) >= 3 && strings.HasPrefix(name, key)) {
			return d, nil
		}
	}
	return time.Sunday, errors.Newf("unknown weekday %q", s)
}
