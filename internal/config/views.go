package config

import (
	"bytes"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/jobs"
	"github.com/datsun80zx/fieldboard.git/internal/metrics"
	"github.com/datsun80zx/fieldboard.git/internal/parser"
	"github.com/datsun80zx/fieldboard.git/internal/selection"
)

// ErrUnknownView is returned by Views.Get for names not in the file
var ErrUnknownView = errors.New("unknown view")

// View is a named, saved filter state
type View struct {
	Name        string      `yaml:"-"`
	Description string      `yaml:"description"`
	Jobs        JobsView    `yaml:"jobs"`
	Finance     FinanceView `yaml:"finance"`
}

// JobsView holds job-list facets as written in the file
type JobsView struct {
	Search     string `yaml:"search"`
	Technician string `yaml:"technician"`
	Date       string `yaml:"date"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Status     string `yaml:"status"`
}

// FinanceView holds finance facets as written in the file
type FinanceView struct {
	Technicians   []string `yaml:"technicians"`
	JobSources    []string `yaml:"job_sources"`
	Categories    []string `yaml:"categories"`
	Date          string   `yaml:"date"`
	From          string   `yaml:"from"`
	To            string   `yaml:"to"`
	MinAmount     string   `yaml:"min_amount"`
	MaxAmount     string   `yaml:"max_amount"`
	PaymentMethod string   `yaml:"payment_method"`
	Search        string   `yaml:"search"`
}

// Views is a set of saved views keyed by name
type Views map[string]View

type viewsFile struct {
	Views map[string]View `yaml:"views"`
}

// LoadViews reads and validates a saved views file
func LoadViews(path string) (Views, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.Wrapf(err, "views file %s not found", path),
				"create it or unset --views",
			)
		}
		return nil, errors.Wrapf(err, "failed to read views file %s", path)
	}
	return ParseViews(data)
}

// ParseViews decodes views YAML. Unknown keys are rejected so typos surface.
func ParseViews(data []byte) (Views, error) {
	var file viewsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse views")
	}

	views := make(Views, len(file.Views))
	for name, v := range file.Views {
		v.Name = name
		if err := v.Validate(); err != nil {
			return nil, errors.Wrapf(err, "view %q", name)
		}
		views[name] = v
	}
	return views, nil
}

// Names lists the view names in order
func (vs Views) Names() []string {
	names := make([]string, 0, len(vs))
	for name := range vs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named view
func (vs Views) Get(name string) (View, error) {
	v, ok := vs[name]
	if !ok {
		err := errors.Wrapf(ErrUnknownView, "%q", name)
		if len(vs) > 0 {
			return View{}, errors.WithHintf(err, "available views: %s", strings.Join(vs.Names(), ", "))
		}
		return View{}, errors.WithHint(err, "no views are defined; pass --views <file>")
	}
	return v, nil
}

// Validate parses every field once so later conversions cannot fail
func (v View) Validate() error {
	if _, err := v.Jobs.Actions(time.UTC); err != nil {
		return errors.Wrap(err, "jobs")
	}
	if _, err := daterange.ParseFilterType(v.Finance.Date); err != nil {
		return errors.Wrap(err, "finance")
	}
	if _, err := ParseCustomRange(v.Finance.From, v.Finance.To, time.UTC); err != nil {
		return errors.Wrap(err, "finance")
	}
	if _, err := v.Finance.AmountRange(); err != nil {
		return errors.Wrap(err, "finance")
	}
	return nil
}

// Actions converts the job facets into selection transitions. Dates
// without a zone are read in loc.
func (jv JobsView) Actions(loc *time.Location) ([]selection.Action, error) {
	actions := []selection.Action{
		selection.SetSearch(jv.Search),
		selection.SelectTechnician(jobs.ParseTechnicianFilter(jv.Technician)),
	}

	ft, err := daterange.ParseFilterType(jv.Date)
	if err != nil {
		return nil, err
	}
	custom, err := ParseCustomRange(jv.From, jv.To, loc)
	if err != nil {
		return nil, err
	}
	if custom.From != nil || custom.To != nil {
		// an explicit range implies the custom token
		if ft != daterange.Custom && ft != daterange.AllDates {
			return nil, errors.Newf("from/to require date: custom, got %q", jv.Date)
		}
		actions = append(actions, selection.SetCustomRange(custom))
	} else {
		actions = append(actions, selection.SetDateFilter(ft))
	}

	bucket, err := jobs.ParseBucket(jv.Status)
	if err != nil {
		return nil, err
	}
	return append(actions, selection.SetBucket(bucket)), nil
}

// AmountRange parses min/max; nil when neither is set
func (fv FinanceView) AmountRange() (*metrics.AmountRange, error) {
	if fv.MinAmount == "" && fv.MaxAmount == "" {
		return nil, nil
	}
	var r metrics.AmountRange
	if fv.MinAmount != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(fv.MinAmount))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid min_amount %q", fv.MinAmount)
		}
		r.Min = &d
	}
	if fv.MaxAmount != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(fv.MaxAmount))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid max_amount %q", fv.MaxAmount)
		}
		r.Max = &d
	}
	if r.Min != nil && r.Max != nil && r.Min.GreaterThan(*r.Max) {
		return nil, errors.Newf("min_amount %s exceeds max_amount %s", r.Min, r.Max)
	}
	return &r, nil
}

// Resolve turns a date token and range into an interval, normally
// dashboard.Engine.ResolveSelection
type Resolve func(daterange.FilterType, daterange.CustomRange) (*daterange.Interval, error)

// Actions converts the finance facets into selection transitions. The date
// facet is resolved immediately with resolve.
func (fv FinanceView) Actions(resolve Resolve, loc *time.Location) ([]selection.Action, error) {
	ft, err := daterange.ParseFilterType(fv.Date)
	if err != nil {
		return nil, err
	}
	custom, err := ParseCustomRange(fv.From, fv.To, loc)
	if err != nil {
		return nil, err
	}
	if custom.From != nil || custom.To != nil {
		ft = daterange.Custom
	}
	iv, err := resolve(ft, custom)
	if err != nil {
		return nil, err
	}
	amount, err := fv.AmountRange()
	if err != nil {
		return nil, err
	}

	return []selection.Action{
		selection.SelectAllTechnicians(fv.Technicians),
		selection.SelectAllJobSources(fv.JobSources),
		selection.SetCategories(fv.Categories),
		selection.SetInterval(iv),
		selection.SetAmountRange(amount),
		selection.SetPaymentMethod(fv.PaymentMethod),
		selection.SetFinanceSearch(fv.Search),
	}, nil
}

// ParseCustomRange parses optional from/to dates; dates without a zone are read in loc
func ParseCustomRange(from, to string, loc *time.Location) (daterange.CustomRange, error) {
	var r daterange.CustomRange
	if from != "" {
		t, ok := parser.ParseDate(from, loc)
		if !ok {
			return r, errors.Newf("invalid from date %q", from)
		}
		r.From = &t
	}
	if to != "" {
		t, ok := parser.ParseDate(to, loc)
		if !ok {
			return r, errors.Newf("invalid to date %q", to)
		}
		r.To = &t
	}
	return r, nil
}
