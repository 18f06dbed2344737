package main

import (
	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/config"
	"github.com/datsun80zx/fieldboard.git/internal/daterange"
	"github.com/datsun80zx/fieldboard.git/internal/selection"
)

const dateUsage = "date filter: all, today, tomorrow, yesterday, this-week, next-week, last-week, this-month, next-month, last-month, custom"

// jobFlags are the job-list facets shared by several commands. Flags set on
// the command line override the saved view named by --view.
type jobFlags struct {
	view string
	jv   config.JobsView
}

func (f *jobFlags) register(cmd *cobra.Command, withStatus bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.view, "view", "", "start from a saved view")
	fl.StringVarP(&f.jv.Search, "search", "s", "", "search customer, address, job type, technician and job id")
	fl.StringVarP(&f.jv.Technician, "technician", "t", "", "technician id, or all")
	fl.StringVar(&f.jv.Date, "date", "", dateUsage)
	fl.StringVar(&f.jv.From, "from", "", "custom range start (YYYY-MM-DD)")
	fl.StringVar(&f.jv.To, "to", "", "custom range end (YYYY-MM-DD)")
	if withStatus {
		fl.StringVar(&f.jv.Status, "status", "", "status tab: all, scheduled, in-progress, completed, cancelled")
	}
}

func (f *jobFlags) merge(cmd *cobra.Command) (config.JobsView, error) {
	view, err := a.view(f.view)
	if err != nil {
		return config.JobsView{}, err
	}
	jv := view.Jobs
	fl := cmd.Flags()

	if fl.Changed("search") {
		jv.Search = f.jv.Search
	}
	if fl.Changed("technician") {
		jv.Technician = f.jv.Technician
	}
	if fl.Changed("status") {
		jv.Status = f.jv.Status
	}
	if fl.Changed("date") {
		jv.Date = f.jv.Date
		jv.From, jv.To = "", ""
	}
	if fl.Changed("from") || fl.Changed("to") {
		if !fl.Changed("date") {
			jv.Date = string(daterange.Custom)
		}
		jv.From, jv.To = f.jv.From, f.jv.To
	}
	return jv, nil
}

// actions returns the transitions for the merged facets. An unknown date
// token is passed through so the engine falls back to all dates.
func (f *jobFlags) actions(cmd *cobra.Command) ([]selection.Action, error) {
	jv, err := f.merge(cmd)
	if err != nil {
		return nil, err
	}

	var unknown string
	if _, err := daterange.ParseFilterType(jv.Date); err != nil && jv.From == "" && jv.To == "" {
		unknown, jv.Date = jv.Date, ""
	}

	actions, err := jv.Actions(a.loc)
	if err != nil {
		return nil, err
	}
	if unknown != "" {
		actions = append(actions, selection.SetDateFilter(daterange.FilterType(unknown)))
	}
	return actions, nil
}

func (f *jobFlags) state(cmd *cobra.Command) (selection.State, error) {
	actions, err := f.actions(cmd)
	if err != nil {
		return selection.State{}, err
	}
	return selection.Reduce(selection.State{}, actions...), nil
}

// financeFlags are the transaction facets
type financeFlags struct {
	view string
	fv   config.FinanceView
}

func (f *financeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.view, "view", "", "start from a saved view")
	fl.StringSliceVarP(&f.fv.Technicians, "technician", "t", nil, "technician ids (repeatable)")
	fl.StringSliceVar(&f.fv.JobSources, "source", nil, "job source ids (repeatable)")
	fl.StringSliceVar(&f.fv.Categories, "category", nil, "expense categories (repeatable)")
	fl.StringVar(&f.fv.Date, "date", "", dateUsage)
	fl.StringVar(&f.fv.From, "from", "", "range start (YYYY-MM-DD)")
	fl.StringVar(&f.fv.To, "to", "", "range end (YYYY-MM-DD)")
	fl.StringVar(&f.fv.MinAmount, "min", "", "minimum absolute amount")
	fl.StringVar(&f.fv.MaxAmount, "max", "", "maximum absolute amount")
	fl.StringVar(&f.fv.PaymentMethod, "payment-method", "", "payment method, e.g. card or check")
	fl.StringVarP(&f.fv.Search, "search", "s", "", "search description, category, technician and job id")
}

func (f *financeFlags) merge(cmd *cobra.Command) (config.FinanceView, error) {
	view, err := a.view(f.view)
	if err != nil {
		return config.FinanceView{}, err
	}
	fv := view.Finance
	fl := cmd.Flags()

	if fl.Changed("technician") {
		fv.Technicians = f.fv.Technicians
	}
	if fl.Changed("source") {
		fv.JobSources = f.fv.JobSources
	}
	if fl.Changed("category") {
		fv.Categories = f.fv.Categories
	}
	if fl.Changed("date") {
		fv.Date = f.fv.Date
		fv.From, fv.To = "", ""
	}
	if fl.Changed("from") || fl.Changed("to") {
		fv.From, fv.To = f.fv.From, f.fv.To
	}
	if fl.Changed("min") {
		fv.MinAmount = f.fv.MinAmount
	}
	if fl.Changed("max") {
		fv.MaxAmount = f.fv.MaxAmount
	}
	if fl.Changed("payment-method") {
		fv.PaymentMethod = f.fv.PaymentMethod
	}
	if fl.Changed("search") {
		fv.Search = f.fv.Search
	}
	return fv, nil
}

func (f *financeFlags) actions(cmd *cobra.Command) ([]selection.Action, error) {
	fv, err := f.merge(cmd)
	if err != nil {
		return nil, err
	}
	return fv.Actions(a.engine.ResolveSelection, a.loc)
}
