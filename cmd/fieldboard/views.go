package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datsun80zx/fieldboard.git/internal/config"
)

func viewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the saved views in the --views file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOutput() {
				return printJSON(a.out, a.views)
			}

			if len(a.views) == 0 {
				fmt.Fprintln(a.out, "No saved views found")
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, "💡 Define views in a YAML file and pass it with --views:")
				fmt.Fprintln(a.out, "   views:")
				fmt.Fprintln(a.out, "     this-week:")
				fmt.Fprintln(a.out, "       jobs: {date: this-week}")
				return nil
			}

			fmt.Fprintln(a.out, "Saved Views")
			fmt.Fprintln(a.out, "══════════════════════════════════════════════════════════════════════════════")
			fmt.Fprintf(a.out, "%-20s  %-28s  %-28s\n", "Name", "Jobs", "Finance")
			fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────────────")
			for _, name := range a.views.Names() {
				view := a.views[name]
				fmt.Fprintf(a.out, "%-20s  %-28s  %-28s\n", clip(name, 20), clip(describeJobs(view.Jobs), 28), clip(describeFinance(view.Finance), 28))
				if view.Description != "" {
					fmt.Fprintf(a.out, "  %s\n", view.Description)
				}
			}
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, "💡 Apply one with --view <name> on jobs, finance, summary, technicians or red-flags")
			return nil
		},
	}
}

func describeJobs(jv config.JobsView) string {
	var parts []string
	if jv.Technician != "" {
		parts = append(parts, "tech="+jv.Technician)
	}
	if jv.Date != "" {
		parts = append(parts, jv.Date)
	}
	if jv.From != "" || jv.To != "" {
		parts = append(parts, jv.From+".."+jv.To)
	}
	if jv.Status != "" {
		parts = append(parts, jv.Status)
	}
	if jv.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", jv.Search))
	}
	return joinOrDash(parts)
}

func describeFinance(fv config.FinanceView) string {
	var parts []string
	if len(fv.Technicians) > 0 {
		parts = append(parts, "tech="+strings.Join(fv.Technicians, ","))
	}
	if len(fv.JobSources) > 0 {
		parts = append(parts, "source="+strings.Join(fv.JobSources, ","))
	}
	if len(fv.Categories) > 0 {
		parts = append(parts, strings.Join(fv.Categories, ","))
	}
	if fv.Date != "" {
		parts = append(parts, fv.Date)
	}
	if fv.From != "" || fv.To != "" {
		parts = append(parts, fv.From+".."+fv.To)
	}
	if fv.MinAmount != "" || fv.MaxAmount != "" {
		parts = append(parts, "$"+fv.MinAmount+".."+fv.MaxAmount)
	}
	if fv.PaymentMethod != "" {
		parts = append(parts, fv.PaymentMethod)
	}
	return joinOrDash(parts)
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// clip truncates s to n runes
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
