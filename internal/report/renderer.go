package report

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer handles report template rendering
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new template renderer
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatMoney":   FormatMoney,
		"formatPercent": FormatPercent,
		"formatRate":    FormatRate,
		"formatDate":    formatDate,
		"statusLabel":   StatusLabel,
		"truncate":      truncate,
		"isNegative":    func(d decimal.Decimal) bool { return d.IsNegative() },
		"add":           func(a, b int) int { return a + b },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}

	return &Renderer{templates: tmpl}, nil
}

// RenderSummary renders the summary report to HTML
func (r *Renderer) RenderSummary(w io.Writer, report *SummaryReport) error {
	return errors.Wrap(r.templates.ExecuteTemplate(w, "summary.html", report), "rendering summary")
}

// FormatMoney formats an amount as dollars with thousands separators.
// Negative amounts use accounting notation: ($1,234.50).
func FormatMoney(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, decPart, _ := strings.Cut(fixed, ".")

	// Insert commas from the right
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	formatted := "$" + b.String() + "." + decPart
	if amount.IsNegative() {
		return "(" + formatted + ")"
	}
	return formatted
}

// FormatPercent formats a percentage with one decimal place
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}

// FormatRate formats an optional percentage, N/A when undefined
func FormatRate(pct decimal.NullDecimal) string {
	if !pct.Valid {
		return "N/A"
	}
	return FormatPercent(pct.Decimal)
}

// StatusLabel is the tab caption of a job status
func StatusLabel(s domain.Status) string {
	switch s {
	case domain.StatusScheduled:
		return "Scheduled"
	case domain.StatusInProgress:
		return "In Progress"
	case domain.StatusCompleted:
		return "Completed"
	case domain.StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// formatDate formats a time or time pointer as YYYY-MM-DD
func formatDate(t interface{}) string {
	switch v := t.(type) {
	case time.Time:
		if v.IsZero() {
			return "N/A"
		}
		return v.Format("2006-01-02")
	case *time.Time:
		if v == nil {
			return "N/A"
		}
		return formatDate(*v)
	default:
		return "N/A"
	}
}

// truncate shortens a string with ellipsis
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen || maxLen < 4 {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
