package parser

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/fieldboard.git/internal/domain"
)

var errRequired = errors.New("required field is empty")

func parseRequiredString(s string, rowNum int, columnName string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{
			Row:    rowNum,
			Column: columnName,
			Value:  s,
			Err:    errRequired,
		}
	}
	return s, nil
}

// parseDecimal parses required currency/decimal fields
func parseDecimal(s string, rowNum int, columnName string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, &ValidationError{
			Row:    rowNum,
			Column: columnName,
			Value:  s,
			Err:    errRequired,
		}
	}

	val, err := decimal.NewFromString(cleanCurrency(s))
	if err != nil {
		return decimal.Zero, &ValidationError{
			Row:    rowNum,
			Column: columnName,
			Value:  s,
			Err:    err,
		}
	}

	return val, nil
}

// parseNullableDecimal parses optional decimal fields
func parseNullableDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}

	val, err := decimal.NewFromString(cleanCurrency(s))
	if err != nil {
		return nil
	}

	return &val
}

// cleanCurrency removes $ and commas from currency strings
// Also handles accounting notation: (123.45) → -123.45
func cleanCurrency(s string) string {
	s = strings.TrimSpace(s)

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimPrefix(s, "(")
		s = strings.TrimSuffix(s, ")")
		s = strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative && s != "" && s != "0" && s != "0.00" {
		s = "-" + s
	}

	return s
}

// dateFormats are tried in order; exports use M/D/YYYY, the API uses RFC 3339
var dateFormats = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1-2-2006",
	"01-02-2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
}

// ParseDate reads a date in any supported format. Dates without a zone are
// taken in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNullableDate handles multiple date formats
func parseNullableDate(s string, loc *time.Location) *time.Time {
	t, ok := ParseDate(s, loc)
	if !ok {
		return nil
	}
	return &t
}

// parseKind maps bookkeeping labels onto a transaction kind. Unknown labels
// leave the kind unspecified so the amount's sign decides.
func parseKind(s string) domain.TransactionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revenue", "income", "payment", "credit", "sale":
		return domain.KindRevenue
	case "expense", "cost", "debit", "refund", "payout":
		return domain.KindExpense
	default:
		return domain.KindUnspecified
	}
}
