// Package money formats monetary amounts and dates for exported documents.
//
// Formatting never fails for callers: an invalid or unknown currency code is replaced
// with USD, and date-like values that cannot be parsed render as an empty string.
package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ledgerdoc/internal/logger"
)

const (
	// DefaultCurrency replaces missing or malformed currency codes.
	DefaultCurrency = "USD"

	// FractionDigits is fixed for every currency on exported documents.
	FractionDigits = 2

	// DateLayout renders "<day> <Month> <year>".
	DateLayout = "2 January 2006"
)

var printer = message.NewPrinter(language.English)

// NormalizeCurrency returns code upper-cased when it is a 3-letter alphabetic string, otherwise USD.
func NormalizeCurrency(code any) string {
	s, ok := code.(string)
	if !ok {
		return DefaultCurrency
	}
	s = strings.TrimSpace(s)
	if len(s) != 3 {
		return DefaultCurrency
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return DefaultCurrency
		}
	}
	return strings.ToUpper(s)
}

// FormatAmount formats value as "<CODE> <amount>" with two fraction digits and English grouping,
// e.g. "USD 1,234.50". It never fails.
func FormatAmount(value decimal.Decimal, code any) string {
	out, err := FormatAmountE(value, code)
	if err != nil {
		log := logger.WithComponent("money")
		log.Error().
			Err(err).
			Interface("currency", code).
			Msg("Currency formatting failed after USD fallback")
		return value.StringFixed(FractionDigits)
	}
	return out
}

// FormatFloat is FormatAmount for float inputs.
func FormatFloat(value float64, code any) string {
	return FormatAmount(decimal.NewFromFloat(value), code)
}

// FormatAmountE is FormatAmount with the error of the USD retry surfaced.
// A code that passes the shape check but is not a known ISO 4217 currency falls back to USD once.
func FormatAmountE(value decimal.Decimal, code any) (string, error) {
	normalized := NormalizeCurrency(code)

	out, err := formatWithCurrency(value, normalized)
	if err == nil {
		return out, nil
	}
	if normalized == DefaultCurrency {
		return "", err
	}

	log := logger.WithComponent("money")
	log.Debug().
		Err(err).
		Str("currency", normalized).
		Msg("Unknown currency, retrying with USD")

	return formatWithCurrency(value, DefaultCurrency)
}

func formatWithCurrency(value decimal.Decimal, code string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("format amount in %q: %w", code, err)
	}
	rounded := value.Round(FractionDigits).InexactFloat64()
	return fmt.Sprintf("%s %s", unit.String(), printer.Sprintf("%.2f", rounded)), nil
}

// FormatDate renders a date-like value ("2 January 2006"). Empty, nil, zero or unparsable input returns "".
func FormatDate(value any) string {
	var t time.Time
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return ""
		}
		t = *v
	case string:
		if strings.TrimSpace(v) == "" {
			return ""
		}
		parsed, err := cast.ToTimeE(strings.TrimSpace(v))
		if err != nil {
			return ""
		}
		t = parsed
	default:
		parsed, err := cast.ToTimeE(v)
		if err != nil {
			return ""
		}
		t = parsed
	}
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
