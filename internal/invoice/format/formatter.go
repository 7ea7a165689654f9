package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const DefaultInvoiceNumberPrefix = "INV-"

const dateLayout = "2006-01-02"

// FormatInvoiceNumber builds "<prefix><ULID>" with the ULID timestamped
// at issuedAt, so numbers sort by issue time.
func FormatInvoiceNumber(prefix string, issuedAt time.Time, entropy io.Reader) (string, error) {
	id, err := ulid.New(ulid.Timestamp(issuedAt), entropy)
	if err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}
	return strings.TrimSpace(prefix) + id.String(), nil
}

// ParseDate accepts a plain date, a local date-time or RFC 3339 and
// returns the instant in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func FormatDate(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "-"
	}
	return value.UTC().Format(dateLayout)
}

// FormatMoney renders amount with two decimals and thousands separators.
func FormatMoney(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// FormatPercent trims trailing zeros: 10.50 → "10.5%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.String() + "%"
}
