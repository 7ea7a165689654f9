package format

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entropy := bytes.NewReader(bytes.Repeat([]byte{7}, 64))

	number, err := FormatInvoiceNumber("INV-", issued, entropy)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(number, "INV-"))

	id, err := ulid.Parse(strings.TrimPrefix(number, "INV-"))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(issued), id.Time())
}

func TestFormatInvoiceNumberSortsByTime(t *testing.T) {
	entropy := ulid.DefaultEntropy()
	first, err := FormatInvoiceNumber("", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), entropy)
	require.NoError(t, err)
	second, err := FormatInvoiceNumber("", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), entropy)
	require.NoError(t, err)
	assert.Less(t, first, second)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-01", "2024-03-01T00:00:00", "2024-03-01T00:00:00Z", "2024-03-01T07:00:00+07:00"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseDate("03/01/2024")
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "0.00",
		"5.5":        "5.50",
		"999.999":    "1,000.00",
		"1234567.8":  "1,234,567.80",
		"-1234.5":    "-1,234.50",
		"189.000000": "189.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(nil))
	d := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-12-31", FormatDate(&d))
}
