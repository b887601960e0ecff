package ecommerce

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is stored when a platform omits the order currency
const DefaultCurrency = "USD"

// Timestamp layouts accepted from the platforms, tried in order.
// Zone-less values are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// looseString decodes a JSON string, number, or null into a string.
// Platforms are inconsistent about quoting IDs and amounts.
type looseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(data)
	return nil
}

// String returns the decoded value
func (s looseString) String() string {
	return string(s)
}

// ParseAmount parses a platform amount, returning zero when it cannot be parsed.
// The result is rounded to 2 decimal places.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// ParseTimestamp parses a platform timestamp, returning nil when it is empty or unusable
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// currencyOrDefault returns the trimmed currency code, or DefaultCurrency when blank
func currencyOrDefault(code string) string {
	if code = strings.TrimSpace(code); code == "" {
		return DefaultCurrency
	}
	return code
}

// fullName joins first and last name, trimming the surrounding space
func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// firstNonEmpty returns the first value that is not blank
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
