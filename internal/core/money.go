// Package core holds the domain model and the pure aggregation layer.
//
// This file contains money parsing and formatting. Amounts are kept as
// integer cents so two-decimal arithmetic stays exact; floats only appear
// at the display edge.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a non-negative monetary amount in cents.
type Money struct {
	Cents int64
}

// ParseAmountToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Empty input is a genuine zero; anything
// non-numeric or negative is rejected rather than coerced.
//
// Examples:
//
//	ParseAmountToCents("")       -> 0, nil
//	ParseAmountToCents("12.34")  -> 1234, nil
//	ParseAmountToCents("12.345") -> 1234, nil (rounds down)
//	ParseAmountToCents("12.346") -> 1235, nil (rounds up)
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if s == "." || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Units returns the amount as a float64 for chart payloads. Use cents for
// calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with exactly two fractional digits, e.g.
// "150.00". This is the representation used in CSV exports, sheet rows and
// JSON responses.
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}
