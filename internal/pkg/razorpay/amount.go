package razorpay

import (
	"fmt"
	"strings"
)

// ParseAmountMinor parses a decimal amount string ("100", "99.5", "10.00")
// into minor currency units. At most two decimal places are accepted.
func ParseAmountMinor(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		return 0, fmt.Errorf("invalid amount: %q", raw)
	}
	if hasFrac {
		if len(fracPart) == 0 || len(fracPart) > 2 {
			return 0, fmt.Errorf("invalid amount: %q", raw)
		}
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	var minor int64
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount: %q", raw)
		}
		d := int64(r - '0')
		if minor > (1<<62)/10 {
			return 0, fmt.Errorf("amount too large: %q", raw)
		}
		minor = minor*10 + d
	}
	return minor, nil
}

// FormatAmountMinor renders minor units as a two-decimal string.
func FormatAmountMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// CoinsForAmount computes the coins credited for a purchase amount.
// rateCenti is coins per currency unit in hundredths (100 = 1.00 coin/unit);
// the result is floored.
func CoinsForAmount(amountMinor, rateCenti int64) int64 {
	if amountMinor <= 0 || rateCenti <= 0 {
		return 0
	}
	return amountMinor * rateCenti / 10000
}
