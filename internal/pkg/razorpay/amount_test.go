package razorpay_test

import (
	"testing"

	"github.com/coinly/coinly-api/internal/pkg/razorpay"
)

func TestParseAmountMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100", 10000},
		{"100.00", 10000},
		{"99.5", 9950},
		{"10.01", 1001},
		{"0.01", 1},
		{" 250 ", 25000},
		{"50000.00", 5000000},
	}

	for _, tc := range cases {
		got, err := razorpay.ParseAmountMinor(tc.in)
		if err != nil {
			t.Fatalf("ParseAmountMinor(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseAmountMinor(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountMinorRejectsInvalid(t *testing.T) {
	for _, in := range []string{
		"", "abc", "-10", "10.123", "10.", ".5", "1,000", "1e3", "10.0.0",
	} {
		if _, err := razorpay.ParseAmountMinor(in); err == nil {
			t.Errorf("ParseAmountMinor(%q): expected error", in)
		}
	}
}

func TestFormatAmountMinor(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{10000, "100.00"},
		{9950, "99.50"},
		{1, "0.01"},
		{0, "0.00"},
		{-2550, "-25.50"},
	}
	for _, tc := range cases {
		if got := razorpay.FormatAmountMinor(tc.in); got != tc.want {
			t.Errorf("FormatAmountMinor(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCoinsForAmount(t *testing.T) {
	cases := []struct {
		amountMinor int64
		rateCenti   int64
		want        int64
	}{
		{10000, 100, 100}, // 100.00 at 1 coin/unit
		{10000, 150, 150}, // 100.00 at 1.5 coins/unit
		{9950, 100, 99},   // fractional coins floored
		{50, 100, 0},      // below one coin
		{10000, 0, 0},     // no rate, no coins
		{-100, 100, 0},    // negative amount
		{5000000, 100, 50000},
	}
	for _, tc := range cases {
		if got := razorpay.CoinsForAmount(tc.amountMinor, tc.rateCenti); got != tc.want {
			t.Errorf("CoinsForAmount(%d, %d) = %d, want %d", tc.amountMinor, tc.rateCenti, got, tc.want)
		}
	}
}
