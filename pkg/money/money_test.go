package money

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.00", "10.00"},
		{"2.005", "2.01"},
		{" 3.5 ", "3.50"},
		{"12.5 USD", "12.50"},
		{".75", "0.75"},
		{"-4.1", "-4.10"},
		{"abc", "0.00"},
		{"", "0.00"},
	}
	for _, tc := range cases {
		got := Format(ParseAmount(tc.in, decimal.Zero))
		if got != tc.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseAmount_Fallback(t *testing.T) {
	got := ParseAmount("n/a", decimal.NewFromInt(7))
	if Format(got) != "7.00" {
		t.Fatalf("expected fallback 7.00, got %s", Format(got))
	}
}

func TestParseAmount_BoundsExponent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1e3", "1000.00"},
		{"2.5E-1", "0.25"},
		{"1e15", "1000000000000000.00"},
		{"1e5000000", "0.00"},
		{"1e-5000000", "0.00"},
		{"9e99999999999999999999", "0.00"},
	}
	for _, tc := range cases {
		start := time.Now()
		got := Format(ParseAmount(tc.in, decimal.Zero))
		if got != tc.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("ParseAmount(%q) took %v", tc.in, elapsed)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"3 boxes", 3},
		{"2.9", 2},
		{"-1", -1},
		{"x", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseQuantity(tc.in, 0); got != tc.want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
