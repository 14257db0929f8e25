package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "Rp 0"},
		{"500", "Rp 500"},
		{"1000", "Rp 1.000"},
		{"50000", "Rp 50.000"},
		{"1500000", "Rp 1.500.000"},
		{"1000000000", "Rp 1.000.000.000"},
		{"0.5", "Rp 0,5"},
		{"1234.25", "Rp 1.234,25"},
		{"-2500", "-Rp 2.500"},
	}
	for _, tc := range cases {
		got := FormatRupiah(decimal.RequireFromString(tc.in))
		if got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 10, 19, 7, 5, 0, 0, time.UTC)
	wib := time.FixedZone("WIB", 7*3600)
	if got := FormatDate(ts, wib); got != "19 Oktober 2026 14:05" {
		t.Fatalf("unexpected date: %q", got)
	}
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2026, 12, 15, 10, 0, 0, 0, time.UTC))
	if !start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", start)
	}
	if !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %v", end)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(decimal.NewFromInt(50), decimal.NewFromInt(200)); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := Percent(decimal.NewFromInt(50), decimal.Zero); got != 0 {
		t.Fatalf("expected 0 for zero whole, got %d", got)
	}
}
