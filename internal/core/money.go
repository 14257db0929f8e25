// Package core provides money and date formatting utilities.
//
// This file contains the Rupiah formatter used by every reply and the
// Indonesian calendar names used for localized timestamps.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount the way Indonesian users write it.
//
// Thousands are grouped with dots and up to two fractional digits follow a
// comma. Trailing zero decimals are dropped.
//
// Examples:
//
//	FormatRupiah(decimal.NewFromInt(1500000)) -> "Rp 1.500.000"
//	FormatRupiah(decimal.RequireFromString("0.5")) -> "Rp 0,5"
//	FormatRupiah(decimal.NewFromInt(-2500)) -> "-Rp 2.500"
func FormatRupiah(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	d = d.Round(2)

	intPart := d.Truncate(0).String()
	frac := d.Sub(d.Truncate(0))

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := sign + "Rp " + b.String()
	if !frac.IsZero() {
		// "0.25" -> "25"
		digits := strings.TrimPrefix(frac.String(), "0.")
		out += "," + digits
	}
	return out
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate renders a timestamp as "19 Oktober 2026 14:05" in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d %s %d %02d:%02d", t.Day(), indonesianMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// MonthRange returns [first day of t's month, first day of next month) in t's location.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Percent returns part/whole*100 rounded to an integer; zero when whole is zero.
func Percent(part, whole decimal.Decimal) int64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MonthName returns the Indonesian name of m.
func MonthName(m time.Month) string {
	return indonesianMonths[m-1]
}
