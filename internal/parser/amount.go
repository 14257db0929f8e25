// Package parser turns chat tokens into amounts, tags and notes.
//
// ParseAmount understands two notations that people mix freely in chat:
// digits with an optional suffix ("50k", "1.5jt", "Rp 25.000") and spelled
// out Indonesian numbers ("dua ratus lima puluh ribu", "setengah juta").
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var numberWords = map[string]decimal.Decimal{
	"nol":      decimal.Zero,
	"se":       decimal.NewFromInt(1),
	"satu":     decimal.NewFromInt(1),
	"dua":      decimal.NewFromInt(2),
	"tiga":     decimal.NewFromInt(3),
	"empat":    decimal.NewFromInt(4),
	"lima":     decimal.NewFromInt(5),
	"enam":     decimal.NewFromInt(6),
	"tujuh":    decimal.NewFromInt(7),
	"delapan":  decimal.NewFromInt(8),
	"sembilan": decimal.NewFromInt(9),
	"setengah": decimal.RequireFromString("0.5"),
	"sepuluh":  decimal.NewFromInt(10),
	"sebelas":  decimal.NewFromInt(11),
	"seratus":  decimal.NewFromInt(100),
	"seribu":   decimal.NewFromInt(1000),
}

type magnitudeKind int

const (
	magAdd   magnitudeKind = iota // belas
	magScale                      // puluh, ratus
	magFlush                      // ribu and above
)

type magnitude struct {
	kind  magnitudeKind
	value decimal.Decimal
}

var magnitudeWords = map[string]magnitude{
	"belas":   {magAdd, decimal.NewFromInt(10)},
	"puluh":   {magScale, decimal.NewFromInt(10)},
	"ratus":   {magScale, decimal.NewFromInt(100)},
	"ribu":    {magFlush, decimal.NewFromInt(1_000)},
	"juta":    {magFlush, decimal.NewFromInt(1_000_000)},
	"miliar":  {magFlush, decimal.NewFromInt(1_000_000_000)},
	"triliun": {magFlush, decimal.NewFromInt(1_000_000_000_000)},
}

var suffixMultipliers = map[string]decimal.Decimal{
	"":       decimal.NewFromInt(1),
	"k":      decimal.NewFromInt(1_000),
	"rb":     decimal.NewFromInt(1_000),
	"ribu":   decimal.NewFromInt(1_000),
	"jt":     decimal.NewFromInt(1_000_000),
	"juta":   decimal.NewFromInt(1_000_000),
	"m":      decimal.NewFromInt(1_000_000_000),
	"miliar": decimal.NewFromInt(1_000_000_000),
}

var (
	reSuffixAmount   = regexp.MustCompile(`^([\d.]+)\s*(k|rb|ribu|jt|juta|m|miliar)?$`)
	reThousandsDots  = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?`)
	reDigitLiteral   = regexp.MustCompile(`^\d+([.,]\d+)?$`)
	reCurrencyPrefix = regexp.MustCompile(`\b(rp|idr)\.?`)
)

var (
	ten      = decimal.NewFromInt(10)
	thousand = decimal.NewFromInt(1000)
)

// ParseAmount converts a token or token window into a non-negative amount.
// The second return value is false when neither notation matches.
func ParseAmount(input string) (decimal.Decimal, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return decimal.Zero, false
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-'
	})
	if hasNumberWord(words) {
		return parseWords(words)
	}
	return parseSuffixed(s)
}

func hasNumberWord(words []string) bool {
	for _, w := range words {
		if _, ok := numberWords[w]; ok {
			return true
		}
		if _, ok := magnitudeWords[w]; ok {
			return true
		}
		if _, ok := fusedSe(w); ok {
			return true
		}
	}
	return false
}

// fusedSe splits tokens like "sejuta" into the implicit one and its magnitude.
func fusedSe(w string) (magnitude, bool) {
	if !strings.HasPrefix(w, "se") || len(w) <= 2 {
		return magnitude{}, false
	}
	m, ok := magnitudeWords[w[2:]]
	return m, ok
}

// parseWords folds spelled out numbers left to right.
//
// unit holds the value that the next puluh/ratus multiplies, group holds the
// hundreds-level value below the next flush, and total holds what has been
// flushed by ribu/juta/miliar/triliun.
func parseWords(words []string) (decimal.Decimal, bool) {
	var total, group, unit decimal.Decimal

	apply := func(m magnitude) {
		switch m.kind {
		case magAdd:
			group = group.Add(unit).Add(m.value)
			unit = decimal.Zero
		case magScale:
			if unit.IsZero() {
				unit = decimal.NewFromInt(1)
			}
			group = group.Add(unit.Mul(m.value))
			unit = decimal.Zero
		case magFlush:
			current := group.Add(unit)
			if current.IsZero() {
				current = decimal.NewFromInt(1)
			}
			total = total.Add(current.Mul(m.value))
			group, unit = decimal.Zero, decimal.Zero
		}
	}

	for _, w := range words {
		if v, ok := numberWords[w]; ok {
			switch {
			case v.GreaterThanOrEqual(thousand):
				total = total.Add(v)
			case v.GreaterThanOrEqual(ten):
				group = group.Add(v)
			default:
				unit = unit.Add(v)
			}
			continue
		}
		if m, ok := magnitudeWords[w]; ok {
			apply(m)
			continue
		}
		if m, ok := fusedSe(w); ok {
			unit = unit.Add(decimal.NewFromInt(1))
			apply(m)
			continue
		}
		if reDigitLiteral.MatchString(w) {
			v, err := decimal.NewFromString(strings.ReplaceAll(w, ",", "."))
			if err != nil {
				return decimal.Zero, false
			}
			unit = unit.Add(v)
			continue
		}
		// Anything else means the window is not purely a number.
		return decimal.Zero, false
	}

	return total.Add(group).Add(unit), true
}

func parseSuffixed(s string) (decimal.Decimal, bool) {
	s = reCurrencyPrefix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if loc := reThousandsDots.FindStringIndex(s); loc != nil {
		s = strings.ReplaceAll(s[:loc[1]], ".", "") + s[loc[1]:]
	}
	s = strings.ReplaceAll(s, ",", ".")

	m := reSuffixAmount.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return v.Mul(suffixMultipliers[m[2]]), true
}
