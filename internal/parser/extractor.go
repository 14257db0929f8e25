package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Span is a half-open token range [Start, End).
type Span struct {
	Start int
	End   int
}

// Tokenize lowercases a line and splits it on whitespace.
func Tokenize(line string) []string {
	return strings.Fields(strings.ToLower(line))
}

// FindAmount scans token windows starting at from and returns the first
// strictly positive amount.
//
// The outer loop walks start indexes left to right and the inner loop tries
// the longest window first, so "dua ratus" wins over "dua" at the same start.
// The scan is O(n²) window parses, which is fine for chat-sized lines.
func FindAmount(tokens []string, from int) (decimal.Decimal, Span, bool) {
	for i := from; i < len(tokens); i++ {
		for j := len(tokens); j > i; j-- {
			v, ok := ParseAmount(strings.Join(tokens[i:j], " "))
			if ok && v.IsPositive() {
				return v, Span{Start: i, End: j}, true
			}
		}
	}
	return decimal.Zero, Span{}, false
}

// TagName returns the entity name carried by an @token, with underscores
// mapped to spaces.
func TagName(token string) (string, bool) {
	if !strings.HasPrefix(token, "@") {
		return "", false
	}
	name := strings.TrimSpace(strings.ReplaceAll(token[1:], "_", " "))
	return name, name != ""
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Fields is the extraction state of one command line. Every method that
// recognizes something consumes the tokens it used so Note only returns the
// leftovers.
type Fields struct {
	Tokens []string

	Amount    decimal.Decimal
	AmountAt  Span
	HasAmount bool

	consumed []bool
}

// Extract consumes the first verbLen tokens and locates the amount span.
func Extract(tokens []string, verbLen int) *Fields {
	f := &Fields{
		Tokens:   tokens,
		consumed: make([]bool, len(tokens)),
	}
	for i := 0; i < verbLen && i < len(tokens); i++ {
		f.consumed[i] = true
	}

	if v, span, ok := FindAmount(tokens, verbLen); ok {
		f.Amount, f.AmountAt, f.HasAmount = v, span, true
		for i := span.Start; i < span.End; i++ {
			f.consumed[i] = true
		}
	}
	return f
}

// Tag consumes and returns the first remaining @token.
func (f *Fields) Tag() (string, bool) {
	for i, tok := range f.Tokens {
		if f.consumed[i] {
			continue
		}
		if name, ok := TagName(tok); ok {
			f.consumed[i] = true
			return name, true
		}
	}
	return "", false
}

// TagAfter consumes the first "keyword @tag" pair and returns the tag.
func (f *Fields) TagAfter(keyword string) (string, bool) {
	for i := 1; i < len(f.Tokens); i++ {
		if f.consumed[i] || f.consumed[i-1] || f.Tokens[i-1] != keyword {
			continue
		}
		if name, ok := TagName(f.Tokens[i]); ok {
			f.consumed[i-1], f.consumed[i] = true, true
			return name, true
		}
	}
	return "", false
}

// Keyword consumes the first remaining token that is one of words.
func (f *Fields) Keyword(words ...string) (string, bool) {
	for i, tok := range f.Tokens {
		if f.consumed[i] {
			continue
		}
		for _, w := range words {
			if tok == w {
				f.consumed[i] = true
				return tok, true
			}
		}
	}
	return "", false
}

// Note joins every token that has not been consumed.
func (f *Fields) Note() string {
	var parts []string
	for i, tok := range f.Tokens {
		if !f.consumed[i] {
			parts = append(parts, tok)
		}
	}
	return strings.Join(parts, " ")
}
