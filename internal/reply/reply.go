// Package reply defines the replies handlers produce and renders them into
// the single outbound chat message.
package reply

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// Reply is either a Plain string or a Structured confirmation.
type Reply interface {
	isReply()
}

// Plain is passed through verbatim.
type Plain string

// Structured is a single-operation confirmation.
type Structured struct {
	Title    string
	Amount   *decimal.Decimal
	Category string
	Note     string
	Date     time.Time
}

func (Plain) isReply()      {}
func (Structured) isReply() {}

// FailurePrefix marks validation and processing failures.
const FailurePrefix = "❌ "

// Errorf builds a failure reply.
func Errorf(format string, args ...any) Plain {
	return Plain(FailurePrefix + fmt.Sprintf(format, args...))
}

// IsFailure reports whether r is a failure reply.
func IsFailure(r Reply) bool {
	p, ok := r.(Plain)
	return ok && strings.HasPrefix(string(p), FailurePrefix)
}

// AmountOf is a helper for filling Structured.Amount.
func AmountOf(d decimal.Decimal) *decimal.Decimal {
	return &d
}

const footer = "_Ketik *undo* untuk membatalkan, *help* untuk bantuan_"

// Formatter renders replies. Location controls the timestamp zone.
type Formatter struct {
	Location *time.Location
}

// Format renders a batch of replies as one message. It returns "" for an
// empty batch.
func (f Formatter) Format(replies []Reply) string {
	switch len(replies) {
	case 0:
		return ""
	case 1:
		return f.formatOne(replies[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Hasil %d perintah:*\n", len(replies))
	for _, r := range replies {
		b.WriteString("\n")
		switch v := r.(type) {
		case Plain:
			b.WriteString(string(v))
		case Structured:
			b.WriteString("• " + v.Title)
			if v.Amount != nil {
				b.WriteString(" - " + core.FormatRupiah(*v.Amount))
			}
			if v.Category != "" {
				b.WriteString(" (" + v.Category + ")")
			}
		}
	}
	return b.String()
}

func (f Formatter) formatOne(r Reply) string {
	switch v := r.(type) {
	case Plain:
		return string(v)
	case Structured:
		return f.structured(v)
	}
	return ""
}

func (f Formatter) structured(s Structured) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *%s*\n", s.Title)
	if s.Amount != nil {
		fmt.Fprintf(&b, "💰 Nominal: %s\n", core.FormatRupiah(*s.Amount))
	}
	if s.Category != "" {
		fmt.Fprintf(&b, "🏷️ Kategori: %s\n", s.Category)
	}
	note := s.Note
	if note == "" {
		note = "-"
	}
	fmt.Fprintf(&b, "📝 Catatan: %s\n", note)
	fmt.Fprintf(&b, "📅 %s\n\n", core.FormatDate(s.Date, f.Location))
	b.WriteString(footer)
	return b.String()
}
