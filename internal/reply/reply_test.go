package reply

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormat_SingleStructured(t *testing.T) {
	f := Formatter{Location: time.UTC}
	out := f.Format([]Reply{Structured{
		Title:    "Pengeluaran Tercatat",
		Amount:   AmountOf(decimal.NewFromInt(50000)),
		Category: "makan",
		Note:     "Makan Siang",
		Date:     time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC),
	}})

	for _, want := range []string{
		"✅ *Pengeluaran Tercatat*",
		"💰 Nominal: Rp 50.000",
		"🏷️ Kategori: makan",
		"📝 Catatan: Makan Siang",
		"📅 19 Oktober 2026 12:30",
		footer,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormat_SingleStructuredOmitsOptionalFields(t *testing.T) {
	f := Formatter{Location: time.UTC}
	out := f.Format([]Reply{Structured{Title: "Undo Berhasil", Date: time.Now()}})
	if strings.Contains(out, "Nominal") || strings.Contains(out, "Kategori") {
		t.Fatalf("unexpected optional fields:\n%s", out)
	}
	if !strings.Contains(out, "📝 Catatan: -") {
		t.Fatalf("expected placeholder note:\n%s", out)
	}
}

func TestFormat_Batch(t *testing.T) {
	f := Formatter{Location: time.UTC}
	out := f.Format([]Reply{
		Structured{Title: "Pengeluaran Tercatat", Amount: AmountOf(decimal.NewFromInt(15000)), Category: "kopi"},
		Errorf("Nominal tidak valid"),
		Plain("💰 Saldo: Rp 0"),
	})

	lines := strings.Split(out, "\n")
	want := []string{
		"📋 *Hasil 3 perintah:*",
		"",
		"• Pengeluaran Tercatat - Rp 15.000 (kopi)",
		"❌ Nominal tidak valid",
		"💰 Saldo: Rp 0",
	}
	if len(lines) != len(want) {
		t.Fatalf("unexpected line count %d:\n%s", len(lines), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormat_PlainAndEmpty(t *testing.T) {
	f := Formatter{}
	if got := f.Format(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
	if got := f.Format([]Reply{Plain("ok")}); got != "ok" {
		t.Fatalf("expected verbatim plain, got %q", got)
	}
}

func TestIsFailure(t *testing.T) {
	if !IsFailure(Errorf("x %d", 1)) {
		t.Fatal("Errorf should be a failure")
	}
	if IsFailure(Plain("ok")) || IsFailure(Structured{}) {
		t.Fatal("unexpected failure")
	}
}

func TestHelpAndGreeting(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"help", ShortHelp},
		{"Bantuan", ShortHelp},
		{"help lengkap", FullHelp},
		{"FULL HELP", FullHelp},
	}
	for _, tt := range tests {
		got, ok := Help(tt.in)
		if !ok || got != tt.want {
			t.Fatalf("Help(%q) did not select the expected text", tt.in)
		}
	}
	if _, ok := Help("help me please"); ok {
		t.Fatal("partial keyword should not match")
	}

	for _, g := range []string{"halo", "Hai!", "selamat  pagi", "Assalamualaikum"} {
		if !IsGreeting(g) {
			t.Fatalf("expected %q to be a greeting", g)
		}
	}
	if IsGreeting("halo keluar 50k") {
		t.Fatal("command with greeting prefix must not be a greeting")
	}
}
