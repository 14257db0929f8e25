package reply

import "strings"

const Welcome = `👋 Halo! Saya asisten keuanganmu.

Catat transaksi langsung lewat chat, contoh:
• keluar 50k makan siang @makan
• masuk 5jt gaji @kerja

Ketik *help* untuk daftar perintah.`

const NotUnderstood = `🤔 Maaf, perintah tidak dikenali.
Ketik *help* untuk melihat daftar perintah.`

const NotRegistered = FailurePrefix + "Nomor ini belum terdaftar. Silakan daftar melalui dashboard terlebih dahulu."

const ProcessingFailed = FailurePrefix + "Terjadi kesalahan saat memproses perintah. Silakan coba lagi."

const ShortHelp = `📖 *Perintah Singkat*

• keluar 50k makan @makan
• masuk 5jt gaji @kerja
• hutang 100k @budi / piutang 100k @ani
• bayar 50k @budi / lunas @budi
• cek saldo | hutang | budget | goal | wallet
• undo

Ketik *help lengkap* untuk semua perintah.`

const FullHelp = `📖 *Daftar Perintah Lengkap*

*Transaksi*
• keluar|out|expense <nominal> <catatan> @kategori [via @wallet]
• masuk|in|income <nominal> <catatan> @kategori [via @wallet]

*Hutang & Piutang*
• hutang|debt <nominal> @nama <catatan>
• piutang|loan <nominal> @nama <catatan>
• bayar <nominal> @nama
• lunas @nama

*Budget & Goal*
• budget <nominal> @kategori
• goal <target> @nama
• isi goal <nominal> @nama

*Wallet*
• transfer <nominal> dari @wallet1 ke @wallet2

*Transaksi Rutin*
• rutin <nominal> keluar|masuk harian|mingguan|bulanan @kategori <catatan>

*Lainnya*
• cek saldo | cek hutang | cek budget | cek goal | cek wallet
• undo | batal
• hapus kategori @nama

Nominal bisa ditulis 50k, 1.5jt, 25.000 atau seratus ribu.
Satu pesan boleh berisi beberapa baris perintah.`

var greetings = map[string]struct{}{
	"halo": {}, "hallo": {}, "hai": {}, "hi": {}, "hello": {}, "hey": {},
	"p": {}, "ping": {}, "pagi": {}, "siang": {}, "sore": {}, "malam": {},
	"selamat pagi": {}, "selamat siang": {}, "selamat sore": {}, "selamat malam": {},
	"assalamualaikum": {}, "permisi": {},
}

// Help returns the help text selected by a literal keyword match.
func Help(text string) (string, bool) {
	switch normalize(text) {
	case "help", "bantuan":
		return ShortHelp, true
	case "help lengkap", "full help":
		return FullHelp, true
	}
	return "", false
}

// IsGreeting reports whether the whole message is a greeting keyword.
func IsGreeting(text string) bool {
	_, ok := greetings[normalize(text)]
	return ok
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRight(text, "!.?")
	return strings.Join(strings.Fields(text), " ")
}
