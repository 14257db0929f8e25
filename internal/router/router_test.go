package router

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/log"
	"dompet/internal/reply"
	"dompet/internal/services"
	"dompet/internal/silence"
	"dompet/internal/store/memory"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSender) Send(_ context.Context, conversationID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, conversationID+"|"+text)
	return nil
}

// flakyExecutor fails or panics on chosen verbs and delegates the rest.
type flakyExecutor struct {
	next    Executor
	failOn  string
	panicOn string
}

func (e flakyExecutor) Execute(ctx context.Context, u core.User, cmd command.Command) (reply.Reply, error) {
	switch cmd.Verb {
	case e.failOn:
		return nil, errors.New("database is locked")
	case e.panicOn:
		panic("boom")
	}
	return e.next.Execute(ctx, u, cmd)
}

type harness struct {
	router  *Router
	sender  *recordingSender
	silence *silence.Window
	store   *memory.Store
	logs    *bytes.Buffer
}

func newHarness(t *testing.T, wrap func(Executor) Executor) *harness {
	t.Helper()
	st := memory.New()
	st.AddUser("628111", "Budi")

	var exec Executor = services.NewInterpreter(st, services.WithLocation(time.UTC))
	if wrap != nil {
		exec = wrap(exec)
	}
	var logs bytes.Buffer
	logger := log.New(log.Config{Component: log.ComponentApp, Output: &logs})
	sil := silence.NewWindow(time.Minute, 100)
	sender := &recordingSender{}

	return &harness{
		router:  New(st, exec, sil, sender, reply.Formatter{Location: time.UTC}, logger),
		sender:  sender,
		silence: sil,
		store:   st,
		logs:    &logs,
	}
}

func msg(text string) Message {
	return Message{ID: "m1", ConversationID: "chat-1", Phone: "628111", Text: text}
}

func (h *harness) handle(t *testing.T, m Message) string {
	t.Helper()
	out, err := h.router.Handle(context.Background(), m)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	return out
}

func TestHandle_OneOutboundMessagePerInput(t *testing.T) {
	h := newHarness(t, nil)
	out := h.handle(t, msg("keluar 50k makan @makan\nmasuk 5jt gaji @kerja\nngobrol biasa\ncek saldo"))

	if len(h.sender.sent) != 1 {
		t.Fatalf("expected exactly one outbound message, got %d", len(h.sender.sent))
	}
	if !strings.HasPrefix(h.sender.sent[0], "chat-1|") {
		t.Fatalf("reply sent to wrong conversation: %q", h.sender.sent[0])
	}
	if !strings.Contains(out, "📋 *Hasil 3 perintah:*") {
		t.Fatalf("expected batch of three replies:\n%s", out)
	}
	if !strings.Contains(out, "• Pengeluaran Tercatat - Rp 50.000 (makan)") {
		t.Fatalf("missing expense bullet:\n%s", out)
	}
}

func TestHandle_SingleCommandUsesTemplate(t *testing.T) {
	h := newHarness(t, nil)
	out := h.handle(t, msg("keluar 50k makan siang @makan"))
	if !strings.Contains(out, "✅ *Pengeluaran Tercatat*") || !strings.Contains(out, "📝 Catatan: Makan Siang") {
		t.Fatalf("unexpected reply:\n%s", out)
	}
}

func TestHandle_LineIsolation(t *testing.T) {
	h := newHarness(t, func(next Executor) Executor {
		return flakyExecutor{next: next, failOn: "masuk", panicOn: "hutang"}
	})
	out := h.handle(t, msg("keluar 10k kopi @jajan\nmasuk 1jt @gaji\nhutang 50k @ani\nkeluar 5k parkir"))

	if strings.Count(out, reply.ProcessingFailed) != 2 {
		t.Fatalf("expected two generic failures:\n%s", out)
	}
	if strings.Count(out, "Pengeluaran Tercatat") != 2 {
		t.Fatalf("lines after a failure must still run:\n%s", out)
	}
	u, _ := h.store.FindUserByPhone(context.Background(), "628111")
	totals, _ := h.store.SumTotals(context.Background(), u.ID, time.Time{}, time.Time{})
	if totals.Expense.String() != "15000" {
		t.Fatalf("unexpected stored expense: %s", totals.Expense)
	}
	if !strings.Contains(h.logs.String(), "database is locked") || !strings.Contains(h.logs.String(), "panic: boom") {
		t.Fatalf("failures should be logged:\n%s", h.logs.String())
	}
}

func TestHandle_ValidationErrorIsReply(t *testing.T) {
	h := newHarness(t, nil)
	out := h.handle(t, msg("bayar 10k @siapa"))
	if !strings.HasPrefix(out, reply.FailurePrefix) {
		t.Fatalf("expected failure reply, got %q", out)
	}
}

func TestHandle_HelpAndGreeting(t *testing.T) {
	h := newHarness(t, nil)
	if out := h.handle(t, msg("help")); out != reply.ShortHelp {
		t.Fatalf("unexpected help: %q", out)
	}
	if out := h.handle(t, msg("help lengkap")); out != reply.FullHelp {
		t.Fatalf("unexpected full help: %q", out)
	}
	if out := h.handle(t, msg("Halo!")); out != reply.Welcome {
		t.Fatalf("unexpected greeting reply: %q", out)
	}
}

func TestHandle_NoMatch(t *testing.T) {
	h := newHarness(t, nil)
	if out := h.handle(t, msg("kapan kita ketemu?")); out != reply.NotUnderstood {
		t.Fatalf("single unmatched line should get the hint, got %q", out)
	}
	if out := h.handle(t, msg("kapan kita ketemu?\nbesok ya")); out != "" {
		t.Fatalf("multi-line chatter should be dropped, got %q", out)
	}
	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one message sent, got %d", len(h.sender.sent))
	}
}

func TestHandle_SilenceWindow(t *testing.T) {
	h := newHarness(t, nil)

	op := msg("nanti saya telepon")
	op.FromMe = true
	if out := h.handle(t, op); out != "" {
		t.Fatalf("operator messages get no reply, got %q", out)
	}
	if !h.silence.IsSilenced("chat-1") {
		t.Fatal("operator message should open a silence window")
	}

	if out := h.handle(t, msg("halo")); out != "" {
		t.Fatalf("greeting should be suppressed, got %q", out)
	}
	if out := h.handle(t, msg("oke makasih")); out != "" {
		t.Fatalf("hint should be suppressed, got %q", out)
	}
	if out := h.handle(t, msg("keluar 10k kopi")); !strings.Contains(out, "Pengeluaran Tercatat") {
		t.Fatalf("commands still run while silenced, got %q", out)
	}

	other := msg("halo")
	other.ConversationID = "chat-2"
	if out := h.handle(t, other); out != reply.Welcome {
		t.Fatalf("other conversations are unaffected, got %q", out)
	}
}

func TestHandle_UnregisteredPhone(t *testing.T) {
	h := newHarness(t, nil)
	m := msg("keluar 10k kopi")
	m.Phone = "620000"
	if out := h.handle(t, m); out != reply.NotRegistered {
		t.Fatalf("unexpected reply: %q", out)
	}

	m.Text = "apa kabar"
	if out := h.handle(t, m); out != reply.NotUnderstood {
		t.Fatalf("chatter from unknown phones gets the hint only, got %q", out)
	}
}

func TestHandle_SendError(t *testing.T) {
	h := newHarness(t, nil)
	h.sender.err = errors.New("broker down")
	if _, err := h.router.Handle(context.Background(), msg("help")); err == nil {
		t.Fatal("expected send error")
	}
}

func TestRespond_WithoutSender(t *testing.T) {
	st := memory.New()
	r := New(st, services.NewInterpreter(st), silence.NewWindow(time.Minute, 10), nil, reply.Formatter{}, nil)
	if out := r.Respond(context.Background(), msg("bantuan")); out != reply.ShortHelp {
		t.Fatalf("unexpected reply: %q", out)
	}
	if _, err := r.Handle(context.Background(), msg("bantuan")); err == nil {
		t.Fatal("Handle without sender should fail")
	}
}
