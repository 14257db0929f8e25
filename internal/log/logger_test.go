package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentRouter, Output: &buf})

	l.Info("hello", FieldVerb, "keluar")
	l.WithComponent(ComponentAMQP).Warn("queue")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=router") || !strings.Contains(out, "verb=keluar") {
		t.Fatalf("missing fields: %s", out)
	}
	if !strings.Contains(out, "component=amqp") {
		t.Fatalf("missing derived component: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	var fromCtx *Logger
	h := Middleware(l, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Fatal("expected request logger in context")
	}
	out := buf.String()
	for _, want := range []string{"request_id=req-1", "status_code=418", "path=/healthz", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q: %s", want, out)
		}
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
