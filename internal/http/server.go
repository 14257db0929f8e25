package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"dompet/internal/log"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/router"
)

const (
	maxBodyBytes   = 64 << 10
	maxTextLength  = 4096
	requestTimeout = 30 * time.Second
)

// Responder computes the reply for one inbound message.
type Responder interface {
	Respond(ctx context.Context, msg router.Message) string
}

// ReadyFunc reports whether the backing store can serve requests.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	http.Server
	responder   Responder
	ready       ReadyFunc
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// Options tune the webhook server. Zero values use defaults.
type Options struct {
	RequestsPerMinute int
	Logger            *log.Logger
}

// NewServer wires the webhook routes on a chi router.
func NewServer(addr string, responder Responder, ready ReadyFunc, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}

	s := &Server{
		responder: responder,
		ready:     ready,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
	}
	clientIP := security.NewClientIP()

	r := chi.NewRouter()
	r.Use(trace.RequestID)
	r.Use(log.Middleware(logger.WithComponent(log.ComponentHTTP), trace.FromRequest))
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(s.rateLimiter.Middleware(clientIP.Extract))
		r.Post("/messages", s.handleMessage)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type messageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var msg router.Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&msg); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "message too large"})
			return
		}
		logger.WarnContext(ctx, "Invalid message payload", log.FieldError, err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := validateMessage(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	text := s.responder.Respond(ctx, msg)
	writeJSON(w, http.StatusOK, messageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Reply:          text,
	})
}

// validateMessage fills the optional fields and rejects unusable messages.
func validateMessage(msg *router.Message) error {
	msg.ConversationID = strings.TrimSpace(msg.ConversationID)
	msg.Phone = strings.TrimSpace(msg.Phone)
	switch {
	case msg.ConversationID == "":
		return errors.New("conversation_id is required")
	case msg.Phone == "" && !msg.FromMe:
		return errors.New("phone is required")
	case len(msg.Text) > maxTextLength:
		return errors.New("text is too long")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
