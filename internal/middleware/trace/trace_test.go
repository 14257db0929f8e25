package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromRequest(r)
	}))

	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{"generated", "", false},
		{"propagated", "gateway-42", true},
		{"oversized replaced", strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set(HeaderRequestID, tt.inbound)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if got := rr.Header().Get(HeaderRequestID); got != seen {
				t.Errorf("response header %q != context ID %q", got, seen)
			}
			if tt.reuse {
				if seen != tt.inbound {
					t.Errorf("ID = %q, want %q", seen, tt.inbound)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("generated ID %q is not a UUID: %v", seen, err)
			}
		})
	}
}
