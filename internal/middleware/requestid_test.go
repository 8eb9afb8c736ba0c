package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/xeenaps/pkm/internal/logger"
)

func serveRequestID(t *testing.T, header string) (ctxID, respID string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxID = logger.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", http.NoBody)
	if header != "" {
		req.Header.Set(headerRequestID, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(headerRequestID)
}

func TestRequestIDGenerated(t *testing.T) {
	ctxID, respID := serveRequestID(t, "")
	if ctxID == "" {
		t.Fatal("expected request id in context")
	}
	if ctxID != respID {
		t.Errorf("context id %q != response id %q", ctxID, respID)
	}
	if _, err := uuid.Parse(respID); err != nil {
		t.Errorf("expected uuid, got %q: %v", respID, err)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ctxID, respID := serveRequestID(t, "client-trace-42")
	if ctxID != "client-trace-42" || respID != "client-trace-42" {
		t.Errorf("got ctx=%q resp=%q", ctxID, respID)
	}
}

func TestRequestIDRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"control chars", "abc\ninjected"},
		{"spaces", "has space"},
		{"too long", strings.Repeat("a", maxRequestIDLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxID, _ := serveRequestID(t, tt.id)
			if ctxID == tt.id {
				t.Errorf("malformed id %q should have been replaced", tt.id)
			}
			if _, err := uuid.Parse(ctxID); err != nil {
				t.Errorf("replacement is not a uuid: %q", ctxID)
			}
		})
	}
}
