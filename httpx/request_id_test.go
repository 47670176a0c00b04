package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func serveRequestID(t *testing.T, req *http.Request, opts ...RequestIDOption) (seen string, header string) {
	t.Helper()
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromRequest(r)
	}), RequestID(opts...))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return seen, rr.Header().Get(RequestIDHeader)
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	seen, header := serveRequestID(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid, got %q: %v", seen, err)
	}
	if header != seen {
		t.Fatalf("header %q != context %q", header, seen)
	}
}

func TestRequestID_ReusesValidIncoming(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	seen, _ := serveRequestID(t, req)
	if seen != "abc-123" {
		t.Fatalf("expected incoming id, got %q", seen)
	}
}

func TestRequestID_RejectsInvalidIncoming(t *testing.T) {
	cases := map[string][]string{
		"spaces":   {"a b"},
		"multiple": {"a", "b"},
		"too long": {strings.Repeat("a", 129)},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, v := range values {
				req.Header.Add(RequestIDHeader, v)
			}
			seen, _ := serveRequestID(t, req)
			for _, v := range values {
				if seen == v {
					t.Fatalf("expected generated id, got incoming %q", seen)
				}
			}
		})
	}
}

func TestRequestID_UntrustedIncomingIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	seen, _ := serveRequestID(t, req, WithTrustIncoming(false), WithRequestIDGenerator(func() string { return "gen-1" }))
	if seen != "gen-1" {
		t.Fatalf("expected generated id, got %q", seen)
	}
}
