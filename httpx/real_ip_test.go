package httpx

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func realIPOf(t *testing.T, req *http.Request, opts ...RealIPOption) string {
	t.Helper()
	var got net.IP
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = RealIPFromRequest(r)
	}), RealIP(opts...))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil {
		return ""
	}
	return got.String()
}

func TestRealIP_IgnoresHeadersWithoutTrustedProxies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	if got := realIPOf(t, req); got != "10.0.0.1" {
		t.Fatalf("expected RemoteAddr, got %q", got)
	}
}

func TestRealIP_XFFRightToLeft(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 10.0.0.2")
	if got := realIPOf(t, req, WithTrustedProxies([]string{"10.0.0.0/8"})); got != "2.2.2.2" {
		t.Fatalf("expected 2.2.2.2, got %q", got)
	}
}

func TestRealIP_XRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Real-IP", "3.3.3.3")
	if got := realIPOf(t, req, WithTrustedProxies([]string{"10.0.0.1"})); got != "3.3.3.3" {
		t.Fatalf("expected 3.3.3.3, got %q", got)
	}
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:80"
	ip, ok := ClientIP(req)
	if !ok || ip.String() != "::1" {
		t.Fatalf("expected ::1, got %v %v", ip, ok)
	}
}

func TestIPSet(t *testing.T) {
	s := NewIPSet([]string{"127.0.0.1", " ", "bogus", "192.168.0.0/16", "::1"})
	if s.Len() != 3 {
		t.Fatalf("expected 3 networks, got %d", s.Len())
	}
	for _, in := range []string{"127.0.0.1", "192.168.4.5", "::1", "::ffff:127.0.0.1"} {
		if !s.Contains(net.ParseIP(in)) {
			t.Fatalf("expected %s to be contained", in)
		}
	}
	if s.Contains(net.ParseIP("8.8.8.8")) {
		t.Fatalf("unexpected match")
	}
	s.Update(nil)
	if s.Contains(net.ParseIP("127.0.0.1")) {
		t.Fatalf("expected empty set after update")
	}
	var zero IPSet
	if zero.Contains(net.ParseIP("127.0.0.1")) {
		t.Fatalf("zero set must be empty")
	}
}
