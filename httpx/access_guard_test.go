package httpx

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func guardRequest(remote string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.RemoteAddr = remote
	return req
}

func TestAccessGuard_PanicsWhenNoChecksConfigured(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = AccessGuard()
}

func TestAccessGuard_CheckConflictsWithIP(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = AccessGuard(WithIPAllowList([]string{"127.0.0.1"}), WithCheck(func(*http.Request) bool { return true }))
}

func TestAccessGuard_IPAllowList(t *testing.T) {
	var reasons []DenyReason
	h := Chain(AccessGuard(
		WithIPAllowList([]string{"127.0.0.1", "10.0.0.0/8"}),
		WithOnDeny(func(r *http.Request, reason DenyReason) { reasons = append(reasons, reason) }),
	)).Handler(okHandler())

	for _, tc := range []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:1", http.StatusOK},
		{"10.1.2.3:1", http.StatusOK},
		{"192.0.2.1:1", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, guardRequest(tc.remote))
		if rr.Code != tc.want {
			t.Fatalf("remote %q: expected %d, got %d", tc.remote, tc.want, rr.Code)
		}
	}
	if len(reasons) != 2 || reasons[0] != DenyReasonIPNotAllowed || reasons[1] != DenyReasonIPParseFailed {
		t.Fatalf("reasons=%v", reasons)
	}
}

func TestAccessGuard_EmptyAllowListDeniesAll(t *testing.T) {
	set := NewIPSet(nil)
	h := Chain(AccessGuard(WithIPAllowSet(set))).Handler(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, guardRequest("127.0.0.1:1"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected %d, got %d", http.StatusForbidden, rr.Code)
	}

	set.Update([]string{"127.0.0.1"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, guardRequest("127.0.0.1:1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("after update: expected %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestAccessGuard_UsesRealIP(t *testing.T) {
	h := Chain(
		RealIP(WithTrustedProxies([]string{"10.0.0.1"})),
		AccessGuard(WithIPAllowList([]string{"203.0.113.7"})),
	).Handler(okHandler())

	req := guardRequest("10.0.0.1:1")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestAccessGuard_CheckAndDenyStatus(t *testing.T) {
	h := Chain(AccessGuard(
		WithCheck(func(r *http.Request) bool {
			ip, ok := ClientIP(r)
			return ok && ip.Equal(net.ParseIP("127.0.0.1"))
		}),
		WithDenyStatus(http.StatusNotFound),
	)).Handler(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, guardRequest("127.0.0.1:1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, guardRequest("192.0.2.1:1"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rr.Code)
	}
}
