package toolbar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

func dialLive(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients=%d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishesSummaries(t *testing.T) {
	defer goleak.VerifyNone(t)

	eng := New(WithStaticConfig(testConfig()), WithShowToolbar(always))
	srv := httptest.NewServer(eng.Routes())
	defer srv.Close()
	defer eng.Close()

	conn := dialLive(t, srv)
	defer conn.Close()
	waitClients(t, eng.Hub(), 1)

	id := instrumentedPage(t, eng)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var sum Summary
	if err := json.Unmarshal(msg, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.StoreID != id || sum.Path != "/page" || !sum.Spliced {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r)
	}))
	defer srv.Close()

	conn := dialLive(t, srv)
	defer conn.Close()
	waitClients(t, hub, 1)

	hub.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("err=%v, want normal closure", err)
	}
	waitClients(t, hub, 0)

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed hub status=%d, want 503", rec.Code)
	}
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(Summary{StoreID: "x"})
	hub.Close()
	hub.Close()
}
