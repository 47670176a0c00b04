package debugbar

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evan-idocoding/debugbar/httpx"
	"github.com/evan-idocoding/debugbar/toolbar"
)

func testApp() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body><h1>page</h1></body></html>")
	})
	mux.HandleFunc("GET /api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	mux.HandleFunc("GET /panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	return mux
}

func debugConfig() toolbar.Config {
	cfg := toolbar.DefaultConfig()
	cfg.Debug = true
	cfg.DebugURIHeader = true
	cfg.DebugURIStorage = "memory"
	return cfg
}

func localRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, "http://example.test"+target, nil)
	r.RemoteAddr = "127.0.0.1:40000"
	return r
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestNew_InsertsToolbar(t *testing.T) {
	app := testApp()
	bar := New(app, Spec{Config: toolbar.NewAtomicConfig(debugConfig()), Mux: app})
	defer bar.Close()

	rec := do(bar, localRequest(http.MethodGet, "/page"))
	body := rec.Body.String()
	if !strings.Contains(body, "</div>\n</body>") || !strings.Contains(body, `id="debugbar"`) {
		t.Fatalf("toolbar not inserted: %q", body)
	}
	if rec.Header().Get(httpx.RequestIDHeader) == "" {
		t.Fatalf("missing %s", httpx.RequestIDHeader)
	}
	if !strings.Contains(body, "GET /page") {
		t.Fatalf("request panel must show the resolved pattern")
	}
}

func TestNew_HiddenByDefault(t *testing.T) {
	bar := New(testApp(), Spec{})
	defer bar.Close()

	rec := do(bar, localRequest(http.MethodGet, "/page"))
	if got := rec.Body.String(); got != "<html><body><h1>page</h1></body></html>" {
		t.Fatalf("default config must not show the toolbar: %q", got)
	}
}

func TestNew_StoredPageIsServed(t *testing.T) {
	bar := New(testApp(), Spec{Config: toolbar.NewAtomicConfig(debugConfig())})
	defer bar.Close()

	rec := do(bar, localRequest(http.MethodGet, "/api"))
	if rec.Body.String() != `{"ok":true}` {
		t.Fatalf("json body changed: %q", rec.Body.String())
	}
	uri := rec.Header().Get(toolbar.HeaderName)
	if !strings.HasPrefix(uri, "/media/debug-toolbar/") {
		t.Fatalf("%s=%q", toolbar.HeaderName, uri)
	}

	rec = do(bar, localRequest(http.MethodGet, uri))
	if rec.Code != http.StatusOK {
		t.Fatalf("stored page status=%d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type=%q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<textarea>{&#34;ok&#34;:true}</textarea>") {
		t.Fatalf("unexpected page: %q", rec.Body.String())
	}

	if rec := do(bar, localRequest(http.MethodGet, "/media/debug-toolbar/missing.html")); rec.Code != http.StatusNotFound {
		t.Fatalf("missing page status=%d", rec.Code)
	}
}

func TestNew_DebugRoutes(t *testing.T) {
	bar := New(testApp(), Spec{Config: toolbar.NewAtomicConfig(debugConfig())})
	defer bar.Close()

	rec := do(bar, localRequest(http.MethodGet, "/__debug__?format=json"))
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/__debug__/?format=json" {
		t.Fatalf("redirect: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	do(bar, localRequest(http.MethodGet, "/page"))
	rec = do(bar, localRequest(http.MethodGet, "/__debug__/history"))
	var sums []toolbar.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sums); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(sums) != 1 || sums[0].Path != "/page" {
		t.Fatalf("history=%+v", sums)
	}
}

func TestNew_RecoversPanics(t *testing.T) {
	bar := New(testApp(), Spec{Config: toolbar.NewAtomicConfig(debugConfig())})
	defer bar.Close()

	rec := do(bar, localRequest(http.MethodGet, "/panic"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
}

func TestNew_TrustedProxies(t *testing.T) {
	cfg := debugConfig()
	r := httptest.NewRequest(http.MethodGet, "http://example.test/page", nil)
	r.RemoteAddr = "10.0.0.2:5555"
	r.Header.Set("X-Forwarded-For", "127.0.0.1")

	bar := New(testApp(), Spec{Config: toolbar.NewAtomicConfig(cfg)})
	if strings.Contains(do(bar, r).Body.String(), `id="debugbar"`) {
		t.Fatalf("forwarded headers must be ignored without trusted proxies")
	}
	bar.Close()

	bar = New(testApp(), Spec{Config: toolbar.NewAtomicConfig(cfg), TrustedProxies: []string{"10.0.0.0/8"}})
	defer bar.Close()
	if !strings.Contains(do(bar, r).Body.String(), `id="debugbar"`) {
		t.Fatalf("client IP from a trusted proxy must be used")
	}
}

func TestMountPrefix_InvalidPrefixPanics(t *testing.T) {
	for _, p := range []string{"", "nope", "/a b/", "/a//b/"} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("prefix %q: expected panic", p)
				}
			}()
			mountPrefix(p, http.NotFoundHandler(), http.NotFoundHandler())
		}()
	}
}

func TestNew_NilAppPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(nil, Spec{})
}

func TestNew_DebugRoutesAreGuarded(t *testing.T) {
	live := toolbar.NewAtomicConfig(debugConfig())
	bar := New(testApp(), Spec{Config: live})
	defer bar.Close()

	uri := do(bar, localRequest(http.MethodGet, "/api")).Header().Get(toolbar.HeaderName)
	if uri == "" {
		t.Fatalf("missing %s", toolbar.HeaderName)
	}

	remote := func(target string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://example.test"+target, nil)
		r.RemoteAddr = "192.0.2.10:40000"
		return r
	}
	for _, target := range []string{"/__debug__/history", uri} {
		if rec := do(bar, remote(target)); rec.Code != http.StatusNotFound {
			t.Fatalf("%s from a non-internal IP: status=%d, want 404", target, rec.Code)
		}
	}

	ajax := localRequest(http.MethodGet, "/__debug__/history")
	ajax.Header.Set("X-Requested-With", "XMLHttpRequest")
	if rec := do(bar, ajax); rec.Code != http.StatusOK {
		t.Fatalf("ajax history status=%d", rec.Code)
	}

	cfg := live.Load()
	cfg.Debug = false
	live.Store(cfg)
	if rec := do(bar, localRequest(http.MethodGet, "/__debug__/history")); rec.Code != http.StatusNotFound {
		t.Fatalf("history with debug off: status=%d, want 404", rec.Code)
	}
}
