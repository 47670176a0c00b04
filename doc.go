// Package debugbar provides default-safe assembly helpers for adding a debug toolbar to
// net/http applications.
//
// The main entry points are:
//   - New: wrap an application handler with the toolbar, the debug endpoints and the stored
//     toolbar pages, behind recover / request id / real IP middleware.
//   - LoadConfig: build a toolbar.Config from defaults, an optional YAML file and DEBUGBAR_*
//     environment variables.
//   - WatchConfig: hot-reload that file into a toolbar.AtomicConfig.
//
// When you need more control, the building blocks live in subpackages (listed below).
//
// # Quick start
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /hello", func(w http.ResponseWriter, r *http.Request) {
//		w.Header().Set("Content-Type", "text/html; charset=utf-8")
//		_, _ = io.WriteString(w, "<html><body>hello</body></html>")
//	})
//
//	cfg, err := debugbar.LoadConfig("debugbar.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	live := toolbar.NewAtomicConfig(cfg)
//	go func() { _ = debugbar.WatchConfig(ctx, "debugbar.yaml", live) }()
//
//	bar := debugbar.New(mux, debugbar.Spec{Config: live, Mux: mux})
//	defer bar.Close()
//	_ = http.ListenAndServe("127.0.0.1:8080", bar)
//
// # Default-safe visibility
//
// The toolbar is only shown when the default predicate accepts the request:
//   - the client IP is in internal_ips (127.0.0.1 and ::1 by default);
//   - AJAX requests additionally need debug_uri_header;
//   - debug is true (false by default).
//
// Forwarded headers are ignored unless Spec.TrustedProxies lists the proxies in front of the
// application.
//
// # Responses the toolbar cannot be inserted into
//
// Streamed, gzip-encoded and non-HTML responses are passed through unchanged. With
// debug_uri_header enabled, a standalone toolbar page is saved to the configured storage
// backend and its URL returned in the X-Debug-URI header; New serves those pages under
// storage_base_url.
//
// # Subpackages
//
//   - toolbar: engine, panel contract, splicing, results store, debug endpoints, live feed
//   - panels: built-in panels (timer, request, headers, runtime, logging, tracing, versions, settings)
//   - storage: storage backends ("filesystem", "memory") and their registry
//   - storage/sqlitestore: the "sqlite" backend
//   - httpx: middleware chain, recover, request id, real IP
package debugbar
