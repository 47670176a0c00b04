// Package toolbar instruments HTTP requests with a debug toolbar.
//
// An Engine wraps an application handler. For requests its visibility predicate accepts, it
// builds a Toolbar, drives the configured panels around the handler and buffers the
// response. HTML responses get the rendered toolbar inserted in front of Config.InsertBefore
// (case-insensitive, last occurrence, in the response charset). Responses the toolbar cannot
// be inserted into (streamed, gzip-encoded or not HTML) are left untouched; with
// Config.DebugURIHeader set, a standalone toolbar page is saved to a storage backend instead
// and its URI is returned in the X-Debug-URI header.
//
// Typical use:
//
//	eng := toolbar.New(
//		toolbar.WithStaticConfig(cfg),
//		toolbar.WithPanels(panels.Defaults()...),
//	)
//	defer eng.Close()
//
//	mux.Handle(eng.RoutesPrefix(), http.StripPrefix(strings.TrimSuffix(eng.RoutesPrefix(), "/"), eng.Routes()))
//	handler := eng.Handler(app)
//
// Panels find the current toolbar with FromContext; requests that are not instrumented have
// none.
package toolbar
