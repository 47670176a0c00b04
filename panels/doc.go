// Package panels provides the built-in toolbar panels.
//
// Defaults returns them in display order. Each factory builds a fresh panel per request:
//
//	toolbar.WithPanels(panels.Defaults()...)
//
// The logging panel only sees records emitted through a logger whose handler is wrapped with
// NewLogHandler, and only when the record's context carries the request context.
package panels
