// Package httpx provides the small net/http middlewares the toolbar is assembled from.
//
// It focuses on handler composition and does not provide a router.
//
// # Middleware chain
//
// A middleware is a standard net/http wrapper:
//
//	type Middleware func(http.Handler) http.Handler
//
// The chain builder is just a slice:
//
//	type Middlewares []Middleware
//
// Order:
//   - Chain(a, b, c).Handler(h) returns a(b(c(h))).
//
// Behavior:
//   - Nil middlewares are ignored.
//   - Handler(nil) and Wrap(nil, ...) panic: a nil endpoint is an assembly error.
//
// With never mutates the receiver; it returns a new derived chain:
//
//	base := httpx.Chain(httpx.Recover(), httpx.RequestID(), httpx.RealIP())
//	debug := base.With(httpx.AccessGuard(httpx.WithIPAllowList([]string{"127.0.0.1"})))
//
// # Middlewares
//
//   - Recover: logs panics through log/slog and answers 500 if nothing was written yet.
//   - RequestID: reuses a valid incoming X-Request-ID (when trusted) or generates one, and
//     exposes it via RequestIDFromContext.
//   - RealIP: resolves the client IP, honoring X-Forwarded-For / X-Real-IP only from
//     WithTrustedProxies. ClientIP reads the result, falling back to RemoteAddr.
//   - AccessGuard: denies requests outside an IP allowlist or failing a custom check.
//
// # IP sets
//
// IPSet holds CIDRs and single IPs behind an atomic snapshot, so it can be updated while
// requests are served. Invalid entries are ignored; an empty set contains nothing.
//
// # Assembly errors
//
// Misconfiguration found while building a middleware (nil handlers, conflicting options)
// panics. Runtime failures never panic.
package httpx
