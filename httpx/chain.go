package httpx

import "net/http"

// Middleware is a standard net/http middleware.
type Middleware func(http.Handler) http.Handler

// Middlewares is an ordered middleware list.
//
// Order:
//   - Chain(a, b, c).Handler(h) returns a(b(c(h))).
type Middlewares []Middleware

// Chain creates a middleware list, dropping nil entries.
func Chain(mws ...Middleware) Middlewares {
	out := appendNonNil(nil, mws)
	if len(out) == 0 {
		return nil
	}
	return out
}

// With returns a new list with more appended. The receiver is never mutated.
func (mws Middlewares) With(more ...Middleware) Middlewares {
	out := make(Middlewares, 0, len(mws)+len(more))
	out = appendNonNil(out, mws)
	out = appendNonNil(out, more)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Handler wraps h with the chain.
//
// It panics if h is nil (an assembly error).
func (mws Middlewares) Handler(h http.Handler) http.Handler {
	if h == nil {
		panic("httpx: nil endpoint handler")
	}
	snapshot := appendNonNil(nil, mws)
	for i := len(snapshot) - 1; i >= 0; i-- {
		h = snapshot[i](h)
	}
	return h
}

// Wrap applies mws to h.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	return Chain(mws...).Handler(h)
}

func appendNonNil(dst Middlewares, src []Middleware) Middlewares {
	for _, mw := range src {
		if mw != nil {
			dst = append(dst, mw)
		}
	}
	return dst
}
