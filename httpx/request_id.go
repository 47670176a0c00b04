package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header used for request id propagation.
const RequestIDHeader = "X-Request-ID"

// RequestIDOption configures the RequestID middleware.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	trustIncoming bool
	maxLen        int
	gen           func() string
}

// WithTrustIncoming controls whether a valid incoming X-Request-ID is reused. Default is true.
func WithTrustIncoming(v bool) RequestIDOption {
	return func(c *requestIDConfig) { c.trustIncoming = v }
}

// WithRequestIDGenerator sets the id generator. Default is a random UUID.
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.gen = fn
		}
	}
}

// RequestID returns a middleware that ensures each request has an id, stored in the context and
// echoed in the X-Request-ID response header.
//
// Incoming ids are accepted only when the header has exactly one value made of [A-Za-z0-9._-]
// and at most 128 bytes long.
func RequestID(opts ...RequestIDOption) Middleware {
	cfg := requestIDConfig{
		trustIncoming: true,
		maxLen:        128,
		gen:           uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cfg.trustIncoming {
				if vs := r.Header.Values(RequestIDHeader); len(vs) == 1 && validRequestID(vs[0], cfg.maxLen) {
					id = vs[0]
				}
			}
			if id == "" {
				id = cfg.gen()
				if !validRequestID(id, 256) {
					id = uuid.NewString()
				}
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

type requestIDKey struct{}

// RequestIDFromContext extracts the request id from ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok && v != ""
}

// RequestIDFromRequest extracts the request id from r.Context().
func RequestIDFromRequest(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	return RequestIDFromContext(r.Context())
}

// WithRequestID returns a derived context carrying id. An empty id leaves ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func validRequestID(s string, maxLen int) bool {
	if s == "" || len(s) > maxLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
		case b >= '0' && b <= '9':
		case b == '.' || b == '_' || b == '-':
		default:
			return false
		}
	}
	return true
}
