package httpx

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
)

// RecoverOption configures the Recover middleware.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	logger *slog.Logger
}

// WithRecoverLogger sets the logger panics are reported to. Default is slog.Default().
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(c *recoverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Recover returns a middleware that recovers panics from downstream handlers.
//
// It re-panics http.ErrAbortHandler to preserve net/http semantics. If the response has not
// started yet, it writes 500 Internal Server Error.
func Recover(opts ...RecoverOption) Middleware {
	cfg := recoverConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &startedWriter{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				cfg.logger.ErrorContext(r.Context(), "httpx: panic recovered",
					slog.String("method", r.Method),
					slog.String("url", r.URL.String()),
					slog.Any("value", p),
					slog.String("stack", string(debug.Stack())),
				)
				if !sw.started {
					http.Error(sw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

// startedWriter tracks whether the response has started.
type startedWriter struct {
	http.ResponseWriter
	started bool
}

func (w *startedWriter) WriteHeader(code int) {
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *startedWriter) Write(p []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(p)
}

func (w *startedWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *startedWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.started = true
		f.Flush()
	}
}

func (w *startedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("httpx: underlying ResponseWriter does not support hijacking")
	}
	c, rw, err := h.Hijack()
	if err == nil {
		w.started = true
	}
	return c, rw, err
}
