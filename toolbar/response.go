package toolbar

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
)

// Response is the captured response handed to Panel.ProcessResponse.
//
// Header is the live header map of the outgoing response. Body holds the buffered body and is
// nil once the response streams.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Streaming is true when the handler flushed or hijacked: status, headers and part of
	// the body have already been sent and nothing can be changed anymore.
	Streaming bool
}

// captureWriter buffers a response until the handler returns.
//
// Flush commits what is buffered and turns the writer into a pass-through; onCommit runs
// right before the headers go out.
type captureWriter struct {
	w        http.ResponseWriter
	status   int
	buf      bytes.Buffer
	onCommit func(h http.Header)

	wroteHeader bool
	streaming   bool
	hijacked    bool
}

func newCaptureWriter(w http.ResponseWriter, onCommit func(http.Header)) *captureWriter {
	return &captureWriter{w: w, onCommit: onCommit}
}

func (c *captureWriter) Header() http.Header { return c.w.Header() }

func (c *captureWriter) WriteHeader(code int) {
	if c.streaming || c.hijacked {
		c.w.WriteHeader(code)
		return
	}
	// 1xx responses are informational and go out immediately.
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		c.w.WriteHeader(code)
		return
	}
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true
	c.status = code
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.hijacked {
		return 0, http.ErrHijacked
	}
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if c.streaming {
		return c.w.Write(p)
	}
	return c.buf.Write(p)
}

func (c *captureWriter) Unwrap() http.ResponseWriter { return c.w }

// Flush commits the buffered response and switches to streaming.
func (c *captureWriter) Flush() {
	if c.hijacked {
		return
	}
	if !c.streaming {
		c.commit()
	}
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *captureWriter) commit() {
	c.streaming = true
	if !c.wroteHeader {
		c.wroteHeader = true
		c.status = http.StatusOK
	}
	if c.onCommit != nil {
		c.onCommit(c.w.Header())
	}
	c.w.WriteHeader(c.status)
	if c.buf.Len() > 0 {
		_, _ = c.w.Write(c.buf.Bytes())
		c.buf.Reset()
	}
}

func (c *captureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := c.w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("toolbar: underlying ResponseWriter does not support hijacking")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		c.hijacked = true
		c.streaming = true
	}
	return conn, rw, err
}

// response snapshots the captured state.
func (c *captureWriter) response() *Response {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	resp := &Response{
		StatusCode: status,
		Header:     c.w.Header(),
		Streaming:  c.streaming,
	}
	if !c.streaming {
		resp.Body = c.buf.Bytes()
		sniffContentType(resp)
	}
	return resp
}

// sniffContentType sets the Content-Type net/http would send for a body written without one.
// An explicitly empty Content-Type disables sniffing, as it does in net/http.
func sniffContentType(resp *Response) {
	if _, ok := resp.Header["Content-Type"]; ok {
		return
	}
	if len(resp.Body) == 0 || resp.Header.Get("Content-Encoding") != "" || !bodyAllowed(resp.StatusCode) {
		return
	}
	resp.Header.Set("Content-Type", http.DetectContentType(resp.Body))
}

// send writes a buffered response to the client.
func (c *captureWriter) send(resp *Response) {
	if c.streaming {
		return
	}
	c.w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 && bodyAllowed(resp.StatusCode) {
		_, _ = c.w.Write(resp.Body)
	}
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
