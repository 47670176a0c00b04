package panels

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// LoggingID is the id of the logging panel.
const LoggingID = "logging"

// maxLogRecords bounds what one request can accumulate.
const maxLogRecords = 1000

// LogRecord is one captured log record.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	// Attrs holds the record attributes as key=value pairs, group-qualified.
	Attrs []string
}

// Logging shows the slog records emitted during the request through a handler wrapped with
// NewLogHandler.
type Logging struct {
	toolbar.BasePanel

	mu      sync.Mutex
	records []LogRecord
	dropped int
}

// NewLogging is the logging PanelFactory.
func NewLogging(*toolbar.Toolbar) toolbar.Panel { return &Logging{} }

func (p *Logging) ID() string    { return LoggingID }
func (p *Logging) Title() string { return "Logging" }

func (p *Logging) NavSubtitle() string {
	n := len(p.Records())
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}

func (p *Logging) add(rec LogRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.records) >= maxLogRecords {
		p.dropped++
		return
	}
	p.records = append(p.records, rec)
}

// Records returns a copy of the captured records.
func (p *Logging) Records() []LogRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]LogRecord(nil), p.records...)
}

func (p *Logging) Stats() toolbar.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return toolbar.Stats{"records": len(p.records), "dropped": p.dropped}
}

var loggingTemplate = template.Must(template.New("logging").Parse(`{{if .Records}}<table class="debugbar-table">
<tr><th>Time</th><th>Level</th><th>Message</th><th>Attributes</th></tr>
{{range .Records}}<tr><td>{{.Time.Format "15:04:05.000"}}</td><td>{{.Level}}</td><td>{{.Message}}</td><td>{{range .Attrs}}<code>{{.}}</code> {{end}}</td></tr>
{{end}}</table>
{{if .Dropped}}<p>{{.Dropped}} more records were dropped.</p>
{{end}}{{else}}<p>No messages logged</p>
{{end}}`))

func (p *Logging) Content() (template.HTML, error) {
	p.mu.Lock()
	view := struct {
		Records []LogRecord
		Dropped int
	}{append([]LogRecord(nil), p.records...), p.dropped}
	p.mu.Unlock()

	var b strings.Builder
	if err := loggingTemplate.Execute(&b, view); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

// LogHandler copies records into the logging panel of the request found in the record's
// context, then passes them on.
type LogHandler struct {
	next   slog.Handler
	prefix string
	attrs  []string
}

// NewLogHandler wraps next. A nil next only captures.
func NewLogHandler(next slog.Handler) *LogHandler {
	return &LogHandler{next: next}
}

func panelFromContext(ctx context.Context) (*Logging, bool) {
	t, ok := toolbar.FromContext(ctx)
	if !ok || !t.IsEnabled(LoggingID) {
		return nil, false
	}
	p, ok := t.Panel(LoggingID)
	if !ok {
		return nil, false
	}
	lp, ok := p.(*Logging)
	return lp, ok
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if _, ok := panelFromContext(ctx); ok {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	if p, ok := panelFromContext(ctx); ok {
		attrs := append([]string(nil), h.attrs...)
		r.Attrs(func(a slog.Attr) bool {
			attrs = appendAttr(attrs, h.prefix, a)
			return true
		})
		p.add(LogRecord{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &LogHandler{prefix: h.prefix, attrs: append([]string(nil), h.attrs...)}
	for _, a := range attrs {
		out.attrs = appendAttr(out.attrs, h.prefix, a)
	}
	if h.next != nil {
		out.next = h.next.WithAttrs(attrs)
	}
	return out
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := &LogHandler{prefix: h.prefix + name + ".", attrs: h.attrs}
	if h.next != nil {
		out.next = h.next.WithGroup(name)
	}
	return out
}

func appendAttr(dst []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, p, ga)
		}
		return dst
	}
	return append(dst, prefix+a.Key+"="+a.Value.String())
}
