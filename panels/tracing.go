package panels

import (
	"html/template"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/trace"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// TracingID is the id of the tracing panel.
const TracingID = "tracing"

// Tracing shows the OpenTelemetry span context of the request, as set up by tracing
// middleware running outside the toolbar.
type Tracing struct {
	toolbar.BasePanel

	sc          trace.SpanContext
	traceparent string
}

// NewTracing is the tracing PanelFactory.
func NewTracing(*toolbar.Toolbar) toolbar.Panel { return &Tracing{} }

func (p *Tracing) ID() string    { return TracingID }
func (p *Tracing) Title() string { return "Tracing" }

func (p *Tracing) NavSubtitle() string {
	if !p.sc.IsValid() {
		return "no span"
	}
	id := p.sc.TraceID().String()
	return id[:8]
}

func (p *Tracing) ProcessRequest(w http.ResponseWriter, r *http.Request) bool {
	p.sc = trace.SpanContextFromContext(r.Context())
	p.traceparent = r.Header.Get("Traceparent")
	return false
}

// SpanContext returns the recorded span context.
func (p *Tracing) SpanContext() trace.SpanContext { return p.sc }

func (p *Tracing) Stats() toolbar.Stats {
	s := toolbar.Stats{"valid": p.sc.IsValid()}
	if p.sc.IsValid() {
		s["trace_id"] = p.sc.TraceID().String()
		s["span_id"] = p.sc.SpanID().String()
		s["sampled"] = p.sc.IsSampled()
	}
	return s
}

func (p *Tracing) Content() (template.HTML, error) {
	incoming := section{Title: "Incoming", Rows: nil, Empty: "No traceparent header"}
	if p.traceparent != "" {
		incoming.Rows = []row{{"traceparent", p.traceparent}}
	}
	if !p.sc.IsValid() {
		return renderSections(section{Title: "Span", Empty: "The request context carries no span"}, incoming)
	}
	return renderSections(
		section{Title: "Span", Rows: []row{
			{"Trace ID", p.sc.TraceID().String()},
			{"Span ID", p.sc.SpanID().String()},
			{"Sampled", strconv.FormatBool(p.sc.IsSampled())},
			{"Remote", strconv.FormatBool(p.sc.IsRemote())},
			{"Trace state", p.sc.TraceState().String()},
		}},
		incoming,
	)
}
