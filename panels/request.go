package panels

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/evan-idocoding/debugbar/httpx"
	"github.com/evan-idocoding/debugbar/toolbar"
)

// RequestID is the id of the request panel.
const RequestID = "request"

const (
	noView = "<no view>"
	none   = "None"
)

// Request shows the request line, request id, query, cookies and the view the request was
// routed to.
//
// The view is only known when the Engine has a ViewResolver; the request id only when
// httpx.RequestID runs before the toolbar.
type Request struct {
	toolbar.BasePanel

	method    string
	path      string
	requestID string
	query     []row
	cookies   []row
	view      toolbar.View
}

// NewRequest is the request PanelFactory.
func NewRequest(*toolbar.Toolbar) toolbar.Panel { return &Request{} }

func (p *Request) ID() string    { return RequestID }
func (p *Request) Title() string { return "Request" }

func (p *Request) NavSubtitle() string { return p.viewFunc() }

func (p *Request) ProcessRequest(w http.ResponseWriter, r *http.Request) bool {
	p.method = r.Method
	p.path = r.URL.Path
	if id, ok := httpx.RequestIDFromRequest(r); ok {
		p.requestID = id
	}
	for k, vs := range r.URL.Query() {
		p.query = append(p.query, row{k, strings.Join(vs, ", ")})
	}
	sortRows(p.query)
	for _, c := range r.Cookies() {
		p.cookies = append(p.cookies, row{c.Name, c.Value})
	}
	sortRows(p.cookies)
	return false
}

func (p *Request) ProcessView(w http.ResponseWriter, r *http.Request, v toolbar.View) bool {
	p.view = v
	return false
}

func (p *Request) viewFunc() string {
	if !p.view.Found || p.view.Name == "" {
		return noView
	}
	return p.view.Name
}

func (p *Request) viewURLName() string {
	if !p.view.Found || p.view.Pattern == "" {
		return none
	}
	return p.view.Pattern
}

func (p *Request) viewArgs() string {
	if len(p.view.Args) == 0 {
		return none
	}
	return fmt.Sprintf("%q", p.view.Args)
}

func (p *Request) viewKwargs() string {
	if len(p.view.Kwargs) == 0 {
		return none
	}
	keys := make([]string, 0, len(p.view.Kwargs))
	for k := range p.view.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, p.view.Kwargs[k]))
	}
	return strings.Join(parts, " ")
}

func (p *Request) Stats() toolbar.Stats {
	return toolbar.Stats{
		"method":       p.method,
		"path":         p.path,
		"request_id":   p.requestID,
		"view_func":    p.viewFunc(),
		"view_urlname": p.viewURLName(),
		"view_args":    p.viewArgs(),
		"view_kwargs":  p.viewKwargs(),
	}
}

func (p *Request) Content() (template.HTML, error) {
	return renderSections(
		section{Title: "View", Rows: []row{
			{"View function", p.viewFunc()},
			{"URL name", p.viewURLName()},
			{"Arguments", p.viewArgs()},
			{"Keyword arguments", p.viewKwargs()},
		}},
		section{Title: "Request", Rows: p.requestRows()},
		section{Title: "Query parameters", Rows: p.query, Empty: "No query parameters"},
		section{Title: "Cookies", Rows: p.cookies, Empty: "No cookies"},
	)
}

func (p *Request) requestRows() []row {
	rows := []row{{"Method", p.method}, {"Path", p.path}}
	if p.requestID != "" {
		rows = append(rows, row{"Request ID", p.requestID})
	}
	return rows
}

func sortRows(rows []row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
}
