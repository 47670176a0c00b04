package panels

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// HeadersID is the id of the headers panel.
const HeadersID = "headers"

// Headers shows request and response headers.
type Headers struct {
	toolbar.BasePanel

	request  []row
	response []row
}

// NewHeaders is the headers PanelFactory.
func NewHeaders(*toolbar.Toolbar) toolbar.Panel { return &Headers{} }

func (p *Headers) ID() string    { return HeadersID }
func (p *Headers) Title() string { return "Headers" }

func (p *Headers) ProcessRequest(w http.ResponseWriter, r *http.Request) bool {
	p.request = headerRows(r.Header)
	if r.Host != "" {
		p.request = append([]row{{"Host", r.Host}}, p.request...)
	}
	return false
}

func (p *Headers) ProcessResponse(r *http.Request, resp *toolbar.Response) {
	p.response = headerRows(resp.Header)
}

func (p *Headers) Stats() toolbar.Stats {
	return toolbar.Stats{
		"request_headers":  len(p.request),
		"response_headers": len(p.response),
	}
}

func (p *Headers) Content() (template.HTML, error) {
	return renderSections(
		section{Title: "Request headers", Rows: p.request, Empty: "No headers"},
		section{Title: "Response headers", Rows: p.response, Empty: "No headers"},
	)
}

func headerRows(h http.Header) []row {
	rows := make([]row, 0, len(h))
	for k, vs := range h {
		rows = append(rows, row{k, strings.Join(vs, ", ")})
	}
	sortRows(rows)
	return rows
}
