package panels

import (
	"html/template"
	"strings"
)

type row struct {
	Key   string
	Value string
}

type section struct {
	Title string
	Rows  []row
	// Empty is shown instead of an empty table.
	Empty string
}

var sectionsTemplate = template.Must(template.New("sections").Parse(`{{range .}}{{with .Title}}<h4>{{.}}</h4>
{{end}}{{if .Rows}}<table class="debugbar-table">
{{range .Rows}}<tr><th>{{.Key}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
{{else}}<p>{{.Empty}}</p>
{{end}}{{end}}`))

func renderSections(sections ...section) (template.HTML, error) {
	var b strings.Builder
	if err := sectionsTemplate.Execute(&b, sections); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}
