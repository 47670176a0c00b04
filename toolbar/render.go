package toolbar

import (
	"html/template"
	"strings"
)

// ExpiredPanelMessage is returned by render_panel when a toolbar left the results store.
const ExpiredPanelMessage = "Data for this panel isn't available anymore. Please reload the page and retry."

// The markup must stay well-formed XML so XHTML pages remain parseable, and it ends with
// "</div>\n" so the splice leaves the insertion marker on its own line.
var toolbarTemplate = template.Must(template.New("toolbar").Parse(`<div id="debugbar" class="debugbar{{if .Collapsed}} debugbar-collapsed{{end}}" data-store-id="{{.StoreID}}" data-render-panel-url="{{.RenderPanelURL}}">
<style type="text/css">
#debugbar { position: fixed; top: 0; right: 0; z-index: 100000; font: 12px sans-serif; background: #fff; border-left: 1px solid #ccc; max-height: 100%; overflow: auto; }
#debugbar.debugbar-collapsed .debugbar-panels { display: none; }
#debugbar .debugbar-content { display: none; padding: 4px 8px; border-top: 1px solid #eee; }
#debugbar .debugbar-content.debugbar-active { display: block; }
#debugbar .debugbar-disabled { color: #999; }
</style>
<ul class="debugbar-panels">
{{range .Panels}}<li class="debugbar-nav{{if not .Enabled}} debugbar-disabled{{end}}"><a href="#{{.ID}}" class="{{.ID}}" title="{{.Title}}">{{.Title}}</a>{{with .Subtitle}}<br /><small>{{.}}</small>{{end}}</li>
{{end}}</ul>
{{range .Panels}}{{if .Enabled}}<div id="{{.ID}}" class="debugbar-content">
<h3>{{.Title}}</h3>
<div class="debugbar-scroll">{{if .Inline}}{{.Content}}{{end}}</div>
</div>
{{end}}{{end}}<script type="text/javascript">
(function () {
  var bar = document.getElementById("debugbar");
  if (!bar) { return; }
  bar.addEventListener("click", function (ev) {
    var link = ev.target.closest("a");
    if (!link) { return; }
    var panel = document.getElementById(link.className);
    if (!panel) { return; }
    ev.preventDefault();
    panel.classList.toggle("debugbar-active");
    var body = panel.querySelector(".debugbar-scroll");
    if (body.childNodes.length !== 0) { return; }
    var params = new URLSearchParams({store_id: bar.dataset.storeId, panel_id: link.className});
    fetch(bar.dataset.renderPanelUrl + "?" + params.toString())
      .then(function (resp) { return resp.json(); })
      .then(function (data) { body.innerHTML = data.content; });
  });
})();
</script>
</div>
`))

type renderedPanel struct {
	ID       string
	Title    string
	Subtitle string
	Enabled  bool
	Inline   bool
	Content  template.HTML
}

type toolbarView struct {
	StoreID        string
	RenderPanelURL string
	Collapsed      bool
	Panels         []renderedPanel
}

// Render returns the toolbar markup.
func (t *Toolbar) Render() (string, error) {
	view := toolbarView{
		StoreID:        t.ID,
		RenderPanelURL: strings.TrimSuffix(t.routesPrefix, "/") + "/render_panel",
		Collapsed:      t.collapsed(),
	}
	for _, p := range t.panels {
		rp := renderedPanel{
			ID:       p.ID(),
			Title:    p.Title(),
			Subtitle: p.NavSubtitle(),
			Enabled:  t.enabled[p.ID()],
			Inline:   t.Config.RenderPanels,
		}
		if rp.Enabled && rp.Inline {
			rp.Content = panelContent(p)
		}
		view.Panels = append(view.Panels, rp)
	}
	var b strings.Builder
	if err := toolbarTemplate.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *Toolbar) collapsed() bool {
	if t.Request == nil {
		return false
	}
	c, err := t.Request.Cookie(CookieName)
	if err == nil {
		return c.Value == "hide"
	}
	return t.Config.ShowCollapsed
}

// panelContent renders a panel body; errors are shown in place of the content.
func panelContent(p Panel) template.HTML {
	html, err := p.Content()
	if err != nil {
		return template.HTML(`<p class="debugbar-error">` + template.HTMLEscapeString(err.Error()) + `</p>`)
	}
	return html
}
