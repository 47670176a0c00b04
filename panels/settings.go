package panels

import (
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// SettingsID is the id of the settings panel.
const SettingsID = "settings"

// Settings shows the toolbar configuration the request was handled with.
type Settings struct {
	toolbar.BasePanel

	cfg toolbar.Config
}

// NewSettings is the settings PanelFactory.
func NewSettings(t *toolbar.Toolbar) toolbar.Panel { return &Settings{cfg: t.Config} }

func (p *Settings) ID() string    { return SettingsID }
func (p *Settings) Title() string { return "Settings" }

func (p *Settings) NavSubtitle() string {
	if p.cfg.Debug {
		return "debug on"
	}
	return ""
}

func (p *Settings) Stats() toolbar.Stats {
	return toolbar.Stats{"config": p.cfg}
}

func (p *Settings) Content() (template.HTML, error) {
	b, err := yaml.Marshal(p.cfg)
	if err != nil {
		return "", fmt.Errorf("panels: encode settings: %w", err)
	}
	return template.HTML("<pre>" + template.HTMLEscapeString(strings.TrimRight(string(b), "\n")) + "</pre>"), nil
}
