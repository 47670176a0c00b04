package panels

import (
	"html/template"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// VersionsID is the id of the versions panel.
const VersionsID = "versions"

// Versions lists the Go toolchain, the main module and its dependencies from the embedded
// build info.
type Versions struct {
	toolbar.BasePanel
}

// NewVersions is the versions PanelFactory.
func NewVersions(*toolbar.Toolbar) toolbar.Panel { return &Versions{} }

func (p *Versions) ID() string          { return VersionsID }
func (p *Versions) Title() string       { return "Versions" }
func (p *Versions) NavSubtitle() string { return runtime.Version() }

func (p *Versions) Stats() toolbar.Stats {
	info := readBuildInfo()
	s := toolbar.Stats{"go": runtime.Version()}
	if info.ok {
		s["main"] = info.main.Path
		s["deps"] = len(info.deps)
	}
	return s
}

func (p *Versions) Content() (template.HTML, error) {
	info := readBuildInfo()
	toolchain := section{Title: "Toolchain", Rows: []row{
		{"Go", runtime.Version()},
		{"GOOS/GOARCH", runtime.GOOS + "/" + runtime.GOARCH},
		{"Compiler", runtime.Compiler},
	}}
	if !info.ok {
		return renderSections(toolchain, section{Title: "Modules", Empty: "Build info not available"})
	}

	main := []row{{"Module", info.main.Path}, {"Version", moduleVersion(info.main)}}
	main = append(main, info.vcs...)
	deps := make([]row, 0, len(info.deps))
	for _, m := range info.deps {
		deps = append(deps, row{m.Path, moduleVersion(*m)})
	}
	return renderSections(
		toolchain,
		section{Title: "Main module", Rows: main},
		section{Title: "Dependencies", Rows: deps, Empty: "No dependencies"},
	)
}

func moduleVersion(m debug.Module) string {
	v := m.Version
	if v == "" {
		v = "(devel)"
	}
	if m.Replace != nil {
		v += " => " + m.Replace.Path
		if m.Replace.Version != "" {
			v += " " + m.Replace.Version
		}
	}
	return v
}

type buildInfo struct {
	ok   bool
	main debug.Module
	deps []*debug.Module
	vcs  []row
}

// Build info is immutable for the lifetime of the process.
var readBuildInfo = sync.OnceValue(func() buildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return buildInfo{}
	}
	out := buildInfo{ok: true, main: bi.Main}
	for _, m := range bi.Deps {
		if m != nil {
			out.deps = append(out.deps, m)
		}
	}
	for _, kv := range bi.Settings {
		switch kv.Key {
		case "vcs", "vcs.revision", "vcs.time":
			if kv.Value != "" {
				out.vcs = append(out.vcs, row{kv.Key, kv.Value})
			}
		case "vcs.modified":
			if b, err := strconv.ParseBool(kv.Value); err == nil {
				out.vcs = append(out.vcs, row{kv.Key, strconv.FormatBool(b)})
			}
		}
	}
	return out
})
