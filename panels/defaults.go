package panels

import "github.com/evan-idocoding/debugbar/toolbar"

// Defaults returns the built-in panels in display order.
func Defaults() []toolbar.PanelFactory {
	return []toolbar.PanelFactory{
		NewTimer,
		NewRequest,
		NewHeaders,
		NewRuntime,
		NewLogging,
		NewTracing,
		NewVersions,
		NewSettings,
	}
}
