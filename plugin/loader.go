package plugin

import (
	"fmt"
	goplugin "plugin"
)

// loadDynamic opens path as a Go plugin (.so) built with `go build
// -buildmode=plugin` and looks up a `Build` symbol of type
// `func() ProcessPlugin`. This is the optional dynamic-library backend;
// the registry in plugin.go is the default.
func loadDynamic(path string) (ProcessPlugin, error) {
	lib, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: open %s: %w", path, err)
	}
	sym, err := lib.Lookup("Build")
	if err != nil {
		return nil, fmt.Errorf("plugin: lookup Build in %s: %w", path, err)
	}
	build, ok := sym.(func() ProcessPlugin)
	if !ok {
		return nil, fmt.Errorf("plugin: %s Build symbol has wrong signature", path)
	}
	return build(), nil
}
