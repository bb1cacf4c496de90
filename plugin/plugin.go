// Package plugin abstracts the user-supplied map/reduce logic the engine
// treats as a black box.
package plugin

import "fmt"

// KeyValue is a single key/value pair emitted by Map and consumed by Reduce.
type KeyValue struct {
	Key   string
	Value string
}

// ProcessPlugin supplies the Map and Reduce routines for one MapReduce job.
// Map is pure with respect to engine state: given a file name and its
// contents it returns the key/value pairs found in that file. Reduce
// collapses the values collected for one key into a single result string.
type ProcessPlugin interface {
	Map(fileName, contents string) []KeyValue
	Reduce(key string, values []string) string
}

var registry = map[string]ProcessPlugin{}

// Register adds a plugin under name, overwriting any previous registration.
// Called from init() by built-in plugins and by callers wiring in their own.
func Register(name string, p ProcessPlugin) {
	registry[name] = p
}

// Lookup returns the plugin registered under name, if any.
func Lookup(name string) (ProcessPlugin, bool) {
	p, ok := registry[name]
	return p, ok
}

// ErrUnknownPlugin is returned by Load when name matches no registered
// plugin and the dynamic loader cannot load it either. The loader's own
// error is not carried.
type ErrUnknownPlugin struct {
	Name string
}

func (e *ErrUnknownPlugin) Error() string {
	return fmt.Sprintf("plugin: no plugin registered under name %q", e.Name)
}

// Load resolves name to a ProcessPlugin via the registry first, falling
// back to the dynamic loader (see loader.go) when the registry misses and
// name turns out to be a loadable filesystem path.
func Load(name string) (ProcessPlugin, error) {
	if p, ok := Lookup(name); ok {
		return p, nil
	}
	p, err := loadDynamic(name)
	if err != nil {
		return nil, &ErrUnknownPlugin{Name: name}
	}
	return p, nil
}
