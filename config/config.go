// Package config loads the YAML-backed path configuration shared by the
// coordinator, worker, and sequential driver. Paths are read once at
// process start via an explicit Load call, so tests and alternate
// deployments can point at a different file or run with defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Paths holds the directories the engine reads and writes.
type Paths struct {
	SocketBase string `yaml:"socket_base"`
	Output     string `yaml:"output"`
	Result     string `yaml:"result"`
	Input      string `yaml:"input"`
}

// Defaults returns the standard assets/ layout used when no config file
// is present.
func Defaults() Paths {
	return Paths{
		SocketBase: "./assets/sockets",
		Output:     "./assets/output",
		Result:     "./assets/result",
		Input:      "./assets/input",
	}
}

type document struct {
	Paths map[string]Paths `yaml:"paths"`
}

// Load reads path and returns the "paths" section under the given profile
// key, defaulting to "default". A missing file is not an error (callers
// get Defaults() back) but a malformed file is.
func Load(path, profile string) (Paths, error) {
	if profile == "" {
		profile = "default"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Paths{}, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Paths{}, err
	}

	p, ok := doc.Paths[profile]
	if !ok {
		return Defaults(), nil
	}
	return p, nil
}

// EnsureDirs creates every directory named in p, ignoring ones that already
// exist.
func EnsureDirs(p Paths) error {
	for _, dir := range []string{p.SocketBase, p.Output, p.Result, p.Input} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return err
		}
	}
	return nil
}
