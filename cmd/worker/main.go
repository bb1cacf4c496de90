// Command worker connects to a coordinator and repeatedly pulls, executes,
// and submits map/reduce tasks until told to finish.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"distmr"
	"distmr/config"

	_ "distmr/plugin" // registers built-in plugins via init()
)

func main() {
	var (
		pluginName = pflag.String("plugin", "", "registered plugin name (or .so path for the dynamic loader)")
		outDir     = pflag.String("out-dir", "data-processed", "directory for intermediate and output files")
		addr       = pflag.String("addr", "", "coordinator Unix-domain socket address")
		configPath = pflag.String("config", "config.yaml", "path to the YAML path configuration")
		profile    = pflag.String("profile", "default", "profile key within the config file's paths section")
		logLevel   = pflag.String("log-level", "info", "log level: debug, info, warn, error, fatal")
	)
	pflag.Parse()

	distmr.ConfigureLogging(*logLevel)

	if *pluginName == "" {
		fmt.Fprintln(os.Stderr, "--plugin is required")
		pflag.Usage()
		os.Exit(2)
	}

	if *addr == "" {
		paths, err := config.Load(*configPath, *profile)
		if err != nil {
			logrus.WithError(err).Fatal("failed to load configuration")
		}
		*addr = filepath.Join(paths.SocketBase, "coordinator.sock")
	}

	w, err := distmr.NewWorker(*addr, *pluginName, *outDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to start worker")
	}

	if err := w.Run(); err != nil {
		logrus.WithError(err).Fatal("worker exited with error")
	}
}
