// Command sequential runs an entire MapReduce job in one process with no
// coordinator or RPC: useful for debugging plugins and for small inputs
// where distribution buys nothing.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"distmr"
	"distmr/config"
	"distmr/plugin"
)

func main() {
	var (
		pluginName = pflag.String("plugin", "", "registered plugin name (or .so path for the dynamic loader)")
		nReduce    = pflag.Int("n-reduce", 1, "number of reduce bins to partition into")
		outDir     = pflag.String("out-dir", "data-processed", "directory for intermediate and output files")
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
	if *nReduce < 1 {
		fmt.Fprintln(os.Stderr, "--n-reduce must be >= 1")
		pflag.Usage()
		os.Exit(2)
	}

	p, err := plugin.Load(*pluginName)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load plugin")
	}

	paths, err := config.Load(*configPath, *profile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	results, err := distmr.RunSequential(pflag.Args(), *nReduce, p, *outDir)
	if err != nil {
		logrus.WithError(err).Fatal("sequential job failed")
	}

	if len(results) > 0 && paths.Result != "" {
		merger := distmr.NewResultMerger(filepath.Join(paths.Result, "mr.result.txt"))
		if err := merger.Merge(results); err != nil {
			logrus.WithError(err).Fatal("failed to merge reduce outputs")
		}
	}
}
