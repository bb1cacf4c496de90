// Command coordinator runs the MapReduce coordinator: it accepts input
// files and a reduce fan-out, listens on a Unix-domain socket, and
// dispatches map/reduce tasks to workers until every task has retired.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"distmr"
	"distmr/config"
)

func main() {
	var (
		nReduce    = pflag.Int("n-reduce", 0, "number of reduce tasks to create (required, >= 1)")
		nMap       = pflag.Int("n-map", 1, "number of map tasks to split the inputs into (each takes ceil(files/n-map) files; <= 0 or >= file count means one file per task)")
		configPath = pflag.String("config", "config.yaml", "path to the YAML path configuration")
		profile    = pflag.String("profile", "default", "profile key within the config file's paths section")
		addr       = pflag.String("addr", "", "Unix-domain socket address to listen on (default: generated under the config socket directory)")
		logLevel   = pflag.String("log-level", "info", "log level: debug, info, warn, error, fatal")
	)
	pflag.Parse()

	distmr.ConfigureLogging(*logLevel)

	if *nReduce < 1 {
		fmt.Fprintln(os.Stderr, "--n-reduce must be >= 1")
		pflag.Usage()
		os.Exit(2)
	}

	files := pflag.Args()

	paths, err := config.Load(*configPath, *profile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err := config.EnsureDirs(paths); err != nil {
		logrus.WithError(err).Fatal("failed to create configured directories")
	}

	if *addr == "" {
		*addr = filepath.Join(paths.SocketBase, "coordinator.sock")
	}

	coordinator := distmr.New(files, *nReduce, *nMap)

	server, err := distmr.NewServer(*addr, coordinator)
	if err != nil {
		logrus.WithError(err).Fatal("failed to construct coordinator server")
	}
	if err := server.Start(); err != nil {
		logrus.WithError(err).Fatal("failed to start coordinator server")
	}

	logrus.WithFields(logrus.Fields{
		"addr":    *addr,
		"files":   len(files),
		"nReduce": *nReduce,
	}).Info("coordinator running")

	for !coordinator.Done() {
		time.Sleep(200 * time.Millisecond)
	}

	logrus.Info("all tasks retired, shutting down")
	if err := server.Stop(); err != nil {
		logrus.WithError(err).Warn("error shutting down coordinator server")
	}

	if results := coordinator.ResultFiles(); len(results) > 0 && paths.Result != "" {
		merger := distmr.NewResultMerger(filepath.Join(paths.Result, "mr.result.txt"))
		if err := merger.Merge(results); err != nil {
			logrus.WithError(err).Error("failed to merge reduce outputs")
		}
	}
}
