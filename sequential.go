package distmr

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"distmr/plugin"
)

// RunSequential runs an entire MapReduce job in a single process with no
// RPC: every map task, then every reduce task, reusing the same file layout
// and partitioning the distributed path uses. It returns the reduce output
// paths so callers can hand them to a ResultMerger.
func RunSequential(files []string, nReduce int, p plugin.ProcessPlugin, outDir string) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("distmr: no input files provided")
	}
	if nReduce <= 0 {
		return nil, fmt.Errorf("distmr: invalid number of reduce tasks: %d", nReduce)
	}
	if p == nil {
		return nil, fmt.Errorf("distmr: plugin cannot be nil")
	}
	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return nil, fmt.Errorf("distmr: create out dir %s: %w", outDir, err)
	}

	w := &Worker{WorkID: uuid.New().String(), Plugin: p, OutDir: outDir}

	bins := make(map[int][]string)
	for _, f := range files {
		mapTaskID := uuid.New().String()
		shards, err := w.executeMap(TaskDist{
			TaskID:     mapTaskID,
			WorkID:     w.WorkID,
			Files:      []string{f},
			OutFileNum: nReduce,
			Status:     Map,
		})
		if err != nil {
			return nil, err
		}
		for i, path := range shards {
			bins[i] = append(bins[i], path)
		}
		logrus.WithFields(logrus.Fields{"file": f, "shards": len(shards)}).Info("sequential map complete")
	}

	var results []string
	for bin := 0; bin < nReduce; bin++ {
		files, ok := bins[bin]
		if !ok || len(files) == 0 {
			continue
		}
		reduceTaskID := uuid.New().String()
		out, err := w.executeReduce(TaskDist{
			TaskID: reduceTaskID,
			WorkID: w.WorkID,
			Files:  files,
			Status: Reduce,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, out...)
		logrus.WithFields(logrus.Fields{"bin": bin, "out": out}).Info("sequential reduce complete")
	}

	return results, nil
}
