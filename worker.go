package distmr

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"distmr/plugin"
)

// maxPolls bounds the worker's main loop so it is guaranteed to terminate
// even if it somehow never observes Finish.
const maxPolls = 80

// pollBackoff is how long a worker sleeps after a Wait response, so an
// idle worker does not busy-loop the coordinator socket.
const pollBackoff = 100 * time.Millisecond

// Worker executes the pull-execute-submit cycle against one coordinator
// address until it is told Finish or it exhausts maxPolls.
type Worker struct {
	Addr   string
	WorkID string
	Plugin plugin.ProcessPlugin
	OutDir string
}

// NewWorker resolves pluginName via the plugin registry/loader and
// generates a stable random WorkID for the worker's lifetime.
func NewWorker(addr, pluginName, outDir string) (*Worker, error) {
	p, err := plugin.Load(pluginName)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return nil, fmt.Errorf("distmr: create out dir %s: %w", outDir, err)
	}
	return &Worker{
		Addr:   addr,
		WorkID: uuid.New().String(),
		Plugin: p,
		OutDir: outDir,
	}, nil
}

// Run drives the poll loop. It returns nil once the coordinator reports
// Finish or sends a reply the worker cannot act on (an unknown status, or
// Running with no task payload), and a non-nil error on transport failure,
// a failed task execution, or exhausting maxPolls.
func (w *Worker) Run() error {
	log := logrus.WithField("workId", w.WorkID)
	log.Info("worker starting")

	for i := 0; i < maxPolls; i++ {
		req := &TaskReq{WorkID: w.WorkID}
		resp := &TaskResp{}
		if !call(w.Addr, RequestTaskMethod, req, resp) {
			return fmt.Errorf("distmr: RequestTask rpc to %s failed", w.Addr)
		}

		switch resp.Status {
		case Running:
			if resp.Task == nil {
				log.Warn("Running status with no task payload, exiting")
				return nil
			}
			files, err := w.execute(*resp.Task)
			if err != nil {
				return err
			}
			sub := &TaskSubmit{WorkID: w.WorkID, TaskID: resp.Task.TaskID, Files: files}
			submitResp := &TaskResp{}
			if !call(w.Addr, SubmitTaskMethod, sub, submitResp) {
				return fmt.Errorf("distmr: SubmitTask rpc to %s failed", w.Addr)
			}
		case Wait:
			time.Sleep(pollBackoff)
		case Finish:
			log.Info("worker finished")
			return nil
		default:
			log.WithField("status", resp.Status).Warn("unknown status, exiting")
			return nil
		}
	}

	return fmt.Errorf("distmr: worker exhausted %d polls without reaching Finish", maxPolls)
}

// execute dispatches a task payload to the map or reduce executor.
func (w *Worker) execute(t TaskDist) ([]string, error) {
	switch t.Status {
	case Map:
		return w.executeMap(t)
	case Reduce:
		return w.executeReduce(t)
	default:
		return nil, fmt.Errorf("distmr: unknown task type %v", t.Status)
	}
}

// executeMap reads every input file (skipping unreadable ones), runs the
// plugin's Map over each, and partitions the combined output by position
// into t.OutFileNum shards. Partitioning is positional, not hash(key) % N,
// so the same key can land in different bins; consumers that need a global
// per-key view merge the reduce outputs afterward.
func (w *Worker) executeMap(t TaskDist) ([]string, error) {
	var pairs []plugin.KeyValue
	for _, f := range t.Files {
		content, err := os.ReadFile(f)
		if err != nil {
			logrus.WithError(err).WithField("file", f).Warn("skipping unreadable map input")
			continue
		}
		pairs = append(pairs, w.Plugin.Map(f, string(content))...)
	}

	if t.OutFileNum <= 0 {
		return nil, fmt.Errorf("distmr: task %s has non-positive outFileNum %d", t.TaskID, t.OutFileNum)
	}

	shardSize := (len(pairs) + t.OutFileNum - 1) / t.OutFileNum
	if shardSize == 0 {
		shardSize = 1
	}

	var outFiles []string
	for shard := 0; shard < t.OutFileNum; shard++ {
		start := shard * shardSize
		if start >= len(pairs) {
			break
		}
		end := start + shardSize
		if end > len(pairs) {
			end = len(pairs)
		}

		path := intermediateFileName(w.OutDir, t.TaskID, t.WorkID, shard)
		if err := writeShard(path, pairs[start:end]); err != nil {
			return nil, err
		}
		outFiles = append(outFiles, path)
	}

	return outFiles, nil
}

func writeShard(path string, pairs []plugin.KeyValue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("distmr: create shard %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, kv := range pairs {
		if _, err := fmt.Fprintf(bw, "%s %s\n", kv.Key, kv.Value); err != nil {
			return fmt.Errorf("distmr: write shard %s: %w", path, err)
		}
	}
	return bw.Flush()
}

// executeReduce reads every intermediate file assigned to this bin, groups
// values by key preserving first-seen order, and writes one
// mr-out-<suffix> file.
func (w *Worker) executeReduce(t TaskDist) ([]string, error) {
	keys := make([]string, 0)
	values := make(map[string][]string)

	for _, f := range t.Files {
		content, err := os.ReadFile(f)
		if err != nil {
			logrus.WithError(err).WithField("file", f).Warn("skipping unreadable reduce input")
			continue
		}

		for _, line := range strings.Split(string(content), "\n") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			key, value := fields[0], fields[1]
			if key == "" && value == "" {
				continue
			}
			if _, seen := values[key]; !seen {
				keys = append(keys, key)
			}
			values[key] = append(values[key], value)
		}
	}

	if len(t.Files) == 0 {
		return nil, fmt.Errorf("distmr: reduce task %s has no input files", t.TaskID)
	}
	suffix := shardSuffix(t.Files[0])
	outPath := reduceOutputName(w.OutDir, suffix)

	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("distmr: create reduce output %s: %w", outPath, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, key := range keys {
		result := w.Plugin.Reduce(key, values[key])
		if _, err := fmt.Fprintf(bw, "%s %s\n", key, result); err != nil {
			return nil, fmt.Errorf("distmr: write reduce output %s: %w", outPath, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}

	return []string{outPath}, nil
}

// shardSuffix returns the token after the final "-" of an intermediate
// file path, which is the shard index it was written for.
func shardSuffix(path string) string {
	idx := strings.LastIndexByte(path, '-')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
