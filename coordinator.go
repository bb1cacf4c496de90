package distmr

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Coordinator owns the task-lifecycle state machine: a pending FIFO, a
// running registry keyed by RunningKey, and the per-reduce-bin staging area
// that the map phase fills in before the map->reduce barrier fires.
//
// All three structures are guarded by one mutex: every RequestTask and
// SubmitTask call is serialized behind a single lock, which keeps the
// dedup check and the barrier evaluation trivially race-free and costs
// nothing measurable at the scale a single coordinator process runs at.
type Coordinator struct {
	mu sync.Mutex

	nReduce       int
	pendingTasks  []Task
	runningTasks  map[RunningKey]Task
	reducePending map[int][]string

	// resultFiles accumulates the output paths reported by retired reduce
	// tasks, in Submit arrival order, for the final merge step.
	resultFiles []string

	mapBarrierFired bool
}

// New constructs a Coordinator for the given input files and reduce
// fan-out. nMap sizes the map-task chunking: inputs are grouped into
// ceil(len(files)/nMap) files per map task when nMap > 0, otherwise one
// input file per map task.
func New(files []string, nReduce, nMap int) *Coordinator {
	c := &Coordinator{
		nReduce:       nReduce,
		runningTasks:  make(map[RunningKey]Task),
		reducePending: make(map[int][]string),
	}

	chunkSize := 1
	if nMap > 0 && nMap < len(files) {
		chunkSize = (len(files) + nMap - 1) / nMap
	}

	capacity := 2 * (len(files) + nMap)
	c.pendingTasks = make([]Task, 0, capacity)

	for i := 0; i < len(files); i += chunkSize {
		end := i + chunkSize
		if end > len(files) {
			end = len(files)
		}
		t := newTask(append([]string(nil), files[i:end]...), Map, nReduce)
		c.pendingTasks = append(c.pendingTasks, t)
	}

	logrus.WithFields(logrus.Fields{
		"inputs":    len(files),
		"mapTasks":  len(c.pendingTasks),
		"nReduce":   nReduce,
		"chunkSize": chunkSize,
	}).Info("coordinator initialized")

	return c
}

// RequestTask implements the RequestTask RPC: pop one pending task if any
// exist, otherwise report Wait or Finish.
func (c *Coordinator) RequestTask(req *TaskReq, resp *TaskResp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pendingTasks) > 0 {
		t := c.pendingTasks[0]
		c.pendingTasks = c.pendingTasks[1:]

		dist := t.toDistribution(req.WorkID)
		c.runningTasks[t.runningKey()] = t

		resp.Task = &dist
		resp.Status = Running

		logrus.WithFields(logrus.Fields{
			"taskId": t.TaskID,
			"workId": req.WorkID,
			"type":   t.TaskType,
		}).Info("dispatched task")
		return nil
	}

	if c.isFinishedLocked() {
		resp.Status = Finish
	} else {
		resp.Status = Wait
	}
	return nil
}

// SubmitTask implements the SubmitTask RPC: retire the running entry (if
// still present), record map outputs into the per-bin staging area (unless
// already recorded), and evaluate the map->reduce barrier.
func (c *Coordinator) SubmitTask(sub *TaskSubmit, resp *TaskResp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := runningKey(sub.TaskID, sub.WorkID)
	t, ok := c.runningTasks[key]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"taskId": sub.TaskID,
			"workId": sub.WorkID,
		}).Debug("submit for unknown running key, treating as duplicate")
	} else {
		delete(c.runningTasks, key)

		switch {
		case t.TaskType == Map && !c.mapTaskAlreadyRecordedLocked(sub.TaskID):
			for i, f := range sub.Files {
				c.reducePending[i] = append(c.reducePending[i], f)
			}
		case t.TaskType == Reduce:
			c.resultFiles = append(c.resultFiles, sub.Files...)
		}

		logrus.WithFields(logrus.Fields{
			"taskId": t.TaskID,
			"workId": t.WorkID,
			"type":   t.TaskType,
		}).Info("task retired")
	}

	c.maybeFireBarrierLocked()

	resp.Task = nil
	resp.Status = Wait
	return nil
}

// mapTaskAlreadyRecordedLocked asks whether bin 0 already holds a path
// mentioning taskID. Because every shard of a given map task lands in
// every bin under the same taskID prefix, presence in bin 0 implies
// presence everywhere, so this one check is sufficient to dedup a repeated
// Submit. Caller must hold c.mu.
func (c *Coordinator) mapTaskAlreadyRecordedLocked(taskID string) bool {
	for _, f := range c.reducePending[0] {
		if strings.Contains(f, taskID) {
			return true
		}
	}
	return false
}

// maybeFireBarrierLocked drains reducePending into pendingTasks the first
// time every map task has left both the pending queue and the running
// registry. It is idempotent: once reducePending is empty the check is a
// no-op on every subsequent call. Caller must hold c.mu.
func (c *Coordinator) maybeFireBarrierLocked() {
	if !c.mapFinishedLocked() || len(c.reducePending) == 0 {
		return
	}

	for bin, files := range c.reducePending {
		t := newTask(append([]string(nil), files...), Reduce, c.nReduce)
		c.pendingTasks = append(c.pendingTasks, t)
		logrus.WithFields(logrus.Fields{"bin": bin, "taskId": t.TaskID, "files": len(files)}).Info("emitted reduce task")
	}
	c.reducePending = make(map[int][]string)
	c.mapBarrierFired = true
}

func (c *Coordinator) mapFinishedLocked() bool {
	for _, t := range c.pendingTasks {
		if t.TaskType == Map {
			return false
		}
	}
	for _, t := range c.runningTasks {
		if t.TaskType == Map {
			return false
		}
	}
	return true
}

func (c *Coordinator) isFinishedLocked() bool {
	return len(c.pendingTasks) == 0 && len(c.runningTasks) == 0 && len(c.reducePending) == 0
}

// Done reports whether every task has retired and the map->reduce barrier
// (if any reduce work existed) has fired.
func (c *Coordinator) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isFinishedLocked()
}

// ResultFiles returns the output paths reported by retired reduce tasks so
// far, in Submit arrival order.
func (c *Coordinator) ResultFiles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.resultFiles...)
}
