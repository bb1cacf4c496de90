// Package distmr implements a small distributed MapReduce engine: a
// coordinator dispatches map and reduce tasks to stateless workers over an
// RPC channel, and workers execute user-supplied plugin logic against a
// shared filesystem.
package distmr

import "github.com/google/uuid"

// TaskType distinguishes a map task from a reduce task.
type TaskType int

const (
	// Map transforms a chunk of input files into outFileNum intermediate
	// shard files.
	Map TaskType = iota
	// Reduce consumes every intermediate file belonging to one reduce bin
	// and produces one output file.
	Reduce
)

func (t TaskType) String() string {
	switch t {
	case Map:
		return "Map"
	case Reduce:
		return "Reduce"
	default:
		return "Unknown"
	}
}

// Task is a unit of work owned by the coordinator from creation until
// retirement. Workers only ever see a value-copy (TaskDist, see rpc.go) and
// never mutate the coordinator's record.
type Task struct {
	TaskID     string
	WorkID     string // empty while pending
	Files      []string
	TaskType   TaskType
	OutFileNum int
}

// newTask mints a Task in the pending state: no WorkID, a fresh TaskID.
func newTask(files []string, taskType TaskType, outFileNum int) Task {
	return Task{
		TaskID:     uuid.New().String(),
		Files:      files,
		TaskType:   taskType,
		OutFileNum: outFileNum,
	}
}

// RunningKey is the composite identifier "{taskId}_{workId}" used to look a
// task up in the coordinator's running registry. Uniqueness comes from
// TaskID alone; WorkID is carried only so a worker can reason about its own
// assignment.
type RunningKey string

func runningKey(taskID, workID string) RunningKey {
	return RunningKey(taskID + "_" + workID)
}

// toDistribution stamps WorkID onto the task and returns the value a worker
// receives over the wire. The coordinator's own copy retains ownership;
// this is always called on the coordinator's record just before it moves
// from pending to running.
func (t *Task) toDistribution(workID string) TaskDist {
	t.WorkID = workID
	return TaskDist{
		TaskID:     t.TaskID,
		WorkID:     workID,
		Files:      append([]string(nil), t.Files...),
		OutFileNum: t.OutFileNum,
		Status:     t.TaskType,
	}
}

func (t *Task) runningKey() RunningKey {
	return runningKey(t.TaskID, t.WorkID)
}
