package distmr

import (
	"context"
	"fmt"
	"net/rpc"
	"time"

	"github.com/sirupsen/logrus"
)

// RPC method names, registered on the net/rpc server in coordinator_server.go.
const (
	RequestTaskMethod = "Coordinator.RequestTask"
	SubmitTaskMethod  = "Coordinator.SubmitTask"
)

// RunningStatus is returned alongside every TaskResp and tells the worker
// what to do next.
type RunningStatus int

const (
	// Running means TaskResp.Task is populated with work to execute.
	Running RunningStatus = iota
	// Wait means no task is available yet; poll again.
	Wait
	// Finish means every task has retired; the worker should exit.
	Finish
)

func (s RunningStatus) String() string {
	switch s {
	case Running:
		return "Running"
	case Wait:
		return "Wait"
	case Finish:
		return "Finish"
	default:
		return "Unknown"
	}
}

// TaskReq is the RequestTask RPC argument.
type TaskReq struct {
	WorkID string
}

// TaskDist is the value-copy of a Task a worker receives from RequestTask.
type TaskDist struct {
	TaskID     string
	WorkID     string
	Files      []string
	OutFileNum int
	Status     TaskType
}

// TaskResp is the RequestTask and SubmitTask RPC reply.
type TaskResp struct {
	Task   *TaskDist
	Status RunningStatus
}

// TaskSubmit is the SubmitTask RPC argument.
type TaskSubmit struct {
	WorkID string
	TaskID string
	Files  []string
}

// call dials addr over a Unix domain socket, invokes rpcName, and waits up
// to 10 seconds for a reply. Returns false (rather than propagating the
// error) on any failure: the engine never tells a caller *why* an RPC
// failed, only that it did.
func call(addr, rpcName string, args, reply interface{}) bool {
	c, err := rpc.Dial("unix", addr)
	if err != nil {
		logrus.WithError(err).WithField("addr", addr).Debug("rpc dial failed")
		return false
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.Call(rpcName, args, reply)
	}()

	select {
	case err := <-done:
		if err != nil {
			logrus.WithError(err).WithField("method", rpcName).Debug("rpc call failed")
		}
		return err == nil
	case <-ctx.Done():
		logrus.WithField("method", rpcName).Warn("rpc call timed out")
		return false
	}
}

// intermediateFileName returns the shard path for a map task's output.
func intermediateFileName(outDir, taskID, workID string, shard int) string {
	return fmt.Sprintf("%s/mr-%s_%s-%d", outDir, taskID, workID, shard)
}

// reduceOutputName returns the final output path named after the trailing
// shard-index token of an intermediate input path.
func reduceOutputName(outDir, suffix string) string {
	return fmt.Sprintf("%s/mr-out-%s", outDir, suffix)
}
