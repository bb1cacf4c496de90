package distmr

import "testing"

func TestRequestTaskFinishOnEmptyInput(t *testing.T) {
	c := New(nil, 3, 1)

	resp := &TaskResp{}
	if err := c.RequestTask(&TaskReq{WorkID: "w1"}, resp); err != nil {
		t.Fatalf("RequestTask: %v", err)
	}
	if resp.Status != Finish {
		t.Fatalf("status = %v, want Finish", resp.Status)
	}
}

func TestRequestTaskWaitWhileMapRunning(t *testing.T) {
	c := New([]string{"a.txt"}, 3, 1)

	first := &TaskResp{}
	if err := c.RequestTask(&TaskReq{WorkID: "w1"}, first); err != nil {
		t.Fatalf("RequestTask: %v", err)
	}
	if first.Status != Running {
		t.Fatalf("status = %v, want Running", first.Status)
	}

	second := &TaskResp{}
	if err := c.RequestTask(&TaskReq{WorkID: "w2"}, second); err != nil {
		t.Fatalf("RequestTask: %v", err)
	}
	if second.Status != Wait {
		t.Fatalf("status = %v, want Wait (never Finish while a task is running)", second.Status)
	}
}

func TestFinishIsSticky(t *testing.T) {
	c := New(nil, 1, 1)

	for i := 0; i < 3; i++ {
		resp := &TaskResp{}
		if err := c.RequestTask(&TaskReq{WorkID: "w"}, resp); err != nil {
			t.Fatalf("RequestTask: %v", err)
		}
		if resp.Status != Finish {
			t.Fatalf("call %d: status = %v, want Finish", i, resp.Status)
		}
	}
}

func TestDuplicateSubmitRecordsOnce(t *testing.T) {
	// Two map tasks, so the barrier stays closed while the second is still
	// pending and reducePending can be inspected after the duplicate submit.
	c := New([]string{"a.txt", "b.txt"}, 2, 2)

	taskResp := &TaskResp{}
	if err := c.RequestTask(&TaskReq{WorkID: "w1"}, taskResp); err != nil {
		t.Fatalf("RequestTask: %v", err)
	}
	taskID := taskResp.Task.TaskID

	files := []string{
		intermediateFileName("out", taskID, "w1", 0),
		intermediateFileName("out", taskID, "w1", 1),
	}

	for i := 0; i < 2; i++ {
		sub := &TaskSubmit{WorkID: "w1", TaskID: taskID, Files: files}
		resp := &TaskResp{}
		if err := c.SubmitTask(sub, resp); err != nil {
			t.Fatalf("SubmitTask call %d: %v", i, err)
		}
	}

	if got := len(c.reducePending[0]); got != 1 {
		t.Fatalf("reducePending[0] has %d entries, want exactly 1 after duplicate submit", got)
	}
	if got := len(c.reducePending[1]); got != 1 {
		t.Fatalf("reducePending[1] has %d entries, want exactly 1 after duplicate submit", got)
	}
}

func TestBarrierEmitsOneReducePerBin(t *testing.T) {
	c := New([]string{"a.txt", "b.txt"}, 2, 2)

	for _, worker := range []string{"w1", "w2"} {
		taskResp := &TaskResp{}
		if err := c.RequestTask(&TaskReq{WorkID: worker}, taskResp); err != nil {
			t.Fatalf("RequestTask: %v", err)
		}
		taskID := taskResp.Task.TaskID
		files := []string{
			intermediateFileName("out", taskID, worker, 0),
			intermediateFileName("out", taskID, worker, 1),
		}
		sub := &TaskSubmit{WorkID: worker, TaskID: taskID, Files: files}
		resp := &TaskResp{}
		if err := c.SubmitTask(sub, resp); err != nil {
			t.Fatalf("SubmitTask: %v", err)
		}
	}

	if !c.mapBarrierFired {
		t.Fatal("expected map->reduce barrier to have fired")
	}

	reduceCount := 0
	for _, task := range c.pendingTasks {
		if task.TaskType != Reduce {
			t.Fatalf("unexpected task type %v still pending after barrier", task.TaskType)
		}
		reduceCount++
	}
	if reduceCount != 2 {
		t.Fatalf("got %d reduce tasks, want 2 (one per bin, not 2*2)", reduceCount)
	}
}

func TestReduceOutputNaming(t *testing.T) {
	got := shardSuffix("/tmp/mr-abc_def-2")
	if got != "2" {
		t.Fatalf("shardSuffix = %q, want %q", got, "2")
	}
	if out := reduceOutputName("/tmp", got); out != "/tmp/mr-out-2" {
		t.Fatalf("reduceOutputName = %q, want /tmp/mr-out-2", out)
	}
}

func TestReduceSubmitRecordsResultFiles(t *testing.T) {
	c := New([]string{"a.txt"}, 1, 1)

	mapResp := &TaskResp{}
	if err := c.RequestTask(&TaskReq{WorkID: "w1"}, mapResp); err != nil {
		t.Fatalf("RequestTask: %v", err)
	}
	shard := intermediateFileName("out", mapResp.Task.TaskID, "w1", 0)
	if err := c.SubmitTask(&TaskSubmit{WorkID: "w1", TaskID: mapResp.Task.TaskID, Files: []string{shard}}, &TaskResp{}); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}

	reduceResp := &TaskResp{}
	if err := c.RequestTask(&TaskReq{WorkID: "w1"}, reduceResp); err != nil {
		t.Fatalf("RequestTask: %v", err)
	}
	if reduceResp.Status != Running || reduceResp.Task.Status != Reduce {
		t.Fatalf("expected a running reduce task after the barrier, got %+v", reduceResp)
	}

	out := reduceOutputName("out", "0")
	sub := &TaskSubmit{WorkID: "w1", TaskID: reduceResp.Task.TaskID, Files: []string{out}}
	for i := 0; i < 2; i++ {
		if err := c.SubmitTask(sub, &TaskResp{}); err != nil {
			t.Fatalf("SubmitTask call %d: %v", i, err)
		}
	}

	results := c.ResultFiles()
	if len(results) != 1 || results[0] != out {
		t.Fatalf("ResultFiles = %v, want exactly [%s] after duplicate reduce submit", results, out)
	}
	if !c.Done() {
		t.Fatal("coordinator should be done after the only reduce task retired")
	}
}

func TestSubmitUnknownRunningKeyIsNoop(t *testing.T) {
	c := New([]string{"a.txt"}, 1, 1)

	resp := &TaskResp{}
	if err := c.SubmitTask(&TaskSubmit{WorkID: "ghost", TaskID: "ghost-task"}, resp); err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}
	if resp.Status != Wait {
		t.Fatalf("status = %v, want Wait", resp.Status)
	}
	if len(c.pendingTasks) != 1 {
		t.Fatalf("pendingTasks changed size on unknown submit: %d", len(c.pendingTasks))
	}
}
