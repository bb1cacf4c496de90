package distmr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"distmr/plugin"
)

func wordCountPlugin(t *testing.T) plugin.ProcessPlugin {
	t.Helper()
	p, ok := plugin.Lookup("wordcount")
	if !ok {
		t.Fatal("wordcount plugin not registered")
	}
	return p
}

func TestMapReduceSingleFileSingleBin(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(in, []byte("the quick the fox"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &Worker{WorkID: "w1", Plugin: wordCountPlugin(t), OutDir: dir}
	shards, err := w.executeMap(TaskDist{TaskID: "t1", WorkID: "w1", Files: []string{in}, OutFileNum: 1, Status: Map})
	if err != nil {
		t.Fatalf("executeMap: %v", err)
	}
	if len(shards) != 1 {
		t.Fatalf("got %d shards, want 1", len(shards))
	}

	out, err := w.executeReduce(TaskDist{TaskID: "r1", WorkID: "w1", Files: shards, Status: Reduce})
	if err != nil {
		t.Fatalf("executeReduce: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d output files, want 1", len(out))
	}
	if filepath.Base(out[0]) != "mr-out-0" {
		t.Fatalf("output file named %q, want mr-out-0", filepath.Base(out[0]))
	}

	content, err := os.ReadFile(out[0])
	if err != nil {
		t.Fatal(err)
	}
	counts := parseCounts(t, string(content))
	want := map[string]string{"the": "2", "quick": "1", "fox": "1"}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("count[%s] = %q, want %q", k, counts[k], v)
		}
	}
}

// TestMapReduceTwoFilesTwoBins checks the union of final outputs across
// both bins: per-key counts are only guaranteed correct in aggregate
// because partitioning is positional, not by key hash.
func TestMapReduceTwoFilesTwoBins(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.txt")
	fileB := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(fileA, []byte("a b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fileB, []byte("b c"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &Worker{WorkID: "w1", Plugin: wordCountPlugin(t), OutDir: dir}

	bins := make(map[int][]string)
	for i, f := range []string{fileA, fileB} {
		shards, err := w.executeMap(TaskDist{TaskID: "t" + string(rune('0'+i)), WorkID: "w1", Files: []string{f}, OutFileNum: 2, Status: Map})
		if err != nil {
			t.Fatalf("executeMap: %v", err)
		}
		for bin, path := range shards {
			bins[bin] = append(bins[bin], path)
		}
	}

	total := map[string]int{}
	for bin, files := range bins {
		out, err := w.executeReduce(TaskDist{TaskID: "r", WorkID: "w1", Files: files, Status: Reduce})
		if err != nil {
			t.Fatalf("executeReduce bin %d: %v", bin, err)
		}
		content, err := os.ReadFile(out[0])
		if err != nil {
			t.Fatal(err)
		}
		for k, v := range parseCounts(t, string(content)) {
			total[k] += atoiT(t, v)
		}
	}

	want := map[string]int{"a": 1, "b": 2, "c": 1}
	for k, v := range want {
		if total[k] != v {
			t.Errorf("union count[%s] = %d, want %d", k, total[k], v)
		}
	}
}

func TestExecuteMapSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")

	w := &Worker{WorkID: "w1", Plugin: wordCountPlugin(t), OutDir: dir}
	shards, err := w.executeMap(TaskDist{TaskID: "t1", WorkID: "w1", Files: []string{missing}, OutFileNum: 1, Status: Map})
	if err != nil {
		t.Fatalf("executeMap should not fail on unreadable input: %v", err)
	}
	if len(shards) != 0 {
		t.Fatalf("got %d shards for a task with no readable input, want 0", len(shards))
	}
}

func parseCounts(t *testing.T, content string) map[string]string {
	t.Helper()
	counts := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			t.Fatalf("malformed output line %q", line)
		}
		counts[fields[0]] = fields[1]
	}
	return counts
}

func atoiT(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("not a number: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n
}
