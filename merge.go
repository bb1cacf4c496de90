package distmr

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ResultMerger combines the per-bin reduce output files into one final
// result file with deterministic, key-sorted contents. Positional
// partitioning means the same key can appear in more than one reduce
// output; the merger collects every value reported for a key before
// writing it out, so the final file is the one place a key's full picture
// is visible.
type ResultMerger struct {
	resultPath string
	results    map[string][]string
}

// NewResultMerger creates a merger that will write its combined output to
// resultPath.
func NewResultMerger(resultPath string) *ResultMerger {
	return &ResultMerger{
		resultPath: resultPath,
		results:    make(map[string][]string),
	}
}

// Merge reads every reduce output file in files, accumulates values per
// key, and writes the sorted combined result. Unreadable inputs are logged
// and skipped so a partial job still yields a partial result file.
func (m *ResultMerger) Merge(files []string) error {
	for _, f := range files {
		if err := m.collectFile(f); err != nil {
			logrus.WithError(err).WithField("file", f).Warn("skipping unreadable reduce output during merge")
		}
	}
	return m.writeResults()
}

func (m *ResultMerger) collectFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		m.results[fields[0]] = append(m.results[fields[0]], fields[1])
	}
	return scanner.Err()
}

func (m *ResultMerger) writeResults() error {
	if dir := filepath.Dir(m.resultPath); dir != "" {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return fmt.Errorf("distmr: create result directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(m.resultPath)
	if err != nil {
		return fmt.Errorf("distmr: create result file %s: %w", m.resultPath, err)
	}
	defer file.Close()

	keys := make([]string, 0, len(m.results))
	for key := range m.results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	writer := bufio.NewWriter(file)
	for _, key := range keys {
		if _, err := fmt.Fprintf(writer, "%s: %v\n", key, m.results[key]); err != nil {
			return fmt.Errorf("distmr: write result file %s: %w", m.resultPath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"result": m.resultPath,
		"keys":   len(keys),
	}).Info("merged reduce outputs")
	return nil
}
