package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

func newResult(id string, outcome types.Outcome) *types.TestResult {
	return &types.TestResult{
		ID:       types.TestIdentifier(id),
		Outcome:  outcome,
		Record:   types.NewResultRecord("cros_nnapi_cts --gtest_filter="+id, outcome),
		Duration: 42 * time.Millisecond,
		Stdout:   "[ RUN      ] " + id + "\n\x1b[0;31m[  FAILED  ]\x1b[m " + id + "\n",
		Stderr:   "assertion failed\n",
	}
}

func TestNewFileLoggerValidation(t *testing.T) {
	_, err := NewFileLogger("", nil)
	assert.ErrorContains(t, err, "baseDir cannot be empty")

	l, err := NewFileLogger(t.TempDir(), log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)
	_, err = l.DirectoryForRunID("")
	assert.ErrorContains(t, err, "runID cannot be empty")
}

func TestFileLoggerWritesProblemsOnly(t *testing.T) {
	base := t.TempDir()
	l, err := NewFileLogger(base, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	const runID = "run-1"
	hang := newResult("Suite.Hang", types.Hang())
	hang.Error = errors.New("test timed out after 10s")

	results := []*types.TestResult{
		newResult("Suite.Pass", types.Passed()),
		newResult("Suite.Skip", types.Skipped()),
		newResult("Suite.Fail", types.Failed()),
		newResult("Param/Suite.Crash/3", types.Errored(134)),
		hang,
	}
	for _, r := range results {
		require.NoError(t, l.Consume(r, runID))
	}
	require.NoError(t, l.Complete())

	runDir := filepath.Join(base, RunDirectoryPrefix+runID)
	entries, err := os.ReadDir(filepath.Join(runDir, FailedDirName))
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"Suite.Fail.log", "Param_Suite.Crash_3.log", "Suite.Hang.log"}, names)

	content, err := os.ReadFile(filepath.Join(runDir, FailedDirName, "Suite.Fail.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "│ TEST: Suite.Fail ")
	assert.Contains(t, string(content), "COMMAND:  cros_nnapi_cts --gtest_filter=Suite.Fail")
	assert.Contains(t, string(content), "RESULT:   FAILED")
	assert.Contains(t, string(content), "  [  FAILED  ] Suite.Fail")
	assert.NotContains(t, string(content), "\x1b[", "ANSI codes are stripped")
	assert.Contains(t, string(content), "  assertion failed")

	content, err = os.ReadFile(filepath.Join(runDir, FailedDirName, "Suite.Hang.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "ERROR:    test timed out after 10s")

	all, err := os.ReadFile(filepath.Join(runDir, AllLogsFilename))
	require.NoError(t, err)
	for _, r := range results {
		assert.Contains(t, string(all), r.Record.Command)
	}
	assert.Contains(t, string(all), "ERROR (134)")
}

func TestFileLoggerConcurrentConsume(t *testing.T) {
	base := t.TempDir()
	l, err := NewFileLogger(base, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Consume(newResult(fmt.Sprintf("Suite.Case%d", i), types.Failed()), "run"))
		}()
	}
	wg.Wait()
	require.NoError(t, l.Complete())

	entries, err := os.ReadDir(filepath.Join(base, RunDirectoryPrefix+"run", FailedDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestFileLoggerDuplicateResultWrittenOnce(t *testing.T) {
	base := t.TempDir()
	l, err := NewFileLogger(base, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	r := newResult("Suite.Fail", types.Failed())
	require.NoError(t, l.Consume(r, "run"))
	require.NoError(t, l.Consume(r, "run"))
	require.NoError(t, l.Complete())

	path, err := l.FailedLogPath("run", r.ID)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, formatTestLog(r), string(content))
}

func TestFileLoggerCollidingFilenames(t *testing.T) {
	base := t.TempDir()
	l, err := NewFileLogger(base, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	slashed := newResult("P/S.c", types.Failed())
	underscored := newResult("P_S.c", types.Hang())
	require.NoError(t, l.Consume(slashed, "run"))
	require.NoError(t, l.Consume(underscored, "run"))
	require.NoError(t, l.Consume(underscored, "run"))
	require.NoError(t, l.Complete())

	entries, err := os.ReadDir(filepath.Join(base, RunDirectoryPrefix+"run", FailedDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	slashedPath, err := l.FailedLogPath("run", slashed.ID)
	require.NoError(t, err)
	underscoredPath, err := l.FailedLogPath("run", underscored.ID)
	require.NoError(t, err)
	assert.NotEqual(t, slashedPath, underscoredPath)
	assert.Equal(t, "P_S.c.log", filepath.Base(slashedPath))

	for path, r := range map[string]*types.TestResult{slashedPath: slashed, underscoredPath: underscored} {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, formatTestLog(r), string(content))
	}
}

func TestFileLoggerSameIDAcrossRuns(t *testing.T) {
	base := t.TempDir()
	l, err := NewFileLogger(base, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	r := newResult("Suite.Fail", types.Failed())
	require.NoError(t, l.Consume(r, "a"))
	require.NoError(t, l.Consume(r, "b"))
	require.NoError(t, l.Complete())

	for _, runID := range []string{"a", "b"} {
		_, err := os.Stat(filepath.Join(base, RunDirectoryPrefix+runID, FailedDirName, "Suite.Fail.log"))
		assert.NoError(t, err, "run %s", runID)
	}
}

func TestFileLoggerSummary(t *testing.T) {
	base := t.TempDir()
	l, err := NewFileLogger(base, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	require.NoError(t, l.LogSummary("*******SUMMARY*******\n", "run"))
	require.NoError(t, l.Complete())

	content, err := os.ReadFile(filepath.Join(base, RunDirectoryPrefix+"run", SummaryFilename))
	require.NoError(t, err)
	assert.Equal(t, "*******SUMMARY*******\n", string(content))
}

func TestAsyncFileRejectsWritesAfterClose(t *testing.T) {
	af, err := NewAsyncFile(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	require.NoError(t, af.Write([]byte("a")))
	require.NoError(t, af.Close())
	assert.ErrorContains(t, af.Write([]byte("b")), "closed")
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "TestGenerated_GeneratedTests.add_0", safeFilename("TestGenerated/GeneratedTests.add/0"))
	assert.Equal(t, "a_b_c", safeFilename("a b:c"))
}

func TestFormatTestLogNotesTruncatedStdout(t *testing.T) {
	r := newResult("Suite.Fail", types.Failed())
	assert.Contains(t, formatTestLog(r), "\nSTDOUT:\n")

	r.StdoutTruncated = true
	r.StdoutBytes = 4096
	assert.Contains(t, formatTestLog(r), fmt.Sprintf("STDOUT (last %d of 4096 bytes):", len(r.Stdout)))
}
