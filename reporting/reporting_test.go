package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

var sampleRecords = []types.ResultRecord{
	{Command: "cros_nnapi_cts --gtest_filter=A.a", Result: "PASSED"},
	{Command: "cros_nnapi_cts --gtest_filter=A.b", Result: "FAILED"},
	{Command: "cros_nnapi_cts --gtest_filter=A.c", Result: "SKIPPED"},
	{Command: "cros_nnapi_cts --gtest_filter=A.d", Result: "ERROR (134)"},
	{Command: "cros_nnapi_cts --gtest_filter=A.e", Result: "HANG"},
}

func TestOutputFilename(t *testing.T) {
	start := time.Date(2024, time.January, 31, 17, 45, 1, 0, time.UTC)
	assert.Equal(t, "cts_20240131_174501.csv", OutputFilename("cts", start))
	assert.Equal(t, "vts13_20240131_174501.csv", OutputFilename("vts13", start))
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, time.March, 1, 9, 5, 7, 0, time.UTC)

	path, err := WriteCSV(dir, "vts12", start, sampleRecords)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vts12_20240301_090507.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "VTS/CTS Command,Result\n"+
		"cros_nnapi_cts --gtest_filter=A.a,PASSED\n"+
		"cros_nnapi_cts --gtest_filter=A.b,FAILED\n"+
		"cros_nnapi_cts --gtest_filter=A.c,SKIPPED\n"+
		"cros_nnapi_cts --gtest_filter=A.d,ERROR (134)\n"+
		"cros_nnapi_cts --gtest_filter=A.e,HANG\n", string(content))

	records, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords, records)
}

func TestWriteCSVEmptyRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path, err := WriteCSV(dir, "cts", time.Now(), nil)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "VTS/CTS Command,Result\n", string(content))
}

func TestWriteCSVQuotesCommas(t *testing.T) {
	records := []types.ResultRecord{{Command: "bin --gtest_filter=P/S.c/1,2", Result: "PASSED"}}
	path, err := WriteCSV(t.TempDir(), "cts", time.Now(), records)
	require.NoError(t, err)

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWriteCSVRequiresMode(t *testing.T) {
	_, err := WriteCSV(t.TempDir(), "", time.Now(), nil)
	assert.ErrorContains(t, err, "mode cannot be empty")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	counters := types.RunCounters{Passed: 10, Skipped: 2, Failed: 3, Errored: 1, Hung: 4, Completed: 20, Total: 21}

	require.NoError(t, PrintSummary(&buf, counters, 12500*time.Millisecond))
	assert.Equal(t, "*******SUMMARY*******\n"+
		" PASSED  = 10\n"+
		" SKIPPED = 2\n"+
		" FAILED  = 3\n"+
		" ERROR   = 1\n"+
		" HANG    = 4\n"+
		" TOTAL   = 21\n"+
		"*********END*********\n"+
		"Duration (sec): 12.5\n", buf.String())
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0", FormatSeconds(0))
	assert.Equal(t, "3", FormatSeconds(3*time.Second))
	assert.Equal(t, "0.25", FormatSeconds(250*time.Millisecond))
}

func TestProblems(t *testing.T) {
	problems := Problems(sampleRecords)
	require.Len(t, problems, 3)
	assert.Equal(t, "FAILED", problems[0].Result)
	assert.Equal(t, "ERROR (134)", problems[1].Result)
	assert.Equal(t, "HANG", problems[2].Result)
}

func TestProblemTableFormatter(t *testing.T) {
	f := NewProblemTableFormatter("Non-passing tests")

	out := f.Format(sampleRecords)
	assert.Contains(t, out, "Non-passing tests")
	assert.Contains(t, out, "cros_nnapi_cts --gtest_filter=A.b")
	assert.Contains(t, out, "ERROR (134)")
	assert.NotContains(t, out, "--gtest_filter=A.a")
	assert.NotContains(t, out, "--gtest_filter=A.c")

	assert.Empty(t, f.Format(sampleRecords[:1]))

	var buf bytes.Buffer
	require.NoError(t, f.Print(&buf, sampleRecords[2:3]))
	assert.Empty(t, buf.String())
}
