package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// PrintSummary writes the end-of-run summary block. TOTAL is the count
// advertised by the test binary, not the number of rows written.
func PrintSummary(w io.Writer, counters types.RunCounters, duration time.Duration) error {
	_, err := fmt.Fprintf(w,
		"*******SUMMARY*******\n"+
			" PASSED  = %d\n"+
			" SKIPPED = %d\n"+
			" FAILED  = %d\n"+
			" ERROR   = %d\n"+
			" HANG    = %d\n"+
			" TOTAL   = %d\n"+
			"*********END*********\n"+
			"Duration (sec): %s\n",
		counters.Passed,
		counters.Skipped,
		counters.Failed,
		counters.Errored,
		counters.Hung,
		counters.Total,
		FormatSeconds(duration),
	)
	return err
}

// FormatSeconds renders a duration as fractional seconds, e.g. "12.5"
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
