package harness

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/gtest-runner/reporting"
	"github.com/ethereum-optimism/infra/gtest-runner/runner"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(result *runner.RunnerResult, elapsed time.Duration) error
}

// ConsoleResultFormatter prints the summary block followed by a table of
// every test that did not pass or skip.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
	table  *reporting.ProblemTableFormatter
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter writing to
// out, or stdout when out is nil.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
		table:  reporting.NewProblemTableFormatter("Non-passing tests"),
	}
}

// FormatResults formats and displays the test results. elapsed is the wall
// time of the whole invocation, discovery and report writing included.
func (f *ConsoleResultFormatter) FormatResults(result *runner.RunnerResult, elapsed time.Duration) error {
	if err := reporting.PrintSummary(f.out, result.Counters, elapsed); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}
	if result.Interrupted {
		f.logger.Warn("Run was interrupted, results are partial",
			"completed", result.Counters.Completed, "total", result.Counters.Total)
	}
	if result.Duplicates > 0 {
		f.logger.Warn("Some results collapsed into identical records", "duplicates", result.Duplicates)
	}
	return f.table.Print(f.out, result.Records)
}
