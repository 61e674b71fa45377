package runner

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// ProgressIndicator interface for UI updates
type ProgressIndicator interface {
	StartRun(binary string, totalTests int)
	UpdateTest(id types.TestIdentifier, outcome types.Outcome, completed int)
	Milestone(completed int)
	CompleteRun(counters types.RunCounters)
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartRun(binary string, totalTests int)                                   {}
func (n *noOpProgressIndicator) UpdateTest(id types.TestIdentifier, outcome types.Outcome, completed int) {}
func (n *noOpProgressIndicator) Milestone(completed int)                                                  {}
func (n *noOpProgressIndicator) CompleteRun(counters types.RunCounters)                                   {}

// consoleProgressIndicator prints the run banner and milestone lines to out
// and logs every completion at debug level.
type consoleProgressIndicator struct {
	logger log.Logger
	out    io.Writer

	mu         sync.Mutex
	binary     string
	totalTests int
}

// NewConsoleProgressIndicator creates a progress indicator that writes to out,
// or stdout when out is nil.
func NewConsoleProgressIndicator(logger log.Logger, out io.Writer) ProgressIndicator {
	if out == nil {
		out = os.Stdout
	}
	return &consoleProgressIndicator{
		logger: logger,
		out:    out,
	}
}

func (c *consoleProgressIndicator) StartRun(binary string, totalTests int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.binary = binary
	c.totalTests = totalTests
	fmt.Fprintf(c.out, "Running %d %s tests. Please wait..\n", totalTests, binary)
}

func (c *consoleProgressIndicator) UpdateTest(id types.TestIdentifier, outcome types.Outcome, completed int) {
	c.logger.Debug("Test completed", "test", id, "outcome", outcome, "completed", completed)
}

func (c *consoleProgressIndicator) Milestone(completed int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "Completed [%d/%d] tests..\n", completed, c.totalTests)
}

func (c *consoleProgressIndicator) CompleteRun(counters types.RunCounters) {
	c.logger.Info("Completed run", "binary", c.binary, "completed", counters.Completed, "total", counters.Total)
}
