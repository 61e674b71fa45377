package runner

import (
	"context"
	"runtime"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// ResultSink receives every executed test result, e.g. to persist its output.
// Consume is called concurrently from all workers.
type ResultSink interface {
	Consume(result *types.TestResult, runID string) error
}

// ParallelExecutor manages parallel test execution across multiple workers
type ParallelExecutor struct {
	executor    TestExecutor
	concurrency int
	log         log.Logger
	ui          ProgressIndicator
	sink        ResultSink
}

// NewParallelExecutor creates a new parallel test executor with validation.
// A concurrency of 0 selects DefaultConcurrency.
func NewParallelExecutor(executor TestExecutor, concurrency int, logger log.Logger, ui ProgressIndicator, sink ResultSink) *ParallelExecutor {
	if executor == nil {
		panic("executor cannot be nil")
	}
	if concurrency < 0 {
		panic("concurrency cannot be negative")
	}
	if logger == nil {
		logger = log.New()
	}
	if ui == nil {
		ui = NewNoOpProgressIndicator()
	}

	if concurrency > HighConcurrencyWarning {
		logger.Warn("Very high concurrency requested", "concurrency", concurrency,
			"recommendation", "Consider using lower values to avoid resource exhaustion")
	}

	return &ParallelExecutor{
		executor:    executor,
		concurrency: concurrency,
		log:         logger.New("component", "parallel-executor"),
		ui:          ui,
		sink:        sink,
	}
}

// DefaultConcurrency uses all but one CPU plus a few extra workers, since a
// worker spends most of its time blocked on its child process.
func DefaultConcurrency() int {
	return max(1, runtime.NumCPU()-1) + DefaultOversubscription
}

// determineConcurrency picks the worker count for numWorkItems tests
func (pe *ParallelExecutor) determineConcurrency(numWorkItems int) int {
	concurrency := pe.concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency()
	}
	return max(1, min(concurrency, numWorkItems))
}

// ExecuteTests runs every identifier exactly once and publishes each result
// into collector. It blocks until all dispatched tests have been published.
// When ctx is cancelled no further tests are started and ctx.Err() is
// returned once the in-flight ones have been published.
func (pe *ParallelExecutor) ExecuteTests(ctx context.Context, runID string, ids []types.TestIdentifier, collector *ResultCollector) error {
	if len(ids) == 0 {
		pe.log.Debug("No work items to execute")
		return nil
	}

	workers := pe.determineConcurrency(len(ids))
	pe.log.Info("Starting parallel test execution", "totalTests", len(ids), "concurrency", workers)

	workChan := make(chan types.TestIdentifier, min(workers*2, 100))

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			pe.worker(ctx, i, runID, workChan, collector)
			return nil
		})
	}

feed:
	for _, id := range ids {
		select {
		case workChan <- id:
		case <-ctx.Done():
			pe.log.Debug("Context cancelled while sending work items")
			break feed
		}
	}
	close(workChan)

	_ = g.Wait()
	return ctx.Err()
}

// worker pulls identifiers until the backlog is closed. After cancellation it
// keeps draining the channel without starting new children.
func (pe *ParallelExecutor) worker(ctx context.Context, workerID int, runID string, workChan <-chan types.TestIdentifier, collector *ResultCollector) {
	pe.log.Debug("Worker starting", "workerID", workerID)
	defer pe.log.Debug("Worker exiting", "workerID", workerID)

	for id := range workChan {
		if ctx.Err() != nil {
			continue
		}

		result := pe.executor.Execute(ctx, id)
		pub := collector.Publish(result)
		if !pub.Added {
			pe.log.Warn("Result collapsed into an identical record", "test", id, "command", result.Record.Command, "result", result.Record.Result)
		}

		pe.ui.UpdateTest(id, result.Outcome, pub.Completed)
		if pub.Milestone {
			pe.ui.Milestone(pub.Completed)
		}

		if pe.sink != nil {
			if err := pe.sink.Consume(result, runID); err != nil {
				pe.log.Warn("Failed to store test result", "test", id, "err", err)
			}
		}
	}
}
