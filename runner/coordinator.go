package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// RunnerResult captures the complete test run results
type RunnerResult struct {
	RunID       string
	Binary      string
	Records     []types.ResultRecord
	Counters    types.RunCounters
	Duplicates  int
	Interrupted bool
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// TestCoordinator orchestrates one run of a test binary
type TestCoordinator interface {
	// Run executes every identifier and blocks until all results are in.
	// total is the count advertised at discovery and is only used for
	// reporting.
	Run(ctx context.Context, tests []types.TestIdentifier, total int) (*RunnerResult, error)
}

// Config holds configuration for creating a new coordinator
type Config struct {
	Binary        string
	Timeout       time.Duration
	Concurrency   int
	CrashDumpDir  string
	ProgressEvery int // 0 selects DefaultProgressEvery, negative disables
	Log           log.Logger
	UI            ProgressIndicator
	Sink          ResultSink
	Executor      TestExecutor // overrides the process executor built from the fields above
}

// testCoordinator implements TestCoordinator
type testCoordinator struct {
	binary        string
	progressEvery int
	log           log.Logger
	ui            ProgressIndicator
	parallel      *ParallelExecutor
	tracer        trace.Tracer
}

// NewTestCoordinator creates a new test coordinator
func NewTestCoordinator(cfg Config) (TestCoordinator, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.UI == nil {
		cfg.UI = NewNoOpProgressIndicator()
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}

	executor := cfg.Executor
	if executor == nil {
		var err error
		executor, err = NewTestExecutor(ExecutorConfig{
			Binary:  cfg.Binary,
			Timeout: cfg.Timeout,
			Log:     cfg.Log,
			Cleaner: NewCrashDumpCleaner(cfg.CrashDumpDir),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create test executor: %w", err)
		}
	}

	cfg.Log.Debug("NewTestCoordinator()", "binary", cfg.Binary, "timeout", cfg.Timeout,
		"concurrency", cfg.Concurrency, "crashDumpDir", cfg.CrashDumpDir)

	return &testCoordinator{
		binary:        cfg.Binary,
		progressEvery: cfg.ProgressEvery,
		log:           cfg.Log,
		ui:            cfg.UI,
		parallel:      NewParallelExecutor(executor, cfg.Concurrency, cfg.Log, cfg.UI, cfg.Sink),
		tracer:        otel.Tracer("gtest runner"),
	}, nil
}

// Run orchestrates the execution of all tests. Every call gets its own
// collector, so counters never leak between runs.
func (c *testCoordinator) Run(ctx context.Context, tests []types.TestIdentifier, total int) (*RunnerResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	runID := uuid.New().String()
	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("run %s", filepath.Base(c.binary)))
	defer span.End()

	start := time.Now()
	c.log.Debug("Running all tests", "run_id", runID, "tests", len(tests), "total", total)

	collector := NewResultCollector(total, c.progressEvery)
	c.ui.StartRun(c.binary, total)

	err := c.parallel.ExecuteTests(ctx, runID, tests, collector)
	interrupted := err != nil
	if interrupted {
		c.log.Warn("Run interrupted before all tests were started", "run_id", runID, "err", err)
	}

	end := time.Now()
	result := &RunnerResult{
		RunID:       runID,
		Binary:      c.binary,
		Records:     collector.Records(),
		Counters:    collector.Counters(),
		Duplicates:  collector.Duplicates(),
		Interrupted: interrupted,
		StartTime:   start,
		EndTime:     end,
		Duration:    end.Sub(start),
	}
	c.ui.CompleteRun(result.Counters)

	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int("completed", result.Counters.Completed),
		attribute.Int("records", len(result.Records)),
	)

	c.log.Info("Test run completed", "run_id", runID, "completed", result.Counters.Completed,
		"records", len(result.Records), "duplicates", result.Duplicates, "duration", result.Duration)
	return result, nil
}
