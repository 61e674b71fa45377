package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/gtest-runner/logging"
	"github.com/ethereum-optimism/infra/gtest-runner/reporting"
	"github.com/ethereum-optimism/infra/gtest-runner/runner"
	"github.com/ethereum-optimism/infra/gtest-runner/service"
	"github.com/ethereum-optimism/infra/gtest-runner/testlist"
	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

// StartTimeLayout renders the start time line
const StartTimeLayout = "2006-01-02 15:04:05.000000"

// harness implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &harness{}

// Discoverer lists the tests contained in a gtest binary
type Discoverer interface {
	Discover(ctx context.Context, binary string) (*testlist.Listing, error)
}

// Option customizes a harness
type Option func(*harness)

// WithOutput redirects the console lines, stdout by default
func WithOutput(out io.Writer) Option {
	return func(h *harness) { h.out = out }
}

// WithDiscoverer replaces the test listing collaborator
func WithDiscoverer(d Discoverer) Option {
	return func(h *harness) { h.discoverer = d }
}

// WithCoordinator replaces the coordinator built from the config
func WithCoordinator(c runner.TestCoordinator) Option {
	return func(h *harness) { h.coordinator = c }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(h *harness) { h.now = now }
}

// harness runs one suite end to end: discover, execute, report.
type harness struct {
	config  *Config
	version string

	out         io.Writer
	now         func() time.Time
	discoverer  Discoverer
	coordinator runner.TestCoordinator
	fileLogger  *logging.FileLogger
	formatter   ResultFormatter
	reporter    MetricsReporter
	service     *service.Service

	result     *runner.RunnerResult
	reportPath string

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error), opts ...Option) (*harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating harness with config",
		"mode", config.Mode,
		"binary", config.Binary,
		"timeout", config.Timeout,
		"concurrency", config.Concurrency,
		"outputDir", config.OutputDir)

	h := &harness{
		config:           config,
		version:          version,
		out:              os.Stdout,
		now:              time.Now,
		reporter:         NewDefaultMetricsReporter(),
		shutdownCallback: shutdownCallback,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.discoverer == nil {
		h.discoverer = testlist.NewDiscoverer(testlist.Config{
			Log:           config.Log,
			SettleTimeout: config.SettleTimeout,
			PollInterval:  config.PollInterval,
		})
	}

	var sink runner.ResultSink
	if config.LogDir != "" {
		fileLogger, err := logging.NewFileLogger(config.LogDir, config.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		h.fileLogger = fileLogger
		sink = fileLogger
	}

	if h.coordinator == nil {
		coordinator, err := runner.NewTestCoordinator(runner.Config{
			Binary:        config.Binary,
			Timeout:       config.Timeout,
			Concurrency:   config.Concurrency,
			CrashDumpDir:  config.CrashDumpDir,
			ProgressEvery: progressEvery(config.ProgressEvery),
			Log:           config.Log,
			UI:            runner.NewConsoleProgressIndicator(config.Log, h.out),
			Sink:          sink,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create test coordinator: %w", err)
		}
		h.coordinator = coordinator
	}

	h.formatter = NewConsoleResultFormatter(config.Log, h.out)

	if config.Metrics.Enabled {
		h.service = service.New(config.Log, service.NewConfig(config.Metrics.ListenAddr, config.Metrics.ListenPort))
	}

	config.Log.Info("harness.New: created discoverer and test coordinator")
	return h, nil
}

// progressEvery maps the flag value onto the coordinator setting, where 0
// means the default and a negative value disables milestones.
func progressEvery(v int) int {
	if v <= 0 {
		return -1
	}
	return v
}

// Start runs the suite once and then asks the application to shut down.
// Start implements the cliapp.Lifecycle interface.
func (h *harness) Start(ctx context.Context) error {
	h.running.Store(true)

	if h.service != nil {
		h.service.Start()
	}

	if err := h.runTests(ctx); err != nil {
		h.config.Log.Error("Runtime error running tests", "error", err)
		_ = h.Stop(ctx)
		return err
	}

	h.config.Log.Info("Tests completed, exiting", "report", h.reportPath)
	go func() {
		h.shutdownCallback(nil)
	}()
	return nil
}

// runTests performs a single discover, execute and report cycle
func (h *harness) runTests(ctx context.Context) error {
	start := h.now()
	fmt.Fprintf(h.out, "Start time: %s\n", start.Format(StartTimeLayout))

	listing, err := h.discoverer.Discover(ctx, h.config.Binary)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to discover tests: %w", err))
	}

	result, err := h.coordinator.Run(ctx, listing.Tests, listing.Total)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to run tests: %w", err))
	}
	h.result = result

	fmt.Fprintf(h.out, "Writing results to output file %s. Please wait..\n", reporting.OutputFilename(h.config.Mode, start))
	path, err := reporting.WriteCSV(h.config.OutputDir, h.config.Mode, start, result.Records)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to write results: %w", err))
	}
	h.reportPath = path

	elapsed := h.now().Sub(start)
	if err := h.formatter.FormatResults(result, elapsed); err != nil {
		h.config.Log.Warn("Failed to print results", "err", err)
	}
	h.reporter.ReportResults(result)
	h.persistSummary(result, elapsed)

	h.config.Log.Info("Test run completed", "run_id", result.RunID, "records", len(result.Records),
		"problems", result.Counters.Failed+result.Counters.Errored+result.Counters.Hung)
	return nil
}

// persistSummary copies the summary into the run's log directory and flushes
// every per-test log. Failures only cost the logs, never the run.
func (h *harness) persistSummary(result *runner.RunnerResult, elapsed time.Duration) {
	if h.fileLogger == nil {
		return
	}

	var summary strings.Builder
	_ = reporting.PrintSummary(&summary, result.Counters, elapsed)
	if err := h.fileLogger.LogSummary(summary.String(), result.RunID); err != nil {
		h.config.Log.Warn("Failed to write summary log", "err", err)
	}
	if err := h.fileLogger.Complete(); err != nil {
		h.config.Log.Warn("Failed to flush test logs", "err", err)
	}
	if dir, err := h.fileLogger.DirectoryForRunID(result.RunID); err == nil {
		h.config.Log.Info("Test logs written", "dir", dir)
	}
}

// Stop stops the harness.
// Stop implements the cliapp.Lifecycle interface.
func (h *harness) Stop(ctx context.Context) error {
	h.config.Log.Info("Stopping gtest-runner")

	if !h.running.Load() {
		h.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	h.running.Store(false)

	if h.service != nil {
		h.service.Shutdown()
	}

	h.config.Log.Info("gtest-runner stopped successfully")
	return nil
}

// Stopped returns true if the harness is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (h *harness) Stopped() bool {
	return !h.running.Load()
}

// Result returns the result of the last run, nil before the run finished
func (h *harness) Result() *runner.RunnerResult {
	return h.result
}

// ReportPath returns the result file written by the last run
func (h *harness) ReportPath() string {
	return h.reportPath
}

// Problems returns every non-passing record of the last run
func (h *harness) Problems() []types.ResultRecord {
	if h.result == nil {
		return nil
	}
	return reporting.Problems(h.result.Records)
}
