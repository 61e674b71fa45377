package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/gtest-runner/metrics"
	"github.com/ethereum-optimism/infra/gtest-runner/types"
)

var _ TestExecutor = (*testExecutor)(nil)

// TestExecutor runs a single test identifier in its own child process.
// Implementations must be safe for concurrent use.
type TestExecutor interface {
	// Execute always returns a result; failures to run the child are
	// reported as ERROR outcomes, never as Go errors.
	Execute(ctx context.Context, id types.TestIdentifier) *types.TestResult
}

// ExecutorConfig holds configuration for creating a new executor
type ExecutorConfig struct {
	Binary     string
	Timeout    time.Duration
	Log        log.Logger
	Classifier *Classifier
	Cleaner    CrashDumpCleaner
	TailBytes  int
}

// testExecutor implements TestExecutor
type testExecutor struct {
	binary     string
	suite      string
	timeout    time.Duration
	log        log.Logger
	classifier *Classifier
	cleaner    CrashDumpCleaner
	tailBytes  int
	tracer     trace.Tracer
}

// NewTestExecutor creates a new test executor
func NewTestExecutor(cfg ExecutorConfig) (TestExecutor, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("binary cannot be empty")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTestTimeout
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewClassifier(nil)
	}
	if cfg.Cleaner == nil {
		cfg.Cleaner = noOpCleaner{}
	}

	return &testExecutor{
		binary:     cfg.Binary,
		suite:      filepath.Base(cfg.Binary),
		timeout:    cfg.Timeout,
		log:        cfg.Log.New("component", "executor"),
		classifier: cfg.Classifier,
		cleaner:    cfg.Cleaner,
		tailBytes:  cfg.TailBytes,
		tracer:     otel.Tracer("gtest executor"),
	}, nil
}

// BuildCommand returns the command line recorded for a test
func BuildCommand(binary string, id types.TestIdentifier) string {
	return fmt.Sprintf("%s %s%s", binary, FilterFlagPrefix, id)
}

// Execute runs a single test
func (e *testExecutor) Execute(ctx context.Context, id types.TestIdentifier) *types.TestResult {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("test %s", id))
	defer span.End()

	result := e.run(ctx, id)

	span.SetAttributes(
		attribute.String("test", string(id)),
		attribute.String("outcome", result.Outcome.Label()),
	)
	metrics.RecordTest(e.suite, result.Outcome.Kind, result.Duration)
	return result
}

func (e *testExecutor) run(ctx context.Context, id types.TestIdentifier) *types.TestResult {
	command := BuildCommand(e.binary, id)
	result := &types.TestResult{ID: id}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stdout := newTailBuffer(e.tailBytes)
	stderr := newTailBuffer(64 * 1024)

	cmd := exec.CommandContext(runCtx, e.binary, FilterFlagPrefix+string(id))
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = killGracePeriod

	// killed is only set when the child was still alive when its context
	// expired, which tells a real hang apart from a test that finished right
	// at the deadline.
	var killed atomic.Bool
	cmd.Cancel = func() error {
		err := cmd.Process.Kill()
		if err == nil {
			killed.Store(true)
		}
		return err
	}

	e.log.Debug("Running test", "test", id, "command", command)
	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.StdoutBytes = stdout.TotalBytes()
	result.StdoutTruncated = stdout.Truncated()
	result.Stderr = stderr.String()

	if killed.Load() {
		if ctx.Err() != nil {
			// The whole run is shutting down; this is not the test's fault.
			result.Outcome = types.Errored(unknownExitCode)
			result.Error = fmt.Errorf("test interrupted: %w", context.Cause(ctx))
		} else {
			result.Outcome = types.Hang()
			result.Error = fmt.Errorf("test timed out after %v", e.timeout)
		}
		result.Record = types.NewResultRecord(command, result.Outcome)
		e.log.Warn("Test killed", "test", id, "outcome", result.Outcome, "timeout", e.timeout)
		return result
	}

	exitCode := unknownExitCode
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if runErr != nil && !isExitStatus(runErr) {
		result.Error = fmt.Errorf("failed to run test: %w", runErr)
		e.log.Debug("Test did not run cleanly", "test", id, "err", runErr)
	}

	result.Outcome = e.classifier.Classify(result.Stdout, exitCode)
	result.Record = types.NewResultRecord(command, result.Outcome)

	if err := e.cleaner.Clean(); err != nil {
		e.log.Debug("Crash dump cleanup failed", "test", id, "err", err)
	}

	e.log.Debug("Test finished", "test", id, "outcome", result.Outcome, "duration", result.Duration)
	return result
}

// isExitStatus reports whether err only says the child exited non-zero or
// left its pipes open after exiting, both of which are normal for a test.
func isExitStatus(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) || errors.Is(err, os.ErrProcessDone)
}
