package harness

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/gtest-runner/flags"
	"github.com/ethereum-optimism/infra/gtest-runner/registry"
)

// Config holds the application configuration
type Config struct {
	Mode          string        // Selected mode, e.g. "cts"
	Binary        string        // gtest binary backing the mode
	Timeout       time.Duration // Per-test timeout
	Concurrency   int           // Number of concurrent test workers (0 = auto-determine)
	CrashDumpDir  string        // Wiped after every finished test, empty disables
	OutputDir     string        // Where the result file is written
	SettleTimeout time.Duration // How long to wait for the test listing
	PollInterval  time.Duration // Listing poll interval, negative sleeps for SettleTimeout instead
	SuitesFile    string        // Optional mode overrides
	LogDir        string        // Per-test output of non-passing tests, empty disables
	ProgressEvery int           // Completed tests between progress lines, <= 0 disables
	Metrics       opmetrics.CLIConfig
	Log           log.Logger
}

// NewConfig creates a new Config from cli context for the given mode
func NewConfig(ctx *cli.Context, log log.Logger, mode string) (*Config, error) {
	if mode == "" {
		return nil, errors.New("mode is required")
	}

	suitesFile := ctx.String(flags.Suites.Name)
	if suitesFile != "" {
		abs, err := filepath.Abs(suitesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for suites file '%s': %w", suitesFile, err)
		}
		suitesFile = abs
	}

	reg, err := registry.NewRegistry(registry.Config{
		Log:            log,
		SuitesFile:     suitesFile,
		DefaultTimeout: ctx.Duration(flags.Timeout.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	suite, ok := reg.Lookup(mode)
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	// An explicit --timeout beats a per-suite timeout from the suites file
	timeout := suite.Timeout
	if ctx.IsSet(flags.Timeout.Name) {
		timeout = ctx.Duration(flags.Timeout.Name)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", timeout)
	}

	outputDir, err := filepath.Abs(ctx.String(flags.OutputDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory: %w", err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir != "" {
		logDir, err = filepath.Abs(logDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
		}
	}

	pollInterval := ctx.Duration(flags.SettlePoll.Name)
	if pollInterval == 0 {
		pollInterval = -1
	}

	return &Config{
		Mode:          mode,
		Binary:        suite.Binary,
		Timeout:       timeout,
		Concurrency:   ctx.Int(flags.Concurrency.Name),
		CrashDumpDir:  ctx.String(flags.CrashDir.Name),
		OutputDir:     outputDir,
		SettleTimeout: ctx.Duration(flags.SettleTimeout.Name),
		PollInterval:  pollInterval,
		SuitesFile:    suitesFile,
		LogDir:        logDir,
		ProgressEvery: ctx.Int(flags.ProgressEvery.Name),
		Metrics:       opmetrics.ReadCLIConfig(ctx),
		Log:           log,
	}, nil
}
