package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/gtest-runner/registry"
	"github.com/ethereum-optimism/infra/gtest-runner/runner"
	"github.com/ethereum-optimism/infra/gtest-runner/testlist"
)

const EnvVarPrefix = "GTEST_RUNNER"

// ModeFlags selects the suite to run; exactly one must be set
var ModeFlags []*cli.BoolFlag

var (
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   runner.DefaultTestTimeout,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Per-test timeout after which a test is killed and reported as HANG",
		Action: func(ctx *cli.Context, v time.Duration) error {
			if v <= 0 {
				return fmt.Errorf("timeout must be positive")
			}
			return nil
		},
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Number of tests to run in parallel. 0 uses the number of CPUs plus a small oversubscription.",
		Action:  validateConcurrency,
	}
	CrashDir = &cli.StringFlag{
		Name:    "crash-dir",
		Value:   runner.DefaultCrashDumpDir,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CRASH_DIR"),
		Usage:   "Directory whose contents are wiped after every finished test. Empty disables the wipe.",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_DIR"),
		Usage:   "Directory the <mode>_<timestamp>.csv result file is written to",
	}
	SettleTimeout = &cli.DurationFlag{
		Name:    "settle-timeout",
		Value:   testlist.DefaultSettleTimeout,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SETTLE_TIMEOUT"),
		Usage:   "How long to wait for the test listing to be written",
	}
	SettlePoll = &cli.DurationFlag{
		Name:    "settle-poll",
		Value:   testlist.DefaultPollInterval,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SETTLE_POLL"),
		Usage:   "Poll interval while waiting for the test listing. 0 sleeps for the whole settle timeout instead.",
	}
	Suites = &cli.StringFlag{
		Name:    "suites",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITES"),
		Usage:   "Path to a YAML file overriding the binary or timeout of a mode (eg. 'suites.yaml')",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store the output of failed, errored and hung tests. Empty disables it.",
	}
	ProgressEvery = &cli.IntFlag{
		Name:    "progress-every",
		Value:   runner.DefaultProgressEvery,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_EVERY"),
		Usage:   "Print a progress line every N completed tests. 0 or less disables it.",
	}
)

var optionalFlags = []cli.Flag{
	Timeout,
	Concurrency,
	CrashDir,
	OutputDir,
	SettleTimeout,
	SettlePoll,
	Suites,
	LogDir,
	ProgressEvery,
}

var Flags []cli.Flag

func init() {
	var modeFlags []cli.Flag
	for _, s := range registry.BuiltinSuites {
		f := &cli.BoolFlag{
			Name:     s.Mode,
			Usage:    fmt.Sprintf("Runs the %s tests", s.Binary),
			EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, strings.ToUpper(s.Mode)),
			Category: "MODES",
		}
		ModeFlags = append(ModeFlags, f)
		modeFlags = append(modeFlags, f)
	}

	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(modeFlags, optionalFlags...)
}

// SelectedModes returns the names of every mode flag that is set, in usage order
func SelectedModes(ctx *cli.Context) []string {
	var modes []string
	for _, f := range ModeFlags {
		if ctx.Bool(f.Name) {
			modes = append(modes, f.Name)
		}
	}
	return modes
}

func validateConcurrency(ctx *cli.Context, v int) error {
	if v < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}
	return nil
}
