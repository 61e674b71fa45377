package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/gtest-runner/flags"
	"github.com/ethereum-optimism/infra/gtest-runner/runner"
	"github.com/ethereum-optimism/infra/gtest-runner/testlist"
)

func runConfig(t *testing.T, mode string, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.NewLogger(log.DiscardHandler()), mode)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"gtest-runner"}, args...)))
	return cfg, cfgErr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := runConfig(t, "vts12", "--vts12")
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "vts12", cfg.Mode)
	assert.Equal(t, "cros_nnapi_vts_1_2", cfg.Binary)
	assert.Equal(t, runner.DefaultTestTimeout, cfg.Timeout)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.Equal(t, runner.DefaultCrashDumpDir, cfg.CrashDumpDir)
	assert.Equal(t, wd, cfg.OutputDir)
	assert.Equal(t, testlist.DefaultSettleTimeout, cfg.SettleTimeout)
	assert.Equal(t, testlist.DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, runner.DefaultProgressEvery, cfg.ProgressEvery)
	assert.Empty(t, cfg.LogDir)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestNewConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg, err := runConfig(t, "cts",
		"--cts",
		"--timeout", "3s",
		"--concurrency", "7",
		"--crash-dir", "",
		"--output-dir", dir,
		"--settle-poll", "0s",
		"--logdir", filepath.Join(dir, "logs"),
	)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Empty(t, cfg.CrashDumpDir)
	assert.Equal(t, dir, cfg.OutputDir)
	assert.Negative(t, cfg.PollInterval, "0 selects the blind delay")
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir)
}

func TestNewConfigSuitesFile(t *testing.T) {
	suites := filepath.Join(t.TempDir(), "suites.yaml")
	require.NoError(t, os.WriteFile(suites, []byte(`
suites:
  - mode: cts
    binary: /opt/nnapi/cros_nnapi_cts
    timeout: 20s
`), 0644))

	cfg, err := runConfig(t, "cts", "--cts", "--suites", suites)
	require.NoError(t, err)
	assert.Equal(t, "/opt/nnapi/cros_nnapi_cts", cfg.Binary)
	assert.Equal(t, 20*time.Second, cfg.Timeout)

	// An explicit timeout wins over the suites file
	cfg, err = runConfig(t, "cts", "--cts", "--suites", suites, "--timeout", "2s")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestNewConfigErrors(t *testing.T) {
	_, err := runConfig(t, "")
	assert.ErrorContains(t, err, "mode is required")

	_, err = runConfig(t, "vts99")
	assert.ErrorContains(t, err, `unknown mode "vts99"`)

	_, err = runConfig(t, "cts", "--suites", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to create registry")
}
