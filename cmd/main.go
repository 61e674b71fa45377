package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	harness "github.com/ethereum-optimism/infra/gtest-runner"
	"github.com/ethereum-optimism/infra/gtest-runner/exitcodes"
	"github.com/ethereum-optimism/infra/gtest-runner/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil && !harness.IsUsageError(err) {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "gtest-runner"
	app.Usage = "Parallel GoogleTest suite runner"
	app.UsageText = "gtest-runner --<mode> [options]"
	app.Description = "gtest-runner runs every test of a gtest binary in its own process and " +
		"writes the results to <mode>_<timestamp>.csv"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = action
	app.OnUsageError = func(c *cli.Context, err error, isSubcommand bool) error {
		return harness.NewUsageError(err.Error())
	}
	app.ExitErrHandler = exitErrHandler
	return app
}

// action checks that exactly one mode was selected before starting the run
func action(ctx *cli.Context) error {
	modes := flags.SelectedModes(ctx)
	switch len(modes) {
	case 0:
		return harness.NewUsageError("no mode selected")
	case 1:
		return cliapp.LifecycleCmd(run(modes[0]))(ctx)
	default:
		return harness.NewUsageError("more than one mode selected: " + strings.Join(modes, ", "))
	}
}

func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	if harness.IsUsageError(err) {
		// Usage problems print the help text and exit successfully
		_, _ = fmt.Fprintln(c.App.Writer, err)
		_ = cli.ShowAppHelp(c)
		return
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	// Everything else, typed runtime errors included, means the run could not happen
	cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
}

func run(mode string) cliapp.LifecycleAction {
	return func(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		logCfg := oplog.ReadCLIConfig(ctx)
		log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
		oplog.SetGlobalLogHandler(log.Handler())
		oplog.SetupDefaults()

		cfg, err := harness.NewConfig(ctx, log, mode)
		if err != nil {
			// Wrap in RuntimeError to signal this should exit with code 2
			return nil, harness.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
		}

		cfg.Log.Debug("Config", "config", cfg)

		h, err := harness.New(ctx.Context, cfg, Version, closeApp, harness.WithOutput(ctx.App.Writer))
		if err != nil {
			return nil, harness.NewRuntimeError(fmt.Errorf("failed to create harness: %w", err))
		}
		return h, nil
	}
}
