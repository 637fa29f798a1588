package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"remedy/internal/policy"
	"remedy/internal/runner"
)

var runTimeoutMs int64

var runCmd = &cobra.Command{
	Use:   "run [command...]",
	Short: "Execute a command once under the policy gate, with no retry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().Int64Var(&runTimeoutMs, "timeout-ms", 0, "command timeout in milliseconds (default from config)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	commandLine := strings.Join(args, " ")
	fields := strings.Fields(commandLine)

	gate := policy.NewGate(cfg)
	violations := gate.Validate(fields[0], fields[1:], cfg.Execution.WorkingDirectory)
	for _, v := range violations {
		logger.Warn("policy violation",
			zap.String("rule", v.Rule),
			zap.String("severity", string(v.Severity)),
			zap.String("message", v.Message))
	}
	if blocking := policy.Blocking(violations); blocking != nil {
		fmt.Printf("✗ command blocked by policy rule %s: %s\n", blocking.Rule, blocking.Message)
		os.Exit(exitRejected)
	}

	run := runner.NewDirectRunnerWithConfig(runner.ConfigFrom(cfg))

	command := runner.Shell(commandLine)
	command.WorkingDirectory = cfg.Execution.WorkingDirectory
	if runTimeoutMs > 0 {
		command.Limits = &runner.Limits{TimeoutMs: runTimeoutMs}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run.Execute(ctx, command)
	if err != nil && result == nil {
		return err
	}

	if result.Stdout != "" {
		fmt.Print(result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(os.Stderr, result.Stderr)
	}
	if result.Killed {
		fmt.Fprintf(os.Stderr, "killed: %s\n", result.KillReason)
	}
	logger.Info("command finished",
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration.Round(time.Millisecond)))

	if result.Failed() {
		os.Exit(exitFailure)
	}
	return nil
}
