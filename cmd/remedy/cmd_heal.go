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

	"remedy/internal/heal"
	"remedy/internal/research"
	"remedy/internal/runner"
)

var (
	healMaxAttempts int
	healTimeoutMs   int64
	healTargetFile  string
	healResearch    bool
	healTrace       bool
)

// Exit codes: 0 success, 1 failure or exhaustion, 2 policy rejection.
const (
	exitSuccess  = 0
	exitFailure  = 1
	exitRejected = 2
)

var healCmd = &cobra.Command{
	Use:   "heal [command...]",
	Short: "Execute a command with automatic error correction and retry",
	Long: `Runs a shell command through the self-healing loop. On failure the error
is classified, a correction is proposed and patched into the offending
source file (with a backup), and the command is retried, up to the
attempt bound.

Example:
  remedy heal -- node app.js
  remedy heal --max-attempts 5 --target app.js -- node app.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHeal,
}

func init() {
	healCmd.Flags().IntVar(&healMaxAttempts, "max-attempts", 0, "maximum execution attempts (default from config)")
	healCmd.Flags().Int64Var(&healTimeoutMs, "timeout-ms", 0, "per-attempt timeout in milliseconds (default from config)")
	healCmd.Flags().StringVar(&healTargetFile, "target", "", "source file corrections should target (default: inferred)")
	healCmd.Flags().BoolVar(&healResearch, "research", false, "consult research providers before fallback corrections")
	healCmd.Flags().BoolVar(&healTrace, "trace", false, "print a per-attempt trace after the run")
}

func runHeal(cmd *cobra.Command, args []string) error {
	commandLine := strings.Join(args, " ")

	if healResearch {
		cfg.Healing.ConsultResearch = true
	}

	run := runner.NewDirectRunnerWithConfig(runner.ConfigFrom(cfg))
	var rc *research.Client
	if cfg.Healing.ConsultResearch {
		rc = research.NewClient(&cfg.Research)
	}
	loop := heal.NewLoop(cfg, run, rc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("healing loop starting",
		zap.String("command", commandLine),
		zap.Int("max_attempts", healMaxAttempts))

	result, err := loop.Run(ctx, heal.Request{
		CommandLine:    commandLine,
		TargetFile:     healTargetFile,
		MaxAttempts:    healMaxAttempts,
		AttemptTimeout: time.Duration(healTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	printLoopResult(result)

	switch {
	case result.Rejected:
		os.Exit(exitRejected)
	case !result.Success:
		os.Exit(exitFailure)
	}
	return nil
}

func printLoopResult(result *heal.LoopResult) {
	if result.Rejected {
		fmt.Printf("✗ %s\n", result.RejectionMessage)
		return
	}

	if result.Success {
		fmt.Printf("✓ Succeeded after %d attempt(s) in %v\n", result.AttemptCount(), result.Duration.Round(time.Millisecond))
	} else {
		fmt.Printf("✗ Failed after %d attempt(s) in %v\n", result.AttemptCount(), result.Duration.Round(time.Millisecond))
	}

	if healTrace {
		for _, a := range result.Attempts {
			fmt.Printf("  attempt %d: exit=%d", a.Number, a.Result.ExitCode)
			if a.Analysis != nil {
				fmt.Printf(" category=%s cause=%q", a.Analysis.Category, a.Analysis.RootCause)
			}
			if a.Proposal != nil {
				fmt.Printf(" strategy=%s", a.Proposal.Strategy)
			}
			if a.Patch != nil {
				fmt.Printf(" patched=%v file=%s", a.Patch.Applied, a.Patch.TargetFile)
			}
			fmt.Println()
		}
	}

	if result.FinalOutput != "" {
		fmt.Println(result.FinalOutput)
	}
}
