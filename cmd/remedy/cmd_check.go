package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"remedy/internal/policy"
)

var checkCmd = &cobra.Command{
	Use:   "check [command...]",
	Short: "Dry-run a command through the policy gate without executing it",
	Long: `Validates a command against the destructive-operation policy and prints
every violation. Nothing is executed. Exit code 2 means the command would
be blocked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	commandLine := strings.Join(args, " ")
	fields := strings.Fields(commandLine)

	gate := policy.NewGate(cfg)
	violations := gate.Validate(fields[0], fields[1:], cfg.Execution.WorkingDirectory)

	if len(violations) == 0 {
		fmt.Printf("✓ allowed: %s\n", commandLine)
		return nil
	}

	for _, v := range violations {
		fmt.Printf("%s [%s] %s\n", v.Severity, v.Rule, v.Message)
		if v.Remediation != "" {
			fmt.Printf("  remediation: %s\n", v.Remediation)
		}
	}

	if blocking := policy.Blocking(violations); blocking != nil {
		fmt.Printf("✗ blocked: %s\n", commandLine)
		os.Exit(exitRejected)
	}

	fmt.Printf("✓ allowed with warnings: %s\n", commandLine)
	return nil
}
