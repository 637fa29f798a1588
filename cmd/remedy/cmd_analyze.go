package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"remedy/internal/classify"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [error text]",
	Short: "Classify error text and print remediation steps",
	Long: `Classifies raw error output against the error taxonomy. Reads from the
arguments, or from stdin when none are given:

  node app.js 2>&1 | remedy analyze`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	errText := strings.Join(args, " ")
	if errText == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		errText = string(data)
	}

	analysis := classify.NewClassifier().Analyze(errText)

	fmt.Printf("Category:   %s\n", analysis.Category)
	fmt.Printf("Root cause: %s\n", analysis.RootCause)
	fmt.Println("Remediation:")
	for i, step := range analysis.Remediation {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	if analysis.SuggestedFollowUp != "" {
		fmt.Printf("Follow-up:  %s\n", analysis.SuggestedFollowUp)
	}
	if analysis.MatchedRule != "" {
		fmt.Printf("Rule:       %s\n", analysis.MatchedRule)
	}
	return nil
}
