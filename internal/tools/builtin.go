package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remedy/internal/classify"
	"remedy/internal/heal"
	"remedy/internal/policy"
	"remedy/internal/research"
	"remedy/internal/runner"
)

// Deps carries the engine components the built-in tools delegate to.
type Deps struct {
	Gate       *policy.Gate
	Runner     runner.Runner
	Loop       *heal.Loop
	Classifier *classify.Classifier
	Research   *research.Client
}

// RegisterBuiltins registers every built-in tool whose dependency is
// present. Missing dependencies simply skip their tools, so a host can
// expose a reduced surface.
func RegisterBuiltins(r *Registry, deps Deps) {
	if deps.Runner != nil {
		r.MustRegister(RunCommandTool(deps.Gate, deps.Runner))
	}
	if deps.Loop != nil {
		r.MustRegister(SelfHealTool(deps.Loop))
	}
	if deps.Classifier != nil {
		r.MustRegister(AnalyzeErrorTool(deps.Classifier))
	}
	if deps.Research != nil {
		r.MustRegister(ResearchTool(deps.Research))
	}
}

// RunCommandTool returns the policy-gated command execution tool.
func RunCommandTool(gate *policy.Gate, run runner.Runner) *Tool {
	return &Tool{
		Name:        "run_command",
		Description: "Execute a shell command under the policy gate and return structured output",
		Category:    CategoryExecute,
		Priority:    70,
		Schema: Schema{
			Required: []string{"command"},
			Properties: map[string]Property{
				"command": {
					Type:        "string",
					Description: "The shell command to execute",
				},
				"working_dir": {
					Type:        "string",
					Description: "Directory to execute in (default: current)",
				},
				"timeout_ms": {
					Type:        "integer",
					Description: "Maximum execution time in milliseconds (default: 60000)",
					Default:     60000,
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			commandLine, _ := args["command"].(string)
			if strings.TrimSpace(commandLine) == "" {
				return "", fmt.Errorf("command is required")
			}
			workingDir, _ := args["working_dir"].(string)

			if gate != nil {
				fields := strings.Fields(commandLine)
				violations := gate.Validate(fields[0], fields[1:], workingDir)
				if blocking := policy.Blocking(violations); blocking != nil {
					return "", fmt.Errorf("command blocked by policy rule %s: %s", blocking.Rule, blocking.Message)
				}
			}

			cmd := runner.Shell(commandLine)
			cmd.WorkingDirectory = workingDir
			if timeoutMs := intArg(args, "timeout_ms"); timeoutMs > 0 {
				cmd.Limits = &runner.Limits{TimeoutMs: int64(timeoutMs)}
			}

			result, err := run.Execute(ctx, cmd)
			if err != nil && result == nil {
				return "", err
			}
			return formatRunResult(result), nil
		},
	}
}

// SelfHealTool returns the self-correcting execution tool.
func SelfHealTool(loop *heal.Loop) *Tool {
	return &Tool{
		Name:        "self_heal",
		Description: "Execute a command and automatically classify, patch, and retry on failure",
		Category:    CategoryHeal,
		Priority:    80,
		Schema: Schema{
			Required: []string{"command"},
			Properties: map[string]Property{
				"command": {
					Type:        "string",
					Description: "The shell command to execute and heal",
				},
				"target_file": {
					Type:        "string",
					Description: "Source file corrections should target (default: inferred)",
				},
				"max_attempts": {
					Type:        "integer",
					Description: "Maximum execution attempts (default: 3)",
					Default:     heal.DefaultMaxAttempts,
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			commandLine, _ := args["command"].(string)
			targetFile, _ := args["target_file"].(string)

			result, err := loop.Run(ctx, heal.Request{
				CommandLine: commandLine,
				TargetFile:  targetFile,
				MaxAttempts: intArg(args, "max_attempts"),
			})
			if err != nil {
				return "", err
			}
			return formatLoopResult(result), nil
		},
	}
}

// AnalyzeErrorTool returns the standalone error classification tool.
func AnalyzeErrorTool(classifier *classify.Classifier) *Tool {
	return &Tool{
		Name:        "analyze_error",
		Description: "Classify raw error text and suggest remediation steps",
		Category:    CategoryGeneral,
		Priority:    60,
		Schema: Schema{
			Required: []string{"error_text"},
			Properties: map[string]Property{
				"error_text": {
					Type:        "string",
					Description: "The raw error output to classify",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			errText, _ := args["error_text"].(string)
			analysis := classifier.Analyze(errText)

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("Category: %s\n", analysis.Category))
			sb.WriteString(fmt.Sprintf("Root cause: %s\n", analysis.RootCause))
			sb.WriteString("Remediation:\n")
			for i, step := range analysis.Remediation {
				sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
			}
			if analysis.SuggestedFollowUp != "" {
				sb.WriteString(fmt.Sprintf("Suggested follow-up: %s\n", analysis.SuggestedFollowUp))
			}
			return sb.String(), nil
		},
	}
}

// ResearchTool returns the research lookup tool.
func ResearchTool(client *research.Client) *Tool {
	return &Tool{
		Name:        "research",
		Description: "Look up an error or topic through the configured research providers",
		Category:    CategoryResearch,
		Priority:    60,
		Schema: Schema{
			Required: []string{"query"},
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "The research query",
				},
				"depth": {
					Type:        "integer",
					Description: "Lookup depth: 1=quick, 2=standard, 3=deep (default: 2)",
					Default:     research.DepthStandard,
					Enum:        []any{1, 2, 3},
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			depth := intArg(args, "depth")
			if depth == 0 {
				depth = research.DepthStandard
			}

			report, err := client.Lookup(ctx, query, depth)
			if err != nil {
				return "", err
			}

			var sb strings.Builder
			sb.WriteString(report.Summary)
			sb.WriteString("\n")
			for i, r := range report.Results {
				sb.WriteString(fmt.Sprintf("\n%d. %s (relevance %d)\n   %s\n", i+1, r.Title, r.Relevance, r.URL))
				if r.Snippet != "" {
					sb.WriteString(fmt.Sprintf("   %s\n", r.Snippet))
				}
			}
			return sb.String(), nil
		},
	}
}

func formatRunResult(r *runner.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Exit code: %d\n", r.ExitCode))
	sb.WriteString(fmt.Sprintf("Duration: %v\n", r.Duration.Round(time.Millisecond)))
	if r.Killed {
		sb.WriteString(fmt.Sprintf("Killed: %s\n", r.KillReason))
	}
	if r.Truncated {
		sb.WriteString(fmt.Sprintf("Output truncated (%d bytes discarded)\n", r.TruncatedBytes))
	}
	if r.Stdout != "" {
		sb.WriteString("--- stdout ---\n")
		sb.WriteString(r.Stdout)
		if !strings.HasSuffix(r.Stdout, "\n") {
			sb.WriteString("\n")
		}
	}
	if r.Stderr != "" {
		sb.WriteString("--- stderr ---\n")
		sb.WriteString(r.Stderr)
		if !strings.HasSuffix(r.Stderr, "\n") {
			sb.WriteString("\n")
		}
	}
	if r.Error != "" {
		sb.WriteString(fmt.Sprintf("Infrastructure error: %s\n", r.Error))
	}
	return sb.String()
}

func formatLoopResult(r *heal.LoopResult) string {
	var sb strings.Builder
	if r.Rejected {
		sb.WriteString(fmt.Sprintf("Rejected: %s\n", r.RejectionMessage))
		return sb.String()
	}
	if r.Success {
		sb.WriteString(fmt.Sprintf("Succeeded after %d attempt(s)\n", r.AttemptCount()))
	} else {
		sb.WriteString(fmt.Sprintf("Failed after %d attempt(s)\n", r.AttemptCount()))
	}
	for _, a := range r.Attempts {
		line := fmt.Sprintf("Attempt %d: exit=%d", a.Number, a.Result.ExitCode)
		if a.Analysis != nil {
			line += fmt.Sprintf(" category=%s", a.Analysis.Category)
		}
		if a.Patch != nil && a.Patch.Applied {
			line += fmt.Sprintf(" patched=%s", a.Patch.TargetFile)
		}
		sb.WriteString(line + "\n")
	}
	if r.FinalOutput != "" {
		sb.WriteString("--- output ---\n")
		sb.WriteString(r.FinalOutput)
		if !strings.HasSuffix(r.FinalOutput, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// intArg reads an integer argument that may arrive as int, int64, or
// float64 depending on the JSON decoder.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
