// Package heal runs the self-correcting execution loop: gate the command,
// run it, and on failure classify the error, propose a correction, patch
// the source, and retry, up to a bounded number of attempts.
package heal

import (
	"time"

	"remedy/internal/classify"
	"remedy/internal/correction"
	"remedy/internal/patch"
	"remedy/internal/runner"
)

// Request describes one healing invocation.
type Request struct {
	// CommandLine is the shell command to execute and heal.
	CommandLine string `json:"command_line"`

	// TargetFile optionally names the source file corrections should
	// target. When empty the loop infers it from the command line and the
	// error output.
	TargetFile string `json:"target_file,omitempty"`

	// WorkingDir is where the command runs. Empty means the runner's
	// default.
	WorkingDir string `json:"working_dir,omitempty"`

	// MaxAttempts overrides the configured attempt bound when positive.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// AttemptTimeout overrides the configured per-attempt timeout when
	// positive.
	AttemptTimeout time.Duration `json:"attempt_timeout,omitempty"`
}

// AttemptRecord captures everything that happened in one attempt.
type AttemptRecord struct {
	// Number is the 1-indexed attempt number.
	Number int `json:"number"`

	// Result is the execution outcome.
	Result *runner.Result `json:"result"`

	// Analysis is the error classification, nil when the attempt
	// succeeded.
	Analysis *classify.Analysis `json:"analysis,omitempty"`

	// Proposal is the correction proposed after this attempt, nil when no
	// correction was attempted.
	Proposal *correction.Proposal `json:"proposal,omitempty"`

	// Patch records the applied (or skipped) substitution, nil when no
	// patch was attempted.
	Patch *patch.Record `json:"patch,omitempty"`
}

// LoopResult is the outcome of a full healing invocation.
type LoopResult struct {
	// InvocationID uniquely identifies this loop run.
	InvocationID string `json:"invocation_id"`

	// Success reports whether any attempt completed cleanly.
	Success bool `json:"success"`

	// Rejected reports that the policy gate blocked the command before
	// any execution. A rejected result has zero attempts.
	Rejected bool `json:"rejected"`

	// RejectionRule names the policy rule that blocked the command.
	RejectionRule string `json:"rejection_rule,omitempty"`

	// RejectionMessage explains the rejection.
	RejectionMessage string `json:"rejection_message,omitempty"`

	// Attempts is the ordered history of execution attempts.
	Attempts []AttemptRecord `json:"attempts"`

	// FinalOutput is the output of the last attempt.
	FinalOutput string `json:"final_output,omitempty"`

	// Duration is the total loop wall time.
	Duration time.Duration `json:"duration"`
}

// AttemptCount returns the number of executions performed.
func (r *LoopResult) AttemptCount() int {
	return len(r.Attempts)
}

// Exhausted reports that the loop ran out of attempts without success.
func (r *LoopResult) Exhausted() bool {
	return !r.Success && !r.Rejected && len(r.Attempts) > 0
}
