package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"remedy/internal/logging"
)

// Runner executes commands and reports structured results.
type Runner interface {
	// Execute runs a command. The returned error is reserved for invalid
	// input; execution failures are reported on the Result.
	Execute(ctx context.Context, cmd Command) (*Result, error)
}

// DirectRunner executes commands directly on the host using os/exec.
type DirectRunner struct {
	mu     sync.RWMutex
	config Config
}

// NewDirectRunner creates a new direct runner with default config.
func NewDirectRunner() *DirectRunner {
	return NewDirectRunnerWithConfig(DefaultRunnerConfig())
}

// NewDirectRunnerWithConfig creates a new direct runner with custom config.
func NewDirectRunnerWithConfig(config Config) *DirectRunner {
	logging.RunnerDebug("Creating DirectRunner: timeout=%s, maxOutput=%d bytes",
		config.DefaultTimeout, config.MaxOutputBytes)
	return &DirectRunner{config: config}
}

// SetAuditCallback sets the callback for audit events.
func (r *DirectRunner) SetAuditCallback(callback func(AuditEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.AuditCallback = callback
}

// emitAudit emits an audit event if a callback is registered.
func (r *DirectRunner) emitAudit(event AuditEvent) {
	r.mu.RLock()
	callback := r.config.AuditCallback
	r.mu.RUnlock()

	if callback != nil {
		callback(event)
	}
}

// Validate checks if a command can be executed.
func (r *DirectRunner) Validate(cmd Command) error {
	if cmd.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	return nil
}

// Execute runs a command directly on the host. A command that times out is
// reported with a non-zero exit code and a timeout message on stderr rather
// than an error, so the healing loop can classify it like any other failure.
func (r *DirectRunner) Execute(ctx context.Context, cmd Command) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryRunner, "Direct command execution")
	defer timer.Stop()

	if err := r.Validate(cmd); err != nil {
		logging.RunnerWarn("Command validation failed: %s - %v", cmd.CommandString(), err)
		return nil, err
	}

	cmd = r.config.Merge(cmd)
	if cmd.RequestID == "" {
		cmd.RequestID = uuid.NewString()
	}

	logging.Runner("Executing command: %s", cmd.CommandString())
	logging.RunnerDebug("Executing: %s (dir=%s, timeout=%dms, req=%s)",
		cmd.CommandString(), cmd.WorkingDirectory, cmd.Limits.TimeoutMs, cmd.RequestID)

	result := &Result{
		ExitCode: -1,
		Command:  &cmd,
	}

	r.emitAudit(AuditEvent{
		Type:      AuditEventStart,
		Timestamp: time.Now(),
		Command:   cmd,
	})

	timeout := time.Duration(cmd.Limits.TimeoutMs) * time.Millisecond
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = r.buildEnvironment(cmd.Environment)

	if cmd.Stdin != "" {
		logging.RunnerDebug("Providing stdin input (%d bytes)", len(cmd.Stdin))
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: cmd.Limits.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: cmd.Limits.MaxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.RunnerWarn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	if err != nil {
		switch {
		case execCtx.Err() == context.DeadlineExceeded:
			result.Success = true
			result.Killed = true
			result.KillReason = fmt.Sprintf("timeout after %s", timeout)
			// Timeout-flavored stderr so the classifier sees it like any
			// other failure.
			if result.Stderr != "" {
				result.Stderr += "\n"
			}
			result.Stderr += fmt.Sprintf("command timed out after %s", timeout)
			logging.RunnerWarn("Command killed (timeout): %s after %s", cmd.Binary, timeout)
			r.emitAudit(AuditEvent{
				Type:      AuditEventKilled,
				Timestamp: time.Now(),
				Command:   cmd,
				Result:    result,
			})
		case execCtx.Err() == context.Canceled:
			result.Success = true
			result.Killed = true
			result.KillReason = "context canceled"
			logging.RunnerDebug("Command canceled: %s", cmd.Binary)
			r.emitAudit(AuditEvent{
				Type:      AuditEventKilled,
				Timestamp: time.Now(),
				Command:   cmd,
				Result:    result,
			})
		default:
			if exitErr, ok := err.(*exec.ExitError); ok {
				result.Success = true // Command ran, just returned non-zero
				result.ExitCode = exitErr.ExitCode()
				logging.RunnerDebug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
			} else {
				result.Success = false
				result.Error = err.Error()
				logging.RunnerError("Command failed to start: %s - %v", cmd.Binary, err)
				r.emitAudit(AuditEvent{
					Type:      AuditEventError,
					Timestamp: time.Now(),
					Command:   cmd,
					Result:    result,
				})
				return result, nil
			}
		}
	} else {
		result.Success = true
		result.ExitCode = 0
		logging.RunnerDebug("Command succeeded with exit code 0")
	}

	r.emitAudit(AuditEvent{
		Type:      AuditEventComplete,
		Timestamp: time.Now(),
		Command:   cmd,
		Result:    result,
	})

	logging.Runner("Command completed: %s -> exit=%d, duration=%s, stdout=%d bytes",
		cmd.Binary, result.ExitCode, result.Duration, len(result.Stdout))

	return result, nil
}

// buildEnvironment creates the environment variable list.
func (r *DirectRunner) buildEnvironment(cmdEnv []string) []string {
	env := make([]string, 0)

	for _, key := range r.config.AllowedEnvironment {
		if val := os.Getenv(key); val != "" {
			env = append(env, fmt.Sprintf("%s=%s", key, val))
		}
	}

	env = append(env, cmdEnv...)
	return env
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		// Partial write
		lw.truncated = true
		toWrite := p[:remaining]
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(toWrite)
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
