package runner

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDirectRunner_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test not portable to windows")
	}

	r := NewDirectRunner()
	res, err := r.Execute(context.Background(), Shell("echo hello"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Success {
		t.Error("expected infrastructure success")
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit 0, got %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("unexpected stdout: %q", res.Stdout)
	}
	if res.Failed() {
		t.Error("successful run should not report Failed()")
	}
}

func TestDirectRunner_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test not portable to windows")
	}

	r := NewDirectRunner()
	res, err := r.Execute(context.Background(), Shell("exit 3"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Success {
		t.Error("non-zero exit is still an infrastructure success")
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit 3, got %d", res.ExitCode)
	}
	if !res.Failed() {
		t.Error("non-zero exit should report Failed()")
	}
}

func TestDirectRunner_CapturesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test not portable to windows")
	}

	r := NewDirectRunner()
	res, err := r.Execute(context.Background(), Shell("echo oops >&2"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("unexpected stderr: %q", res.Stderr)
	}
	// Captured stderr alone drives classification even on exit 0.
	if !res.Failed() {
		t.Error("captured stderr should report Failed()")
	}
}

func TestDirectRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test not portable to windows")
	}

	r := NewDirectRunner()
	cmd := Shell("sleep 5")
	cmd.Limits = &Limits{TimeoutMs: 100}

	start := time.Now()
	res, err := r.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout was not enforced")
	}
	if !res.Killed {
		t.Error("expected Killed=true on timeout")
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Errorf("expected timeout-flavored stderr, got %q", res.Stderr)
	}
}

func TestDirectRunner_MissingBinary(t *testing.T) {
	r := NewDirectRunner()
	res, err := r.Execute(context.Background(), Command{Binary: "remedy-no-such-binary-xyz"})
	if err != nil {
		t.Fatalf("Execute returned error instead of result: %v", err)
	}
	if res.Success {
		t.Error("expected infrastructure failure for missing binary")
	}
	if res.Error == "" {
		t.Error("expected error message on result")
	}
}

func TestDirectRunner_EmptyBinary(t *testing.T) {
	r := NewDirectRunner()
	if _, err := r.Execute(context.Background(), Command{}); err == nil {
		t.Error("expected validation error for empty binary")
	}
}

func TestDirectRunner_OutputTruncation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test not portable to windows")
	}

	cfg := DefaultRunnerConfig()
	cfg.MaxOutputBytes = 64
	r := NewDirectRunnerWithConfig(cfg)

	res, err := r.Execute(context.Background(), Shell("yes x | head -c 1024"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Truncated {
		t.Error("expected truncated output")
	}
	if int64(len(res.Stdout)) > 64 {
		t.Errorf("stdout exceeds cap: %d bytes", len(res.Stdout))
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := DefaultRunnerConfig()
	cfg.DefaultTimeout = 30 * time.Second
	cfg.MaxTimeout = time.Minute

	merged := cfg.Merge(Command{Binary: "ls"})
	if merged.Limits == nil || merged.Limits.TimeoutMs != 30000 {
		t.Errorf("default timeout not applied: %+v", merged.Limits)
	}
	if merged.WorkingDirectory != cfg.DefaultWorkingDir {
		t.Errorf("working dir not applied: %q", merged.WorkingDirectory)
	}

	merged = cfg.Merge(Command{Binary: "ls", Limits: &Limits{TimeoutMs: 5 * 60 * 1000}})
	if merged.Limits.TimeoutMs != 60000 {
		t.Errorf("timeout not capped at max: %d", merged.Limits.TimeoutMs)
	}
}

func TestShell(t *testing.T) {
	cmd := Shell("echo hi")
	if runtime.GOOS == "windows" {
		if cmd.Binary != "cmd" {
			t.Errorf("expected cmd wrapper, got %q", cmd.Binary)
		}
	} else {
		if cmd.Binary != "sh" || cmd.Arguments[0] != "-c" {
			t.Errorf("expected sh -c wrapper, got %q %v", cmd.Binary, cmd.Arguments)
		}
	}
}

func TestDirectRunner_AuditEvents(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test not portable to windows")
	}

	var events []AuditEventType
	r := NewDirectRunner()
	r.SetAuditCallback(func(ev AuditEvent) {
		events = append(events, ev.Type)
	})

	if _, err := r.Execute(context.Background(), Shell("true")); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(events) != 2 || events[0] != AuditEventStart || events[1] != AuditEventComplete {
		t.Errorf("unexpected audit sequence: %v", events)
	}
}
