package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"remedy/internal/classify"
	"remedy/internal/config"
	"remedy/internal/heal"
	"remedy/internal/patch"
	"remedy/internal/policy"
	"remedy/internal/runner"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d tools", reg.Count())
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:        "test_tool",
		Description: "A test tool",
		Category:    CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "success", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := reg.Get("test_tool")
	if got == nil {
		t.Fatal("Get returned nil for registered tool")
	}
	if got.Name != "test_tool" {
		t.Errorf("got name %q, want %q", got.Name, "test_tool")
	}
	if got.Priority != 50 {
		t.Errorf("default priority = %d, want 50", got.Priority)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()

	tool := &Tool{
		Name:     "dupe",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", nil
		},
	}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	if err := reg.Register(tool); !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("expected ErrToolAlreadyRegistered, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		tool    *Tool
		wantErr error
	}{
		{
			name:    "empty name",
			tool:    &Tool{Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }},
			wantErr: ErrToolNameEmpty,
		},
		{
			name:    "nil execute",
			tool:    &Tool{Name: "no_exec"},
			wantErr: ErrToolExecuteNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.tool); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetByCategorySortsByPriority(t *testing.T) {
	reg := NewRegistry()
	exec := func(ctx context.Context, args map[string]any) (string, error) { return "", nil }

	reg.MustRegister(&Tool{Name: "low", Category: CategoryHeal, Priority: 10, Execute: exec})
	reg.MustRegister(&Tool{Name: "high", Category: CategoryHeal, Priority: 90, Execute: exec})
	reg.MustRegister(&Tool{Name: "other", Category: CategoryGeneral, Execute: exec})

	heals := reg.GetByCategory(CategoryHeal)
	if len(heals) != 2 {
		t.Fatalf("expected 2 heal tools, got %d", len(heals))
	}
	if heals[0].Name != "high" {
		t.Errorf("expected highest priority first, got %q", heals[0].Name)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Execute(context.Background(), "missing", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestExecuteValidatesRequiredArgs(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name:     "needs_arg",
		Category: CategoryGeneral,
		Schema:   Schema{Required: []string{"input"}},
		Execute:  func(ctx context.Context, args map[string]any) (string, error) { return "", nil },
	})

	result, err := reg.Execute(context.Background(), "needs_arg", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Fatalf("expected ErrMissingRequiredArg, got %v", err)
	}
	if result == nil || result.IsSuccess() {
		t.Error("expected a failed result")
	}
}

func TestExecuteReturnsOutputAndDuration(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&Tool{
		Name:     "echoer",
		Category: CategoryGeneral,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("got %v", args["x"]), nil
		},
	})

	result, err := reg.Execute(context.Background(), "echoer", map[string]any{"x": 7})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Output != "got 7" {
		t.Errorf("output = %q", result.Output)
	}
	if !result.IsSuccess() {
		t.Error("expected success")
	}
	if result.DurationMs < 0 {
		t.Errorf("duration = %d", result.DurationMs)
	}
}

func TestNamesSorted(t *testing.T) {
	reg := NewRegistry()
	exec := func(ctx context.Context, args map[string]any) (string, error) { return "", nil }
	reg.MustRegister(&Tool{Name: "zeta", Category: CategoryGeneral, Execute: exec})
	reg.MustRegister(&Tool{Name: "alpha", Category: CategoryGeneral, Execute: exec})

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("names = %v", names)
	}
}

func TestRegisterBuiltins(t *testing.T) {
	cfg := config.DefaultConfig()
	loop := heal.NewLoop(cfg, &stubRunner{}, nil)
	loop.SetApplier(patch.NewApplierWithFs(afero.NewMemMapFs()))

	reg := NewRegistry()
	RegisterBuiltins(reg, Deps{
		Gate:       policy.NewGate(cfg),
		Runner:     &stubRunner{},
		Loop:       loop,
		Classifier: classify.NewClassifier(),
	})

	for _, name := range []string{"run_command", "self_heal", "analyze_error"} {
		if !reg.Has(name) {
			t.Errorf("builtin %q not registered", name)
		}
	}
	if reg.Has("research") {
		t.Error("research tool registered without a research client")
	}
}

type stubRunner struct {
	lastCmd runner.Command
}

func (s *stubRunner) Execute(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	s.lastCmd = cmd
	return &runner.Result{Success: true, ExitCode: 0, Stdout: "stub out\n"}, nil
}

func TestRunCommandTool_BlocksDestructiveCommand(t *testing.T) {
	cfg := config.DefaultConfig()
	stub := &stubRunner{}
	tool := RunCommandTool(policy.NewGate(cfg), stub)

	if _, err := tool.Execute(context.Background(), map[string]any{"command": "rm -rf /"}); err == nil {
		t.Fatal("expected destructive command to be blocked")
	}
	if stub.lastCmd.Binary != "" {
		t.Error("runner invoked for a blocked command")
	}
}

func TestRunCommandTool_FormatsResult(t *testing.T) {
	stub := &stubRunner{}
	tool := RunCommandTool(nil, stub)

	out, err := tool.Execute(context.Background(), map[string]any{"command": "echo hi", "timeout_ms": 500})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "Exit code: 0") || !strings.Contains(out, "stub out") {
		t.Errorf("output = %q", out)
	}
	if stub.lastCmd.Limits == nil || stub.lastCmd.Limits.TimeoutMs != 500 {
		t.Errorf("timeout not propagated: %+v", stub.lastCmd.Limits)
	}
}

func TestAnalyzeErrorTool(t *testing.T) {
	tool := AnalyzeErrorTool(classify.NewClassifier())

	out, err := tool.Execute(context.Background(), map[string]any{"error_text": "bash: tsc: command not found"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "Category: environment") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Remediation:") {
		t.Error("expected remediation steps in output")
	}
}

func TestSelfHealTool_ReportsRejection(t *testing.T) {
	cfg := config.DefaultConfig()
	loop := heal.NewLoop(cfg, &stubRunner{}, nil)
	loop.SetApplier(patch.NewApplierWithFs(afero.NewMemMapFs()))
	tool := SelfHealTool(loop)

	out, err := tool.Execute(context.Background(), map[string]any{"command": "git push --force origin main"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "Rejected:") {
		t.Errorf("output = %q", out)
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]any{"a": 3, "b": int64(4), "c": 5.0, "d": "x"}
	if got := intArg(args, "a"); got != 3 {
		t.Errorf("int: %d", got)
	}
	if got := intArg(args, "b"); got != 4 {
		t.Errorf("int64: %d", got)
	}
	if got := intArg(args, "c"); got != 5 {
		t.Errorf("float64: %d", got)
	}
	if got := intArg(args, "d"); got != 0 {
		t.Errorf("string: %d", got)
	}
	if got := intArg(args, "missing"); got != 0 {
		t.Errorf("missing: %d", got)
	}
}
