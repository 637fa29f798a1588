package patch

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func newTestApplier(t *testing.T) (*Applier, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	a := NewApplierWithFs(fs)
	a.SetWorkingDir("/work")
	return a, fs
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to seed %s: %v", path, err)
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestApply_ReplacesFirstOccurrence(t *testing.T) {
	a, fs := newTestApplier(t)
	writeFile(t, fs, "/work/app.js", "const x = ;\nconst y = ;\n")

	record, err := a.Apply(Record{
		TargetFile:          "app.js",
		SearchFragment:      "= ;",
		ReplacementFragment: "= null;",
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !record.Applied {
		t.Fatal("expected patch to be applied")
	}

	got := readFile(t, fs, "/work/app.js")
	want := "const x = null;\nconst y = ;\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patched content mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_BackupHoldsPreMutationContent(t *testing.T) {
	a, fs := newTestApplier(t)
	original := "function f() {\n  return 1\n}\n"
	writeFile(t, fs, "/work/lib.js", original)

	record, err := a.Apply(Record{
		TargetFile:          "lib.js",
		SearchFragment:      "return 1\n",
		ReplacementFragment: "return 1;\n",
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if record.BackupPath != "/work/lib.js"+DefaultBackupSuffix {
		t.Errorf("unexpected backup path %q", record.BackupPath)
	}
	backup := readFile(t, fs, record.BackupPath)
	if diff := cmp.Diff(original, backup); diff != "" {
		t.Errorf("backup content mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_AbsentFragmentIsNoOp(t *testing.T) {
	a, fs := newTestApplier(t)
	original := "all good here\n"
	writeFile(t, fs, "/work/ok.txt", original)

	record, err := a.Apply(Record{
		TargetFile:          "ok.txt",
		SearchFragment:      "never present",
		ReplacementFragment: "anything",
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if record.Applied {
		t.Error("expected Applied=false for absent fragment")
	}
	if record.BackupPath != "" {
		t.Errorf("no-op must not create a backup, got %q", record.BackupPath)
	}

	if got := readFile(t, fs, "/work/ok.txt"); got != original {
		t.Errorf("no-op mutated the target: %q", got)
	}
	if exists, _ := afero.Exists(fs, "/work/ok.txt"+DefaultBackupSuffix); exists {
		t.Error("no-op wrote a backup file")
	}
}

func TestApply_MissingTargetErrors(t *testing.T) {
	a, _ := newTestApplier(t)

	if _, err := a.Apply(Record{
		TargetFile:          "gone.txt",
		SearchFragment:      "x",
		ReplacementFragment: "y",
	}); err == nil {
		t.Error("expected an error for a missing target")
	}
}

func TestApply_BackupFailureLeavesTargetUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := "content\n"
	if err := afero.WriteFile(fs, "/work/app.txt", []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	// Read-only layer: reads succeed, all writes fail.
	a := NewApplierWithFs(afero.NewReadOnlyFs(fs))
	a.SetWorkingDir("/work")

	_, err := a.Apply(Record{
		TargetFile:          "app.txt",
		SearchFragment:      "content",
		ReplacementFragment: "changed",
	})
	if err == nil {
		t.Fatal("expected backup write to fail")
	}

	if got := readFile(t, fs, "/work/app.txt"); got != original {
		t.Errorf("target mutated despite backup failure: %q", got)
	}
}

func TestApply_ValidatesRecord(t *testing.T) {
	a, _ := newTestApplier(t)

	if _, err := a.Apply(Record{SearchFragment: "x"}); err == nil {
		t.Error("expected error for missing target file")
	}
	if _, err := a.Apply(Record{TargetFile: "f.txt"}); err == nil {
		t.Error("expected error for missing search fragment")
	}
}

func TestApply_CustomBackupSuffix(t *testing.T) {
	a, fs := newTestApplier(t)
	a.SetBackupSuffix(".bak")
	writeFile(t, fs, "/work/x.txt", "abc")

	record, err := a.Apply(Record{TargetFile: "x.txt", SearchFragment: "abc", ReplacementFragment: "xyz"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if record.BackupPath != "/work/x.txt.bak" {
		t.Errorf("backup path = %q", record.BackupPath)
	}
}

func TestRevert_RestoresBackup(t *testing.T) {
	a, fs := newTestApplier(t)
	original := "original content\n"
	writeFile(t, fs, "/work/r.txt", original)

	record, err := a.Apply(Record{TargetFile: "r.txt", SearchFragment: "original", ReplacementFragment: "patched"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := a.Revert(*record); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	if got := readFile(t, fs, "/work/r.txt"); got != original {
		t.Errorf("revert did not restore original content: %q", got)
	}
}

func TestRevert_RejectsUnappliedRecord(t *testing.T) {
	a, _ := newTestApplier(t)
	if err := a.Revert(Record{TargetFile: "f.txt"}); err == nil {
		t.Error("expected error reverting an unapplied record")
	}
}

func TestApply_EmitsAuditEvents(t *testing.T) {
	a, fs := newTestApplier(t)
	writeFile(t, fs, "/work/a.txt", "find me")

	var events []AuditEvent
	a.SetAuditCallback(func(e AuditEvent) { events = append(events, e) })
	a.SetRequestID("req-1")

	if _, err := a.Apply(Record{TargetFile: "a.txt", SearchFragment: "find me", ReplacementFragment: "found"}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := a.Apply(Record{TargetFile: "a.txt", SearchFragment: "absent", ReplacementFragment: "x"}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}
	if events[0].Type != OpApply || !events[0].Success {
		t.Errorf("first event = %+v", events[0])
	}
	if events[0].OldHash == events[0].NewHash {
		t.Error("expected content hashes to differ after a mutation")
	}
	if events[1].Type != OpSkip {
		t.Errorf("second event type = %q, want skip", events[1].Type)
	}
	for i, e := range events {
		if e.RequestID != "req-1" {
			t.Errorf("event %d missing request id: %+v", i, e)
		}
	}
}

func TestApply_AbsolutePathBypassesWorkingDir(t *testing.T) {
	a, fs := newTestApplier(t)
	writeFile(t, fs, "/elsewhere/z.txt", "value")

	record, err := a.Apply(Record{TargetFile: "/elsewhere/z.txt", SearchFragment: "value", ReplacementFragment: "other"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !record.Applied {
		t.Error("expected absolute path target to be patched")
	}
	if got := readFile(t, fs, "/elsewhere/z.txt"); got != "other" {
		t.Errorf("content = %q", got)
	}
}

func TestReadTargetAndExists(t *testing.T) {
	a, fs := newTestApplier(t)
	writeFile(t, fs, "/work/e.txt", "data")

	if !a.TargetExists("e.txt") {
		t.Error("expected target to exist")
	}
	if a.TargetExists(fmt.Sprintf("missing-%d.txt", 1)) {
		t.Error("expected missing target to not exist")
	}
	content, err := a.ReadTarget("e.txt")
	if err != nil || content != "data" {
		t.Errorf("ReadTarget = %q, %v", content, err)
	}
}
