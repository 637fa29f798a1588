package patch

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"remedy/internal/logging"
)

// DefaultBackupSuffix is appended to the target path when no suffix is
// configured.
const DefaultBackupSuffix = ".remedy-backup"

// Applier performs fragment substitutions against a filesystem. The
// filesystem is abstracted so tests run against an in-memory tree.
type Applier struct {
	mu sync.RWMutex

	fs            afero.Fs
	workingDir    string
	backupSuffix  string
	requestID     string
	auditCallback func(AuditEvent)
}

// NewApplier creates an applier over the OS filesystem.
func NewApplier() *Applier {
	return NewApplierWithFs(afero.NewOsFs())
}

// NewApplierWithFs creates an applier over the given filesystem.
func NewApplierWithFs(fs afero.Fs) *Applier {
	return &Applier{
		fs:           fs,
		workingDir:   ".",
		backupSuffix: DefaultBackupSuffix,
	}
}

// SetWorkingDir sets the base directory for relative target paths.
func (a *Applier) SetWorkingDir(dir string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if dir != "" {
		a.workingDir = dir
	}
}

// SetBackupSuffix overrides the suffix appended to backup files.
func (a *Applier) SetBackupSuffix(suffix string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if suffix != "" {
		a.backupSuffix = suffix
	}
}

// SetRequestID tags subsequent audit events with a request identifier.
func (a *Applier) SetRequestID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestID = id
}

// SetAuditCallback sets the callback for patch audit events.
func (a *Applier) SetAuditCallback(callback func(AuditEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auditCallback = callback
}

func (a *Applier) emitAudit(event AuditEvent) {
	a.mu.RLock()
	cb := a.auditCallback
	event.RequestID = a.requestID
	a.mu.RUnlock()
	if cb != nil {
		cb(event)
	}
}

func (a *Applier) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	a.mu.RLock()
	workDir := a.workingDir
	a.mu.RUnlock()
	return filepath.Join(workDir, path)
}

func contentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))[:16]
}

// Apply performs the substitution described by the record. The sequence is
// fixed: read the target, locate the fragment, write the backup, then write
// the mutated target. A fragment that does not occur leaves the file
// untouched and returns the record with Applied false. A backup write
// failure aborts before the target is mutated.
func (a *Applier) Apply(record Record) (*Record, error) {
	timer := logging.StartTimer(logging.CategoryPatch, "Patch apply")
	defer timer.Stop()

	if record.TargetFile == "" {
		return nil, fmt.Errorf("patch target file is required")
	}
	if record.SearchFragment == "" {
		return nil, fmt.Errorf("patch search fragment is required")
	}

	absPath := a.resolvePath(record.TargetFile)
	logging.Patch("Applying patch: %s", absPath)

	original, err := afero.ReadFile(a.fs, absPath)
	if err != nil {
		logging.PatchError("Patch target unreadable: %s - %v", record.TargetFile, err)
		a.emitAudit(AuditEvent{
			Type:      OpApply,
			Timestamp: time.Now(),
			Path:      record.TargetFile,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, fmt.Errorf("failed to read patch target %s: %w", record.TargetFile, err)
	}

	content := string(original)
	if !strings.Contains(content, record.SearchFragment) {
		logging.PatchDebug("Search fragment absent, skipping: %s", record.TargetFile)
		record.Applied = false
		record.BackupPath = ""
		a.emitAudit(AuditEvent{
			Type:      OpSkip,
			Timestamp: time.Now(),
			Path:      record.TargetFile,
			Success:   true,
			OldHash:   contentHash(original),
		})
		return &record, nil
	}

	a.mu.RLock()
	suffix := a.backupSuffix
	a.mu.RUnlock()
	backupPath := absPath + suffix

	// Backup carries the pre-mutation content. If this fails the target
	// has not been touched.
	if err := afero.WriteFile(a.fs, backupPath, original, 0644); err != nil {
		logging.PatchError("Backup write failed, aborting patch: %s - %v", backupPath, err)
		a.emitAudit(AuditEvent{
			Type:      OpApply,
			Timestamp: time.Now(),
			Path:      record.TargetFile,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, fmt.Errorf("failed to write backup %s: %w", backupPath, err)
	}

	mutated := strings.Replace(content, record.SearchFragment, record.ReplacementFragment, 1)
	if err := afero.WriteFile(a.fs, absPath, []byte(mutated), 0644); err != nil {
		// Backup stays on disk so the caller can recover by hand.
		logging.PatchError("Target write failed after backup: %s - %v", absPath, err)
		record.BackupPath = backupPath
		a.emitAudit(AuditEvent{
			Type:       OpApply,
			Timestamp:  time.Now(),
			Path:       record.TargetFile,
			BackupPath: backupPath,
			Success:    false,
			Error:      err.Error(),
		})
		return nil, fmt.Errorf("failed to write patched target %s: %w", record.TargetFile, err)
	}

	record.Applied = true
	record.BackupPath = backupPath

	oldHash := contentHash(original)
	newHash := contentHash([]byte(mutated))
	logging.PatchDebug("Patch applied: %s (hash %s -> %s)", record.TargetFile, oldHash, newHash)
	a.emitAudit(AuditEvent{
		Type:       OpApply,
		Timestamp:  time.Now(),
		Path:       record.TargetFile,
		BackupPath: backupPath,
		Success:    true,
		OldHash:    oldHash,
		NewHash:    newHash,
	})

	return &record, nil
}

// Revert restores the target file from the backup recorded by a prior
// Apply. The backup file is left in place.
func (a *Applier) Revert(record Record) error {
	if !record.Applied || record.BackupPath == "" {
		return fmt.Errorf("record for %s has no backup to revert from", record.TargetFile)
	}

	absPath := a.resolvePath(record.TargetFile)
	logging.Patch("Reverting patch: %s from %s", absPath, record.BackupPath)

	backup, err := afero.ReadFile(a.fs, record.BackupPath)
	if err != nil {
		a.emitAudit(AuditEvent{
			Type:       OpRevert,
			Timestamp:  time.Now(),
			Path:       record.TargetFile,
			BackupPath: record.BackupPath,
			Success:    false,
			Error:      err.Error(),
		})
		return fmt.Errorf("failed to read backup %s: %w", record.BackupPath, err)
	}

	if err := afero.WriteFile(a.fs, absPath, backup, 0644); err != nil {
		a.emitAudit(AuditEvent{
			Type:       OpRevert,
			Timestamp:  time.Now(),
			Path:       record.TargetFile,
			BackupPath: record.BackupPath,
			Success:    false,
			Error:      err.Error(),
		})
		return fmt.Errorf("failed to restore %s: %w", record.TargetFile, err)
	}

	a.emitAudit(AuditEvent{
		Type:       OpRevert,
		Timestamp:  time.Now(),
		Path:       record.TargetFile,
		BackupPath: record.BackupPath,
		Success:    true,
		NewHash:    contentHash(backup),
	})
	return nil
}

// ReadTarget reads the current content of a target file. The healing loop
// uses this to decide what to patch.
func (a *Applier) ReadTarget(path string) (string, error) {
	content, err := afero.ReadFile(a.fs, a.resolvePath(path))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// TargetExists reports whether the target file exists.
func (a *Applier) TargetExists(path string) bool {
	ok, err := afero.Exists(a.fs, a.resolvePath(path))
	return err == nil && ok
}
