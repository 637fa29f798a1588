// Package patch mutates source files during a healing attempt. Every
// mutation writes a backup of the pre-mutation content before touching the
// target, so a failed attempt can always be rolled back by hand or via
// Revert.
package patch

import "time"

// Record describes one fragment substitution and what became of it.
type Record struct {
	// TargetFile is the file the substitution applies to.
	TargetFile string `json:"target_file"`

	// SearchFragment is the exact text to find. Only the first occurrence
	// is replaced.
	SearchFragment string `json:"search_fragment"`

	// ReplacementFragment is the text substituted for the search fragment.
	ReplacementFragment string `json:"replacement_fragment"`

	// BackupPath is where the pre-mutation content was written. Empty when
	// the patch was a no-op.
	BackupPath string `json:"backup_path,omitempty"`

	// Applied reports whether the target file was actually modified. A
	// search fragment that does not occur in the target leaves the file
	// untouched and Applied false.
	Applied bool `json:"applied"`
}

// OpType labels patch audit events.
type OpType string

const (
	OpApply  OpType = "apply"
	OpSkip   OpType = "skip"
	OpRevert OpType = "revert"
)

// AuditEvent records one patch operation for observers.
type AuditEvent struct {
	Type       OpType    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Path       string    `json:"path"`
	BackupPath string    `json:"backup_path,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	OldHash    string    `json:"old_hash,omitempty"`
	NewHash    string    `json:"new_hash,omitempty"`
}
