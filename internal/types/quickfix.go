package types

import "time"

// FixEdit is an LSP-style text edit to be applied to a file.
type FixEdit struct {
	FilePath    string
	Range       Range
	NewText     string
	Description string // optional
}

// FileBackup captures a file's content before a fix mutates it.
type FileBackup struct {
	FilePath        string    `json:"file_path"`
	OriginalContent string    `json:"original_content"`
	Timestamp       time.Time `json:"timestamp"`
}

// RollbackState is a persisted set of file backups captured before a batch
// of fixes, replayable at most once.
type RollbackState struct {
	SessionID   string       `json:"session_id"`
	Timestamp   time.Time    `json:"timestamp"`
	Backups     []FileBackup `json:"backups"`
	Description string       `json:"description"`
	RolledBack  bool         `json:"rolled_back"`
}

// FixResult is the outcome of applying a single fix or a fix batch.
type FixResult struct {
	Success       bool
	ModifiedFiles []string
	Error         string
	Backup        *FileBackup
}

// BuildStatus summarizes a post-fix build invocation.
type BuildStatus struct {
	Success    bool
	Errors     []string
	Warnings   []string
	DurationMs int64
}

// TestResults summarizes a post-fix test invocation.
type TestResults struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Failures []string
}
