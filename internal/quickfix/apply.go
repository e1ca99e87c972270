package quickfix

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/errs"
	"github.com/lspbridge/lspbridge/internal/types"
)

// FixEngine applies FixEdits to files on disk, optionally backing up
// originals first. Grounded on engine.rs::FixApplicationEngine.
type FixEngine struct {
	createBackups bool
	maxFileSize   int64
}

// NewFixEngine builds a FixEngine from cfg (spec.md §4.I).
func NewFixEngine(cfg config.QuickFixOptions) *FixEngine {
	return &FixEngine{
		createBackups: cfg.CreateBackups,
		maxFileSize:   cfg.MaxFileSize,
	}
}

// ApplyFix implements engine.rs::apply_fix: stat, size-check, read,
// optionally back up, splice in the edit, and write atomically.
func (e *FixEngine) ApplyFix(edit types.FixEdit) (types.FixResult, error) {
	info, err := os.Stat(edit.FilePath)
	if err != nil {
		return types.FixResult{}, errs.Wrap(errs.KindFileIO, "failed to read file metadata", err).WithPath(edit.FilePath)
	}

	if info.Size() > e.maxFileSize {
		return types.FixResult{
			Success: false,
			Error:   "File too large: " + strconv.FormatInt(info.Size(), 10) + " bytes",
		}, nil
	}

	original, err := os.ReadFile(edit.FilePath)
	if err != nil {
		return types.FixResult{}, errs.Wrap(errs.KindFileIO, "failed to read source file for fix", err).WithPath(edit.FilePath)
	}
	originalContent := string(original)

	var backup *types.FileBackup
	if e.createBackups {
		backup = &types.FileBackup{
			FilePath:        edit.FilePath,
			OriginalContent: originalContent,
			Timestamp:       time.Now(),
		}
	}

	newContent, err := applyEditToContent(originalContent, edit)
	if err != nil {
		return types.FixResult{}, err
	}

	if err := writeFileAtomic(edit.FilePath, newContent, info.Mode()); err != nil {
		return types.FixResult{}, errs.Wrap(errs.KindFileIO, "failed to write modified file", err).WithPath(edit.FilePath)
	}

	return types.FixResult{
		Success:       true,
		ModifiedFiles: []string{edit.FilePath},
		Backup:        backup,
	}, nil
}

// ApplyFixes implements engine.rs::apply_fixes: apply each edit in order,
// stopping at (and including) the first unsuccessful result.
func (e *FixEngine) ApplyFixes(edits []types.FixEdit) ([]types.FixResult, error) {
	results := make([]types.FixResult, 0, len(edits))
	for _, edit := range edits {
		result, err := e.ApplyFix(edit)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results, nil
}

// ScoredFix pairs an edit with its precomputed confidence score.
type ScoredFix struct {
	Edit       types.FixEdit
	Confidence float32
}

// AppliedFix reports whether a ScoredFix's result was auto-applied.
type AppliedFix struct {
	Result      types.FixResult
	AutoApplied bool
}

// ApplyFixesWithConfidence implements
// engine.rs::apply_fixes_with_confidence: edits at or above AutoApply are
// applied; edits at or above Suggest but below AutoApply are deferred for
// manual confirmation; edits below Suggest are rejected outright. Every
// fix is visited regardless of an earlier failure (no fail-fast here,
// unlike ApplyFixes).
func (e *FixEngine) ApplyFixesWithConfidence(fixes []ScoredFix, thresholds config.QuickFixThresholds) ([]AppliedFix, error) {
	results := make([]AppliedFix, 0, len(fixes))
	for _, f := range fixes {
		switch {
		case IsAutoApplicable(f.Confidence, thresholds):
			result, err := e.ApplyFix(f.Edit)
			if err != nil {
				return results, err
			}
			results = append(results, AppliedFix{Result: result, AutoApplied: true})
		case IsSuggestable(f.Confidence, thresholds):
			results = append(results, AppliedFix{
				Result: types.FixResult{Success: false, Error: "Fix requires manual confirmation"},
			})
		default:
			results = append(results, AppliedFix{
				Result: types.FixResult{
					Success: false,
					Error:   "Confidence too low: " + strconv.FormatFloat(float64(f.Confidence), 'f', 2, 32),
				},
			})
		}
	}
	return results, nil
}

// applyEditToContent implements engine.rs::apply_edit_to_content's
// line-splice algorithm: rebuild the file line by line, replacing the
// span [edit.Range.Start, edit.Range.End) with edit.NewText, then strip
// the trailing newline the line-based rebuild always adds back if the
// original content had none.
func applyEditToContent(content string, edit types.FixEdit) (string, error) {
	lines := splitLines(content)

	if uint32(len(lines)) < edit.Range.Start.Line || uint32(len(lines)) < edit.Range.End.Line {
		return "", errs.New(errs.KindEditOutOfBounds, "edit range out of bounds").WithPath(edit.FilePath)
	}

	var b strings.Builder
	for i, line := range lines {
		lineNum := uint32(i)

		switch {
		case lineNum < edit.Range.Start.Line:
			b.WriteString(line)
			b.WriteByte('\n')
		case lineNum == edit.Range.Start.Line:
			if edit.Range.Start.Character > 0 {
				start := int(edit.Range.Start.Character)
				if start <= len(line) {
					b.WriteString(line[:start])
				}
			}
			b.WriteString(edit.NewText)
			if edit.Range.End.Line == edit.Range.Start.Line {
				end := int(edit.Range.End.Character)
				if end < len(line) {
					b.WriteString(line[end:])
				}
				b.WriteByte('\n')
			}
		case lineNum > edit.Range.Start.Line && lineNum < edit.Range.End.Line:
			// lines fully inside the edit span are dropped
		case lineNum == edit.Range.End.Line && edit.Range.End.Line > edit.Range.Start.Line:
			end := int(edit.Range.End.Character)
			if end < len(line) {
				b.WriteString(line[end:])
			}
			b.WriteByte('\n')
		default:
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	result := b.String()
	if !strings.HasSuffix(content, "\n") && strings.HasSuffix(result, "\n") {
		result = result[:len(result)-1]
	}
	return result, nil
}

// splitLines mirrors Rust's str::lines(): split on '\n', dropping a
// trailing '\r' from each line, and never yielding a trailing empty
// element for content ending in '\n'.
func splitLines(content string) []string {
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		if content == "" {
			return nil
		}
		return []string{""}
	}
	lines := strings.Split(trimmed, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// writeFileAtomic writes content to a temp file in path's directory and
// renames it into place, so a crash mid-write never leaves a truncated
// file behind.
func writeFileAtomic(path, content string, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".lspbridge-fix-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// CreateFixFromDiagnostic implements engine.rs::create_fix_from_diagnostic.
func CreateFixFromDiagnostic(diagnostic types.Diagnostic, suggestedFix string) types.FixEdit {
	return types.FixEdit{
		FilePath:    diagnostic.File,
		Range:       diagnostic.Range,
		NewText:     suggestedFix,
		Description: "Fix: " + diagnostic.Message,
	}
}
