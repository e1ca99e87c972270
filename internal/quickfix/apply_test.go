package quickfix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/types"
)

func writeFixtureFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.ts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFixEngine_ApplySimpleFix(t *testing.T) {
	engine := NewFixEngine(config.DefaultQuickFixOptions())
	path := writeFixtureFile(t, "let x: number = \"string\";\n")

	edit := types.FixEdit{
		FilePath: path,
		Range: types.Range{
			Start: types.Position{Line: 0, Character: 7},
			End:   types.Position{Line: 0, Character: 13},
		},
		NewText:     "string",
		Description: "Fix type annotation",
	}

	result, err := engine.ApplyFix(edit)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{path}, result.ModifiedFiles)
	require.NotNil(t, result.Backup)
	assert.Equal(t, "let x: number = \"string\";\n", result.Backup.OriginalContent)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "let x: string = \"string\";\n", string(got))
}

func TestFixEngine_MultiLineSemicolonInsert(t *testing.T) {
	engine := NewFixEngine(config.DefaultQuickFixOptions())
	path := writeFixtureFile(t, "function test() {\n    console.log(x)\n}\n")

	edit := types.FixEdit{
		FilePath: path,
		Range: types.Range{
			Start: types.Position{Line: 1, Character: 18},
			End:   types.Position{Line: 1, Character: 18},
		},
		NewText: ";",
	}

	result, err := engine.ApplyFix(edit)
	require.NoError(t, err)
	assert.True(t, result.Success)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "function test() {\n    console.log(x);\n}\n", string(got))
}

func TestFixEngine_NoBackupsWhenDisabled(t *testing.T) {
	cfg := config.DefaultQuickFixOptions()
	cfg.CreateBackups = false
	engine := NewFixEngine(cfg)
	path := writeFixtureFile(t, "x = 1\n")

	result, err := engine.ApplyFix(types.FixEdit{
		FilePath: path,
		Range:    types.Range{Start: types.Position{Line: 0}, End: types.Position{Line: 0, Character: 1}},
		NewText:  "y",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Backup)
}

func TestFixEngine_FileTooLargeRejected(t *testing.T) {
	cfg := config.DefaultQuickFixOptions()
	cfg.MaxFileSize = 4
	engine := NewFixEngine(cfg)
	path := writeFixtureFile(t, "much too long for the limit\n")

	result, err := engine.ApplyFix(types.FixEdit{FilePath: path})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "File too large")
}

func TestFixEngine_OutOfBoundsRangeErrors(t *testing.T) {
	engine := NewFixEngine(config.DefaultQuickFixOptions())
	path := writeFixtureFile(t, "one line\n")

	_, err := engine.ApplyFix(types.FixEdit{
		FilePath: path,
		Range:    types.Range{Start: types.Position{Line: 5}, End: types.Position{Line: 5}},
		NewText:  "x",
	})
	assert.Error(t, err)
}

func TestFixEngine_ApplyFixesStopsOnFirstFailure(t *testing.T) {
	engine := NewFixEngine(config.DefaultQuickFixOptions())
	good := writeFixtureFile(t, "a\n")

	edits := []types.FixEdit{
		{FilePath: good, Range: types.Range{Start: types.Position{Line: 0}, End: types.Position{Line: 0, Character: 1}}, NewText: "b"},
		{FilePath: "/nonexistent/path/file.ts", Range: types.Range{}},
		{FilePath: good, Range: types.Range{Start: types.Position{Line: 0}, End: types.Position{Line: 0, Character: 1}}, NewText: "c"},
	}

	results, err := engine.ApplyFixes(edits)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestFixEngine_ApplyFixesWithConfidence_Gating(t *testing.T) {
	engine := NewFixEngine(config.DefaultQuickFixOptions())
	thresholds := config.DefaultQuickFixThresholds()
	path := writeFixtureFile(t, "a\n")

	fixes := []ScoredFix{
		{Edit: types.FixEdit{FilePath: path, Range: types.Range{Start: types.Position{Line: 0}, End: types.Position{Line: 0, Character: 1}}, NewText: "b"}, Confidence: 0.95},
		{Edit: types.FixEdit{FilePath: path}, Confidence: 0.6},
		{Edit: types.FixEdit{FilePath: path}, Confidence: 0.1},
	}

	results, err := engine.ApplyFixesWithConfidence(fixes, thresholds)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].AutoApplied)
	assert.True(t, results[0].Result.Success)
	assert.False(t, results[1].AutoApplied)
	assert.Equal(t, "Fix requires manual confirmation", results[1].Result.Error)
	assert.False(t, results[2].AutoApplied)
	assert.Contains(t, results[2].Result.Error, "Confidence too low")
}

func TestApplyEditToContent_PreservesNoTrailingNewline(t *testing.T) {
	content := "a\nb\nc"
	edit := types.FixEdit{Range: types.Range{Start: types.Position{Line: 1}, End: types.Position{Line: 1, Character: 1}}, NewText: "B"}

	got, err := applyEditToContent(content, edit)
	require.NoError(t, err)
	assert.Equal(t, "a\nB\nc", got)
}
