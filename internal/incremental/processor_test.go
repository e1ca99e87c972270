package incremental

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testOptions() config.Options {
	opts := config.Default()
	opts.MaxConcurrentFiles = 2
	opts.AnalysisTimeout = 5 * time.Second
	return opts
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectChangedFiles_NewFileReportedAsChanged(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	changed := p.DetectChangedFiles([]string{"/nonexistent/file.py"})
	assert.Equal(t, []string{"/nonexistent/file.py"}, changed)
}

func TestDetectChangedFiles_CachedFreshFileNotReported(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	path := writeTempFile(t, "x = 1\n")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, p.diagCache.Put(path, cachedDiagnostics{modTime: info.ModTime()}, diagnosticEntrySize))

	assert.Empty(t, p.DetectChangedFiles([]string{path}))
}

func TestDetectChangedFiles_StaleCacheEntryReportedAsChanged(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	path := writeTempFile(t, "x = 1\n")

	stale := time.Now().Add(-time.Hour)
	require.NoError(t, p.diagCache.Put(path, cachedDiagnostics{modTime: stale}, diagnosticEntrySize))

	assert.Equal(t, []string{path}, p.DetectChangedFiles([]string{path}))
}

func TestProcessFilesIncrementally_MergesCachedAndFreshResults(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	cachedPath := writeTempFile(t, "x = 1\n")
	freshPath := filepath.Join(t.TempDir(), "new.py")
	require.NoError(t, os.WriteFile(freshPath, []byte("y = 2\n"), 0o644))

	info, err := os.Stat(cachedPath)
	require.NoError(t, err)
	require.NoError(t, p.diagCache.Put(cachedPath, cachedDiagnostics{
		diagnostics: []types.Diagnostic{{File: cachedPath, Message: "cached"}},
		modTime:     info.ModTime(),
	}, diagnosticEntrySize))

	called := false
	source := func(ctx context.Context, files []string) (map[string][]types.Diagnostic, error) {
		called = true
		assert.Equal(t, []string{freshPath}, files)
		return map[string][]types.Diagnostic{
			freshPath: {{File: freshPath, Message: "fresh"}},
		}, nil
	}

	result, stats, err := p.ProcessFilesIncrementally(context.Background(), []string{cachedPath, freshPath}, source)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "cached", result[cachedPath][0].Message)
	assert.Equal(t, "fresh", result[freshPath][0].Message)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.ChangedFiles)
	assert.Equal(t, 1, stats.CachedFiles)
}

func TestProcessDiagnostic_SuccessfulExtractionMarksSuccess(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	path := writeTempFile(t, "def foo():\n    return 1\n")

	result, err := p.ProcessDiagnostic(context.Background(), types.Diagnostic{
		File:    path,
		Message: "unused variable",
		Range:   types.Range{Start: types.Position{Line: 1, Character: 4}},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.GreaterOrEqual(t, result.ProcessingTime, time.Millisecond)
}

func TestProcessDiagnostic_TimeoutYieldsUnsuccessfulResult(t *testing.T) {
	opts := testOptions()
	opts.AnalysisTimeout = time.Nanosecond
	p := New(parser.NewPool(), opts)
	path := writeTempFile(t, "def foo():\n    return 1\n")

	result, err := p.ProcessDiagnostic(context.Background(), types.Diagnostic{File: path, Message: "x"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Processing timeout", result.Error)
}

func TestProcessDiagnosticsStream_ProcessesEveryDiagnostic(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	path := writeTempFile(t, "def foo():\n    return 1\n")

	diags := []types.Diagnostic{
		{File: path, Message: "a"},
		{File: path, Message: "b"},
		{File: path, Message: "c"},
	}
	results, err := p.ProcessDiagnosticsStream(context.Background(), diags)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.True(t, r.Success)
		assert.Equal(t, diags[i].Message, r.Diagnostic.Message)
	}
}

func TestIsOverloaded_FalseWhenIdle(t *testing.T) {
	p := New(parser.NewPool(), testOptions())
	assert.False(t, p.IsOverloaded())
	assert.Equal(t, int64(0), p.CurrentLoad())
}
