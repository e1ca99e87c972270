package grouper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspbridge/lspbridge/internal/types"
)

func diag(file, message string, line uint32, severity types.Severity) types.Diagnostic {
	return types.Diagnostic{
		File:     file,
		Message:  message,
		Range:    types.Range{Start: types.Position{Line: line}},
		Severity: severity,
	}
}

func TestGroup_ExhaustivenessEveryDiagnosticAppearsExactlyOnce(t *testing.T) {
	diags := []types.Diagnostic{
		diag("a.ts", "Cannot find name 'helper'", 1, types.SeverityError),
		diag("a.ts", "Cannot find name 'helper' in scope", 2, types.SeverityError),
		diag("b.ts", "unrelated error", 0, types.SeverityWarning),
	}
	groups := Group(diags)

	seen := map[string]int{}
	for _, g := range groups {
		seen[g.Primary.DedupeKey().Message]++
		for _, r := range g.Related {
			seen[r.DedupeKey().Message]++
		}
	}
	assert.Len(t, seen, 3)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

func TestGroup_SharedQuotedIdentifierMatchesSameSymbolFirst(t *testing.T) {
	// Both messages carry the quoted identifier 'x', so same_symbol
	// (confidence 0.8, checked first in matchPattern) claims the pair
	// before undefined_variable (0.95) ever gets a chance to match it.
	diags := []types.Diagnostic{
		diag("a.ts", "variable 'x' is undefined", 1, types.SeverityError),
		diag("a.ts", "'x' is undeclared here", 2, types.SeverityError),
	}
	groups := Group(diags)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Related, 1)
	assert.Equal(t, float32(0.8), groups[0].Confidence)
}

func TestGroup_SingletonGroupHasConfidenceOne(t *testing.T) {
	diags := []types.Diagnostic{
		diag("a.ts", "totally unrelated message", 1, types.SeverityError),
	}
	groups := Group(diags)
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].Related)
	assert.Equal(t, float32(1.0), groups[0].Confidence)
}

func TestGroup_DedupesBeforeGrouping(t *testing.T) {
	d := diag("a.ts", "duplicate message", 1, types.SeverityError)
	groups := Group([]types.Diagnostic{d, d})
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].Related)
}

func TestGroup_SameLineRangePattern(t *testing.T) {
	diags := []types.Diagnostic{
		{File: "a.ts", Message: "first issue", Range: types.Range{Start: types.Position{Line: 5, Character: 10}}},
		{File: "a.ts", Message: "second issue", Range: types.Range{Start: types.Position{Line: 5, Character: 12}}},
	}
	groups := Group(diags)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Related, 1)
	assert.Equal(t, float32(0.6), groups[0].Confidence)
}
