package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspbridge/lspbridge/internal/types"
)

func sampleContext() types.SemanticContext {
	return types.SemanticContext{
		FunctionContext: &types.FunctionContext{Name: "doWork", StartLine: 0, EndLine: 10, Body: "function doWork() {}"},
		ClassContext:    &types.ClassContext{Name: "Widget", Kind: "class", StartLine: 0, EndLine: 20},
		Imports: []types.Import{
			{Source: "./helper", Names: []string{"helper"}, Line: 0},
		},
		TypeDefinitions: []types.TypeDefinition{
			{Name: "Widget", Kind: "interface", StartLine: 0, EndLine: 2, Definition: "interface Widget {}"},
		},
		LocalVariables: []types.LocalVariable{
			{Name: "x", Line: 5},
		},
		CallHierarchy: types.CallHierarchy{Callees: []string{"helper"}, Depth: 1},
		Dependencies: []types.DependencyInfo{
			{Source: "./helper", Type: types.DependencyDirect, ImportedSymbols: []string{"helper"}},
		},
	}
}

func TestRank_PartitionsAreDisjointAndWithinBudget(t *testing.T) {
	ctx := sampleContext()
	diag := types.Diagnostic{Message: "Cannot find name 'helper'", Range: types.Range{Start: types.Position{Line: 5}}}

	ranked := Rank(ctx, diag, 2000, DefaultPriorityConfig(), DefaultTokenWeights())

	seen := map[string]bool{}
	for _, el := range append(append(ranked.Budget.Essential, ranked.Budget.Supplementary...), ranked.Budget.Excluded...) {
		key := el.Kind.String() + ":" + el.Content.Name()
		assert.False(t, seen[key], "element %s appeared twice across buckets", key)
		seen[key] = true
	}
	assert.LessOrEqual(t, ranked.Budget.TokensUsed, 2000)
	assert.Equal(t, len(ranked.Elements), len(ranked.Budget.Essential)+len(ranked.Budget.Supplementary)+len(ranked.Budget.Excluded))
}

func TestRank_TinyBudgetExcludesEverythingThatDoesNotFit(t *testing.T) {
	ctx := sampleContext()
	diag := types.Diagnostic{Message: "Cannot find name 'helper'", Range: types.Range{Start: types.Position{Line: 5}}}

	ranked := Rank(ctx, diag, 1, DefaultPriorityConfig(), DefaultTokenWeights())
	assert.LessOrEqual(t, ranked.Budget.TokensUsed, 1)
	assert.NotEmpty(t, ranked.Budget.Excluded)
}

func TestRank_FunctionNameMatchBoostsPriorityAboveBase(t *testing.T) {
	ctx := types.SemanticContext{
		FunctionContext: &types.FunctionContext{Name: "doWork", StartLine: 0, EndLine: 1},
	}
	matching := types.Diagnostic{Message: "doWork is not defined", Range: types.Range{Start: types.Position{Line: 0}}}
	noMatch := types.Diagnostic{Message: "unrelated error", Range: types.Range{Start: types.Position{Line: 100}}}

	pc := DefaultPriorityConfig()
	// The default function base weight is 1.0, which the clamp would leave
	// unchanged by any boost; a lower base makes the boost observable.
	pc.Function = 0.5
	tw := DefaultTokenWeights()

	rankedMatch := Rank(ctx, matching, 2000, pc, tw)
	rankedNoMatch := Rank(ctx, noMatch, 2000, pc, tw)

	require.NotEmpty(t, rankedMatch.Elements)
	require.NotEmpty(t, rankedNoMatch.Elements)
	assert.Greater(t, rankedMatch.Elements[0].Priority, rankedNoMatch.Elements[0].Priority)
}

func TestFormat_ContainsExpectedSections(t *testing.T) {
	ctx := sampleContext()
	diag := types.Diagnostic{Message: "Cannot find name 'helper'", Range: types.Range{Start: types.Position{Line: 5}}}
	ranked := Rank(ctx, diag, 2000, DefaultPriorityConfig(), DefaultTokenWeights())

	out := Format(ranked)
	assert.Contains(t, out, "# Essential Context")
	assert.Contains(t, out, "# Additional Context")
	assert.Contains(t, out, "# Context Summary")
	assert.Contains(t, out, "Tokens used:")
}

func TestNameMatchesMessage_ExactSubstring(t *testing.T) {
	assert.True(t, nameMatchesMessage("helper", "Cannot find name 'helper'"))
	assert.False(t, nameMatchesMessage("", "anything"))
}
