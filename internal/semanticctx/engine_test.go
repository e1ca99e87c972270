package semanticctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

func diagAt(file string, line, col uint32) types.Diagnostic {
	return types.Diagnostic{
		File:     file,
		Range:    types.Range{Start: types.Position{Line: line, Character: col}, End: types.Position{Line: line, Character: col + 1}},
		Severity: types.SeverityError,
		Message:  "Cannot find name 'helper'",
	}
}

func TestExtractContext_UnknownLanguageReturnsDefault(t *testing.T) {
	e := New(parser.NewPool())
	ctx := e.ExtractContext(diagAt("notes.txt", 0, 0), []byte("hello"))
	assert.Equal(t, types.DefaultSemanticContext(), ctx)
}

func TestExtractContext_TypeScriptFunctionAndImports(t *testing.T) {
	src := []byte(`import { helper } from "./helper";

function doWork(x: number): number {
  const y = helper(x);
  return y;
}
`)
	e := New(parser.NewPool())
	ctx := e.ExtractContext(diagAt("work.ts", 3, 12), src)

	require.NotNil(t, ctx.FunctionContext)
	assert.Equal(t, "doWork", ctx.FunctionContext.Name)
	require.Len(t, ctx.Imports, 1)
	assert.Equal(t, "./helper", ctx.Imports[0].Source)
	assert.Contains(t, ctx.CallHierarchy.Callees, "helper")
	assert.Equal(t, 1, ctx.CallHierarchy.Depth)
	assert.Empty(t, ctx.CallHierarchy.Callers)
	assert.Greater(t, ctx.RelevanceScore, float32(0))
}

func TestExtractContext_LocalVariablesExcludeLinesAfterDiagnostic(t *testing.T) {
	src := []byte(`function f() {
  const a = 1;
  const b = 2;
  return a + c;
  const d = 4;
}
`)
	e := New(parser.NewPool())
	// diagnostic on the "return" line (0-indexed line 3): a (line 1) and b
	// (line 2) are declared before it, d (line 4) after it
	ctx := e.ExtractContext(diagAt("f.js", 3, 11), src)

	var names []string
	for _, v := range ctx.LocalVariables {
		names = append(names, v.Name)
	}
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
	assert.NotContains(t, names, "d")
}

func TestDeriveDependencies_TypesPathIsTypeOnly(t *testing.T) {
	imports := []types.Import{
		{Source: "./lib", Names: []string{"Lib"}},
		{Source: "@types/node", Names: []string{"Buffer"}},
	}
	deps := deriveDependencies(imports)
	require.Len(t, deps, 2)
	assert.Equal(t, types.DependencyDirect, deps[0].Type)
	assert.Equal(t, types.DependencyTypeOnly, deps[1].Type)
}

func TestRelevanceScore_CapsAtOne(t *testing.T) {
	ctx := types.SemanticContext{
		FunctionContext: &types.FunctionContext{},
		ClassContext:    &types.ClassContext{},
		Imports:         []types.Import{{}},
		TypeDefinitions: []types.TypeDefinition{{}},
		LocalVariables:  []types.LocalVariable{{}},
		CallHierarchy:   types.CallHierarchy{Callees: []string{"x"}},
	}
	assert.Equal(t, float32(1.0), relevanceScore(ctx))
}

func TestExtractContextFromFile_MissingFileReturnsDefault(t *testing.T) {
	e := New(parser.NewPool())
	ctx := e.ExtractContextFromFile(diagAt("/nonexistent/does-not-exist.ts", 0, 0))
	assert.Equal(t, types.DefaultSemanticContext(), ctx)
}
