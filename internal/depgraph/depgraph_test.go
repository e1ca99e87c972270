package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildGraph_ResolvesRelativeTypeScriptImports(t *testing.T) {
	dir := t.TempDir()
	helper := writeFile(t, dir, "helper.ts", `export function helper(x: number): number { return x + 1; }`)
	main := writeFile(t, dir, "main.ts", `import { helper } from "./helper";

function run() {
  return helper(1);
}
`)

	a := New(parser.NewPool())
	graph, err := a.BuildGraph([]string{main, helper})
	require.NoError(t, err)

	deps, ok := graph.Forward[main]
	require.True(t, ok)
	require.Len(t, deps.Imports, 1)
	assert.Equal(t, helper, deps.Imports[0].Source)

	dependents, ok := graph.Reverse[helper]
	require.True(t, ok)
	_, isDependent := dependents[main]
	assert.True(t, isDependent)
}

func TestBuildGraph_UnresolvedExternalImportLeavesSpecifier(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ts", `import { thing } from "some-package";`)

	a := New(parser.NewPool())
	graph, err := a.BuildGraph([]string{main})
	require.NoError(t, err)

	deps := graph.Forward[main]
	require.Len(t, deps.Imports, 1)
	assert.Equal(t, "some-package", deps.Imports[0].Source)
	assert.Empty(t, graph.Reverse["some-package"])
}

func TestAnalyzeDiagnosticDependencies_DirectImports(t *testing.T) {
	dir := t.TempDir()
	helper := writeFile(t, dir, "helper.ts", `export function helper(x: number): number { return x; }`)
	main := writeFile(t, dir, "main.ts", `import { helper } from "./helper";

function run() {
  return helper(1);
}
`)
	a := New(parser.NewPool())
	graph, err := a.BuildGraph([]string{main, helper})
	require.NoError(t, err)

	diag := types.Diagnostic{File: main, Message: "Cannot find name 'helper'"}
	deps := AnalyzeDiagnosticDependencies(diag, graph)
	require.NotEmpty(t, deps)
	assert.Equal(t, helper, deps[0].Source)
	assert.Equal(t, types.DependencyDirect, deps[0].Type)
}

func TestAnalyzeDiagnosticDependencies_TypeMention(t *testing.T) {
	dir := t.TempDir()
	types_ts := writeFile(t, dir, "types.ts", `export interface Widget { id: string; }`)
	main := writeFile(t, dir, "main.ts", `function use(): void {}`)

	a := New(parser.NewPool())
	graph, err := a.BuildGraph([]string{main, types_ts})
	require.NoError(t, err)

	diag := types.Diagnostic{File: main, Message: "Property 'id' does not exist on type `Widget`"}
	deps := AnalyzeDiagnosticDependencies(diag, graph)

	found := false
	for _, d := range deps {
		if d.Source == types_ts && d.Type == types.DependencyTypeOnly {
			found = true
		}
	}
	assert.True(t, found, "expected a TypeOnly dependency pointing at types.ts")
}

func TestTransitiveDependencies_CycleGuardTerminates(t *testing.T) {
	graph := &Graph{
		Forward: map[string]types.FileDependencies{
			"a.ts": {Imports: []types.Import{{Source: "b.ts"}}},
			"b.ts": {Imports: []types.Import{{Source: "a.ts"}}}, // cycle back to a.ts
		},
	}
	deps := TransitiveDependencies(graph, "a.ts")
	assert.ElementsMatch(t, []string{"b.ts"}, deps)
}

func TestTransitiveDependents_CycleGuardTerminates(t *testing.T) {
	graph := &Graph{
		Reverse: map[string]map[string]struct{}{
			"a.ts": {"b.ts": {}},
			"b.ts": {"a.ts": {}}, // cycle back to a.ts
		},
	}
	dependents := TransitiveDependents(graph, "a.ts")
	assert.ElementsMatch(t, []string{"b.ts"}, dependents)
}

func TestFilterFiles_ExcludesMatchingGlobs(t *testing.T) {
	files := []string{"src/a.ts", "src/a.test.ts", "src/b.ts"}
	filtered := FilterFiles(files, []string{"**/*.test.ts"})
	assert.ElementsMatch(t, []string{"src/a.ts", "src/b.ts"}, filtered)
}

func TestIsTypesPackagePath(t *testing.T) {
	assert.True(t, IsTypesPackagePath("node_modules/@types/node/index.d.ts"))
	assert.False(t, IsTypesPackagePath("src/index.ts"))
}
