// Package semanticctx implements the Semantic Context Engine (spec.md
// §4.C): it orchestrates the Parser Pool and the per-language Language
// Extractors to turn a single diagnostic into a types.SemanticContext.
// Grounded on the teacher's internal/indexing orchestration of
// parser+extractor for a single symbol lookup, generalized to the
// extract_context operation's seven steps.
package semanticctx

import (
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/extract"
	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// Engine drives extract_context/extract_context_from_file (spec.md §4.C).
type Engine struct {
	pool *parser.Pool
}

// New constructs an Engine backed by pool. Callers typically share one
// Pool across many Engine instances.
func New(pool *parser.Pool) *Engine {
	return &Engine{pool: pool}
}

// ExtractContext implements spec.md §4.C's extract_context operation.
func (e *Engine) ExtractContext(diagnostic types.Diagnostic, fileContent []byte) types.SemanticContext {
	ctx, _ := e.ExtractContextWithTree(diagnostic, fileContent, nil)
	return ctx
}

// ExtractContextWithTree is ExtractContext generalized to §4.A's
// `parse(source, previous_tree?)` protocol: callers that maintain an AST
// cache (the Incremental Processor) pass the previously parsed tree so
// the Parser Pool can reparse incrementally, and get the resulting tree
// back to re-cache. previous may be nil for a cold parse.
func (e *Engine) ExtractContextWithTree(diagnostic types.Diagnostic, fileContent []byte, previous *tree_sitter.Tree) (types.SemanticContext, *tree_sitter.Tree) {
	lang := parser.LanguageFromPath(diagnostic.File)
	if lang == parser.LanguageUnknown {
		return types.DefaultSemanticContext(), nil
	}

	tree, ok := e.pool.Parse(diagnostic.File, fileContent, previous)
	if !ok {
		return types.DefaultSemanticContext(), nil
	}
	root := tree.RootNode()
	if root == nil {
		return types.DefaultSemanticContext(), tree
	}

	extractor := extract.ForLanguage(lang)
	if extractor == nil {
		return types.DefaultSemanticContext(), tree
	}

	target := parser.FindNodeAtPosition(root, diagnostic.Range.Start.Line, diagnostic.Range.Start.Character)
	if target == nil {
		target = root
	}

	ctx := types.SemanticContext{}

	fn := extractor.FindEnclosingFunction(target, fileContent)
	ctx.FunctionContext = extractor.ExtractFunctionContext(fn, fileContent)

	cls := extractor.FindEnclosingClass(target)
	ctx.ClassContext = extractor.ExtractClassContext(cls, fileContent)

	ctx.Imports = extractor.ExtractImports(root, fileContent)
	ctx.TypeDefinitions = extractor.ExtractTypeDefinitions(root, fileContent)
	ctx.LocalVariables = extractor.ExtractLocalVariables(target, fileContent, diagnostic.Range.Start.Line)

	ctx.CallHierarchy = buildCallHierarchy(extractor, fn, fileContent)
	ctx.Dependencies = deriveDependencies(ctx.Imports)
	ctx.RelevanceScore = relevanceScore(ctx)

	return ctx, tree
}

// ExtractContextFromFile reads diagnostic.File from disk and delegates to
// ExtractContext. A read failure yields the default (empty) context rather
// than an error, matching §4.A/§4.C's "never propagate, return empty
// context" failure semantics.
func (e *Engine) ExtractContextFromFile(diagnostic types.Diagnostic) types.SemanticContext {
	content, err := os.ReadFile(diagnostic.File)
	if err != nil {
		return types.DefaultSemanticContext()
	}
	return e.ExtractContext(diagnostic, content)
}

// buildCallHierarchy implements step 5: a one-hop call hierarchy scanning
// call expressions inside the enclosing function. Depth is always 1;
// callers are left empty (no cross-file index in this engine).
func buildCallHierarchy(extractor extract.Extractor, fn *tree_sitter.Node, content []byte) types.CallHierarchy {
	if fn == nil {
		return types.CallHierarchy{}
	}
	return types.CallHierarchy{
		Callees: extractor.ExtractFunctionCalls(fn, content),
		Depth:   1,
	}
}

// typesPathMarker is the substring spec.md §4.C step 6 uses to decide an
// import is type-only.
const typesPathMarker = "@types/"

// deriveDependencies implements step 6: each import becomes a
// DependencyInfo, TypeOnly when its source path mentions "@types/".
func deriveDependencies(imports []types.Import) []types.DependencyInfo {
	if len(imports) == 0 {
		return nil
	}
	deps := make([]types.DependencyInfo, 0, len(imports))
	for _, imp := range imports {
		depType := types.DependencyDirect
		if strings.Contains(imp.Source, typesPathMarker) {
			depType = types.DependencyTypeOnly
		}
		deps = append(deps, types.DependencyInfo{
			Source:          imp.Source,
			Type:            depType,
			ImportedSymbols: imp.Names,
		})
	}
	return deps
}

// relevanceScore implements step 7's bounded-sum formula, capped at 1.0.
func relevanceScore(ctx types.SemanticContext) float32 {
	var score float32
	if ctx.FunctionContext != nil {
		score += 0.3
	}
	if ctx.ClassContext != nil {
		score += 0.2
	}
	if len(ctx.Imports) > 0 {
		score += 0.1
	}
	if len(ctx.TypeDefinitions) > 0 {
		score += 0.15
	}
	if len(ctx.LocalVariables) > 0 {
		score += 0.15
	}
	if len(ctx.CallHierarchy.Callees) > 0 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
