package ranker

import (
	"sort"

	"github.com/lspbridge/lspbridge/internal/types"
)

// essentialThreshold/supplementaryThreshold partition pass-1/pass-2/pass-3
// per spec.md §4.E's budget-selection algorithm.
const (
	essentialThreshold    = 0.8
	supplementaryThreshold = 0.4
)

// Rank implements spec.md §4.E end to end: builds a candidate
// ContextElement per semantic fact, scores and token-estimates each, then
// runs the three-pass greedy budget selection.
func Rank(ctx types.SemanticContext, diagnostic types.Diagnostic, maxTokens int, pc PriorityConfig, tw TokenWeights) types.RankedContext {
	elements := buildElements(ctx, diagnostic, pc, tw)

	// Pass 0: stable sort by priority descending; ties keep insertion order
	// (sort.SliceStable preserves it).
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Priority > elements[j].Priority
	})

	budget := selectWithinBudget(elements, maxTokens)

	return types.RankedContext{
		Original: ctx,
		Elements: elements,
		Budget:   budget,
	}
}

// buildElements constructs one ContextElement per semantic fact in ctx,
// each already scored and token-estimated.
func buildElements(ctx types.SemanticContext, diagnostic types.Diagnostic, pc PriorityConfig, tw TokenWeights) []types.ContextElement {
	var out []types.ContextElement
	message := diagnostic.Message
	diagnosticLine := diagnostic.Range.Start.Line

	if ctx.FunctionContext != nil {
		fn := ctx.FunctionContext
		out = append(out, types.ContextElement{
			Kind:                 types.ElementFunction,
			Priority:             scoreFunction(pc, fn, diagnosticLine, message),
			EstimatedTokens:      estimateFunctionTokens(tw, fn),
			RelevanceExplanation: "enclosing function " + fn.Name,
			Content:              types.ElementContent{Function: fn},
		})
	}

	if ctx.ClassContext != nil {
		cls := ctx.ClassContext
		out = append(out, types.ContextElement{
			Kind:                 types.ElementClass,
			Priority:             scoreClass(pc, cls, message),
			EstimatedTokens:      estimateClassTokens(tw, cls),
			RelevanceExplanation: "enclosing " + cls.Kind + " " + cls.Name,
			Content:              types.ElementContent{Class: cls},
		})
	}

	for i := range ctx.Imports {
		imp := ctx.Imports[i]
		out = append(out, types.ContextElement{
			Kind:                 types.ElementImport,
			Priority:             scoreImport(pc, imp, message),
			EstimatedTokens:      estimateImportTokens(tw),
			RelevanceExplanation: "import from " + imp.Source,
			Content:              types.ElementContent{Import: &ctx.Imports[i]},
		})
	}

	for i := range ctx.TypeDefinitions {
		t := ctx.TypeDefinitions[i]
		out = append(out, types.ContextElement{
			Kind:                 types.ElementType,
			Priority:             scoreType(pc, t, message),
			EstimatedTokens:      estimateTypeTokens(tw, t),
			RelevanceExplanation: "type definition " + t.Name,
			Content:              types.ElementContent{Type: &ctx.TypeDefinitions[i]},
		})
	}

	for i := range ctx.LocalVariables {
		v := ctx.LocalVariables[i]
		out = append(out, types.ContextElement{
			Kind:                 types.ElementVariable,
			Priority:             scoreVariable(pc, v, diagnosticLine, message),
			EstimatedTokens:      estimateVariableTokens(tw, v),
			RelevanceExplanation: "in-scope variable " + v.Name,
			Content:              types.ElementContent{Variable: &ctx.LocalVariables[i]},
		})
	}

	if len(ctx.CallHierarchy.Callees) > 0 || len(ctx.CallHierarchy.Callers) > 0 {
		ch := ctx.CallHierarchy
		out = append(out, types.ContextElement{
			Kind:                 types.ElementCalls,
			Priority:             scoreCallHierarchy(pc, ch, message),
			EstimatedTokens:      estimateCallHierarchyTokens(tw, ch),
			RelevanceExplanation: "call hierarchy",
			Content:              types.ElementContent{Calls: &ctx.CallHierarchy},
		})
	}

	for i := range ctx.Dependencies {
		d := ctx.Dependencies[i]
		out = append(out, types.ContextElement{
			Kind:                 types.ElementDependency,
			Priority:             scoreDependency(pc, d, message),
			EstimatedTokens:      estimateDependencyTokens(tw, d),
			RelevanceExplanation: "dependency on " + d.Source,
			Content:              types.ElementContent{Dependency: &ctx.Dependencies[i]},
		})
	}

	return out
}

// selectWithinBudget implements spec.md §4.E's three-pass greedy budget
// selection. A pass-1 (>= essentialThreshold) element that does not fit is
// excluded outright, never deferred to pass 2/3 — likewise for pass 2/3
// misses (resolved open question, see DESIGN.md / SPEC_FULL.md §9,
// grounded on original_source/src/core/context_ranking/filters/budget.rs).
func selectWithinBudget(sorted []types.ContextElement, maxTokens int) types.ContextBudget {
	budget := types.ContextBudget{TokensRemaining: maxTokens}

	// inRange partitions disjointly, so each element is visited by exactly
	// one pass.
	pass := func(inRange func(float32) bool, bucket *[]types.ContextElement) {
		for _, el := range sorted {
			if !inRange(el.Priority) {
				continue
			}
			if el.EstimatedTokens <= budget.TokensRemaining {
				*bucket = append(*bucket, el)
				budget.TokensUsed += el.EstimatedTokens
				budget.TokensRemaining -= el.EstimatedTokens
			} else {
				budget.Excluded = append(budget.Excluded, el)
			}
		}
	}

	pass(func(p float32) bool { return p >= essentialThreshold }, &budget.Essential)
	pass(func(p float32) bool { return p >= supplementaryThreshold && p < essentialThreshold }, &budget.Supplementary)
	pass(func(p float32) bool { return p < supplementaryThreshold }, &budget.Supplementary)

	return budget
}
