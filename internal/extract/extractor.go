// Package extract implements the Language Extractors (spec.md §4.B): one
// capability-set implementation per supported language, each mapping AST
// nodes to semantic context facts. Modeled on the teacher's
// internal/symbollinker.SymbolExtractor interface + per-language structs
// (go_extractor.go, js_extractor.go, python_extractor.go), generalized to
// the capability set spec.md names.
package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// Extractor is the per-language capability set spec.md §4.B requires.
// A missing child field must never abort extraction; implementations
// substitute "<anonymous>" for missing names (spec.md §4.B "Failure
// semantics").
type Extractor interface {
	Language() parser.Language

	// FindEnclosingFunction returns the node that should be treated as the
	// diagnostic's enclosing function, or nil if none qualifies. content is
	// needed to recognize source-text patterns such as TypeScript's
	// useCallback/useMemo concession (spec.md §9).
	FindEnclosingFunction(at *tree_sitter.Node, content []byte) *tree_sitter.Node
	// FindEnclosingClass returns the class/struct/impl node enclosing at
	// (the diagnostic's node), or nil if none qualifies.
	FindEnclosingClass(at *tree_sitter.Node) *tree_sitter.Node

	ExtractFunctionContext(fn *tree_sitter.Node, content []byte) *types.FunctionContext
	ExtractClassContext(cls *tree_sitter.Node, content []byte) *types.ClassContext
	ExtractImports(root *tree_sitter.Node, content []byte) []types.Import
	ExtractTypeDefinitions(root *tree_sitter.Node, content []byte) []types.TypeDefinition
	// ExtractLocalVariables walks up from at to the nearest scope boundary
	// and returns every variable declared at or before beforeLine.
	ExtractLocalVariables(at *tree_sitter.Node, content []byte, beforeLine uint32) []types.LocalVariable
	// ExtractFunctionCalls returns the names of functions/methods called
	// directly inside fn (one-hop, spec.md §4.C step 5).
	ExtractFunctionCalls(fn *tree_sitter.Node, content []byte) []string

	IsScopeBoundary(n *tree_sitter.Node) bool
	ExtractFunctionSignature(fn *tree_sitter.Node, content []byte) string
	IsBuiltinType(name string) bool
}

// ForLanguage returns the Extractor for lang, or nil for LanguageUnknown.
func ForLanguage(lang parser.Language) Extractor {
	switch lang {
	case parser.LanguageTypeScript:
		return NewTypeScriptExtractor()
	case parser.LanguageJavaScript:
		return NewJavaScriptExtractor()
	case parser.LanguageRust:
		return NewRustExtractor()
	case parser.LanguagePython:
		return NewPythonExtractor()
	default:
		return nil
	}
}

const anonymousName = "<anonymous>"

// nameOrAnonymous returns s, or the anonymous-name sentinel when s is empty.
func nameOrAnonymous(s string) string {
	if s == "" {
		return anonymousName
	}
	return s
}

// nearestAncestor walks up from n (n itself excluded unless includeSelf)
// returning the first ancestor for which match returns true.
func nearestAncestor(n *tree_sitter.Node, includeSelf bool, match func(*tree_sitter.Node) bool) *tree_sitter.Node {
	cur := n
	if cur != nil && !includeSelf {
		cur = cur.Parent()
	}
	for cur != nil {
		if match(cur) {
			return cur
		}
		cur = cur.Parent()
	}
	return nil
}

// collectCallNames walks the subtree rooted at fn (fn included) and
// returns the textual callee name of every call_expression-like node,
// identified by nodeType (language-specific), using fieldName to locate the
// callee child. Descent stops at nested function boundaries identified by
// isBoundary so the one-hop call hierarchy (spec.md §4.C step 5) only
// covers calls made directly inside fn, not inside nested closures.
func collectCallNames(fn *tree_sitter.Node, content []byte, callNodeType string, calleeOf func(*tree_sitter.Node) *tree_sitter.Node, isNestedBoundary func(*tree_sitter.Node) bool) []string {
	if fn == nil {
		return nil
	}
	var names []string
	seen := map[string]struct{}{}
	var walk func(n *tree_sitter.Node, isRoot bool)
	walk = func(n *tree_sitter.Node, isRoot bool) {
		if n == nil {
			return
		}
		if !isRoot && isNestedBoundary != nil && isNestedBoundary(n) {
			return
		}
		if n.Kind() == callNodeType {
			if callee := calleeOf(n); callee != nil {
				name := calleeText(callee, content)
				if name != "" {
					if _, ok := seen[name]; !ok {
						seen[name] = struct{}{}
						names = append(names, name)
					}
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i), false)
		}
	}
	walk(fn, true)
	return names
}

// calleeText renders a callee expression node (identifier or a.b.c member
// access) down to its rightmost/simple name.
func calleeText(n *tree_sitter.Node, content []byte) string {
	switch n.Kind() {
	case "identifier", "field_identifier", "property_identifier", "type_identifier":
		return parser.NodeText(n, content)
	case "member_expression", "field_expression", "attribute":
		if prop := n.ChildByFieldName("property"); prop != nil {
			return parser.NodeText(prop, content)
		}
		if field := n.ChildByFieldName("field"); field != nil {
			return parser.NodeText(field, content)
		}
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return parser.NodeText(attr, content)
		}
	}
	return parser.NodeText(n, content)
}
