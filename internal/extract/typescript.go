package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// TypeScriptExtractor handles both TypeScript and JavaScript (JavaScript
// files are parsed with the TypeScript grammar, so both share one
// node-type vocabulary), per spec.md §4.B.
type TypeScriptExtractor struct {
	lang parser.Language
}

func NewTypeScriptExtractor() *TypeScriptExtractor {
	return &TypeScriptExtractor{lang: parser.LanguageTypeScript}
}

// NewJavaScriptExtractor returns the same extractor reporting
// LanguageJavaScript, for .js/.jsx files parsed with the TS grammar (spec.md §4.A:
// ".js|.jsx -> JavaScript (uses TS grammar)").
func NewJavaScriptExtractor() *TypeScriptExtractor {
	return &TypeScriptExtractor{lang: parser.LanguageJavaScript}
}

func (e *TypeScriptExtractor) Language() parser.Language { return e.lang }

func isTSFunctionKind(k string) bool {
	switch k {
	case "function_declaration", "method_definition", "function_expression", "arrow_function", "generator_function_declaration":
		return true
	}
	return false
}

// containsArrowFunctionPattern implements spec.md's "Arrow-function
// enclosure" concession (§9): a variable_declarator/lexical_declaration
// counts as an enclosing function when its initializer transitively
// contains an arrow_function, or a call whose callee begins with
// useCallback/useMemo.
func containsArrowFunctionPattern(n *tree_sitter.Node, content []byte) bool {
	if n == nil {
		return false
	}
	found := false
	var walk func(*tree_sitter.Node)
	walk = func(cur *tree_sitter.Node) {
		if cur == nil || found {
			return
		}
		switch cur.Kind() {
		case "arrow_function":
			found = true
			return
		case "call_expression":
			if callee := cur.ChildByFieldName("function"); callee != nil {
				text := parser.NodeText(callee, content)
				if strings.HasPrefix(text, "useCallback") || strings.HasPrefix(text, "useMemo") {
					found = true
					return
				}
			}
		}
		for i := uint(0); i < cur.ChildCount(); i++ {
			walk(cur.Child(i))
		}
	}
	walk(n)
	return found
}

// FindEnclosingFunction also recognizes the `const X = useCallback(...)`
// pattern via the node's source text (spec.md §9).
func (e *TypeScriptExtractor) FindEnclosingFunction(at *tree_sitter.Node, content []byte) *tree_sitter.Node {
	return nearestAncestor(at, true, func(n *tree_sitter.Node) bool {
		if isTSFunctionKind(n.Kind()) {
			return true
		}
		if n.Kind() == "variable_declarator" {
			if v := n.ChildByFieldName("value"); v != nil && containsArrowFunctionPattern(v, content) {
				return true
			}
		}
		if n.Kind() == "lexical_declaration" {
			if containsArrowFunctionPattern(n, content) {
				return true
			}
		}
		return false
	})
}

func (e *TypeScriptExtractor) FindEnclosingClass(at *tree_sitter.Node) *tree_sitter.Node {
	return nearestAncestor(at, true, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration", "class":
			return true
		}
		return false
	})
}

func (e *TypeScriptExtractor) functionName(fn *tree_sitter.Node, content []byte) string {
	switch fn.Kind() {
	case "function_declaration", "generator_function_declaration", "function_expression", "method_definition":
		if name := fn.ChildByFieldName("name"); name != nil {
			return nameOrAnonymous(parser.NodeText(name, content))
		}
		return anonymousName
	case "arrow_function":
		if parent := fn.Parent(); parent != nil && parent.Kind() == "variable_declarator" {
			if name := parent.ChildByFieldName("name"); name != nil {
				return nameOrAnonymous(parser.NodeText(name, content))
			}
		}
		return anonymousName
	case "variable_declarator":
		if name := fn.ChildByFieldName("name"); name != nil {
			return nameOrAnonymous(parser.NodeText(name, content))
		}
		return anonymousName
	case "lexical_declaration":
		if decl := parser.FindChildByType(fn, "variable_declarator"); decl != nil {
			return e.functionName(decl, content)
		}
		return anonymousName
	}
	return anonymousName
}

func (e *TypeScriptExtractor) ExtractFunctionContext(fn *tree_sitter.Node, content []byte) *types.FunctionContext {
	if fn == nil {
		return nil
	}
	r := parser.NodeRange(fn)
	return &types.FunctionContext{
		Name:      e.functionName(fn, content),
		Signature: e.ExtractFunctionSignature(fn, content),
		StartLine: r.Start.Line,
		EndLine:   r.End.Line,
		Body:      parser.NodeText(fn, content),
	}
}

func (e *TypeScriptExtractor) ExtractFunctionSignature(fn *tree_sitter.Node, content []byte) string {
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "arrow_function":
		params := ""
		if p := fn.ChildByFieldName("parameters"); p != nil {
			params = parser.NodeText(p, content)
		} else if p := fn.ChildByFieldName("parameter"); p != nil {
			params = parser.NodeText(p, content)
		}
		return params + " => …"
	case "variable_declarator":
		if v := fn.ChildByFieldName("value"); v != nil {
			return e.ExtractFunctionSignature(v, content)
		}
		return parser.NodeText(fn, content)
	case "lexical_declaration":
		if decl := parser.FindChildByType(fn, "variable_declarator"); decl != nil {
			return e.ExtractFunctionSignature(decl, content)
		}
		return parser.NodeText(fn, content)
	}
	if body := fn.ChildByFieldName("body"); body != nil {
		start := fn.StartByte()
		end := body.StartByte()
		if end >= start && int(end) <= len(content) {
			return strings.TrimSpace(string(content[start:end]))
		}
	}
	return strings.TrimSpace(parser.NodeText(fn, content))
}

func (e *TypeScriptExtractor) ExtractClassContext(cls *tree_sitter.Node, content []byte) *types.ClassContext {
	if cls == nil {
		return nil
	}
	name := anonymousName
	if n := cls.ChildByFieldName("name"); n != nil {
		name = nameOrAnonymous(parser.NodeText(n, content))
	}
	r := parser.NodeRange(cls)
	return &types.ClassContext{
		Name:      name,
		Kind:      "class",
		StartLine: r.Start.Line,
		EndLine:   r.End.Line,
	}
}

func (e *TypeScriptExtractor) ExtractImports(root *tree_sitter.Node, content []byte) []types.Import {
	var out []types.Import
	for _, n := range parser.FindDescendantsByType(root, "import_statement", nil) {
		r := parser.NodeRange(n)
		imp := types.Import{Line: r.Start.Line}
		if src := n.ChildByFieldName("source"); src != nil {
			imp.Source = strings.Trim(parser.NodeText(src, content), `'"`)
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "import_clause":
				imp.Names = append(imp.Names, extractImportClauseNames(child, content)...)
			}
		}
		out = append(out, imp)
	}
	return out
}

func extractImportClauseNames(clause *tree_sitter.Node, content []byte) []string {
	var names []string
	var walk func(*tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "identifier":
			names = append(names, parser.NodeText(n, content))
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(clause)
	return names
}

func (e *TypeScriptExtractor) ExtractTypeDefinitions(root *tree_sitter.Node, content []byte) []types.TypeDefinition {
	var out []types.TypeDefinition
	for _, kind := range []string{"type_alias_declaration", "interface_declaration"} {
		for _, n := range parser.FindDescendantsByType(root, kind, nil) {
			r := parser.NodeRange(n)
			name := anonymousName
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name = nameOrAnonymous(parser.NodeText(nameNode, content))
			}
			out = append(out, types.TypeDefinition{
				Name:       name,
				Kind:       kind,
				StartLine:  r.Start.Line,
				EndLine:    r.End.Line,
				Definition: parser.NodeText(n, content),
			})
		}
	}
	return out
}

func (e *TypeScriptExtractor) IsScopeBoundary(n *tree_sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "function_declaration", "generator_function_declaration", "function_expression",
		"arrow_function", "method_definition", "class_body", "statement_block":
		return true
	}
	return false
}

func (e *TypeScriptExtractor) ExtractLocalVariables(at *tree_sitter.Node, content []byte, beforeLine uint32) []types.LocalVariable {
	scope := nearestAncestor(at, false, e.IsScopeBoundary)
	if scope == nil {
		return nil
	}
	var out []types.LocalVariable
	for _, n := range parser.FindDescendantsByType(scope, "variable_declarator", func(b *tree_sitter.Node) bool {
		return b != scope && e.IsScopeBoundary(b)
	}) {
		r := parser.NodeRange(n)
		if r.Start.Line > beforeLine {
			continue
		}
		name := anonymousName
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = nameOrAnonymous(parser.NodeText(nameNode, content))
		}
		v := types.LocalVariable{Name: name, Line: r.Start.Line}
		if typeNode := n.ChildByFieldName("type"); typeNode != nil {
			v.TypeAnnotation = parser.NodeText(typeNode, content)
		}
		if valueNode := n.ChildByFieldName("value"); valueNode != nil {
			v.Initializer = parser.NodeText(valueNode, content)
		}
		out = append(out, v)
	}
	return out
}

func (e *TypeScriptExtractor) ExtractFunctionCalls(fn *tree_sitter.Node, content []byte) []string {
	return collectCallNames(fn, content, "call_expression",
		func(n *tree_sitter.Node) *tree_sitter.Node { return n.ChildByFieldName("function") },
		func(n *tree_sitter.Node) bool { return n.Kind() != fn.Kind() && isTSFunctionKind(n.Kind()) })
}

var tsBuiltinTypes = map[string]struct{}{
	"string": {}, "number": {}, "boolean": {}, "any": {}, "void": {}, "null": {},
	"undefined": {}, "never": {}, "unknown": {}, "object": {}, "symbol": {}, "bigint": {},
	"Array": {}, "Promise": {}, "Map": {}, "Set": {}, "Record": {}, "Partial": {},
	"Readonly": {}, "Pick": {}, "Omit": {}, "Date": {}, "RegExp": {}, "Error": {},
}

func (e *TypeScriptExtractor) IsBuiltinType(name string) bool {
	_, ok := tsBuiltinTypes[name]
	return ok
}
