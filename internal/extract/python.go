package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// PythonExtractor implements the Language Extractors capability set for
// Python (spec.md §4.B). Type definitions and exports are heuristic, as
// Python has no dedicated type-declaration syntax.
type PythonExtractor struct{}

func NewPythonExtractor() *PythonExtractor { return &PythonExtractor{} }

func (e *PythonExtractor) Language() parser.Language { return parser.LanguagePython }

func (e *PythonExtractor) FindEnclosingFunction(at *tree_sitter.Node, _ []byte) *tree_sitter.Node {
	return nearestAncestor(at, true, func(n *tree_sitter.Node) bool {
		return n.Kind() == "function_definition"
	})
}

func (e *PythonExtractor) FindEnclosingClass(at *tree_sitter.Node) *tree_sitter.Node {
	return nearestAncestor(at, true, func(n *tree_sitter.Node) bool {
		return n.Kind() == "class_definition"
	})
}

func (e *PythonExtractor) ExtractFunctionContext(fn *tree_sitter.Node, content []byte) *types.FunctionContext {
	if fn == nil {
		return nil
	}
	name := anonymousName
	if n := fn.ChildByFieldName("name"); n != nil {
		name = nameOrAnonymous(parser.NodeText(n, content))
	}
	r := parser.NodeRange(fn)
	return &types.FunctionContext{
		Name:      name,
		Signature: e.ExtractFunctionSignature(fn, content),
		StartLine: r.Start.Line,
		EndLine:   r.End.Line,
		Body:      parser.NodeText(fn, content),
	}
}

func (e *PythonExtractor) ExtractFunctionSignature(fn *tree_sitter.Node, content []byte) string {
	if fn == nil {
		return ""
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

func (e *PythonExtractor) ExtractClassContext(cls *tree_sitter.Node, content []byte) *types.ClassContext {
	if cls == nil {
		return nil
	}
	name := anonymousName
	if n := cls.ChildByFieldName("name"); n != nil {
		name = nameOrAnonymous(parser.NodeText(n, content))
	}
	r := parser.NodeRange(cls)
	return &types.ClassContext{Name: name, Kind: "class", StartLine: r.Start.Line, EndLine: r.End.Line}
}

func (e *PythonExtractor) ExtractImports(root *tree_sitter.Node, content []byte) []types.Import {
	var out []types.Import
	for _, kind := range []string{"import_statement", "import_from_statement"} {
		for _, n := range parser.FindDescendantsByType(root, kind, nil) {
			r := parser.NodeRange(n)
			imp := types.Import{Source: strings.TrimSpace(parser.NodeText(n, content)), Line: r.Start.Line}
			if kind == "import_from_statement" {
				if modNode := n.ChildByFieldName("module_name"); modNode != nil {
					imp.Source = parser.NodeText(modNode, content)
				}
			} else if names := parser.FindDescendantsByType(n, "dotted_name", nil); len(names) > 0 {
				imp.Source = parser.NodeText(names[0], content)
			}
			for _, id := range parser.FindDescendantsByType(n, "dotted_name", nil) {
				imp.Names = append(imp.Names, parser.NodeText(id, content))
			}
			out = append(out, imp)
		}
	}
	return out
}

// typeHeuristicMarkers is spec.md §4.B's heuristic marker set for Python
// "type definitions": assignments whose RHS mentions one of these.
var typeHeuristicMarkers = []string{"TypedDict", "NamedTuple", "Union[", "Optional[", "List[", "Dict["}

func (e *PythonExtractor) ExtractTypeDefinitions(root *tree_sitter.Node, content []byte) []types.TypeDefinition {
	var out []types.TypeDefinition
	for _, n := range parser.FindDescendantsByType(root, "assignment", nil) {
		right := n.ChildByFieldName("right")
		if right == nil {
			continue
		}
		text := parser.NodeText(right, content)
		matched := false
		for _, marker := range typeHeuristicMarkers {
			if strings.Contains(text, marker) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		left := n.ChildByFieldName("left")
		name := anonymousName
		if left != nil {
			name = nameOrAnonymous(parser.NodeText(left, content))
		}
		r := parser.NodeRange(n)
		out = append(out, types.TypeDefinition{
			Name: name, Kind: "heuristic_type", StartLine: r.Start.Line, EndLine: r.End.Line,
			Definition: parser.NodeText(n, content),
		})
	}
	return out
}

func (e *PythonExtractor) IsScopeBoundary(n *tree_sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "function_definition", "class_definition", "block", "lambda",
		"list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return true
	}
	return false
}

func (e *PythonExtractor) ExtractLocalVariables(at *tree_sitter.Node, content []byte, beforeLine uint32) []types.LocalVariable {
	scope := nearestAncestor(at, false, e.IsScopeBoundary)
	if scope == nil {
		return nil
	}
	var out []types.LocalVariable
	for _, n := range parser.FindDescendantsByType(scope, "assignment", func(b *tree_sitter.Node) bool {
		return b != scope && e.IsScopeBoundary(b)
	}) {
		r := parser.NodeRange(n)
		if r.Start.Line > beforeLine {
			continue
		}
		left := n.ChildByFieldName("left")
		if left == nil || left.Kind() != "identifier" {
			continue
		}
		v := types.LocalVariable{Name: nameOrAnonymous(parser.NodeText(left, content)), Line: r.Start.Line}
		if typeNode := n.ChildByFieldName("type"); typeNode != nil {
			v.TypeAnnotation = parser.NodeText(typeNode, content)
		}
		if valueNode := n.ChildByFieldName("right"); valueNode != nil {
			v.Initializer = parser.NodeText(valueNode, content)
		}
		out = append(out, v)
	}
	return out
}

func (e *PythonExtractor) ExtractFunctionCalls(fn *tree_sitter.Node, content []byte) []string {
	return collectCallNames(fn, content, "call",
		func(n *tree_sitter.Node) *tree_sitter.Node { return n.ChildByFieldName("function") },
		func(n *tree_sitter.Node) bool { return n.Kind() == "function_definition" || n.Kind() == "lambda" })
}

var pythonBuiltinTypes = map[string]struct{}{
	"int": {}, "float": {}, "str": {}, "bool": {}, "bytes": {}, "list": {}, "dict": {},
	"set": {}, "tuple": {}, "frozenset": {}, "complex": {}, "None": {}, "object": {},
}

func (e *PythonExtractor) IsBuiltinType(name string) bool {
	_, ok := pythonBuiltinTypes[name]
	return ok
}

// IsExportedPythonName implements spec.md §4.B's export heuristic:
// non-underscore-prefixed top-level defs, or uppercased module-level
// assignments (conventional constants), count as exported.
func IsExportedPythonName(name string) bool {
	if name == "" {
		return false
	}
	if !strings.HasPrefix(name, "_") {
		return true
	}
	return name == strings.ToUpper(name)
}
