package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// RustExtractor implements the Language Extractors capability set for Rust
// (spec.md §4.B).
type RustExtractor struct{}

func NewRustExtractor() *RustExtractor { return &RustExtractor{} }

func (e *RustExtractor) Language() parser.Language { return parser.LanguageRust }

func (e *RustExtractor) FindEnclosingFunction(at *tree_sitter.Node, _ []byte) *tree_sitter.Node {
	return nearestAncestor(at, true, func(n *tree_sitter.Node) bool {
		return n.Kind() == "function_item"
	})
}

func (e *RustExtractor) FindEnclosingClass(at *tree_sitter.Node) *tree_sitter.Node {
	return nearestAncestor(at, true, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "struct_item", "impl_item":
			return true
		}
		return false
	})
}

func (e *RustExtractor) ExtractFunctionContext(fn *tree_sitter.Node, content []byte) *types.FunctionContext {
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

func (e *RustExtractor) ExtractFunctionSignature(fn *tree_sitter.Node, content []byte) string {
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

// classKind distinguishes struct_item from impl_item, since spec.md §4.B
// says "enclosing class: struct_item or impl_item (kind distinguishes)".
func classKind(cls *tree_sitter.Node) string {
	if cls == nil {
		return ""
	}
	return cls.Kind()
}

func (e *RustExtractor) ExtractClassContext(cls *tree_sitter.Node, content []byte) *types.ClassContext {
	if cls == nil {
		return nil
	}
	name := anonymousName
	kind := classKind(cls)
	switch kind {
	case "struct_item":
		if n := cls.ChildByFieldName("name"); n != nil {
			name = nameOrAnonymous(parser.NodeText(n, content))
		}
	case "impl_item":
		if n := cls.ChildByFieldName("type"); n != nil {
			name = "impl " + parser.NodeText(n, content)
		}
	}
	r := parser.NodeRange(cls)
	return &types.ClassContext{
		Name:      name,
		Kind:      kind,
		StartLine: r.Start.Line,
		EndLine:   r.End.Line,
	}
}

func (e *RustExtractor) ExtractImports(root *tree_sitter.Node, content []byte) []types.Import {
	var out []types.Import
	for _, n := range parser.FindDescendantsByType(root, "use_declaration", nil) {
		r := parser.NodeRange(n)
		imp := types.Import{Source: strings.TrimSpace(parser.NodeText(n, content)), Line: r.Start.Line}
		if arg := n.ChildByFieldName("argument"); arg != nil {
			imp.Source = strings.TrimSpace(parser.NodeText(arg, content))
		}
		for _, id := range parser.FindDescendantsByType(n, "identifier", nil) {
			imp.Names = append(imp.Names, parser.NodeText(id, content))
		}
		for _, id := range parser.FindDescendantsByType(n, "type_identifier", nil) {
			imp.Names = append(imp.Names, parser.NodeText(id, content))
		}
		out = append(out, imp)
	}
	return out
}

func (e *RustExtractor) ExtractTypeDefinitions(root *tree_sitter.Node, content []byte) []types.TypeDefinition {
	var out []types.TypeDefinition
	for _, kind := range []string{"type_item", "struct_item", "enum_item"} {
		for _, n := range parser.FindDescendantsByType(root, kind, nil) {
			r := parser.NodeRange(n)
			name := anonymousName
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name = nameOrAnonymous(parser.NodeText(nameNode, content))
			}
			out = append(out, types.TypeDefinition{
				Name: name, Kind: kind, StartLine: r.Start.Line, EndLine: r.End.Line,
				Definition: parser.NodeText(n, content),
			})
		}
	}
	return out
}

func (e *RustExtractor) IsScopeBoundary(n *tree_sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "function_item", "closure_expression", "block", "impl_item", "trait_item":
		return true
	}
	return false
}

func (e *RustExtractor) ExtractLocalVariables(at *tree_sitter.Node, content []byte, beforeLine uint32) []types.LocalVariable {
	scope := nearestAncestor(at, false, e.IsScopeBoundary)
	if scope == nil {
		return nil
	}
	var out []types.LocalVariable
	for _, n := range parser.FindDescendantsByType(scope, "let_declaration", func(b *tree_sitter.Node) bool {
		return b != scope && e.IsScopeBoundary(b)
	}) {
		r := parser.NodeRange(n)
		if r.Start.Line > beforeLine {
			continue
		}
		name := anonymousName
		if pat := n.ChildByFieldName("pattern"); pat != nil {
			name = nameOrAnonymous(parser.NodeText(pat, content))
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

func (e *RustExtractor) ExtractFunctionCalls(fn *tree_sitter.Node, content []byte) []string {
	return collectCallNames(fn, content, "call_expression",
		func(n *tree_sitter.Node) *tree_sitter.Node { return n.ChildByFieldName("function") },
		func(n *tree_sitter.Node) bool { return n.Kind() == "function_item" || n.Kind() == "closure_expression" })
}

// rustBuiltinTypes is spec.md §4.B's Rust builtin-type set: primitives plus
// the listed std types.
var rustBuiltinTypes = map[string]struct{}{
	"i8": {}, "i16": {}, "i32": {}, "i64": {}, "i128": {}, "isize": {},
	"u8": {}, "u16": {}, "u32": {}, "u64": {}, "u128": {}, "usize": {},
	"f32": {}, "f64": {}, "bool": {}, "char": {}, "str": {},
	"String": {}, "Vec": {}, "HashMap": {}, "Option": {}, "Result": {},
	"Box": {}, "Arc": {}, "Rc": {}, "RefCell": {}, "Mutex": {}, "RwLock": {}, "HashSet": {},
}

func (e *RustExtractor) IsBuiltinType(name string) bool {
	_, ok := rustBuiltinTypes[name]
	return ok
}
