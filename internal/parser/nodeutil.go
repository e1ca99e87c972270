package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/types"
)

// NodeText returns the verbatim source slice covered by node.
func NodeText(node *tree_sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(content)) || start > end {
		return ""
	}
	return string(content[start:end])
}

// NodeRange converts a tree-sitter node's span to a types.Range.
func NodeRange(node *tree_sitter.Node) types.Range {
	if node == nil {
		return types.Range{}
	}
	start := node.StartPosition()
	end := node.EndPosition()
	return types.Range{
		Start: types.Position{Line: uint32(start.Row), Character: uint32(start.Column)},
		End:   types.Position{Line: uint32(end.Row), Character: uint32(end.Column)},
	}
}

// FindChildByType returns the first direct child of node whose Kind equals
// nodeType, or nil. Grounded on internal/symbollinker/extractor.go.
func FindChildByType(node *tree_sitter.Node, nodeType string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// FindDescendantsByType collects every descendant of node (node itself
// excluded) whose Kind equals nodeType, stopping descent at boundary node
// types so nested scopes are not double-counted by the caller.
func FindDescendantsByType(node *tree_sitter.Node, nodeType string, boundary func(*tree_sitter.Node) bool) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	var walk func(n *tree_sitter.Node, isRoot bool)
	walk = func(n *tree_sitter.Node, isRoot bool) {
		if n == nil {
			return
		}
		if !isRoot && boundary != nil && boundary(n) {
			return
		}
		if !isRoot && n.Kind() == nodeType {
			out = append(out, n)
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i), false)
		}
	}
	walk(node, true)
	return out
}

// FindNodeAtPosition recursively finds the smallest descendant of node
// whose span contains (targetLine, targetColumn), preferring the narrowest
// enclosing range on ties. Grounded on
// internal/indexing/ast_helper.go:findNodeAtPosition in the teacher,
// generalized to always descend into every matching child rather than
// stopping at the first.
func FindNodeAtPosition(node *tree_sitter.Node, targetLine, targetColumn uint32) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	start := node.StartPosition()
	end := node.EndPosition()

	if uint32(start.Row) > targetLine || uint32(end.Row) < targetLine {
		return nil
	}
	if uint32(start.Row) == targetLine && uint32(start.Column) > targetColumn {
		return nil
	}
	if uint32(end.Row) == targetLine && uint32(end.Column) < targetColumn {
		return nil
	}

	var best *tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if match := FindNodeAtPosition(child, targetLine, targetColumn); match != nil {
			if best == nil || nodeSpan(match) <= nodeSpan(best) {
				best = match
			}
		}
	}
	if best != nil {
		return best
	}
	return node
}

func nodeSpan(n *tree_sitter.Node) uint {
	if n == nil {
		return 0
	}
	return n.EndByte() - n.StartByte()
}
