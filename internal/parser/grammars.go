package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// newGrammarParser builds a fresh *tree_sitter.Parser bound to lang's
// grammar. tsx selects the TSX grammar variant when the extension is .tsx
// or .jsx. Per spec.md §4.A, JavaScript is parsed with the TypeScript
// grammar rather than a dedicated JS grammar (the TS grammar is a
// strict superset), so LanguageJavaScript shares this switch's TypeScript
// case. Grounded on internal/parser/parser_language_setup.go's
// per-language setup functions in the teacher, adapted for this spec's
// explicit grammar-sharing directive.
func newGrammarParser(lang Language, tsx bool) (*tree_sitter.Parser, error) {
	var raw *tree_sitter.Language
	switch lang {
	case LanguageTypeScript, LanguageJavaScript:
		if tsx {
			raw = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		} else {
			raw = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		}
	case LanguageRust:
		raw = tree_sitter.NewLanguage(tree_sitter_rust.Language())
	case LanguagePython:
		raw = tree_sitter.NewLanguage(tree_sitter_python.Language())
	default:
		return nil, errUnsupportedLanguage(lang)
	}

	p := tree_sitter.NewParser()
	if err := p.SetLanguage(raw); err != nil {
		return nil, err
	}
	return p, nil
}
