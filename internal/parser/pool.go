// Package parser implements the Parser Pool (spec.md §4.A): one
// single-threaded, exclusive-access tree-sitter parser per supported
// language, lazily constructed and guarded by a per-language mutex so
// concurrent callers never share a parser mid-parse. Grounded on
// internal/parser/parser.go and parser_language_setup.go in the teacher,
// simplified to the four languages spec.md names.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/logx"
)

func errUnsupportedLanguage(lang Language) error {
	return fmt.Errorf("parser: unsupported language %q", lang)
}

// slot lazily owns one grammar's parser, tsx tracked separately since
// TypeScript has two grammar variants sharing a Language value.
type slot struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
	tsx    *tree_sitter.Parser // TSX variant, TypeScript only
}

// Pool owns one parser per language behind a mutex. Access protocol:
// Parse acquires the language's lock for the duration of the call and
// releases it on return, so two parses of the same language never overlap,
// while different languages parse fully in parallel.
type Pool struct {
	mu    sync.Mutex
	slots map[Language]*slot
}

// NewPool constructs an empty pool; grammars are initialized lazily on
// first use per language.
func NewPool() *Pool {
	return &Pool{slots: make(map[Language]*slot)}
}

func (p *Pool) slotFor(lang Language) *slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.slots[lang]
	if !ok {
		s = &slot{}
		p.slots[lang] = s
	}
	return s
}

// Parse parses source for the file at path using the appropriate grammar,
// reusing a previous tree for incremental reparsing when supplied. A
// malformed grammar input or an internal tree-sitter panic yields (nil,
// false) rather than propagating — callers must treat that as "no AST",
// never crash. Unknown languages also yield (nil, false).
func (p *Pool) Parse(path string, source []byte, previous *tree_sitter.Tree) (tree *tree_sitter.Tree, ok bool) {
	lang := LanguageFromPath(path)
	if lang == LanguageUnknown {
		return nil, false
	}

	s := p.slotFor(lang)
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logx.Component("parser", "tree-sitter panic parsing %s: %v\n", path, r)
			tree, ok = nil, false
		}
	}()

	parser, err := s.parserFor(lang, isTSX(path))
	if err != nil {
		logx.Component("parser", "failed to initialize %s grammar: %v\n", lang, err)
		return nil, false
	}

	// tree-sitter's C layer mutates the input buffer; defensively copy so
	// callers' buffers remain stable across calls (copy-on-parse).
	buf := make([]byte, len(source))
	copy(buf, source)

	t := parser.Parse(buf, previous)
	if t == nil {
		return nil, false
	}
	return t, true
}

// parserFor returns (lazily constructing) the parser for lang, choosing
// the TSX variant when tsx is set. Caller must hold s.mu.
func (s *slot) parserFor(lang Language, tsx bool) (*tree_sitter.Parser, error) {
	if (lang == LanguageTypeScript || lang == LanguageJavaScript) && tsx {
		if s.tsx == nil {
			p, err := newGrammarParser(lang, true)
			if err != nil {
				return nil, err
			}
			s.tsx = p
		}
		return s.tsx, nil
	}
	if s.parser == nil {
		p, err := newGrammarParser(lang, false)
		if err != nil {
			return nil, err
		}
		s.parser = p
	}
	return s.parser, nil
}
