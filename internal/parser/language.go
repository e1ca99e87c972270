package parser

import (
	"path/filepath"
	"strings"
)

// Language is one of the grammars the Parser Pool owns (spec.md §4.A).
type Language string

const (
	LanguageTypeScript Language = "typescript"
	LanguageJavaScript Language = "javascript"
	LanguageRust       Language = "rust"
	LanguagePython     Language = "python"
	LanguageUnknown    Language = "unknown"
)

// LanguageFromPath detects a language from a file extension, per spec.md
// §4.A: ".ts|.tsx -> TypeScript, .js|.jsx -> JavaScript (TS grammar), .rs ->
// Rust, .py -> Python, anything else -> Unknown".
func LanguageFromPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return LanguageTypeScript
	case ".js", ".jsx":
		return LanguageJavaScript
	case ".rs":
		return LanguageRust
	case ".py":
		return LanguagePython
	default:
		return LanguageUnknown
	}
}

// isTSX reports whether path should be parsed with the TSX grammar variant
// rather than plain TypeScript/JavaScript. JSX files need it exactly as much
// as TSX files do, since both embed JSX element syntax the plain grammar
// rejects.
func isTSX(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx":
		return true
	}
	return false
}
