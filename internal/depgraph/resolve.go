package depgraph

import (
	"os"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// tsResolveExtensions is the extension search order spec.md §4.D names for
// TypeScript/JavaScript relative import resolution.
var tsResolveExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// resolveImports resolves each raw import's specifier to an absolute file
// path where possible (spec.md §4.D's per-language path resolution),
// leaving Source as the original specifier when resolution fails
// (non-relative/external imports resolve to no path).
func resolveImports(currentFile string, lang parser.Language, raw []types.Import) []types.Import {
	out := make([]types.Import, 0, len(raw))
	for _, imp := range raw {
		resolved := imp
		switch lang {
		case parser.LanguageTypeScript, parser.LanguageJavaScript:
			if path, ok := resolveTSImportPath(currentFile, imp.Source); ok {
				resolved.Source = path
			}
		case parser.LanguageRust:
			if path, ok := resolveRustModulePath(currentFile, imp.Source); ok {
				resolved.Source = path
			}
		case parser.LanguagePython:
			if path, ok := resolvePythonModulePath(currentFile, imp.Source); ok {
				resolved.Source = path
			}
		}
		out = append(out, resolved)
	}
	return out
}

// resolveTSImportPath resolves a relative TypeScript/JavaScript import
// specifier to an on-disk file, trying each extension in
// tsResolveExtensions, then falling back to an index.* file inside the
// specifier as a directory. Non-relative specifiers (package imports)
// never resolve, per spec.md §4.D.
func resolveTSImportPath(currentFile, importPath string) (string, bool) {
	if !strings.HasPrefix(importPath, "./") && !strings.HasPrefix(importPath, "../") {
		return "", false
	}
	dir := filepath.Dir(currentFile)
	base := filepath.Join(dir, importPath)

	if path, ok := tryExtensions(base, tsResolveExtensions); ok {
		return path, true
	}
	indexBase := filepath.Join(base, "index")
	return tryExtensions(indexBase, tsResolveExtensions)
}

func tryExtensions(base string, extensions []string) (string, bool) {
	withoutExt := strings.TrimSuffix(base, filepath.Ext(base))
	for _, ext := range extensions {
		candidate := withoutExt + ext
		if fileExists(candidate) {
			return candidate, true
		}
	}
	// base itself may already carry one of the accepted extensions.
	if fileExists(base) {
		return base, true
	}
	return "", false
}

// resolveRustModulePath converts a `::`-delimited Rust module path to a
// `.rs` file relative to currentFile's directory, falling back to
// `<path>/mod.rs` (spec.md §4.D).
func resolveRustModulePath(currentFile, modulePath string) (string, bool) {
	dir := filepath.Dir(currentFile)
	relPath := strings.ReplaceAll(modulePath, "::", "/")

	rsPath := filepath.Join(dir, relPath+".rs")
	if fileExists(rsPath) {
		return rsPath, true
	}
	modPath := filepath.Join(dir, relPath, "mod.rs")
	if fileExists(modPath) {
		return modPath, true
	}
	return "", false
}

// resolvePythonModulePath converts a `.`-delimited Python module path to a
// `.py` file relative to currentFile's directory, falling back to
// `<path>/__init__.py` (spec.md §4.D).
func resolvePythonModulePath(currentFile, moduleName string) (string, bool) {
	dir := filepath.Dir(currentFile)
	relPath := strings.ReplaceAll(moduleName, ".", "/")

	pyPath := filepath.Join(dir, relPath+".py")
	if fileExists(pyPath) {
		return pyPath, true
	}
	initPath := filepath.Join(dir, relPath, "__init__.py")
	if fileExists(initPath) {
		return initPath, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// callNodeTypeFor is the call-expression node kind per language, matching
// the choices internal/extract's extractors already make.
func callNodeTypeFor(lang parser.Language) string {
	switch lang {
	case parser.LanguagePython:
		return "call"
	default:
		return "call_expression"
	}
}

// collectFileLevelCalls returns the callee names of every call expression
// in the file (not scoped to one function), approximating the original's
// "external function calls" file fact. Grounded on
// internal/extract/extractor.go's collectCallNames helper, generalized to
// the whole file rather than one enclosing function.
func collectFileLevelCalls(lang parser.Language, root *tree_sitter.Node, content []byte) []string {
	if root == nil {
		return nil
	}
	callType := callNodeTypeFor(lang)
	var names []string
	seen := map[string]struct{}{}
	for _, n := range parser.FindDescendantsByType(root, callType, nil) {
		callee := n.ChildByFieldName("function")
		if callee == nil {
			continue
		}
		name := parser.NodeText(callee, content)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
