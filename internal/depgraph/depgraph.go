// Package depgraph implements the Dependency Analyzer (spec.md §4.D):
// per-file import/export/type-reference extraction plus the forward and
// reverse dependency maps built from it. Grounded on
// original_source/src/core/dependency_analyzer.rs (the Rust original this
// spec was distilled from) and the teacher's
// internal/analysis/dependency_tracker.go for the Go idiom (mutex-guarded
// maps, mtime-based cache invalidation).
package depgraph

import (
	"os"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/lspbridge/lspbridge/internal/extract"
	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/types"
)

// Graph is the result of BuildGraph: forward dependency facts per file plus
// the reverse (dependents) index derived from them.
type Graph struct {
	Forward map[string]types.FileDependencies
	Reverse map[string]map[string]struct{}
}

// Analyzer builds and caches per-file dependency facts. Safe for concurrent
// use; cache lookups and writes are serialized by mu.
type Analyzer struct {
	pool *parser.Pool

	mu          sync.Mutex
	cache       map[string]types.FileDependencies
	fingerprint map[string]uint64
}

// New constructs an Analyzer backed by pool.
func New(pool *parser.Pool) *Analyzer {
	return &Analyzer{
		pool:        pool,
		cache:       make(map[string]types.FileDependencies),
		fingerprint: make(map[string]uint64),
	}
}

// BuildGraph parses each file once, populating both the forward and
// reverse dependency maps (spec.md §4.D). Files that fail to parse or read
// are skipped, not fatal to the whole build.
func (a *Analyzer) BuildGraph(files []string) (*Graph, error) {
	g := &Graph{
		Forward: make(map[string]types.FileDependencies, len(files)),
		Reverse: make(map[string]map[string]struct{}),
	}
	for _, file := range files {
		deps, err := a.analyzeFileDependencies(file)
		if err != nil {
			continue
		}
		g.Forward[file] = deps
		for _, imp := range deps.Imports {
			if imp.Source == "" || !fileExists(imp.Source) {
				continue
			}
			if g.Reverse[imp.Source] == nil {
				g.Reverse[imp.Source] = make(map[string]struct{})
			}
			g.Reverse[imp.Source][file] = struct{}{}
		}
	}
	return g, nil
}

// FilterFiles returns the subset of files that do NOT match any of
// excludeGlobs (doublestar patterns), e.g. test-file or vendor exclusion
// before a dependency build.
func FilterFiles(files []string, excludeGlobs []string) []string {
	if len(excludeGlobs) == 0 {
		return files
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		excluded := false
		for _, pattern := range excludeGlobs {
			if ok, _ := doublestar.Match(pattern, f); ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, f)
		}
	}
	return out
}

// IsTypesPackagePath reports whether path looks like a TypeScript
// ambient-types package path (the `@types/` convention), mirroring the
// Semantic Context Engine's TypeOnly heuristic (spec.md §4.C step 6) for
// use by the Dependency Analyzer's own type-only classification.
func IsTypesPackagePath(path string) bool {
	ok, _ := doublestar.Match("**/@types/**", path)
	return ok
}

// analyzeFileDependencies returns (reading from cache when the file's
// mtime has not advanced) the dependency facts for file.
func (a *Analyzer) analyzeFileDependencies(file string) (types.FileDependencies, error) {
	info, err := os.Stat(file)
	if err != nil {
		return types.FileDependencies{}, err
	}

	a.mu.Lock()
	if cached, ok := a.cache[file]; ok && !info.ModTime().After(cached.LastModified) {
		fp := a.fingerprint[file]
		a.mu.Unlock()
		if fp == fingerprintOf(info) {
			return cached, nil
		}
	} else {
		a.mu.Unlock()
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return types.FileDependencies{}, err
	}

	lang := parser.LanguageFromPath(file)
	deps := types.FileDependencies{File: file, LastModified: info.ModTime()}

	if lang != parser.LanguageUnknown {
		if tree, ok := a.pool.Parse(file, content, nil); ok {
			if root := tree.RootNode(); root != nil {
				if extractor := extract.ForLanguage(lang); extractor != nil {
					rawImports := extractor.ExtractImports(root, content)
					deps.Imports = resolveImports(file, lang, rawImports)

					typeDefs := extractor.ExtractTypeDefinitions(root, content)
					for _, td := range typeDefs {
						deps.TypeRefs = append(deps.TypeRefs, td.Name)
						deps.Exports = append(deps.Exports, td.Name)
					}
					deps.ExternalCalls = collectFileLevelCalls(lang, root, content)
				}
			}
		}
	}

	a.mu.Lock()
	a.cache[file] = deps
	a.fingerprint[file] = fingerprintOf(info)
	a.mu.Unlock()

	return deps, nil
}

// fingerprintOf combines file size and mtime into a fast hash, a stronger
// invalidation signal than mtime alone (a rewrite landing within the same
// mtime tick but changing length still invalidates).
func fingerprintOf(info os.FileInfo) uint64 {
	h := xxhash.New()
	var buf [16]byte
	modNano := info.ModTime().UnixNano()
	for i := 0; i < 8; i++ {
		buf[i] = byte(modNano >> (8 * i))
	}
	size := info.Size()
	for i := 0; i < 8; i++ {
		buf[8+i] = byte(size >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
