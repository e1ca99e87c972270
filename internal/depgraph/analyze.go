package depgraph

import (
	"os"
	"regexp"
	"strings"

	"github.com/lspbridge/lspbridge/internal/types"
)

// quotedIdentifierPattern matches backtick- or quote-delimited identifiers
// in a diagnostic message, spec.md §4.D's "regex-matched from
// backtick/quote-delimited identifiers" rule for locating type names a
// diagnostic refers to.
var quotedIdentifierPattern = regexp.MustCompile("[`'\"]([A-Za-z_][A-Za-z0-9_]*)[`'\"]")

// bareIdentifierPattern extracts plain identifiers from a line of source,
// used to approximate which symbols are "used" within a window of lines
// around a diagnostic.
var bareIdentifierPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)

// symbolWindow is the number of lines on either side of a diagnostic's
// range scanned for nearby symbol usage (spec.md §4.D: "±2-line window").
const symbolWindow = 2

// AnalyzeDiagnosticDependencies implements spec.md §4.D's
// analyze_diagnostic_dependencies: the union of (a) direct imports from
// diagnostic.File, (b) files that export type names mentioned in
// diagnostic.Message, and (c) reverse dependents that import a symbol used
// within a ±2-line window around the diagnostic.
func AnalyzeDiagnosticDependencies(diagnostic types.Diagnostic, graph *Graph) []types.DependencyInfo {
	var out []types.DependencyInfo

	fileDeps, hasFileDeps := graph.Forward[diagnostic.File]
	if hasFileDeps {
		for _, imp := range fileDeps.Imports {
			out = append(out, types.DependencyInfo{
				Source:          imp.Source,
				Type:            types.DependencyDirect,
				ImportedSymbols: imp.Names,
			})
		}
	}

	mentionedTypes := extractMentionedTypes(diagnostic.Message)
	if len(mentionedTypes) > 0 {
		for file, deps := range graph.Forward {
			for _, export := range deps.Exports {
				if _, ok := mentionedTypes[export]; ok {
					out = append(out, types.DependencyInfo{
						Source:          file,
						Type:            types.DependencyTypeOnly,
						ImportedSymbols: []string{export},
					})
				}
			}
		}
	}

	if dependents, ok := graph.Reverse[diagnostic.File]; ok && len(dependents) > 0 {
		nearbySymbols := symbolsNearDiagnostic(diagnostic)
		if len(nearbySymbols) > 0 {
			for dependent := range dependents {
				depInfo, ok := graph.Forward[dependent]
				if !ok {
					continue
				}
				var used []string
				for _, imp := range depInfo.Imports {
					if imp.Source != diagnostic.File {
						continue
					}
					for _, name := range imp.Names {
						if _, ok := nearbySymbols[name]; ok {
							used = append(used, name)
						}
					}
				}
				if len(used) > 0 {
					out = append(out, types.DependencyInfo{
						Source:          dependent,
						Type:            types.DependencyDirect,
						ImportedSymbols: used,
					})
				}
			}
		}
	}

	return out
}

// extractMentionedTypes returns the set of backtick/quote-delimited
// identifiers appearing in message.
func extractMentionedTypes(message string) map[string]struct{} {
	matches := quotedIdentifierPattern.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m[1]] = struct{}{}
	}
	return set
}

// symbolsNearDiagnostic reads diagnostic.File from disk and returns the set
// of identifiers appearing within symbolWindow lines of the diagnostic's
// range. A read failure yields an empty set (never fatal to the overall
// analysis).
func symbolsNearDiagnostic(diagnostic types.Diagnostic) map[string]struct{} {
	content, err := os.ReadFile(diagnostic.File)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(content), "\n")

	start := int(diagnostic.Range.Start.Line) - symbolWindow
	if start < 0 {
		start = 0
	}
	end := int(diagnostic.Range.End.Line) + symbolWindow
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return nil
	}

	set := make(map[string]struct{})
	for i := start; i <= end; i++ {
		for _, m := range bareIdentifierPattern.FindAllString(lines[i], -1) {
			set[m] = struct{}{}
		}
	}
	return set
}

// TransitiveDependencies returns every file transitively imported starting
// from file (file itself excluded), guarded against import cycles via a
// visited set. Supplements spec.md §4.D with the transitive walk
// original_source/src/core/dependency_analyzer.rs's callers perform
// informally and internal/analysis/dependency_tracker.go implements
// explicitly in the teacher.
func TransitiveDependencies(graph *Graph, file string) []string {
	visited := map[string]struct{}{file: {}}
	var out []string
	var walk func(string)
	walk = func(f string) {
		deps, ok := graph.Forward[f]
		if !ok {
			return
		}
		for _, imp := range deps.Imports {
			if imp.Source == "" {
				continue
			}
			if _, seen := visited[imp.Source]; seen {
				continue
			}
			visited[imp.Source] = struct{}{}
			out = append(out, imp.Source)
			walk(imp.Source)
		}
	}
	walk(file)
	return out
}

// TransitiveDependents returns every file that transitively depends on
// file (file itself excluded), walking the reverse graph with the same
// cycle guard as TransitiveDependencies.
func TransitiveDependents(graph *Graph, file string) []string {
	visited := map[string]struct{}{file: {}}
	var out []string
	var walk func(string)
	walk = func(f string) {
		dependents, ok := graph.Reverse[f]
		if !ok {
			return
		}
		for dependent := range dependents {
			if _, seen := visited[dependent]; seen {
				continue
			}
			visited[dependent] = struct{}{}
			out = append(out, dependent)
			walk(dependent)
		}
	}
	walk(file)
	return out
}
