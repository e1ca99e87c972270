// Package grouper implements the Diagnostic Grouper (spec.md §4.F):
// deduplicates diagnostics, then clusters cascading diagnostics into
// groups via a fixed set of pattern predicates. Grounded on
// original_source/src/core/diagnostics (the grouping-pattern table) and
// types.Dedupe's identity rule, which this package shares verbatim.
package grouper

import (
	"sort"

	"github.com/lspbridge/lspbridge/internal/types"
)

// Group implements spec.md §4.F end to end: dedupe, sort by
// (file, line, severity), then forward-scan grouping. Every input
// diagnostic (post-dedup) appears as exactly one group's primary or in
// exactly one group's Related (spec.md §8 invariant 8, "grouping is
// exhaustive").
func Group(diagnostics []types.Diagnostic) []types.DiagnosticGroup {
	deduped := types.Dedupe(diagnostics)

	sorted := make([]types.Diagnostic, len(deduped))
	copy(sorted, deduped)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		return a.Severity < b.Severity
	})

	processed := make([]bool, len(sorted))
	var groups []types.DiagnosticGroup

	for i := range sorted {
		if processed[i] {
			continue
		}
		processed[i] = true
		group := types.DiagnosticGroup{Primary: sorted[i], Confidence: 1.0}

		for j := i + 1; j < len(sorted); j++ {
			if processed[j] {
				continue
			}
			if p, matched := matchPattern(sorted[i], sorted[j]); matched {
				processed[j] = true
				group.Related = append(group.Related, sorted[j])
				if p.confidence < group.Confidence {
					group.Confidence = p.confidence
				}
			}
		}
		if len(group.Related) == 0 {
			group.Confidence = 1.0
		}
		groups = append(groups, group)
	}

	return groups
}

// matchPattern returns the first pattern (in spec.md §4.F's listed order)
// that matches the (primary, candidate) pair, or ok=false if none do.
func matchPattern(primary, candidate types.Diagnostic) (pattern, bool) {
	for _, p := range patterns {
		if p.match(primary, candidate) {
			return p, true
		}
	}
	return pattern{}, false
}
