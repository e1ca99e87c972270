package grouper

import (
	"regexp"
	"strings"

	"github.com/lspbridge/lspbridge/internal/types"
)

// quotedIdentifierPattern extracts backtick/quote-delimited identifiers
// from a diagnostic message, the same rule the Dependency Analyzer applies
// (spec.md §4.D), used here to find "shared symbols" between two messages.
var quotedIdentifierPattern = regexp.MustCompile("[`'\"]([A-Za-z_][A-Za-z0-9_]*)[`'\"]")

func quotedIdentifiers(message string) map[string]struct{} {
	matches := quotedIdentifierPattern.FindAllStringSubmatch(message, -1)
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m[1]] = struct{}{}
	}
	return set
}

func sharesAny(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func lowerContainsAny(message string, terms ...string) bool {
	lower := strings.ToLower(message)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// pattern is one of spec.md §4.F's seven grouping predicates, checked in
// the table's listed order; the first pattern whose Match returns true
// binds a candidate diagnostic into the primary's group at that
// confidence.
type pattern struct {
	name       string
	confidence float32
	match      func(primary, candidate types.Diagnostic) bool
}

// patterns is spec.md §4.F's grouping-pattern table, in the order it's
// listed (the grouping algorithm tries them in this order per candidate
// pair).
var patterns = []pattern{
	{
		name:       "same_symbol",
		confidence: 0.8,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File {
				return false
			}
			return sharesAny(quotedIdentifiers(p.Message), quotedIdentifiers(c.Message))
		},
	},
	{
		name:       "cascading_type_errors",
		confidence: 0.7,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File || p.Severity != types.SeverityError || c.Severity != types.SeverityError {
				return false
			}
			return lowerContainsAny(p.Message, "type") && lowerContainsAny(c.Message, "type")
		},
	},
	{
		name:       "import_errors",
		confidence: 0.9,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File {
				return false
			}
			mentions := func(m string) bool {
				return lowerContainsAny(m, "import", "module", "cannot find")
			}
			if !mentions(p.Message) || !mentions(c.Message) {
				return false
			}
			return sharesAny(quotedIdentifiers(p.Message), quotedIdentifiers(c.Message))
		},
	},
	{
		name:       "undefined_variable",
		confidence: 0.95,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File {
				return false
			}
			mentions := func(m string) bool {
				return lowerContainsAny(m, "undefined", "undeclared", "cannot find value")
			}
			if !mentions(p.Message) || !mentions(c.Message) {
				return false
			}
			return sharesAny(quotedIdentifiers(p.Message), quotedIdentifiers(c.Message))
		},
	},
	{
		name:       "same_line_range",
		confidence: 0.6,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File || p.Range.Start.Line != c.Range.Start.Line {
				return false
			}
			delta := int64(p.Range.Start.Character) - int64(c.Range.Start.Character)
			if delta < 0 {
				delta = -delta
			}
			return delta < 10
		},
	},
	{
		name:       "initialization",
		confidence: 0.85,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File {
				return false
			}
			pairs := [][2]string{
				{"initialized", "assigned"},
				{"assigned", "used"},
				{"initializer", "before"},
			}
			for _, pair := range pairs {
				if (lowerContainsAny(p.Message, pair[0]) && lowerContainsAny(c.Message, pair[1])) ||
					(lowerContainsAny(p.Message, pair[1]) && lowerContainsAny(c.Message, pair[0])) {
					return true
				}
			}
			return false
		},
	},
	{
		name:       "borrow_checker_cascade",
		confidence: 0.75,
		match: func(p, c types.Diagnostic) bool {
			if p.File != c.File {
				return false
			}
			if !strings.Contains(strings.ToLower(p.Source), "rust") && !strings.Contains(strings.ToLower(c.Source), "rust") {
				return false
			}
			terms := []string{"borrow", "moved", "lifetime"}
			pHas, cHas := false, false
			for _, term := range terms {
				if lowerContainsAny(p.Message, term) {
					pHas = true
				}
				if lowerContainsAny(c.Message, term) {
					cHas = true
				}
			}
			return pHas && cHas
		},
	},
}
