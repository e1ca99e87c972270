package ranker

import (
	"fmt"
	"strings"

	"github.com/lspbridge/lspbridge/internal/types"
)

// Format renders ranked as the Markdown document spec.md §4.E's output
// formatting names: "Essential Context", "Additional Context", and
// "Context Summary" sections.
func Format(ranked types.RankedContext) string {
	var b strings.Builder

	b.WriteString("# Essential Context\n\n")
	for _, el := range ranked.Budget.Essential {
		writeElement(&b, el)
	}

	b.WriteString("# Additional Context\n\n")
	for _, el := range ranked.Budget.Supplementary {
		writeElement(&b, el)
	}

	b.WriteString("# Context Summary\n\n")
	fmt.Fprintf(&b, "- Tokens used: %d / %d\n", ranked.Budget.TokensUsed, ranked.Budget.TokensUsed+ranked.Budget.TokensRemaining)
	fmt.Fprintf(&b, "- Essential elements: %d\n", len(ranked.Budget.Essential))
	fmt.Fprintf(&b, "- Additional elements: %d\n", len(ranked.Budget.Supplementary))
	fmt.Fprintf(&b, "- Excluded elements: %d\n", len(ranked.Budget.Excluded))

	return b.String()
}

func writeElement(b *strings.Builder, el types.ContextElement) {
	name := el.Content.Name()
	if name == "" {
		name = "<anonymous>"
	}
	fmt.Fprintf(b, "## %s: %s\n\n", el.Kind.String(), name)
	fmt.Fprintf(b, "%s\n\n", el.RelevanceExplanation)

	if code := codeBlockFor(el); code != "" {
		fmt.Fprintf(b, "```\n%s\n```\n\n", code)
	}
}

// codeBlockFor returns the verbatim source for elements that carry one
// (functions, types), or "" for elements that don't (imports, variables
// referenced by name only, call hierarchy, dependency facts).
func codeBlockFor(el types.ContextElement) string {
	switch {
	case el.Content.Function != nil:
		return el.Content.Function.Body
	case el.Content.Type != nil:
		return el.Content.Type.Definition
	default:
		return ""
	}
}
