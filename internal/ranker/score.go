package ranker

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/lspbridge/lspbridge/internal/types"
)

// fuzzyNameMatchThreshold is how similar (Jaro-Winkler, 0..1) a name must
// be to some substring of the message to count as a match when a literal
// substring check fails. Grounded on the teacher's
// internal/semantic/fuzzy_matcher.go (whose default threshold is 0.80; this
// one is set stricter, at 0.85), generalized here beyond spec.md's literal
// substring check to tolerate near-miss
// spellings (e.g. pluralization, minor typos) in diagnostic messages.
const fuzzyNameMatchThreshold = 0.85

// nameMatchesMessage implements spec.md §4.E's "element name substring-match
// in diagnostic message" boost condition, generalized with a fuzzy
// fallback: an exact substring match always counts; failing that, each
// whitespace/punctuation-delimited token of the message is compared to name
// via Jaro-Winkler similarity, and a high enough score counts too.
func nameMatchesMessage(name, message string) bool {
	if name == "" || message == "" {
		return false
	}
	if strings.Contains(message, name) {
		return true
	}
	for _, token := range tokenize(message) {
		if len(token) < 3 {
			continue
		}
		score, err := edlib.StringsSimilarity(name, token, edlib.JaroWinkler)
		if err == nil && float64(score) >= fuzzyNameMatchThreshold {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') && r != '_'
	})
}

func messageMentions(message string, terms ...string) bool {
	lower := strings.ToLower(message)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func clamp01(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}

// scoreFunction computes the priority of a function ContextElement.
func scoreFunction(pc PriorityConfig, fn *types.FunctionContext, diagnosticLine uint32, message string) float32 {
	boost := float32(1.0)
	if nameMatchesMessage(fn.Name, message) {
		boost *= boostNameMatchFunction
	}
	if fn.StartLine <= diagnosticLine && diagnosticLine <= fn.EndLine {
		boost *= boostDiagnosticInFunction
	}
	return clamp01(pc.Function * boost)
}

func scoreClass(pc PriorityConfig, cls *types.ClassContext, message string) float32 {
	boost := float32(1.0)
	if nameMatchesMessage(cls.Name, message) {
		boost *= boostNameMatchClass
	}
	if messageMentions(message, "type", "interface", "struct") {
		boost *= boostClassMessageMentionsType
	}
	return clamp01(pc.Class * boost)
}

func scoreImport(pc PriorityConfig, imp types.Import, message string) float32 {
	boost := float32(1.0)
	for _, name := range imp.Names {
		if nameMatchesMessage(name, message) {
			boost *= boostNameMatchImport
			break
		}
	}
	return clamp01(pc.Import * boost)
}

func scoreType(pc PriorityConfig, t types.TypeDefinition, message string) float32 {
	boost := float32(1.0)
	if nameMatchesMessage(t.Name, message) {
		boost *= boostNameMatchType
	}
	if messageMentions(message, "type") {
		boost *= boostTypeMessageMentionsType
	}
	return clamp01(pc.Type * boost)
}

func scoreVariable(pc PriorityConfig, v types.LocalVariable, diagnosticLine uint32, message string) float32 {
	boost := float32(1.0)
	if nameMatchesMessage(v.Name, message) {
		boost *= boostNameMatchVariable
	}
	delta := int64(diagnosticLine) - int64(v.Line)
	if delta < 0 {
		delta = -delta
	}
	if delta <= nearLineThreshold {
		boost *= boostVariableNearDiagnostic
	}
	return clamp01(pc.Variable * boost)
}

func scoreCallHierarchy(pc PriorityConfig, ch types.CallHierarchy, message string) float32 {
	boost := float32(1.0)
	for _, callee := range ch.Callees {
		if nameMatchesMessage(callee, message) {
			boost *= boostNameMatchCalledFn
			break
		}
	}
	if len(ch.Callees) > busyCallThreshold {
		boost *= boostCallHierarchyBusy
	}
	return clamp01(pc.Call * boost)
}

func scoreDependency(pc PriorityConfig, d types.DependencyInfo, message string) float32 {
	boost := float32(1.0)
	for _, sym := range d.ImportedSymbols {
		if nameMatchesMessage(sym, message) {
			boost *= boostNameMatchDependency
			break
		}
	}
	return clamp01(pc.Dependency * boost)
}

// countLines returns the number of newline-delimited lines in s, at least 1
// for non-empty s.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func estimateFunctionTokens(tw TokenWeights, fn *types.FunctionContext) int {
	lines := float64(fn.EndLine-fn.StartLine) + 1
	return int(tw.FunctionBase + lines*tw.TokensPerLine)
}

func estimateClassTokens(tw TokenWeights, cls *types.ClassContext) int {
	lines := float64(cls.EndLine-cls.StartLine) + 1
	return int(tw.ClassBase + lines*tw.TokensPerLine)
}

func estimateTypeTokens(tw TokenWeights, t types.TypeDefinition) int {
	return int(tw.TypeDef + float64(countLines(t.Definition))*tw.TokensPerLine*0.5)
}

func estimateVariableTokens(tw TokenWeights, v types.LocalVariable) int {
	cost := tw.Variable
	if v.TypeAnnotation != "" {
		cost += 3
	}
	initLen := float64(len(v.Initializer)) / 10
	if initLen > 10 {
		initLen = 10
	}
	cost += initLen
	return int(cost)
}

func estimateCallHierarchyTokens(tw TokenWeights, ch types.CallHierarchy) int {
	return int(float64(len(ch.Callees)+len(ch.Callers)) * tw.Call)
}

func estimateDependencyTokens(tw TokenWeights, d types.DependencyInfo) int {
	return int(tw.Dependency + 2*float64(len(d.ImportedSymbols)))
}

func estimateImportTokens(tw TokenWeights) int {
	return int(tw.Import)
}
