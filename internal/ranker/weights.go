// Package ranker implements the Context Ranker (spec.md §4.E): it scores
// each candidate piece of semantic context for relevance to a diagnostic,
// estimates its token cost, and selects an optimal subset under a token
// budget via three-pass greedy selection. Grounded on the teacher's
// internal/semantic (fuzzy name matching) combined with
// original_source/src/core/context_ranking for the scoring/budget
// algorithm itself.
package ranker

// PriorityConfig holds the per-kind base weights spec.md §4.E names.
type PriorityConfig struct {
	Function float32
	Class    float32
	Type     float32
	Import   float32
	Variable float32
	Call     float32
	Dependency float32
}

// DefaultPriorityConfig returns spec.md §4.E's literal base weights.
func DefaultPriorityConfig() PriorityConfig {
	return PriorityConfig{
		Function:   1.0,
		Class:      0.8,
		Type:       0.7,
		Import:     0.6,
		Variable:   0.5,
		Call:       0.4,
		Dependency: 0.3,
	}
}

// TokenWeights holds the per-kind token-estimation constants spec.md §4.E
// names.
type TokenWeights struct {
	TokensPerLine float64
	FunctionBase  float64
	ClassBase     float64
	TypeDef       float64
	Dependency    float64
	Call          float64
	Import        float64
	Variable      float64
}

// DefaultTokenWeights returns spec.md §4.E's literal token-estimation
// constants.
func DefaultTokenWeights() TokenWeights {
	return TokenWeights{
		TokensPerLine: 4.0,
		FunctionBase:  50,
		ClassBase:     30,
		TypeDef:       25,
		Dependency:    20,
		Call:          15,
		Import:        10,
		Variable:      5,
	}
}

// Boost multipliers, spec.md §4.E's boost table.
const (
	boostNameMatchFunction   = 1.4
	boostNameMatchClass      = 1.4
	boostNameMatchImport     = 1.3
	boostNameMatchType       = 1.8
	boostNameMatchVariable   = 1.4
	boostNameMatchCalledFn   = 1.3
	boostNameMatchDependency = 1.4
	boostDiagnosticInFunction = 1.3
	boostClassMessageMentionsType = 1.2
	boostTypeMessageMentionsType  = 1.3
	boostVariableNearDiagnostic   = 1.2
	boostCallHierarchyBusy        = 1.2

	// nearLineThreshold is spec.md's "|diagnostic_line - variable_line| <= 3".
	nearLineThreshold = 3
	// busyCallThreshold is spec.md's ">3 callees" call-hierarchy boost gate.
	busyCallThreshold = 3
)
