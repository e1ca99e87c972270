// Package quickfix implements the Quick-Fix Engine (spec.md §4.I):
// confidence-scored fix edits, atomic application with backups, a
// persisted rollback store, and post-fix build/test verification.
// Grounded on original_source/src/quick_fix/{confidence,engine,rollback,
// verification}.rs and the teacher's internal/config Validate()/builder
// idiom.
package quickfix

import (
	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/types"
)

// clamp01 mirrors ConfidenceScore::new's clamp(0.0, 1.0).
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// IsAutoApplicable reports whether score clears t.AutoApply.
func IsAutoApplicable(score float32, t config.QuickFixThresholds) bool {
	return float64(score) >= t.AutoApply
}

// IsSuggestable reports whether score clears t.Suggest.
func IsSuggestable(score float32, t config.QuickFixThresholds) bool {
	return float64(score) >= t.Suggest
}

// ConfidenceFactors are the six inputs to the weighted-average score
// (spec.md §4.I).
type ConfidenceFactors struct {
	PatternRecognition float32
	FixComplexity      float32
	HistoricalSuccess  float32
	SafetyScore        float32
	LanguageConfidence float32
	LSPConfidence      float32
}

// weightedFactor pairs a factor value with its weight in the average.
type weightedFactor struct {
	value  float32
	weight float32
}

func (f ConfidenceFactors) weighted() []weightedFactor {
	return []weightedFactor{
		{f.PatternRecognition, 0.25},
		{f.FixComplexity, 0.15},
		{f.HistoricalSuccess, 0.20},
		{f.SafetyScore, 0.15},
		{f.LanguageConfidence, 0.10},
		{f.LSPConfidence, 0.15},
	}
}

// PatternKey identifies a diagnostic pattern for historical-success
// tracking, richer than a flat string key (SPEC_FULL.md "Supplemented
// features": keyed by (source, code), not code alone).
type PatternKey struct {
	Source string
	Code   string
}

// languageFromFile maps a file extension to spec.md's language identifiers.
func languageFromFile(file string) string {
	switch {
	case hasSuffix(file, ".ts"), hasSuffix(file, ".tsx"):
		return "typescript"
	case hasSuffix(file, ".js"), hasSuffix(file, ".jsx"):
		return "javascript"
	case hasSuffix(file, ".rs"):
		return "rust"
	case hasSuffix(file, ".py"):
		return "python"
	case hasSuffix(file, ".go"):
		return "go"
	default:
		return "unknown"
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// ConfidenceScorer scores fix edits against historical pattern success
// rates and per-language modifiers, seeded with the same TypeScript/Rust
// pattern codes as confidence.rs::FixConfidenceScorer::new.
type ConfidenceScorer struct {
	patternSuccessRates map[PatternKey]float32
	languageModifiers   map[string]float32
	thresholds          config.QuickFixThresholds
}

// NewConfidenceScorer returns a scorer seeded with the default pattern
// table and thresholds.
func NewConfidenceScorer(thresholds config.QuickFixThresholds) *ConfidenceScorer {
	return &ConfidenceScorer{
		patternSuccessRates: map[PatternKey]float32{
			{Source: "typescript", Code: "TS2322"}: 0.85,
			{Source: "typescript", Code: "TS2339"}: 0.75,
			{Source: "typescript", Code: "TS2345"}: 0.80,
			{Source: "typescript", Code: "TS1005"}: 0.95,
			{Source: "rust", Code: "E0308"}:        0.80,
			{Source: "rust", Code: "E0384"}:        0.90,
			{Source: "rust", Code: "E0382"}:        0.70,
			{Source: "rust", Code: "E0596"}:        0.85,
		},
		languageModifiers: map[string]float32{
			"typescript": 0.90,
			"javascript": 0.85,
			"rust":       0.95,
			"python":     0.80,
			"go":         0.85,
		},
		thresholds: thresholds,
	}
}

// ScoreFix implements confidence.rs::score_fix: compute the six factors,
// then their weighted average (spec.md §4.I — a weighted AVERAGE, not a
// bare weighted sum, even though the weights already sum to 1.0).
func (s *ConfidenceScorer) ScoreFix(diagnostic types.Diagnostic, fixText string, hasLSPAction bool) (float32, ConfidenceFactors) {
	factors := s.calculateFactors(diagnostic, fixText, hasLSPAction)
	return clamp01(s.weightedScore(factors)), factors
}

func (s *ConfidenceScorer) calculateFactors(diagnostic types.Diagnostic, fixText string, hasLSPAction bool) ConfidenceFactors {
	patternRecognition := float32(0.3)
	if diagnostic.Code != "" {
		key := PatternKey{Source: diagnostic.Source, Code: diagnostic.Code}
		if rate, ok := s.patternSuccessRates[key]; ok {
			patternRecognition = rate
		} else {
			patternRecognition = 0.5
		}
	}

	var fixComplexity float32
	switch n := len(fixText); {
	case n <= 20:
		fixComplexity = 0.9
	case n <= 50:
		fixComplexity = 0.8
	case n <= 100:
		fixComplexity = 0.6
	case n <= 200:
		fixComplexity = 0.4
	default:
		fixComplexity = 0.2
	}

	// Historical success isn't yet loaded from persistent storage; use
	// the pattern rate, matching confidence.rs's "for now" placeholder.
	historicalSuccess := patternRecognition

	var safetyScore float32
	switch diagnostic.Severity {
	case types.SeverityError:
		safetyScore = 0.7
	case types.SeverityWarning:
		safetyScore = 0.8
	case types.SeverityInformation:
		safetyScore = 0.9
	case types.SeverityHint:
		safetyScore = 0.95
	default:
		safetyScore = 0.7
	}

	language := languageFromFile(diagnostic.File)
	languageConfidence, ok := s.languageModifiers[language]
	if !ok {
		languageConfidence = 0.5
	}

	lspConfidence := float32(0.5)
	if hasLSPAction {
		lspConfidence = 0.95
	}

	return ConfidenceFactors{
		PatternRecognition: patternRecognition,
		FixComplexity:      fixComplexity,
		HistoricalSuccess:  historicalSuccess,
		SafetyScore:        safetyScore,
		LanguageConfidence: languageConfidence,
		LSPConfidence:      lspConfidence,
	}
}

func (s *ConfidenceScorer) weightedScore(factors ConfidenceFactors) float32 {
	var totalWeight, weightedSum float32
	for _, wf := range factors.weighted() {
		totalWeight += wf.weight
		weightedSum += wf.value * wf.weight
	}
	return weightedSum / totalWeight
}

// UpdateSuccessRate applies an exponential moving average (alpha = 0.1)
// to pattern's recorded success rate, per confidence.rs::update_success_rate.
func (s *ConfidenceScorer) UpdateSuccessRate(pattern PatternKey, success bool) {
	const alpha = 0.1
	current, ok := s.patternSuccessRates[pattern]
	if !ok {
		current = 0.5
	}
	if success {
		s.patternSuccessRates[pattern] = current*(1-alpha) + alpha
	} else {
		s.patternSuccessRates[pattern] = current * (1 - alpha)
	}
}
