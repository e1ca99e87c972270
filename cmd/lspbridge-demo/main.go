// Command lspbridge-demo wires the core engine's pieces together end to
// end on a small set of files: it ranks semantic context for a synthetic
// diagnostic per file through the Incremental Processor, then offers to
// apply a quick fix if one is supplied. It exists to exercise the
// library surface, not as the project's user-facing interface (CLI
// surface is out of scope, see SPEC_FULL.md §1 non-goals).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/incremental"
	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/quickfix"
	"github.com/lspbridge/lspbridge/internal/types"
)

func main() {
	message := flag.String("message", "example diagnostic", "message to attach to the synthetic diagnostic")
	fixText := flag.String("fix", "", "if set, apply this text as a quick fix at line 0 of the first file")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: lspbridge-demo [-message=...] [-fix=...] <file> [file...]")
		os.Exit(1)
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	pool := parser.NewPool()
	proc := incremental.New(pool, cfg)

	ctx := context.Background()
	diagnostics := make([]types.Diagnostic, len(files))
	for i, f := range files {
		diagnostics[i] = types.Diagnostic{
			File:    f,
			Message: *message,
			Range:   types.Range{Start: types.Position{Line: 0, Character: 0}},
		}
	}

	results, err := proc.ProcessDiagnosticsStream(ctx, diagnostics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "processing failed: %v\n", err)
		os.Exit(1)
	}

	for _, r := range results {
		fmt.Printf("%s: success=%v tokens_used=%d relevance=%.2f\n",
			r.Diagnostic.File, r.Success, r.RankedContext.Budget.TokensUsed, r.SemanticContext.RelevanceScore)
	}

	if *fixText == "" {
		return
	}

	engine := quickfix.NewFixEngine(cfg.QuickFix)
	scorer := quickfix.NewConfidenceScorer(cfg.QuickFix.Threshold)

	edit := quickfix.CreateFixFromDiagnostic(diagnostics[0], *fixText)
	score, _ := scorer.ScoreFix(diagnostics[0], *fixText, false)
	fmt.Printf("fix confidence: %.2f\n", score)

	if !quickfix.IsSuggestable(score, cfg.QuickFix.Threshold) {
		fmt.Println("confidence below suggest threshold, not applying")
		return
	}

	result, err := engine.ApplyFix(edit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apply fix failed: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		fmt.Fprintf(os.Stderr, "fix rejected: %s\n", result.Error)
		os.Exit(1)
	}
	fmt.Printf("applied fix to %v\n", result.ModifiedFiles)
}
