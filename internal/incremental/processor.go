// Package incremental implements the Incremental Processor (spec.md §4.H):
// change detection against a diagnostic/AST cache pair, batched dispatch
// to an external diagnostic source, and bounded-concurrency per-diagnostic
// processing with a hard timeout. Grounded on
// original_source/src/core/async_processor.rs's AsyncDiagnosticProcessor
// (semaphore-gated process_diagnostic/process_diagnostics_stream,
// current_load/is_overloaded) and the teacher's bounded-concurrency style
// in internal/analysis/relationship_analyzer.go and
// internal/mcp/integration_test.go, realized here with
// golang.org/x/sync/semaphore and golang.org/x/sync/errgroup rather than a
// hand-rolled channel semaphore.
package incremental

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lspbridge/lspbridge/internal/cache"
	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/errs"
	"github.com/lspbridge/lspbridge/internal/parser"
	"github.com/lspbridge/lspbridge/internal/ranker"
	"github.com/lspbridge/lspbridge/internal/semanticctx"
	"github.com/lspbridge/lspbridge/internal/types"
)

// cachedDiagnostics pairs the cached result with the file mtime it was
// computed against, so DetectChangedFiles can tell a stale entry from a
// fresh one.
type cachedDiagnostics struct {
	diagnostics []types.Diagnostic
	modTime     time.Time
}

// diagnosticEntrySize is a fixed per-entry size estimate for the
// diagnostic cache's byte accounting; the Memory Manager's size budget is
// advisory for this cache (unlike the AST cache, whose entries vary
// enormously in size).
const diagnosticEntrySize = int64(256)

// astEntrySize is likewise a fixed per-tree size estimate; tree-sitter
// does not expose a byte-accurate tree size, so a flat estimate is the
// best this layer can do.
const astEntrySize = int64(4096)

// Processor owns the diagnostic cache, the AST cache, and the
// concurrency semaphore spec.md §4.H assigns to the Incremental Processor.
type Processor struct {
	engine *semanticctx.Engine

	diagCache *cache.Cache[string, cachedDiagnostics]
	treeCache *cache.Cache[string, *tree_sitter.Tree]

	sem           *semaphore.Weighted
	maxConcurrent int64
	permitsInUse  atomic.Int64
	timeout       time.Duration

	rankerPC  ranker.PriorityConfig
	rankerTW  ranker.TokenWeights
	maxTokens int
}

// New constructs a Processor from cfg (already validated by the caller
// per spec.md §6) and pool, the shared Parser Pool every extraction runs
// through.
func New(pool *parser.Pool, cfg config.Options) *Processor {
	return &Processor{
		engine:        semanticctx.New(pool),
		diagCache:     cache.New[string, cachedDiagnostics](cfg.Cache),
		treeCache:     cache.New[string, *tree_sitter.Tree](cfg.Cache),
		sem:           semaphore.NewWeighted(int64(cfg.MaxConcurrentFiles)),
		maxConcurrent: int64(cfg.MaxConcurrentFiles),
		timeout:       cfg.AnalysisTimeout,
		rankerPC:      ranker.DefaultPriorityConfig(),
		rankerTW:      ranker.DefaultTokenWeights(),
		maxTokens:     cfg.Ranker.MaxTokens,
	}
}

// DetectChangedFiles returns every path with no cache entry, or whose
// on-disk mtime exceeds the cache entry's stored mtime. A nonexistent
// file is reported as changed (spec.md §4.H: "new").
func (p *Processor) DetectChangedFiles(paths []string) []string {
	var changed []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			changed = append(changed, path)
			continue
		}
		cached, ok := p.diagCache.Get(path)
		if !ok || info.ModTime().After(cached.modTime) {
			changed = append(changed, path)
		}
	}
	return changed
}

// Stats summarizes one ProcessFilesIncrementally call.
type Stats struct {
	TotalFiles   int
	ChangedFiles int
	CachedFiles  int
	Duration     time.Duration
}

// ProcessFilesIncrementally implements spec.md §4.H's five-step algorithm:
// partition paths into changed/cached, seed the result from the cache,
// dispatch the changed set to source, then merge and cache its results.
func (p *Processor) ProcessFilesIncrementally(
	ctx context.Context,
	paths []string,
	source types.DiagnosticSource,
) (map[string][]types.Diagnostic, Stats, error) {
	start := time.Now()
	changedSet := make(map[string]struct{})
	for _, path := range p.DetectChangedFiles(paths) {
		changedSet[path] = struct{}{}
	}

	result := make(map[string][]types.Diagnostic, len(paths))
	var changed []string
	cachedCount := 0
	for _, path := range paths {
		if _, isChanged := changedSet[path]; isChanged {
			changed = append(changed, path)
			continue
		}
		if cached, ok := p.diagCache.Get(path); ok {
			result[path] = cached.diagnostics
			cachedCount++
		} else {
			changed = append(changed, path)
		}
	}

	if len(changed) > 0 {
		fresh, err := source(ctx, changed)
		if err != nil {
			return nil, Stats{}, errs.Wrap(errs.KindFileIO, "diagnostic source failed", err)
		}
		for path, diags := range fresh {
			modTime := time.Now()
			if info, err := os.Stat(path); err == nil {
				modTime = info.ModTime()
			}
			_ = p.diagCache.Put(path, cachedDiagnostics{diagnostics: diags, modTime: modTime}, diagnosticEntrySize)
			result[path] = diags
		}
	}

	return result, Stats{
		TotalFiles:   len(paths),
		ChangedFiles: len(changed),
		CachedFiles:  cachedCount,
		Duration:     time.Since(start),
	}, nil
}

// ProcessedDiagnostic is the result of one ProcessDiagnostic call,
// carrying success/failure and timing alongside the extracted/ranked
// context (spec.md §4.H/§7: a timeout degrades to success=false, it is
// never propagated as an error).
type ProcessedDiagnostic struct {
	Diagnostic      types.Diagnostic
	SemanticContext types.SemanticContext
	RankedContext   types.RankedContext
	ProcessingTime  time.Duration
	Success         bool
	Error           string
}

// ProcessDiagnostic runs the full per-diagnostic pipeline under a
// semaphore permit and a processing timeout: acquire, extract (on a
// goroutine so the timeout can fire around it), rank, release.
func (p *Processor) ProcessDiagnostic(ctx context.Context, d types.Diagnostic) (ProcessedDiagnostic, error) {
	start := time.Now()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return ProcessedDiagnostic{}, err
	}
	p.permitsInUse.Add(1)
	defer func() {
		p.permitsInUse.Add(-1)
		p.sem.Release(1)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type extraction struct {
		semCtx types.SemanticContext
		ranked types.RankedContext
	}
	done := make(chan extraction, 1)

	go func() {
		semCtx := p.extractWithCachedTree(d)
		ranked := ranker.Rank(semCtx, d, p.maxTokens, p.rankerPC, p.rankerTW)
		done <- extraction{semCtx: semCtx, ranked: ranked}
	}()

	select {
	case result := <-done:
		return ProcessedDiagnostic{
			Diagnostic:      d,
			SemanticContext: result.semCtx,
			RankedContext:   result.ranked,
			ProcessingTime:  sinceAtLeast1ms(start),
			Success:         true,
		}, nil
	case <-timeoutCtx.Done():
		return ProcessedDiagnostic{
			Diagnostic:     d,
			ProcessingTime: sinceAtLeast1ms(start),
			Success:        false,
			Error:          "Processing timeout",
		}, nil
	}
}

// extractWithCachedTree is the CPU-bound extraction step of
// process_diagnostic (spec.md §4.H step 2): it reuses a previously parsed
// tree for d.Diagnostic.File from the AST cache when available, handing
// it to the Parser Pool as the `previous_tree` incremental-reparse
// argument, then re-caches whatever tree comes back. A read failure
// yields the default empty context per §4.A/§4.C's failure semantics.
func (p *Processor) extractWithCachedTree(d types.Diagnostic) types.SemanticContext {
	content, err := os.ReadFile(d.File)
	if err != nil {
		return types.DefaultSemanticContext()
	}

	previous, _ := p.treeCache.Get(d.File)
	semCtx, tree := p.engine.ExtractContextWithTree(d, content, previous)
	if tree != nil {
		_ = p.treeCache.Put(d.File, tree, astEntrySize)
	}
	return semCtx
}

// sinceAtLeast1ms mirrors async_processor.rs's "ensure at least 1ms for
// very fast operations" so ProcessingTime is never reported as zero.
func sinceAtLeast1ms(start time.Time) time.Duration {
	elapsed := time.Since(start)
	if elapsed < time.Millisecond {
		return time.Millisecond
	}
	return elapsed
}

// ProcessDiagnosticsStream runs ProcessDiagnostic over diagnostics with
// concurrency bounded by the processor's semaphore size. Diagnostics may
// finish in any order, but each result is stored at its input index, so
// the returned slice follows the order of the input slice.
func (p *Processor) ProcessDiagnosticsStream(ctx context.Context, diagnostics []types.Diagnostic) ([]ProcessedDiagnostic, error) {
	results := make([]ProcessedDiagnostic, len(diagnostics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(p.maxConcurrent))

	var mu sync.Mutex
	for i, d := range diagnostics {
		i, d := i, d
		g.Go(func() error {
			result, err := p.ProcessDiagnostic(gctx, d)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CurrentLoad returns the number of semaphore permits currently in use
// (spec.md §4.H: `current_load = permits_in_use`).
func (p *Processor) CurrentLoad() int64 {
	return p.permitsInUse.Load()
}

// IsOverloaded reports whether every permit is currently checked out
// (spec.md §4.H: `is_overloaded = available_permits == 0`).
func (p *Processor) IsOverloaded() bool {
	return p.permitsInUse.Load() >= p.maxConcurrent
}
