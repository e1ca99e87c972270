// Package config defines LSPbridge's configuration surface (spec.md §6):
// the recognized options and their effects on the ranker, cache, and
// quick-fix engine. File I/O (KDL/TOML/etc.) is out of scope (spec.md §1
// non-goals); Options is constructed directly by callers. Modeled on the
// teacher's internal/config nested-struct + Validate() idiom.
package config

import (
	"time"

	"github.com/lspbridge/lspbridge/internal/errs"
)

// RankerOptions configures the Context Ranker (spec.md §4.E).
type RankerOptions struct {
	MaxTokens int
}

// DefaultRankerOptions returns spec.md's default (max_tokens = 2000).
func DefaultRankerOptions() RankerOptions {
	return RankerOptions{MaxTokens: 2000}
}

func (r RankerOptions) Validate() error {
	if r.MaxTokens < 0 {
		return errs.New(errs.KindConfigValidation, "max_tokens must be >= 0")
	}
	return nil
}

// CacheOptions configures one Memory Manager instance (spec.md §4.G).
type CacheOptions struct {
	MaxMemoryBytes    int64
	MaxEntries        int
	HighWaterMark     float64
	LowWaterMark      float64
	EvictionBatchSize int
	Policy            string // "lru", "lfu", "size_weighted", "age_weighted", "adaptive"
}

// DefaultCacheOptions returns spec.md's defaults.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		MaxMemoryBytes:    64 * 1024 * 1024,
		MaxEntries:        10000,
		HighWaterMark:     0.8,
		LowWaterMark:      0.6,
		EvictionBatchSize: 100,
		Policy:            "lru",
	}
}

func (c CacheOptions) Validate() error {
	if c.LowWaterMark < 0 || c.HighWaterMark > 1 || c.LowWaterMark > c.HighWaterMark {
		return errs.New(errs.KindConfigValidation, "require 0 <= low_water_mark <= high_water_mark <= 1")
	}
	if c.EvictionBatchSize < 1 {
		return errs.New(errs.KindConfigValidation, "eviction_batch_size must be >= 1")
	}
	if c.MaxMemoryBytes <= 0 || c.MaxEntries <= 0 {
		return errs.New(errs.KindConfigValidation, "max_memory_bytes and max_entries must be > 0")
	}
	return nil
}

// QuickFixThresholds are the three confidence gates from spec.md §4.I.
type QuickFixThresholds struct {
	AutoApply float64
	Suggest   float64
	Minimum   float64
}

// DefaultQuickFixThresholds returns spec.md's defaults.
func DefaultQuickFixThresholds() QuickFixThresholds {
	return QuickFixThresholds{AutoApply: 0.9, Suggest: 0.5, Minimum: 0.3}
}

// QuickFixOptions configures the Quick-Fix Engine (spec.md §4.I).
type QuickFixOptions struct {
	Threshold      QuickFixThresholds
	MaxFileSize    int64
	CreateBackups  bool
	MaxStates      int
	StateDir       string
}

// DefaultQuickFixOptions returns spec.md's defaults.
func DefaultQuickFixOptions() QuickFixOptions {
	return QuickFixOptions{
		Threshold:     DefaultQuickFixThresholds(),
		MaxFileSize:   10 * 1024 * 1024,
		CreateBackups: true,
		MaxStates:     10,
	}
}

func (q QuickFixOptions) Validate() error {
	if q.MaxFileSize <= 0 {
		return errs.New(errs.KindConfigValidation, "max_file_size must be > 0")
	}
	t := q.Threshold
	if !(t.Minimum <= t.Suggest && t.Suggest <= t.AutoApply && t.AutoApply <= 1 && t.Minimum >= 0) {
		return errs.New(errs.KindConfigValidation, "require 0 <= minimum <= suggest <= auto_apply <= 1")
	}
	return nil
}

// Options is the full configuration surface recognized by the core engine.
type Options struct {
	Ranker             RankerOptions
	Cache              CacheOptions
	QuickFix           QuickFixOptions
	MaxConcurrentFiles int
	AnalysisTimeout    time.Duration
}

// Default returns the engine's defaults, as documented per-option in
// spec.md §6.
func Default() Options {
	return Options{
		Ranker:             DefaultRankerOptions(),
		Cache:              DefaultCacheOptions(),
		QuickFix:           DefaultQuickFixOptions(),
		MaxConcurrentFiles: 8,
		AnalysisTimeout:    30 * time.Second,
	}
}

// Validate checks every sub-option and returns the first violation found.
func (o Options) Validate() error {
	if err := o.Ranker.Validate(); err != nil {
		return err
	}
	if err := o.Cache.Validate(); err != nil {
		return err
	}
	if err := o.QuickFix.Validate(); err != nil {
		return err
	}
	if o.MaxConcurrentFiles < 1 {
		return errs.New(errs.KindConfigValidation, "max_concurrent_files must be >= 1")
	}
	if o.AnalysisTimeout <= 0 {
		return errs.New(errs.KindConfigValidation, "analysis_timeout must be > 0")
	}
	return nil
}
