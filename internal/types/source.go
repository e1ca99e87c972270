package types

import "context"

// DiagnosticSource is the injected collaborator the Incremental Processor
// dispatches cache misses to (spec.md §6): opaque whether it wraps an LSP
// client, a compiler invocation, or a test double.
type DiagnosticSource func(ctx context.Context, files []string) (map[string][]Diagnostic, error)
