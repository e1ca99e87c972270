// Package logx is LSPbridge's ambient logging facility: a small,
// dependency-free writer-backed logger gated by a runtime-toggleable
// enabled flag, modeled directly on the teacher's internal/debug package.
// No third-party logging library is wired here — see DESIGN.md: the
// teacher's own core packages never import one either.
package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	output  io.Writer
	enabled bool
)

// SetOutput sets the writer logx writes to. Pass nil to disable output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetEnabled toggles whether logx emits anything at all.
func SetEnabled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = v
}

// IsEnabled reports whether logging is currently active, honoring both the
// explicit SetEnabled toggle and the LSPBRIDGE_DEBUG environment variable.
func IsEnabled() bool {
	mu.Lock()
	e := enabled
	mu.Unlock()
	if e {
		return true
	}
	v := os.Getenv("LSPBRIDGE_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Printf writes a formatted line when logging is enabled and a writer is
// configured; it is a silent no-op otherwise.
func Printf(format string, args ...any) {
	if !IsEnabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, format, args...)
}

// Component writes a formatted line tagged with a component name, e.g.
// Component("ranker", "selected %d of %d elements", n, total).
func Component(component, format string, args ...any) {
	if !IsEnabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[%s] "+format, append([]any{component}, args...)...)
}
