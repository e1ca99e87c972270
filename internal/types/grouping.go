package types

// DiagnosticGroup is the Diagnostic Grouper's output (spec.md §4.F): one
// representative diagnostic plus the others judged related to it.
type DiagnosticGroup struct {
	Primary    Diagnostic
	Related    []Diagnostic
	Confidence float32
}
