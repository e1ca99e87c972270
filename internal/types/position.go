// Package types holds the shared data model for the LSPbridge core engine:
// positions and ranges, diagnostics, semantic context, ranked context,
// cache entries, and quick-fix edits/backups.
package types

import "fmt"

// Position is a zero-based line/character location within a file.
// Character is a byte offset within the line (UTF-8), matching
// tree-sitter's native Point.Column units throughout this module.
type Position struct {
	Line      uint32
	Character uint32
}

// Less reports whether p sorts before o (line first, then character).
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open [Start, End) span; End is exclusive.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether p falls within r (Start inclusive, End exclusive).
func (r Range) Contains(p Position) bool {
	if p.Less(r.Start) {
		return false
	}
	return p.Less(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}
