// Package history keeps an undo/redo stack of scene snapshots.
package history

import "github.com/splinetool/splinetool/internal/document"

// Store is a linear snapshot stack with a cursor. Committing after an undo
// discards the undone entries. Every snapshot is a deep copy, both on the
// way in and on the way out, so stored entries never alias live state.
type Store struct {
	entries []*document.Scene
	cursor  int
}

// New returns an empty store.
func New() *Store {
	return &Store{cursor: -1}
}

// Commit records a snapshot of scene as the newest entry.
func (s *Store) Commit(scene *document.Scene) {
	s.entries = append(s.entries[:s.cursor+1], scene.Clone())
	s.cursor = len(s.entries) - 1
}

// Reset drops all entries.
func (s *Store) Reset() {
	s.entries = nil
	s.cursor = -1
}

// Undo steps back one entry and returns a copy of it. It reports false at
// the oldest entry.
func (s *Store) Undo() (*document.Scene, bool) {
	if !s.CanUndo() {
		return nil, false
	}
	s.cursor--
	return s.entries[s.cursor].Clone(), true
}

// Redo steps forward one entry and returns a copy of it. It reports false
// at the newest entry.
func (s *Store) Redo() (*document.Scene, bool) {
	if !s.CanRedo() {
		return nil, false
	}
	s.cursor++
	return s.entries[s.cursor].Clone(), true
}

func (s *Store) CanUndo() bool { return s.cursor > 0 }
func (s *Store) CanRedo() bool { return s.cursor < len(s.entries)-1 }

// Len returns the number of stored entries.
func (s *Store) Len() int { return len(s.entries) }

// Cursor returns the index of the current entry, -1 when empty.
func (s *Store) Cursor() int { return s.cursor }
