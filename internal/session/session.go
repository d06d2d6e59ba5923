// Package session gives scan runs and hit lists stable identity across a
// shell invocation and tracks the undo/redo stack of filter operations
// applied to the active hit list. Identity uses google/uuid for session
// and hit-list IDs.
package session

import (
	"memfuzz/internal/target"

	"github.com/google/uuid"
)

// Hit is one candidate address surviving the active filter chain, paired
// with the last value read there.
type Hit struct {
	Address target.Address
	Value   []byte
}

// Session tracks one attach-to-detach lifecycle: its identity, the
// active hit list, and the history needed to undo/redo filter steps.
type Session struct {
	ID          uuid.UUID
	HitListID   uuid.UUID
	Hits        []Hit
	undoStack   [][]Hit
	redoStack   [][]Hit
}

// New starts a session with an empty hit list.
func New() *Session {
	return &Session{ID: uuid.New(), HitListID: uuid.New()}
}

// NewSearch records the given addresses as the first hit list of a fresh
// search, clearing any prior undo/redo history.
func (s *Session) NewSearch(hits []Hit) {
	s.HitListID = uuid.New()
	s.Hits = hits
	s.undoStack = nil
	s.redoStack = nil
}

// Filter replaces the hit list with a narrowed subset, pushing the
// previous list onto the undo stack and clearing any redo history: a
// fresh filter invalidates redo, matching ordinary editor undo-stack
// semantics.
func (s *Session) Filter(next []Hit) {
	s.undoStack = append(s.undoStack, s.Hits)
	s.redoStack = nil
	s.Hits = next
}

// Undo restores the hit list from before the last Filter call. Reports
// false if there is nothing to undo.
func (s *Session) Undo() bool {
	if len(s.undoStack) == 0 {
		return false
	}
	last := len(s.undoStack) - 1
	s.redoStack = append(s.redoStack, s.Hits)
	s.Hits = s.undoStack[last]
	s.undoStack = s.undoStack[:last]
	return true
}

// Redo re-applies the most recently undone Filter call.
func (s *Session) Redo() bool {
	if len(s.redoStack) == 0 {
		return false
	}
	last := len(s.redoStack) - 1
	s.undoStack = append(s.undoStack, s.Hits)
	s.Hits = s.redoStack[last]
	s.redoStack = s.redoStack[:last]
	return true
}

// Addresses returns just the address component of the current hit list,
// in hit-list order.
func (s *Session) Addresses() []target.Address {
	out := make([]target.Address, len(s.Hits))
	for i, h := range s.Hits {
		out[i] = h.Address
	}
	return out
}
