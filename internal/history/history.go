// Package history keeps bounded undo and redo stacks of schema and layout
// snapshots.
package history

import (
	"github.com/tordrt/erdcanvas/internal/layout"
	"github.com/tordrt/erdcanvas/internal/schema"
)

// DefaultCapacity is the undo depth used when none is configured
const DefaultCapacity = 50

// Snapshot is an independent copy of the editable state
type Snapshot struct {
	Schema *schema.Schema
	Layout *layout.Layout
}

// Capture deep-copies the given state
func Capture(s *schema.Schema, l *layout.Layout) Snapshot {
	return Snapshot{Schema: s.Clone(), Layout: l.Clone()}
}

func (s Snapshot) clone() Snapshot {
	return Capture(s.Schema, s.Layout)
}

// Manager holds the undo and redo stacks. History is linear: any new push
// discards the redo stack.
type Manager struct {
	capacity int
	undo     []Snapshot
	redo     []Snapshot
}

// New creates a manager keeping at most capacity undo entries
func New(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity}
}

// Capacity returns the maximum undo depth
func (m *Manager) Capacity() int {
	return m.capacity
}

// Push records the state before a mutation. The oldest entry is evicted
// when the stack is full.
func (m *Manager) Push(s Snapshot) {
	m.pushUndo(s.clone())
	m.redo = nil
}

func (m *Manager) pushUndo(s Snapshot) {
	m.undo = append(m.undo, s)
	if len(m.undo) > m.capacity {
		m.undo = append([]Snapshot(nil), m.undo[len(m.undo)-m.capacity:]...)
	}
}

// Undo pops the most recent snapshot and pushes current onto the redo
// stack. It returns false when there is nothing to undo.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	if len(m.undo) == 0 {
		return Snapshot{}, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current.clone())
	return prev.clone(), true
}

// Redo is the mirror of Undo
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	if len(m.redo) == 0 {
		return Snapshot{}, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.pushUndo(current.clone())
	return next.clone(), true
}

// CanUndo reports whether Undo would do anything
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 0
}

// CanRedo reports whether Redo would do anything
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0
}

// UndoLen returns the undo stack depth
func (m *Manager) UndoLen() int {
	return len(m.undo)
}

// RedoLen returns the redo stack depth
func (m *Manager) RedoLen() int {
	return len(m.redo)
}

// Reset empties both stacks
func (m *Manager) Reset() {
	m.undo = nil
	m.redo = nil
}
