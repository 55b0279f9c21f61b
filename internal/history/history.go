// Package history keeps a bounded linear undo/redo stack of deep-copied
// state snapshots.
package history

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// DefaultLimit is the number of states retained on the undo stack.
const DefaultLimit = 50

// Manager is a generic snapshot stack. The bottom state is the baseline and
// is never undone past.
type Manager[S any] struct {
	undo  []S
	redo  []S
	limit int
}

// New creates a manager retaining at most limit states. A non-positive limit
// means DefaultLimit.
func New[S any](limit int) *Manager[S] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager[S]{limit: limit}
}

// Clone returns a structural deep copy of s.
func Clone[S any](s S) (S, error) {
	var out S
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		return out, fmt.Errorf("copy snapshot: %w", err)
	}
	return out, nil
}

// Push records a copy of s as the current state and discards the redo stack.
// When full, the oldest state is dropped.
func (m *Manager[S]) Push(s S) error {
	c, err := Clone(s)
	if err != nil {
		return err
	}
	m.undo = append(m.undo, c)
	if over := len(m.undo) - m.limit; over > 0 {
		m.undo = append(m.undo[:0:0], m.undo[over:]...)
	}
	m.redo = nil
	return nil
}

// Undo moves the current state onto the redo stack and returns a copy of
// the state beneath it. It reports false when only the baseline remains.
func (m *Manager[S]) Undo() (S, bool, error) {
	var out S
	ok, err := m.ApplyUndo(func(s S) error {
		out = s
		return nil
	})
	return out, ok, err
}

// Redo reapplies the most recently undone state.
func (m *Manager[S]) Redo() (S, bool, error) {
	var out S
	ok, err := m.ApplyRedo(func(s S) error {
		out = s
		return nil
	})
	return out, ok, err
}

// ApplyUndo hands a copy of the state beneath the current one to apply and
// moves the current state onto the redo stack only if apply succeeds. On
// error both stacks are left as they were.
func (m *Manager[S]) ApplyUndo(apply func(S) error) (bool, error) {
	if !m.CanUndo() {
		return false, nil
	}
	s, err := Clone(m.undo[len(m.undo)-2])
	if err != nil {
		return false, err
	}
	if err := apply(s); err != nil {
		return false, err
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, top)
	return true, nil
}

// ApplyRedo is the redo counterpart of ApplyUndo.
func (m *Manager[S]) ApplyRedo(apply func(S) error) (bool, error) {
	if !m.CanRedo() {
		return false, nil
	}
	top := m.redo[len(m.redo)-1]
	s, err := Clone(top)
	if err != nil {
		return false, err
	}
	if err := apply(s); err != nil {
		return false, err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, top)
	return true, nil
}

func (m *Manager[S]) CanUndo() bool { return len(m.undo) >= 2 }

func (m *Manager[S]) CanRedo() bool { return len(m.redo) > 0 }

// Current returns a copy of the top of the undo stack.
func (m *Manager[S]) Current() (S, bool, error) {
	var zero S
	if len(m.undo) == 0 {
		return zero, false, nil
	}
	s, err := Clone(m.undo[len(m.undo)-1])
	return s, err == nil, err
}

// Sizes returns the depth of the undo and redo stacks.
func (m *Manager[S]) Sizes() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// Limit returns the retention cap.
func (m *Manager[S]) Limit() int {
	return m.limit
}

// Clear drops every state.
func (m *Manager[S]) Clear() {
	m.undo = nil
	m.redo = nil
}
