package engine

import (
	"fmt"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// Snapshot is the full restorable state of an engine. Connections are never
// part of it; they are derived again after every restore.
type Snapshot struct {
	Persons   []scene.Person  `json:"persons"`
	LineOnly  []scene.PairKey `json:"lineOnly"`
	Hidden    []scene.PairKey `json:"hidden"`
	Camera    geometry.Camera `json:"camera"`
	Selection []string        `json:"selection"`
	Settings  render.Settings `json:"settings"`
	NextID    int             `json:"nextId"`
}

// GetSnapshot captures the current state. The result shares nothing with the
// engine.
func (e *Engine) GetSnapshot() Snapshot {
	return Snapshot{
		Persons:   e.store.All(),
		LineOnly:  e.rel.LineOnly(),
		Hidden:    e.rel.Hidden(),
		Camera:    e.view.Camera,
		Selection: e.ctrl.Selection().IDs(),
		Settings:  e.settings,
		NextID:    e.store.NextID(),
	}
}

// RestoreSnapshot replaces the whole engine state with s. Nothing is changed
// when s is unusable (duplicate or empty person ids). Selection entries for
// persons that do not exist are dropped.
func (e *Engine) RestoreSnapshot(s Snapshot) error {
	if err := e.restore(s); err != nil {
		return err
	}
	e.persist()
	return nil
}

func (e *Engine) restore(s Snapshot) error {
	if err := e.store.Replace(s.Persons, s.NextID); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	e.rel.Replace(s.LineOnly, s.Hidden)
	e.view.Camera = s.Camera.Normalized()
	e.tween = nil

	e.ctrl.Cancel()
	ids := make([]string, 0, len(s.Selection))
	for _, id := range s.Selection {
		if e.store.Has(id) {
			ids = append(ids, id)
		}
	}
	e.ctrl.Selection().Set(ids)

	e.settings = s.Settings
	e.connections = e.rel.Regenerate()
	e.loop.Invalidate()
	return nil
}

// Undo steps back one committed action. It reports false when only the
// baseline state is left.
func (e *Engine) Undo() (bool, error) {
	ok, err := e.history.ApplyUndo(e.restore)
	if err != nil || !ok {
		return false, err
	}
	undo, redo := e.history.Sizes()
	e.log.Debug("undo", "undo", undo, "redo", redo)
	e.persist()
	return true, nil
}

// Redo re-applies the most recently undone action.
func (e *Engine) Redo() (bool, error) {
	ok, err := e.history.ApplyRedo(e.restore)
	if err != nil || !ok {
		return false, err
	}
	undo, redo := e.history.Sizes()
	e.log.Debug("redo", "undo", undo, "redo", redo)
	e.persist()
	return true, nil
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// HistorySizes returns the depth of the undo and redo stacks.
func (e *Engine) HistorySizes() (undo, redo int) {
	return e.history.Sizes()
}

// commit closes a user action: connections are derived again, a snapshot is
// pushed, and the document is handed to the persister.
func (e *Engine) commit(reason string) {
	e.connections = e.rel.Regenerate()
	if err := e.history.Push(e.GetSnapshot()); err != nil {
		e.log.Error("push history", "reason", reason, "error", err)
	} else {
		undo, _ := e.history.Sizes()
		e.log.Debug("history push", "reason", reason, "depth", undo)
	}
	e.loop.Invalidate()
	e.persist()
}

// resetHistory forgets every state and records the current one as the new
// baseline.
func (e *Engine) resetHistory() {
	e.connections = e.rel.Regenerate()
	e.history.Clear()
	if err := e.history.Push(e.GetSnapshot()); err != nil {
		e.log.Error("push history baseline", "error", err)
	}
	e.loop.Invalidate()
}
