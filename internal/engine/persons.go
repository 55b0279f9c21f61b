package engine

import (
	"slices"

	"github.com/kinfolk/kinfolk/internal/interaction"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// CreatePerson adds a person and returns its id. Any id on p is ignored;
// an empty color or zero radius takes the current defaults.
func (e *Engine) CreatePerson(p scene.Person) string {
	if p.Color == "" {
		p.Color = e.settings.DefaultColor
	}
	if p.Radius <= 0 {
		p.Radius = e.settings.NodeRadius
	}
	id := e.store.Create(p)
	e.commit("create person")
	return id
}

// UpdatePerson merges patch onto the person.
func (e *Engine) UpdatePerson(id string, patch scene.PersonPatch) error {
	if err := e.store.Update(id, patch); err != nil {
		return err
	}
	e.commit("update person")
	return nil
}

// DeletePerson removes a person. Relationship links on other persons that
// name it are kept but no longer drawn. Line-only and hidden entries that
// mention it are dropped, and it leaves the selection.
func (e *Engine) DeletePerson(id string) error {
	if err := e.store.Delete(id); err != nil {
		return err
	}
	e.rel.Forget(id)
	wasSelected := e.ctrl.Selection().Has(id)
	e.ctrl.Forget(id)
	if wasSelected {
		e.emitSelection()
	}
	e.commit("delete person")
	return nil
}

// GetPerson returns a copy of a person.
func (e *Engine) GetPerson(id string) (scene.Person, bool) {
	return e.store.Get(id)
}

// Persons returns every person in creation order.
func (e *Engine) Persons() []scene.Person {
	return e.store.All()
}

// DisplayName returns the person's full name, or the id when it has none.
func (e *Engine) DisplayName(id string) string {
	return e.store.DisplayName(id)
}

// --- Relationships ---

func (e *Engine) SetRelationship(subjectID string, role scene.Role, targetID string) error {
	if err := e.rel.SetRelationship(subjectID, role, targetID); err != nil {
		return err
	}
	e.commit("set " + string(role))
	return nil
}

// Unlink clears the subject's mother, father or spouse link.
func (e *Engine) Unlink(subjectID string, role scene.Role) error {
	if err := e.rel.Unlink(subjectID, role); err != nil {
		return err
	}
	e.commit("unlink " + string(role))
	return nil
}

func (e *Engine) SetLineOnlyConnection(a, b string) error {
	if err := e.rel.SetLineOnly(a, b); err != nil {
		return err
	}
	e.commit("line only")
	return nil
}

// RemoveLineOnly deletes a decorative line. It reports whether one existed.
func (e *Engine) RemoveLineOnly(a, b string) bool {
	if !e.rel.RemoveLineOnly(a, b) {
		return false
	}
	e.commit("remove line only")
	return true
}

// HideConnection suppresses the edge between two persons. The relationship
// behind it stays in place.
func (e *Engine) HideConnection(from, to string) error {
	if from == to {
		return scene.ErrSelfRelationship
	}
	if e.rel.IsHidden(from, to) {
		return nil
	}
	e.rel.Hide(from, to)
	e.commit("hide connection")
	return nil
}

func (e *Engine) UnhideConnection(from, to string) {
	if !e.rel.IsHidden(from, to) {
		return
	}
	e.rel.Unhide(from, to)
	e.commit("unhide connection")
}

// RegenerateConnections derives the visible connections from the current
// relationship data and returns them.
func (e *Engine) RegenerateConnections() []scene.Connection {
	e.connections = e.rel.Regenerate()
	e.loop.Invalidate()
	return slices.Clone(e.connections)
}

// Connections returns the connections derived at the last change.
func (e *Engine) Connections() []scene.Connection {
	return slices.Clone(e.connections)
}

// SetClearPolicy changes what a new explicit relationship wipes.
func (e *Engine) SetClearPolicy(p scene.ClearPolicy) {
	e.rel.SetPolicy(p)
}

// --- Selection ---

// Selection returns the selected ids in selection order.
func (e *Engine) Selection() []string {
	return e.ctrl.Selection().IDs()
}

// SetSelection replaces the selection. Unknown ids are ignored.
func (e *Engine) SetSelection(ids []string) {
	e.setSelection(ids)
	e.loop.Invalidate()
}

func (e *Engine) setSelection(ids []string) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if e.store.Has(id) {
			valid = append(valid, id)
		}
	}
	sel := e.ctrl.Selection()
	if slices.Equal(sel.IDs(), valid) {
		return
	}
	sel.Set(valid)
	e.emitSelection()
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	if !e.ctrl.Selection().Clear() {
		return
	}
	e.ctrl.Events.SelectionCleared.Emit(interaction.SelectionEvent{})
	e.emitSelection()
	e.loop.Invalidate()
}

func (e *Engine) emitSelection() {
	e.ctrl.Events.SelectionChanged.Emit(interaction.SelectionEvent{IDs: e.ctrl.Selection().IDs()})
}

// targets resolves an explicit id list, falling back to the selection.
func (e *Engine) targets(ids []string) []string {
	if len(ids) == 0 {
		ids = e.ctrl.Selection().IDs()
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if e.store.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// --- Style ---

// BringToFront raises the given persons (the selection when none are given)
// above every other person, keeping their relative order.
func (e *Engine) BringToFront(ids ...string) {
	ids = e.targets(ids)
	if len(ids) == 0 {
		return
	}
	z := e.store.MaxZIndex()
	for _, id := range ids {
		z++
		_ = e.store.Update(id, scene.PersonPatch{ZIndex: scene.Ptr(z)})
	}
	e.commit("bring to front")
}

// StylePatch changes the look of individual persons.
type StylePatch struct {
	Color  *string  `json:"color,omitempty"`
	Radius *float64 `json:"radius,omitempty" validate:"omitempty,gt=0,lte=500"`
}

// ApplyStyle sets color and radius on the given persons (the selection when
// ids is empty). It returns how many persons changed.
func (e *Engine) ApplyStyle(ids []string, patch StylePatch) (int, error) {
	if err := validateStruct(patch); err != nil {
		return 0, err
	}
	if patch.Color != nil && *patch.Color == "" {
		return 0, &ValidationError{Field: "color", Message: "is required"}
	}
	ids = e.targets(ids)
	if len(ids) == 0 || (patch.Color == nil && patch.Radius == nil) {
		return 0, nil
	}
	for _, id := range ids {
		_ = e.store.Update(id, scene.PersonPatch{Color: patch.Color, Radius: patch.Radius})
	}
	e.commit("apply style")
	return len(ids), nil
}

// Settings returns the global look of the tree.
func (e *Engine) Settings() render.Settings {
	return e.settings
}

// UpdateSettings replaces the global settings after validating them.
func (e *Engine) UpdateSettings(s render.Settings) error {
	if err := validateStruct(s); err != nil {
		return err
	}
	e.settings = s
	if _, ok := e.measurer.(render.ApproxMeasurer); ok {
		e.measurer = render.ApproxMeasurer{FontSize: s.FontSize}
	}
	e.commit("settings")
	return nil
}

// ClearAll empties the tree, restarts person ids at 1 and starts a fresh
// history.
func (e *Engine) ClearAll() {
	e.store.Reset()
	e.rel.Reset()
	e.ctrl.Cancel()
	if e.ctrl.Selection().Clear() {
		e.ctrl.Events.SelectionCleared.Emit(interaction.SelectionEvent{})
		e.emitSelection()
	}
	e.tween = nil
	e.resetHistory()
	e.persist()
	e.log.Debug("tree cleared")
}
