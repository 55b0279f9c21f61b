package engine

import (
	"fmt"
	"io"

	"github.com/kinfolk/kinfolk/internal/document"
	"github.com/kinfolk/kinfolk/internal/render"
)

// Tree returns the current state in document terms.
func (e *Engine) Tree() document.Tree {
	return document.Tree{
		Persons:  e.store.All(),
		LineOnly: e.rel.LineOnly(),
		Hidden:   e.rel.Hidden(),
		Camera:   e.view.Camera,
		Settings: e.settings,
		NextID:   e.store.NextID(),
	}
}

// Document encodes the current state as a saved document.
func (e *Engine) Document() ([]byte, error) {
	return document.Encode(e.Tree())
}

// persist hands the encoded document to the persister. It never fails the
// caller.
func (e *Engine) persist() {
	if e.persister == nil {
		return
	}
	data, err := e.Document()
	if err != nil {
		e.log.Error("encode document for autosave", "error", err)
		return
	}
	e.persister.Persist(data)
}

// LoadDocument replaces the scene with a saved document. On error the
// current scene is left exactly as it was. A successful load starts a new
// history whose baseline is the loaded tree.
func (e *Engine) LoadDocument(data []byte) error {
	t, err := document.Decode(data)
	if err != nil {
		return err
	}
	return e.LoadTree(t)
}

// ReadDocument is LoadDocument over a reader, refusing more than limit bytes
// when limit is positive.
func (e *Engine) ReadDocument(r io.Reader, limit int64) error {
	t, err := document.Read(r, limit)
	if err != nil {
		return err
	}
	return e.LoadTree(t)
}

// LoadTree installs an already decoded tree.
func (e *Engine) LoadTree(t document.Tree) error {
	err := e.restore(Snapshot{
		Persons:  t.Persons,
		LineOnly: t.LineOnly,
		Hidden:   t.Hidden,
		Camera:   t.Camera,
		Settings: t.Settings,
		NextID:   t.NextID,
	})
	if err != nil {
		return &document.MalformedDocumentError{Err: fmt.Errorf("load tree: %w", err)}
	}
	if _, ok := e.measurer.(render.ApproxMeasurer); ok {
		e.measurer = render.ApproxMeasurer{FontSize: t.Settings.FontSize}
	}
	e.resetHistory()
	e.persist()
	e.log.Debug("document loaded", "persons", len(t.Persons), "connections", len(e.connections))
	return nil
}

// LoadSample replaces the scene with the built-in demo family.
func (e *Engine) LoadSample() {
	if err := e.LoadTree(document.SampleTree()); err != nil {
		e.log.Error("load sample tree", "error", err)
	}
}
