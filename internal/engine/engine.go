// Package engine is the family-tree scene engine. An Engine owns the person
// store, the relationship sets, the camera, the gesture controller, undo
// history and the render loop, and is the only entry point host code uses.
package engine

import (
	"log/slog"
	"time"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/history"
	"github.com/kinfolk/kinfolk/internal/interaction"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// Persister receives the encoded document after every committed change.
// Persist must not block; anything slow belongs on its own goroutine.
type Persister interface {
	Persist(doc []byte)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(doc []byte)

func (f PersisterFunc) Persist(doc []byte) { f(doc) }

// Options configures an Engine.
type Options struct {
	HistoryLimit   int
	Interaction    interaction.Config
	ClearPolicy    scene.ClearPolicy
	Settings       render.Settings
	CenterDuration time.Duration

	// NewNodeGap is the vertical distance below the lowest node at which a
	// new person is placed.
	NewNodeGap  float64
	FirstNodeAt geometry.Point
	Measurer    render.TextMeasurer
	Persister   Persister
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		HistoryLimit:   history.DefaultLimit,
		Interaction:    interaction.DefaultConfig(),
		ClearPolicy:    scene.DefaultClearPolicy(),
		Settings:       render.DefaultSettings(),
		CenterDuration: time.Second,
		NewNodeGap:     150,
		FirstNodeAt:    geometry.Point{X: 400, Y: 300},
	}
}

// Engine is not safe for concurrent use. Every method runs on the host's
// event loop.
type Engine struct {
	opts Options
	log  *slog.Logger

	store    *scene.Store
	rel      *scene.Relations
	view     *geometry.View
	ctrl     *interaction.Controller
	history  *history.Manager[Snapshot]
	loop     *render.Loop
	settings render.Settings

	connections []scene.Connection
	measurer    render.TextMeasurer
	persister   Persister

	tween        *geometry.Tween
	tweenStarted bool
}

// New creates an engine with an empty tree and pushes the baseline history
// state.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Engine{
		opts:      opts,
		log:       opts.Logger,
		store:     scene.NewStore(),
		view:      geometry.NewView(),
		history:   history.New[Snapshot](opts.HistoryLimit),
		loop:      render.NewLoop(),
		settings:  opts.Settings,
		measurer:  opts.Measurer,
		persister: opts.Persister,
	}
	if e.measurer == nil {
		e.measurer = render.ApproxMeasurer{FontSize: opts.Settings.FontSize}
	}
	e.rel = scene.NewRelations(e.store, opts.ClearPolicy)
	e.ctrl = interaction.NewController(sceneAdapter{e}, e.view, opts.Interaction, e.loop.Invalidate)
	e.ctrl.Events.NodeDragEnded.Subscribe(e.onDragEnded)
	e.ctrl.Events.ViewChanged.Subscribe(func(interaction.ViewEvent) { e.persist() })

	e.resetHistory()
	return e
}

// Events exposes the outward hooks: node clicked, double clicked and drag
// ended, selection cleared and changed, connection clicked, hover, view.
func (e *Engine) Events() *interaction.Events {
	return &e.ctrl.Events
}

// SetPersister replaces the autosave sink. nil disables autosave.
func (e *Engine) SetPersister(p Persister) {
	e.persister = p
}

// SetMeasurer replaces the text measurer used for label wrapping.
func (e *Engine) SetMeasurer(m render.TextMeasurer) {
	if m != nil {
		e.measurer = m
		e.loop.Invalidate()
	}
}

// State returns the gesture state.
func (e *Engine) State() interaction.State {
	return e.ctrl.State()
}

// --- Input ---

// A press or wheel stops a running camera animation.

func (e *Engine) OnPointerDown(ev interaction.PointerEvent) {
	e.cancelTween()
	e.ctrl.PointerDown(ev)
}

func (e *Engine) OnPointerMove(ev interaction.PointerEvent) { e.ctrl.PointerMove(ev) }
func (e *Engine) OnPointerUp(ev interaction.PointerEvent)   { e.ctrl.PointerUp(ev) }
func (e *Engine) OnPointerLeave()                           { e.ctrl.PointerLeave() }

func (e *Engine) OnTouchStart(ev interaction.TouchEvent) {
	e.cancelTween()
	e.ctrl.TouchStart(ev)
}

func (e *Engine) OnTouchMove(ev interaction.TouchEvent) { e.ctrl.TouchMove(ev) }
func (e *Engine) OnTouchEnd(ev interaction.TouchEvent)  { e.ctrl.TouchEnd(ev) }

func (e *Engine) OnWheel(ev interaction.WheelEvent) {
	e.cancelTween()
	e.ctrl.Wheel(ev)
}

func (e *Engine) onDragEnded(ev interaction.DragEvent) {
	e.log.Debug("node drag ended", "person", ev.ID, "x", ev.To.X, "y", ev.To.Y)
	e.commit("drag")
}

// --- Frame loop ---

// Tick advances time-driven state (pending taps, camera animation) and
// returns the frame's draw commands as JSON when a redraw was needed.
func (e *Engine) Tick(now time.Duration) (string, bool) {
	e.ctrl.Tick(now)
	e.stepTween(now)

	var out string
	drew, err := e.loop.Frame(func() error {
		var err error
		out, err = render.DrawCommandsToJSON(e.compile())
		return err
	})
	if err != nil {
		e.log.Error("render frame", "error", err)
		return "", false
	}
	return out, drew
}

// Render compiles the current frame unconditionally.
func (e *Engine) Render() string {
	out, _ := render.DrawCommandsToJSON(e.compile())
	return out
}

// DrawCommands compiles the current frame.
func (e *Engine) DrawCommands() []render.DrawCommand {
	return e.compile()
}

func (e *Engine) compile() []render.DrawCommand {
	selected := make(map[string]bool)
	for _, id := range e.ctrl.Selection().IDs() {
		selected[id] = true
	}
	return render.Compile(render.Frame{
		Persons:     e.store.All(),
		Connections: e.connections,
		View:        *e.view,
		Selected:    selected,
		Hovered:     e.ctrl.Hovered(),
		Settings:    e.settings,
		Measurer:    e.measurer,
	})
}

// NeedsRedraw reports whether the next Tick will draw.
func (e *Engine) NeedsRedraw() bool {
	return e.loop.Dirty()
}

// Stop ends the render loop.
func (e *Engine) Stop() {
	e.loop.Stop()
}

// --- Hit testing ---

// HitTest returns the person under a client point, or "".
func (e *Engine) HitTest(sx, sy float64) string {
	if !e.view.InSurface(sx, sy) {
		return ""
	}
	id, _ := e.store.NodeAt(e.view.ScreenToWorld(sx, sy))
	return id
}

// ConnectionAt returns the connection line under a client point.
func (e *Engine) ConnectionAt(sx, sy float64) (scene.Connection, bool) {
	if !e.view.InSurface(sx, sy) {
		return scene.Connection{}, false
	}
	return sceneAdapter{e}.ConnectionAt(e.view.ScreenToWorld(sx, sy))
}

// sceneAdapter is the controller's view of the engine.
type sceneAdapter struct {
	e *Engine
}

func (a sceneAdapter) NodeAt(p geometry.Point) (string, bool) {
	return a.e.store.NodeAt(p)
}

func (a sceneAdapter) NodePosition(id string) (geometry.Point, bool) {
	p, ok := a.e.store.Get(id)
	return geometry.Point{X: p.X, Y: p.Y}, ok
}

func (a sceneAdapter) MoveNode(id string, p geometry.Point) {
	_ = a.e.store.Move(id, p.X, p.Y)
}

// ConnectionAt uses a pick distance of a fixed number of screen pixels.
func (a sceneAdapter) ConnectionAt(p geometry.Point) (scene.Connection, bool) {
	threshold := scene.DefaultConnectionThreshold / a.e.view.Camera.Scale
	return a.e.store.ConnectionAt(a.e.connections, p, threshold)
}
