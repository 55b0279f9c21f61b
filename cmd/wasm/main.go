//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"syscall/js"
	"time"

	"github.com/kinfolk/kinfolk/internal/autosave"
	"github.com/kinfolk/kinfolk/internal/engine"
	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/interaction"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

const storageKey = "kinfolk.document"

var (
	eng          *engine.Engine
	sender       *autosave.Sender
	stopAutosave context.CancelFunc
)

func main() {
	opts := engine.DefaultOptions()
	opts.Measurer = newCanvasMeasurer()
	eng = engine.New(opts)

	if saved := localStorage("getItem", storageKey); saved.Type() == js.TypeString {
		if err := eng.LoadDocument([]byte(saved.String())); err != nil {
			js.Global().Get("console").Call("warn", "kinfolk: discarding saved tree: "+err.Error())
		}
	}
	eng.SetPersister(engine.PersisterFunc(persist))

	api := js.Global().Get("Object").New()

	// --- Documents ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("loadSample", js.FuncOf(loadSample))
	api.Set("clearAll", js.FuncOf(clearAll))
	api.Set("enableAutosave", js.FuncOf(enableAutosave))
	api.Set("disableAutosave", js.FuncOf(disableAutosave))

	// --- Input ---
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("pointerDown", js.FuncOf(pointerHandler(eng.OnPointerDown)))
	api.Set("pointerMove", js.FuncOf(pointerHandler(eng.OnPointerMove)))
	api.Set("pointerUp", js.FuncOf(pointerHandler(eng.OnPointerUp)))
	api.Set("pointerLeave", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		eng.OnPointerLeave()
		return nil
	}))
	api.Set("touchStart", js.FuncOf(touchHandler(eng.OnTouchStart)))
	api.Set("touchMove", js.FuncOf(touchHandler(eng.OnTouchMove)))
	api.Set("touchEnd", js.FuncOf(touchHandler(eng.OnTouchEnd)))
	api.Set("wheel", js.FuncOf(wheel))

	// --- Frame loop ---
	api.Set("tick", js.FuncOf(tick))
	api.Set("render", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return eng.Render()
	}))
	api.Set("hitTest", js.FuncOf(hitTest))

	// --- Persons and relationships ---
	api.Set("savePerson", js.FuncOf(savePerson))
	api.Set("getPerson", js.FuncOf(getPerson))
	api.Set("deletePerson", js.FuncOf(deletePerson))
	api.Set("setRelationship", js.FuncOf(setRelationship))
	api.Set("unlink", js.FuncOf(unlink))
	api.Set("setLineOnly", js.FuncOf(setLineOnly))
	api.Set("removeLineOnly", js.FuncOf(removeLineOnly))
	api.Set("hideConnection", js.FuncOf(hideConnection))
	api.Set("unhideConnection", js.FuncOf(unhideConnection))
	api.Set("getConnections", js.FuncOf(getConnections))

	// --- Selection, camera, style ---
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("clearSelection", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		eng.ClearSelection()
		return nil
	}))
	api.Set("centerOn", js.FuncOf(centerOn))
	api.Set("resetCamera", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		eng.ResetCamera()
		return nil
	}))
	api.Set("bringToFront", js.FuncOf(bringToFront))
	api.Set("applyStyle", js.FuncOf(applyStyle))
	api.Set("getSettings", js.FuncOf(getSettings))
	api.Set("updateSettings", js.FuncOf(updateSettings))

	// --- History ---
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("canUndo", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return eng.CanUndo()
	}))
	api.Set("canRedo", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return eng.CanRedo()
	}))

	// --- Events (backend → frontend) ---
	api.Set("on", js.FuncOf(on))

	js.Global().Set("kinfolkEngine", api)
	js.Global().Set("kinfolkWasmReady", js.ValueOf(true))

	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	out := map[string]interface{}{"error": err.Error()}
	var v *engine.ValidationError
	if errors.As(err, &v) {
		out["field"] = v.Field
	}
	return js.ValueOf(out)
}

func failMsg(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err)
	}
	return ok()
}

// millis converts a DOMHighResTimeStamp to a duration.
func millis(v js.Value) time.Duration {
	return time.Duration(v.Float() * float64(time.Millisecond))
}

func stringArgs(args []js.Value) []string {
	if len(args) == 1 && args[0].Type() == js.TypeObject {
		arr := args[0]
		ids := make([]string, arr.Length())
		for i := range ids {
			ids[i] = arr.Index(i).String()
		}
		return ids
	}
	ids := make([]string, 0, len(args))
	for _, a := range args {
		ids = append(ids, a.String())
	}
	return ids
}

// --- Persistence ---

func localStorage(method string, args ...interface{}) js.Value {
	store := js.Global().Get("localStorage")
	if store.IsUndefined() || store.IsNull() {
		return js.Null()
	}
	return store.Call(method, args...)
}

func persist(doc []byte) {
	localStorage("setItem", storageKey, string(doc))
	if sender != nil {
		sender.Persist(doc)
	}
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failMsg("missing document JSON")
	}
	return result(eng.LoadDocument([]byte(args[0].String())))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := eng.Document()
	if err != nil {
		return fail(err)
	}
	return string(data)
}

func loadSample(this js.Value, args []js.Value) interface{} {
	eng.LoadSample()
	return ok()
}

func clearAll(this js.Value, args []js.Value) interface{} {
	eng.ClearAll()
	return ok()
}

// enableAutosave(url) streams every change to the backend over a websocket.
func enableAutosave(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failMsg("missing autosave url")
	}
	if stopAutosave != nil {
		stopAutosave()
	}
	var onResult js.Value
	if len(args) > 1 && args[1].Type() == js.TypeFunction {
		onResult = args[1]
	}
	s := autosave.NewSender(args[0].String(), autosave.SenderOptions{
		OnResult: func(r autosave.Result) {
			if onResult.IsUndefined() {
				return
			}
			out := map[string]interface{}{"seq": r.Seq, "revisionId": r.RevisionID}
			if r.Err != nil {
				out["error"] = r.Err.Error()
			}
			onResult.Invoke(js.ValueOf(out))
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	sender, stopAutosave = s, cancel
	go s.Run(ctx)
	if data, err := eng.Document(); err == nil {
		s.Persist(data)
	}
	return ok()
}

func disableAutosave(this js.Value, args []js.Value) interface{} {
	if stopAutosave != nil {
		stopAutosave()
	}
	sender, stopAutosave = nil, nil
	return ok()
}

// --- Input ---

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	eng.SetViewport(geometry.Viewport{
		OriginX: args[0].Float(),
		OriginY: args[1].Float(),
		Width:   args[2].Float(),
		Height:  args[3].Float(),
	})
	return nil
}

// pointerHandler takes (clientX, clientY, button, timeStamp).
func pointerHandler(fn func(interaction.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 4 {
			return nil
		}
		fn(interaction.PointerEvent{
			X:      args[0].Float(),
			Y:      args[1].Float(),
			Button: args[2].Int(),
			Time:   millis(args[3]),
		})
		return nil
	}
}

// touchHandler takes (touches, timeStamp) where touches is a TouchList or
// an array of {identifier, clientX, clientY}.
func touchHandler(fn func(interaction.TouchEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return nil
		}
		list := args[0]
		touches := make([]interaction.TouchPoint, 0, list.Length())
		for i := 0; i < list.Length(); i++ {
			t := list.Index(i)
			touches = append(touches, interaction.TouchPoint{
				ID: t.Get("identifier").Int(),
				X:  t.Get("clientX").Float(),
				Y:  t.Get("clientY").Float(),
			})
		}
		fn(interaction.TouchEvent{Touches: touches, Time: millis(args[1])})
		return nil
	}
}

func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.OnWheel(interaction.WheelEvent{X: args[0].Float(), Y: args[1].Float(), DeltaY: args[2].Float()})
	return nil
}

// --- Frame loop ---

// tick(timeStamp) returns the frame's draw commands, or null when nothing
// changed since the last frame.
func tick(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	out, drew := eng.Tick(millis(args[0]))
	if !drew {
		return js.Null()
	}
	return out
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	id := eng.HitTest(args[0].Float(), args[1].Float())
	if id == "" {
		return js.Null()
	}
	return id
}

// --- Persons and relationships ---

func savePerson(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failMsg("missing form JSON")
	}
	var form engine.PersonForm
	if err := json.Unmarshal([]byte(args[0].String()), &form); err != nil {
		return fail(err)
	}
	id, err := eng.SavePerson(form)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func getPerson(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	p, found := eng.GetPerson(args[0].String())
	if !found {
		return js.Null()
	}
	return js.ValueOf(map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"fatherName":  p.FatherName,
		"surname":     p.Surname,
		"birthName":   p.BirthName,
		"dob":         p.DOB,
		"gender":      string(p.Gender),
		"x":           p.X,
		"y":           p.Y,
		"color":       p.Color,
		"radius":      p.Radius,
		"zIndex":      p.ZIndex,
		"motherId":    p.MotherID,
		"fatherId":    p.FatherID,
		"spouseId":    p.SpouseID,
		"displayName": eng.DisplayName(p.ID),
	})
}

func deletePerson(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failMsg("missing id")
	}
	return result(eng.DeletePerson(args[0].String()))
}

func setRelationship(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return failMsg("expected subject, role, target")
	}
	role, err := scene.ParseRole(args[1].String())
	if err != nil {
		return fail(err)
	}
	return result(eng.SetRelationship(args[0].String(), role, args[2].String()))
}

func unlink(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failMsg("expected subject, role")
	}
	role, err := scene.ParseRole(args[1].String())
	if err != nil {
		return fail(err)
	}
	return result(eng.Unlink(args[0].String(), role))
}

func setLineOnly(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failMsg("expected two ids")
	}
	return result(eng.SetLineOnlyConnection(args[0].String(), args[1].String()))
}

func removeLineOnly(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return false
	}
	return eng.RemoveLineOnly(args[0].String(), args[1].String())
}

func hideConnection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return failMsg("expected two ids")
	}
	return result(eng.HideConnection(args[0].String(), args[1].String()))
}

func unhideConnection(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.UnhideConnection(args[0].String(), args[1].String())
	return nil
}

func getConnections(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Connections())
	if err != nil {
		return fail(err)
	}
	return string(data)
}

// --- Selection, camera, style ---

func setSelection(this js.Value, args []js.Value) interface{} {
	eng.SetSelection(stringArgs(args))
	return nil
}

func getSelection(this js.Value, args []js.Value) interface{} {
	ids := eng.Selection()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}

func centerOn(this js.Value, args []js.Value) interface{} {
	return eng.CenterOn(stringArgs(args)...)
}

func bringToFront(this js.Value, args []js.Value) interface{} {
	eng.BringToFront(stringArgs(args)...)
	return nil
}

// applyStyle(patchJSON, ids?) styles the given persons or the selection.
func applyStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failMsg("missing style JSON")
	}
	var patch engine.StylePatch
	if err := json.Unmarshal([]byte(args[0].String()), &patch); err != nil {
		return fail(err)
	}
	n, err := eng.ApplyStyle(stringArgs(args[1:]), patch)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "changed": n})
}

func getSettings(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Settings())
	if err != nil {
		return fail(err)
	}
	return string(data)
}

func updateSettings(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return failMsg("missing settings JSON")
	}
	s := eng.Settings()
	if err := json.Unmarshal([]byte(args[0].String()), &s); err != nil {
		return fail(err)
	}
	return result(eng.UpdateSettings(s))
}

// --- History ---

func undo(this js.Value, args []js.Value) interface{} {
	changed, err := eng.Undo()
	if err != nil {
		return fail(err)
	}
	return changed
}

func redo(this js.Value, args []js.Value) interface{} {
	changed, err := eng.Redo()
	if err != nil {
		return fail(err)
	}
	return changed
}

// --- Events ---

// on(name, callback) subscribes to an engine event and returns a function
// that unsubscribes.
func on(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || args[1].Type() != js.TypeFunction {
		return failMsg("expected event name and callback")
	}
	cb := args[1]
	ev := eng.Events()

	var handle interaction.Handle
	switch args[0].String() {
	case "nodeClicked":
		handle = ev.NodeClicked.Subscribe(func(e interaction.NodeEvent) { cb.Invoke(e.ID) })
	case "nodeDoubleClicked":
		handle = ev.NodeDoubleClicked.Subscribe(func(e interaction.NodeEvent) { cb.Invoke(e.ID) })
	case "nodeDragEnded":
		handle = ev.NodeDragEnded.Subscribe(func(e interaction.DragEvent) {
			cb.Invoke(e.ID, e.To.X, e.To.Y)
		})
	case "selectionCleared":
		handle = ev.SelectionCleared.Subscribe(func(interaction.SelectionEvent) { cb.Invoke() })
	case "selectionChanged":
		handle = ev.SelectionChanged.Subscribe(func(e interaction.SelectionEvent) {
			ids := make([]interface{}, len(e.IDs))
			for i, id := range e.IDs {
				ids[i] = id
			}
			cb.Invoke(js.ValueOf(ids))
		})
	case "connectionClicked":
		handle = ev.ConnectionClicked.Subscribe(func(e interaction.ConnectionEvent) {
			cb.Invoke(js.ValueOf(map[string]interface{}{
				"from": e.Connection.From,
				"to":   e.Connection.To,
				"type": string(e.Connection.Kind),
			}))
		})
	case "hoverChanged":
		handle = ev.HoverChanged.Subscribe(func(e interaction.NodeEvent) { cb.Invoke(e.ID) })
	case "viewChanged":
		handle = ev.ViewChanged.Subscribe(func(e interaction.ViewEvent) {
			cb.Invoke(e.Camera.X, e.Camera.Y, e.Camera.Scale)
		})
	default:
		return failMsg("unknown event " + args[0].String())
	}

	var off js.Func
	off = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		handle.Remove()
		off.Release()
		return nil
	})
	return off
}

// --- Text measurement ---

// canvasMeasurer measures labels with an offscreen 2D context so wrapping
// matches what the page draws.
type canvasMeasurer struct {
	ctx  js.Value
	font string
}

func newCanvasMeasurer() render.TextMeasurer {
	doc := js.Global().Get("document")
	if doc.IsUndefined() {
		return render.ApproxMeasurer{FontSize: render.DefaultSettings().FontSize}
	}
	canvas := doc.Call("createElement", "canvas")
	return &canvasMeasurer{ctx: canvas.Call("getContext", "2d")}
}

func (m *canvasMeasurer) MeasureText(text, font string) float64 {
	if font != m.font {
		m.ctx.Set("font", font)
		m.font = font
	}
	return m.ctx.Call("measureText", text).Get("width").Float()
}
