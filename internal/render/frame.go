package render

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// Frame is everything one redraw reads. Compile never mutates it.
type Frame struct {
	Persons     []scene.Person
	Connections []scene.Connection
	View        geometry.View
	Selected    map[string]bool
	Hovered     string
	Settings    Settings
	Measurer    TextMeasurer
}

// Compile produces the draw commands for a frame: grid, connections, nodes
// and labels, back to front, inside the camera transform.
func Compile(f Frame) []DrawCommand {
	if f.Measurer == nil {
		f.Measurer = ApproxMeasurer{FontSize: f.Settings.FontSize}
	}
	byID := make(map[string]scene.Person, len(f.Persons))
	for _, p := range f.Persons {
		byID[p.ID] = p
	}

	cmds := []DrawCommand{
		{Op: "clear", Width: f.View.Viewport.Width, Height: f.View.Viewport.Height},
		{Op: "save"},
		{Op: "transform", Transform: f.View.Matrix().ToSlice()},
	}
	cmds = appendGrid(cmds, f)
	cmds = appendConnections(cmds, f, byID)

	ordered := paintOrder(f.Persons)
	for _, p := range ordered {
		cmds = appendNode(cmds, f, p)
	}
	for _, p := range ordered {
		cmds = appendLabel(cmds, f, p)
	}
	return append(cmds, DrawCommand{Op: "restore"})
}

// paintOrder sorts by z-order, keeping creation order for ties, so the node
// drawn last is the one hit-testing picks.
func paintOrder(persons []scene.Person) []scene.Person {
	out := slices.Clone(persons)
	slices.SortStableFunc(out, func(a, b scene.Person) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	return out
}

// minGridPixels is the smallest on-screen spacing between grid lines.
const minGridPixels = 4

func appendGrid(cmds []DrawCommand, f Frame) []DrawCommand {
	size := f.Settings.GridSize
	if size <= 0 || f.View.Viewport.Width <= 0 || f.View.Viewport.Height <= 0 {
		return cmds
	}
	scale := f.View.Camera.Scale
	if scale <= 0 {
		return cmds
	}
	// Zoomed far out, skip lines in powers of two so spacing on screen stays
	// at least minGridPixels. Major lines still land on multiples of size.
	step := size
	for step*scale < minGridPixels {
		step *= 2
	}
	area := f.View.VisibleWorldRect()
	startX := math.Floor(area.X/step) * step
	startY := math.Floor(area.Y/step) * step
	endX := area.X + area.Width
	endY := area.Y + area.Height

	color := func(v float64) string {
		every := f.Settings.GridMajorEvery
		if every > 0 && int(math.Round(v/size))%every == 0 {
			return f.Settings.GridMajorColor
		}
		return f.Settings.GridColor
	}

	for x := startX; x <= endX; x += step {
		cmds = append(cmds, DrawCommand{
			Op: "line", X: x, Y: startY, X2: x, Y2: endY,
			Stroke: color(x), StrokeWidth: 1 / scale,
		})
	}
	for y := startY; y <= endY; y += step {
		cmds = append(cmds, DrawCommand{
			Op: "line", X: startX, Y: y, X2: endX, Y2: y,
			Stroke: color(y), StrokeWidth: 1 / scale,
		})
	}
	return cmds
}

func appendConnections(cmds []DrawCommand, f Frame, byID map[string]scene.Person) []DrawCommand {
	for _, c := range f.Connections {
		from, ok := byID[c.From]
		if !ok {
			continue
		}
		to, ok := byID[c.To]
		if !ok {
			continue
		}
		line := f.Settings.Line(c.Kind)
		cmds = append(cmds, DrawCommand{
			Op:          "line",
			ObjectID:    c.From + "|" + c.To,
			X:           from.X,
			Y:           from.Y,
			X2:          to.X,
			Y2:          to.Y,
			Stroke:      line.Color,
			StrokeWidth: line.Thickness,
			Dash:        line.Style.Dash(),
		})
	}
	return cmds
}

func appendNode(cmds []DrawCommand, f Frame, p scene.Person) []DrawCommand {
	s := f.Settings
	radius := p.Radius
	if radius <= 0 {
		radius = s.NodeRadius
	}
	fill := p.Color
	if fill == "" {
		fill = s.DefaultColor
	}

	cmd := DrawCommand{Op: "circle", ObjectID: p.ID, X: p.X, Y: p.Y, Radius: radius, Fill: fill}
	if s.NodeShape == ShapeRectangle {
		cmd = DrawCommand{
			Op: "rect", ObjectID: p.ID,
			X: p.X - radius, Y: p.Y - radius, Width: 2 * radius, Height: 2 * radius,
			Fill: fill,
		}
	}

	switch {
	case f.Selected[p.ID]:
		cmd.ShadowColor = s.SelectedColor
		cmd.ShadowBlur = 12
		cmd.Stroke = s.SelectedColor
		cmd.StrokeWidth = 4
	case p.ID == f.Hovered:
		cmd.ShadowColor = "rgba(0,0,0,0.2)"
		cmd.ShadowBlur = 8
		fallthrough
	default:
		if s.ShowNodeOutline && s.OutlineThickness > 0 {
			cmd.Stroke = s.OutlineColor
			cmd.StrokeWidth = s.OutlineThickness
		}
	}
	return append(cmds, cmd)
}

// LabelLines returns the name lines of a person as drawn inside its node.
func LabelLines(s Settings, m TextMeasurer, p scene.Person) []string {
	radius := p.Radius
	if radius <= 0 {
		radius = s.NodeRadius
	}
	parts := []string{p.Name}
	if s.Display.ShowFatherName && p.FatherName != "" {
		parts = append(parts, p.FatherName)
	}
	if p.Surname != "" {
		parts = append(parts, p.Surname)
	}
	name := strings.Join(parts, " ")
	return WrapText(m, name, font("600", s.FontSize, s.FontFamily), radius*1.8)
}

func appendLabel(cmds []DrawCommand, f Frame, p scene.Person) []DrawCommand {
	s := f.Settings
	lines := LabelLines(s, f.Measurer, p)
	lineHeight := s.FontSize + 1
	small := s.FontSize - 1

	y := p.Y - float64(len(lines)-1)*lineHeight/2
	nameFont := font("600", s.FontSize, s.FontFamily)
	for _, line := range lines {
		cmds = append(cmds, DrawCommand{Op: "text", ObjectID: p.ID, X: p.X, Y: y, Text: line, Font: nameFont, Fill: s.NameColor})
		y += lineHeight
	}

	if s.Display.ShowMaidenName && p.BirthName != "" && p.BirthName != p.Surname {
		cmds = append(cmds, DrawCommand{
			Op: "text", ObjectID: p.ID, X: p.X, Y: y,
			Text: "(" + p.BirthName + ")", Font: font("italic", small, s.FontFamily), Fill: s.NameColor,
		})
		y += small
	}
	if s.Display.ShowDateOfBirth && p.DOB != "" {
		cmds = append(cmds, DrawCommand{
			Op: "text", ObjectID: p.ID, X: p.X, Y: y + 5,
			Text: p.DOB, Font: font("", small, s.FontFamily), Fill: s.DateColor,
		})
	}
	return cmds
}
