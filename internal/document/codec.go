// Package document reads and writes the saved JSON form of a family tree.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// MalformedDocumentError reports input that is not a usable tree document.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return "malformed document: " + e.Err.Error()
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return &MalformedDocumentError{Err: fmt.Errorf(format, args...)}
}

// IsMalformed reports whether err is a MalformedDocumentError.
func IsMalformed(err error) bool {
	var m *MalformedDocumentError
	return errors.As(err, &m)
}

// Tree is the decoded content of a document in engine terms.
type Tree struct {
	Persons  []scene.Person
	LineOnly []scene.PairKey
	Hidden   []scene.PairKey
	Camera   geometry.Camera
	Settings render.Settings
	NextID   int
}

// Decode parses a document. Any error is a *MalformedDocumentError.
func Decode(data []byte) (Tree, error) {
	var raw rawDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return Tree{}, &MalformedDocumentError{Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Tree{}, malformed("trailing data after document")
	}

	persons := raw.Persons
	if persons == nil {
		persons = raw.People
	}
	if persons == nil {
		return Tree{}, malformed("missing persons list")
	}

	settings := raw.Settings.apply(render.DefaultSettings())
	if raw.DisplayPreferences != nil {
		settings.Display = raw.DisplayPreferences.apply(settings.Display)
	}
	switch render.NodeShape(raw.NodeStyle) {
	case render.ShapeCircle, render.ShapeRectangle:
		settings.NodeShape = render.NodeShape(raw.NodeStyle)
	}

	t := Tree{
		Camera:   geometry.DefaultCamera(),
		Settings: settings,
	}
	if raw.Camera != nil {
		t.Camera = raw.Camera.Normalized()
	}

	seen := make(map[string]bool, len(*persons))
	maxSuffix := 0
	for i, wp := range *persons {
		if wp.ID == "" {
			return Tree{}, malformed("person %d has no id", i)
		}
		if seen[wp.ID] {
			return Tree{}, malformed("duplicate person id %q", wp.ID)
		}
		seen[wp.ID] = true
		if n, ok := scene.NumericSuffix(wp.ID); ok {
			maxSuffix = max(maxSuffix, n)
		}
		t.Persons = append(t.Persons, wp.toScene(settings))
	}
	t.NextID = max(raw.NextID, maxSuffix+1, 1)

	known := func(id string) bool { return seen[id] }
	t.LineOnly = resolveAll(raw.LineOnlyConnections, known)
	t.Hidden = resolveAll(raw.HiddenConnections, known)
	return t, nil
}

// Read decodes a document from r, refusing input longer than limit bytes
// when limit is positive.
func Read(r io.Reader, limit int64) (Tree, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Tree{}, fmt.Errorf("read document: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return Tree{}, malformed("document exceeds %d bytes", limit)
	}
	return Decode(data)
}

func resolveAll(refs []PairRef, known func(string) bool) []scene.PairKey {
	set := make(map[scene.PairKey]struct{}, len(refs))
	out := make([]scene.PairKey, 0, len(refs))
	for _, ref := range refs {
		k, ok := ref.Resolve(known)
		if !ok {
			continue
		}
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		out = append(out, k)
	}
	scene.SortPairs(out)
	return out
}

func (wp Person) toScene(s render.Settings) scene.Person {
	p := scene.Person{
		ID:         wp.ID,
		Name:       wp.Name,
		FatherName: wp.FatherName,
		Surname:    wp.Surname,
		BirthName:  wp.BirthName,
		DOB:        wp.DOB,
		Gender:     scene.ParseGender(wp.Gender),
		X:          wp.X,
		Y:          wp.Y,
		Color:      wp.Color,
		Radius:     wp.Radius,
		ZIndex:     wp.ZIndex,
		MotherID:   wp.MotherID,
		FatherID:   wp.FatherID,
		SpouseID:   wp.SpouseID,
	}
	if p.BirthName == "" {
		p.BirthName = wp.MaidenName
	}
	if p.X == 0 && p.Y == 0 {
		p.X, p.Y = wp.CX, wp.CY
	}
	if p.Color == "" {
		p.Color = wp.NodeColor
	}
	if p.Color == "" {
		p.Color = s.DefaultColor
	}
	if p.Radius <= 0 {
		p.Radius = wp.NodeSize
	}
	if p.Radius <= 0 {
		p.Radius = s.NodeRadius
	}
	return p
}

func fromScene(p scene.Person) Person {
	return Person{
		ID:         p.ID,
		Name:       p.Name,
		FatherName: p.FatherName,
		Surname:    p.Surname,
		BirthName:  p.BirthName,
		DOB:        p.DOB,
		Gender:     string(p.Gender),
		X:          p.X,
		Y:          p.Y,
		Color:      p.Color,
		Radius:     p.Radius,
		ZIndex:     p.ZIndex,
		MotherID:   p.MotherID,
		FatherID:   p.FatherID,
		SpouseID:   p.SpouseID,
	}
}

// FromTree builds the document for t.
func FromTree(t Tree) Document {
	cam := t.Camera
	doc := Document{
		Version:             Version,
		Settings:            settingsFrom(t.Settings),
		DisplayPreferences:  displayFrom(t.Settings.Display),
		NodeStyle:           string(t.Settings.NodeShape),
		Camera:              &cam,
		HiddenConnections:   pairRefs(t.Hidden),
		LineOnlyConnections: pairRefs(t.LineOnly),
		Persons:             make([]Person, 0, len(t.Persons)),
		NextID:              t.NextID,
	}
	for _, p := range t.Persons {
		doc.Persons = append(doc.Persons, fromScene(p))
	}
	return doc
}

func pairRefs(keys []scene.PairKey) []PairRef {
	sorted := append([]scene.PairKey(nil), keys...)
	scene.SortPairs(sorted)
	out := make([]PairRef, 0, len(sorted))
	for _, k := range sorted {
		out = append(out, NewPairRef(k))
	}
	return out
}

// Encode writes t as indented JSON.
func Encode(t Tree) ([]byte, error) {
	data, err := json.MarshalIndent(FromTree(t), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func (ws Settings) apply(s render.Settings) render.Settings {
	setF := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	setS := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	// Colors that may legally be empty are pointers so an empty value
	// survives a round trip.
	setP := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	line := func(dst *render.LineSettings, style string, thickness float64, color string) {
		switch st := render.LineStyle(style); st {
		case render.LineSolid, render.LineDashed, render.LineDotted, render.LineDashDot:
			dst.Style = st
		}
		setF(&dst.Thickness, thickness)
		setS(&dst.Color, color)
	}

	setF(&s.NodeRadius, ws.NodeRadius)
	setS(&s.DefaultColor, ws.DefaultColor)
	setS(&s.FontFamily, ws.FontFamily)
	setF(&s.FontSize, ws.FontSize)
	setS(&s.NameColor, ws.NameColor)
	setS(&s.DateColor, ws.DateColor)
	setS(&s.SelectedColor, ws.SelectedColor)
	if ws.ShowNodeOutline != nil {
		s.ShowNodeOutline = *ws.ShowNodeOutline
	}
	setP(&s.OutlineColor, ws.OutlineColor)
	if ws.OutlineThickness != nil && *ws.OutlineThickness >= 0 {
		s.OutlineThickness = *ws.OutlineThickness
	}
	line(&s.FamilyLine, ws.FamilyLineStyle, ws.FamilyLineThickness, ws.FamilyLineColor)
	line(&s.SpouseLine, ws.SpouseLineStyle, ws.SpouseLineThickness, ws.SpouseLineColor)
	line(&s.LineOnly, ws.LineOnlyStyle, ws.LineOnlyThickness, ws.LineOnlyColor)
	if g := ws.GridSize; g != nil && (*g == 0 || *g >= render.MinGridSize && *g <= render.MaxGridSize) {
		s.GridSize = *ws.GridSize
	}
	if ws.GridMajorEvery != nil && *ws.GridMajorEvery >= 0 {
		s.GridMajorEvery = *ws.GridMajorEvery
	}
	setP(&s.GridColor, ws.GridColor)
	setP(&s.GridMajorColor, ws.GridMajorColor)
	return s
}

func settingsFrom(s render.Settings) Settings {
	return Settings{
		NodeRadius:   s.NodeRadius,
		DefaultColor: s.DefaultColor,
		FontFamily:   s.FontFamily,
		FontSize:     s.FontSize,
		NameColor:    s.NameColor,
		DateColor:    s.DateColor,

		SelectedColor:    s.SelectedColor,
		ShowNodeOutline:  scene.Ptr(s.ShowNodeOutline),
		OutlineColor:     scene.Ptr(s.OutlineColor),
		OutlineThickness: scene.Ptr(s.OutlineThickness),

		FamilyLineStyle:     string(s.FamilyLine.Style),
		FamilyLineThickness: s.FamilyLine.Thickness,
		FamilyLineColor:     s.FamilyLine.Color,
		SpouseLineStyle:     string(s.SpouseLine.Style),
		SpouseLineThickness: s.SpouseLine.Thickness,
		SpouseLineColor:     s.SpouseLine.Color,
		LineOnlyStyle:       string(s.LineOnly.Style),
		LineOnlyThickness:   s.LineOnly.Thickness,
		LineOnlyColor:       s.LineOnly.Color,

		GridSize:       scene.Ptr(s.GridSize),
		GridMajorEvery: scene.Ptr(s.GridMajorEvery),
		GridColor:      scene.Ptr(s.GridColor),
		GridMajorColor: scene.Ptr(s.GridMajorColor),
	}
}

func (d DisplayPreferences) apply(p render.DisplayPreferences) render.DisplayPreferences {
	if d.ShowMaidenName != nil {
		p.ShowMaidenName = *d.ShowMaidenName
	}
	if d.ShowDateOfBirth != nil {
		p.ShowDateOfBirth = *d.ShowDateOfBirth
	}
	if d.ShowFatherName != nil {
		p.ShowFatherName = *d.ShowFatherName
	}
	return p
}

func displayFrom(p render.DisplayPreferences) *DisplayPreferences {
	return &DisplayPreferences{
		ShowMaidenName:  scene.Ptr(p.ShowMaidenName),
		ShowDateOfBirth: scene.Ptr(p.ShowDateOfBirth),
		ShowFatherName:  scene.Ptr(p.ShowFatherName),
	}
}
