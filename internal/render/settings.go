package render

import (
	"github.com/kinfolk/kinfolk/internal/scene"
)

type LineStyle string

const (
	LineSolid   LineStyle = "solid"
	LineDashed  LineStyle = "dashed"
	LineDotted  LineStyle = "dotted"
	LineDashDot LineStyle = "dash-dot"
)

// Dash returns the canvas dash pattern for the style, nil for solid.
func (s LineStyle) Dash() []float64 {
	switch s {
	case LineDashed:
		return []float64{8, 4}
	case LineDotted:
		return []float64{2, 4}
	case LineDashDot:
		return []float64{8, 4, 2, 4}
	default:
		return nil
	}
}

type NodeShape string

const (
	ShapeCircle    NodeShape = "circle"
	ShapeRectangle NodeShape = "rectangle"
)

// Grid sizes outside [MinGridSize, MaxGridSize] are rejected; zero turns the
// grid off.
const (
	MinGridSize = 5
	MaxGridSize = 1000
)

type LineSettings struct {
	Style     LineStyle `json:"style" validate:"oneof=solid dashed dotted dash-dot"`
	Thickness float64   `json:"thickness" validate:"gt=0,lte=20"`
	Color     string    `json:"color" validate:"required"`
}

// DisplayPreferences control which label parts are drawn.
type DisplayPreferences struct {
	ShowMaidenName  bool `json:"showMaidenName"`
	ShowDateOfBirth bool `json:"showDateOfBirth"`
	ShowFatherName  bool `json:"showFatherName"`
}

// Settings is the global look of the tree. It is part of every snapshot
// and of the saved document.
type Settings struct {
	NodeRadius   float64   `json:"nodeRadius" validate:"gt=0,lte=500"`
	DefaultColor string    `json:"defaultColor" validate:"required"`
	NodeShape    NodeShape `json:"nodeShape" validate:"oneof=circle rectangle"`

	FontFamily string  `json:"fontFamily" validate:"required"`
	FontSize   float64 `json:"fontSize" validate:"gt=0,lte=96"`
	NameColor  string  `json:"nameColor" validate:"required"`
	DateColor  string  `json:"dateColor" validate:"required"`

	SelectedColor    string  `json:"selectedColor" validate:"required"`
	ShowNodeOutline  bool    `json:"showNodeOutline"`
	OutlineColor     string  `json:"outlineColor"`
	OutlineThickness float64 `json:"outlineThickness" validate:"gte=0,lte=20"`

	FamilyLine LineSettings `json:"familyLine"`
	SpouseLine LineSettings `json:"spouseLine"`
	LineOnly   LineSettings `json:"lineOnly"`

	GridSize       float64 `json:"gridSize" validate:"omitempty,gte=5,lte=1000"`
	GridMajorEvery int     `json:"gridMajorEvery" validate:"gte=0"`
	GridColor      string  `json:"gridColor"`
	GridMajorColor string  `json:"gridMajorColor"`

	Display DisplayPreferences `json:"display"`
}

func DefaultSettings() Settings {
	return Settings{
		NodeRadius:   50,
		DefaultColor: "#3498db",
		NodeShape:    ShapeCircle,

		FontFamily: "Inter",
		FontSize:   11,
		NameColor:  "#ffffff",
		DateColor:  "#f0f0f0",

		SelectedColor:    "#e74c3c",
		ShowNodeOutline:  true,
		OutlineColor:     "#2c3e50",
		OutlineThickness: 2,

		FamilyLine: LineSettings{Style: LineSolid, Thickness: 2, Color: "#7f8c8d"},
		SpouseLine: LineSettings{Style: LineDashed, Thickness: 2, Color: "#e74c3c"},
		LineOnly:   LineSettings{Style: LineDashDot, Thickness: 2, Color: "#9b59b6"},

		GridSize:       50,
		GridMajorEvery: 4,
		GridColor:      "#f0f0f0",
		GridMajorColor: "#e0e0e0",

		Display: DisplayPreferences{
			ShowMaidenName:  true,
			ShowDateOfBirth: true,
			ShowFatherName:  true,
		},
	}
}

// Line returns the stroke settings for a connection kind.
func (s Settings) Line(k scene.Kind) LineSettings {
	switch k {
	case scene.KindSpouse:
		return s.SpouseLine
	case scene.KindLineOnly:
		return s.LineOnly
	default:
		return s.FamilyLine
	}
}
