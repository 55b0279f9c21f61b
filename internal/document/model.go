package document

import (
	"github.com/kinfolk/kinfolk/internal/geometry"
)

// Version is written into every saved document.
const Version = "2.6"

// Document is the persisted JSON form of a family tree.
type Document struct {
	Version             string              `json:"version"`
	Settings            Settings            `json:"settings"`
	DisplayPreferences  *DisplayPreferences `json:"displayPreferences,omitempty"`
	NodeStyle           string              `json:"nodeStyle,omitempty"`
	Camera              *geometry.Camera    `json:"camera,omitempty"`
	HiddenConnections   []PairRef           `json:"hiddenConnections"`
	LineOnlyConnections []PairRef           `json:"lineOnlyConnections"`
	Persons             []Person            `json:"persons"`
	NextID              int                 `json:"nextId"`
}

// Settings is the flat settings object. Missing or zero values fall back to
// the defaults; the pointer fields are the ones where zero is meaningful.
type Settings struct {
	NodeRadius   float64 `json:"nodeRadius,omitempty"`
	DefaultColor string  `json:"defaultColor,omitempty"`
	FontFamily   string  `json:"fontFamily,omitempty"`
	FontSize     float64 `json:"fontSize,omitempty"`
	NameColor    string  `json:"nameColor,omitempty"`
	DateColor    string  `json:"dateColor,omitempty"`

	SelectedColor    string   `json:"selectedColor,omitempty"`
	ShowNodeOutline  *bool    `json:"showNodeOutline,omitempty"`
	OutlineColor     *string  `json:"outlineColor,omitempty"`
	OutlineThickness *float64 `json:"outlineThickness,omitempty"`

	FamilyLineStyle     string  `json:"familyLineStyle,omitempty"`
	FamilyLineThickness float64 `json:"familyLineThickness,omitempty"`
	FamilyLineColor     string  `json:"familyLineColor,omitempty"`

	SpouseLineStyle     string  `json:"spouseLineStyle,omitempty"`
	SpouseLineThickness float64 `json:"spouseLineThickness,omitempty"`
	SpouseLineColor     string  `json:"spouseLineColor,omitempty"`

	LineOnlyStyle     string  `json:"lineOnlyStyle,omitempty"`
	LineOnlyThickness float64 `json:"lineOnlyThickness,omitempty"`
	LineOnlyColor     string  `json:"lineOnlyColor,omitempty"`

	GridSize       *float64 `json:"gridSize,omitempty"`
	GridMajorEvery *int     `json:"gridMajorEvery,omitempty"`
	GridColor      *string  `json:"gridColor,omitempty"`
	GridMajorColor *string  `json:"gridMajorColor,omitempty"`
}

type DisplayPreferences struct {
	ShowMaidenName  *bool `json:"showMaidenName,omitempty"`
	ShowDateOfBirth *bool `json:"showDateOfBirth,omitempty"`
	ShowFatherName  *bool `json:"showFatherName,omitempty"`
}

// Person is one saved person record. Older files used cx/cy, nodeColor,
// nodeSize and maidenName; those are read but never written.
type Person struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	FatherName string  `json:"fatherName"`
	Surname    string  `json:"surname"`
	BirthName  string  `json:"birthName"`
	DOB        string  `json:"dob"`
	Gender     string  `json:"gender"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Color      string  `json:"color,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	ZIndex     int     `json:"zIndex,omitempty"`
	MotherID   string  `json:"motherId"`
	FatherID   string  `json:"fatherId"`
	SpouseID   string  `json:"spouseId"`

	CX         float64 `json:"cx,omitempty"`
	CY         float64 `json:"cy,omitempty"`
	NodeColor  string  `json:"nodeColor,omitempty"`
	NodeSize   float64 `json:"nodeSize,omitempty"`
	MaidenName string  `json:"maidenName,omitempty"`
}

// rawDocument accepts "people" as an alias of "persons" and tells a missing
// persons list apart from an empty one.
type rawDocument struct {
	Document
	Persons *[]Person `json:"persons"`
	People  *[]Person `json:"people"`
}
