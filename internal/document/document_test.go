package document

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/scene"
)

func TestRoundTrip(t *testing.T) {
	in := SampleTree()
	in.Hidden = []scene.PairKey{scene.MakePair("person_3", "person_2")}
	in.Camera = geometry.Camera{X: 12, Y: -40, Scale: 1.5}
	in.Settings.ShowNodeOutline = false
	in.Settings.OutlineThickness = 0
	in.Settings.Display.ShowDateOfBirth = false
	in.Settings.NodeShape = render.ShapeRectangle
	in.Settings.SpouseLine.Style = render.LineDotted

	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, in.Persons, out.Persons)
	assert.Equal(t, in.LineOnly, out.LineOnly)
	assert.Equal(t, in.Hidden, out.Hidden)
	assert.Equal(t, in.Camera, out.Camera)
	assert.Equal(t, in.Settings, out.Settings)
	assert.Equal(t, in.NextID, out.NextID)
}

func TestEncodeWritesPairStrings(t *testing.T) {
	data, err := Encode(SampleTree())
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, []any{"person_4-person_7"}, generic["lineOnlyConnections"])
	assert.Equal(t, Version, generic["version"])
}

func TestDecodeLegacyFields(t *testing.T) {
	doc := `{
		"settings": {"nodeRadius": 40, "defaultColor": "#abcdef"},
		"people": [
			{"id": "p1", "name": "Old", "cx": 10, "cy": 20, "nodeSize": 30, "maidenName": "Roe", "gender": "Female"},
			{"id": "p2", "name": "Plain"}
		],
		"lineOnlyConnections": [["p2", "p1"]]
	}`
	tree, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, tree.Persons, 2)

	old := tree.Persons[0]
	assert.Equal(t, 10.0, old.X)
	assert.Equal(t, 20.0, old.Y)
	assert.Equal(t, 30.0, old.Radius)
	assert.Equal(t, "Roe", old.BirthName)
	assert.Equal(t, scene.GenderFemale, old.Gender)
	assert.Equal(t, "#abcdef", old.Color)

	assert.Equal(t, 40.0, tree.Persons[1].Radius)
	assert.Equal(t, []scene.PairKey{{A: "p1", B: "p2"}}, tree.LineOnly)
	assert.Equal(t, geometry.DefaultCamera(), tree.Camera)
	assert.Equal(t, 3, tree.NextID)
}

func TestDecodeNextIDIsMonotonic(t *testing.T) {
	tree, err := Decode([]byte(`{"persons":[{"id":"person_9"}],"nextId":4}`))
	require.NoError(t, err)
	assert.Equal(t, 10, tree.NextID)

	tree, err = Decode([]byte(`{"persons":[{"id":"person_2"}],"nextId":40}`))
	require.NoError(t, err)
	assert.Equal(t, 40, tree.NextID)

	tree, err = Decode([]byte(`{"persons":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, tree.NextID)
}

func TestDecodeClampsCamera(t *testing.T) {
	tree, err := Decode([]byte(`{"persons":[],"camera":{"x":1,"y":2,"scale":40}}`))
	require.NoError(t, err)
	assert.Equal(t, geometry.Camera{X: 1, Y: 2, Scale: geometry.MaxScale}, tree.Camera)
}

func TestEmptyColorsRoundTrip(t *testing.T) {
	in := SampleTree()
	in.Settings.OutlineColor = ""
	in.Settings.GridColor = ""
	in.Settings.GridMajorColor = ""
	in.Settings.GridSize = 0

	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in.Settings, out.Settings)
}

func TestDecodeIgnoresOutOfRangeGridSize(t *testing.T) {
	for _, size := range []string{"0.001", "4.99", "-50", "5000"} {
		t.Run(size, func(t *testing.T) {
			tree, err := Decode([]byte(`{"persons":[],"settings":{"gridSize":` + size + `}}`))
			require.NoError(t, err)
			assert.Equal(t, render.DefaultSettings().GridSize, tree.Settings.GridSize)
		})
	}

	tree, err := Decode([]byte(`{"persons":[],"settings":{"gridSize":5}}`))
	require.NoError(t, err)
	assert.Equal(t, 5.0, tree.Settings.GridSize)
}

func TestPairResolveWithDashedIDs(t *testing.T) {
	known := map[string]bool{"a-1": true, "b": true, "x": true}
	isKnown := func(id string) bool { return known[id] }

	var ref PairRef
	require.NoError(t, json.Unmarshal([]byte(`"a-1-b"`), &ref))
	k, ok := ref.Resolve(isKnown)
	require.True(t, ok)
	assert.Equal(t, scene.PairKey{A: "a-1", B: "b"}, k)

	require.NoError(t, json.Unmarshal([]byte(`"gone-x"`), &ref))
	k, ok = ref.Resolve(isKnown)
	require.True(t, ok, "dangling pairs are kept and filtered later")
	assert.Equal(t, scene.PairKey{A: "gone", B: "x"}, k)

	require.NoError(t, json.Unmarshal([]byte(`"nodash"`), &ref))
	_, ok = ref.Resolve(isKnown)
	assert.False(t, ok)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"persons": [`},
		{"wrong shape", `{"persons": {"id": "x"}}`},
		{"missing persons", `{"settings": {}}`},
		{"empty id", `{"persons": [{"name": "x"}]}`},
		{"duplicate id", `{"persons": [{"id": "a"}, {"id": "a"}]}`},
		{"bad pair array", `{"persons": [], "hiddenConnections": [["a"]]}`},
		{"trailing", `{"persons": []} {}`},
		{"array root", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "got %T", err)
		})
	}
}

func TestReadLimit(t *testing.T) {
	doc := `{"persons": []}`
	_, err := Read(strings.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)

	_, err = Read(strings.NewReader(doc), 5)
	assert.True(t, IsMalformed(err))
}
