package render

import (
	"encoding/json"
)

// DrawCommand is a single Canvas2D operation for the host to execute.
// A frame is a list of these in painter's order (back to front).
type DrawCommand struct {
	Op        string    `json:"op"`                  // "clear", "save", "restore", "transform", "line", "circle", "rect", "text"
	ObjectID  string    `json:"objectId,omitempty"`  // Person id, or "from|to" for connections
	Transform []float64 `json:"transform,omitempty"` // [a, b, c, d, e, f] affine matrix

	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	X2     float64 `json:"x2,omitempty"`
	Y2     float64 `json:"y2,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
	ShadowColor string    `json:"shadowColor,omitempty"`
	ShadowBlur  float64   `json:"shadowBlur,omitempty"`

	Text string `json:"text,omitempty"`
	Font string `json:"font,omitempty"`
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
