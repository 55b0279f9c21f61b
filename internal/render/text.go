package render

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextMeasurer reports the rendered width of text in a CSS font.
type TextMeasurer interface {
	MeasureText(text, font string) float64
}

// ApproxMeasurer estimates widths from a fixed average glyph width. It is
// used where no canvas is available.
type ApproxMeasurer struct {
	FontSize float64
}

func (m ApproxMeasurer) MeasureText(text, _ string) float64 {
	return float64(utf8.RuneCountInString(text)) * m.FontSize * 0.6
}

// WrapText breaks text on spaces into lines no wider than maxWidth. A single
// word wider than maxWidth gets a line of its own.
func WrapText(m TextMeasurer, text, font string, maxWidth float64) []string {
	words := strings.Fields(text)
	var lines []string
	current := ""
	for _, w := range words {
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if current != "" && m.MeasureText(candidate, font) > maxWidth {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func font(weight string, size float64, family string) string {
	if weight == "" {
		return fmt.Sprintf("%gpx %s", size, family)
	}
	return fmt.Sprintf("%s %gpx %s", weight, size, family)
}
