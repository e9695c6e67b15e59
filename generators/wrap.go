package generators

import (
	"strings"

	"golang.org/x/image/font"
)

// MeasureString returns the advance width of s in pixels, kerning included.
func MeasureString(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// Wrap breaks text into lines no wider than maxWidth when drawn with face.
//
// Words are separated by any run of whitespace and joined back with single
// spaces; newlines carry no meaning. Lines are filled greedily. A word that is
// wider than maxWidth on its own is kept whole on a line of its own.
func Wrap(text string, face font.Face, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := make([]string, 0, len(words))
	for _, word := range words {
		current = append(current, word)
		if len(current) == 1 {
			continue
		}
		if MeasureString(face, strings.Join(current, " ")) > maxWidth {
			lines = append(lines, strings.Join(current[:len(current)-1], " "))
			current = append(current[:0], word)
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}
