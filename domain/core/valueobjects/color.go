package valueobjects

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// Color is a "#rrggbb" hex color, lower-case
type Color string

// ParseColor validates and normalises a hex color
func ParseColor(s string) (Color, error) {
	c := strings.ToLower(strings.TrimSpace(s))
	if !hexColorPattern.MatchString(c) {
		return "", fmt.Errorf("color must match #rrggbb, got %q", s)
	}
	return Color(c), nil
}

// RandomColor samples uniformly over the 24-bit color space
func RandomColor(rng *rand.Rand) Color {
	return Color(fmt.Sprintf("#%06x", rng.Intn(1<<24)))
}

// String returns the hex form
func (c Color) String() string {
	return string(c)
}

// IsValid reports whether the color is well formed
func (c Color) IsValid() bool {
	return hexColorPattern.MatchString(string(c))
}
