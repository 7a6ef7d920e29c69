package valueobjects

import (
	"fmt"
	"math"
)

// Position is a 2-D canvas coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position, rejecting NaN and infinities
func NewPosition(x, y float64) (Position, error) {
	if !isFinite(x) || !isFinite(y) {
		return Position{}, fmt.Errorf("position must be finite, got (%v, %v)", x, y)
	}
	return Position{X: x, Y: y}, nil
}

// Offset returns the position shifted by (dx, dy)
func (p Position) Offset(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// String returns "(x, y)"
func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
