package model

// Position is a tile coordinate within an area's grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is the way a player is facing.
type Direction string

// Facing directions
const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Valid reports whether d is one of the four facing directions.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Step returns the position one tile away from p in direction d.
func (p Position) Step(d Direction) Position {
	switch d {
	case DirUp:
		return Position{X: p.X, Y: p.Y - 1}
	case DirDown:
		return Position{X: p.X, Y: p.Y + 1}
	case DirLeft:
		return Position{X: p.X - 1, Y: p.Y}
	case DirRight:
		return Position{X: p.X + 1, Y: p.Y}
	}
	return p
}
