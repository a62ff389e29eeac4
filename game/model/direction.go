package model

import "github.com/nkazantsev/streetdogs/game/geom"

// Direction is the facing/heading of a dog. It maps to a unit velocity
// vector scaled by the owning map's speed.
type Direction string

const (
	North Direction = "U"
	South Direction = "D"
	West  Direction = "L"
	East  Direction = "R"
)

// ParseDirection maps the one-letter REST action codes from spec.md §6 to a
// Direction. The empty string means "stop" and is handled by the caller,
// not here.
func ParseDirection(code string) (Direction, bool) {
	switch Direction(code) {
	case North, South, West, East:
		return Direction(code), true
	default:
		return "", false
	}
}

// Velocity returns the unit velocity vector for d scaled by speed s.
func (d Direction) Velocity(s float64) geom.Speed {
	switch d {
	case North:
		return geom.Speed{X: 0, Y: -s}
	case South:
		return geom.Speed{X: 0, Y: s}
	case West:
		return geom.Speed{X: -s, Y: 0}
	case East:
		return geom.Speed{X: s, Y: 0}
	default:
		return geom.Speed{}
	}
}
