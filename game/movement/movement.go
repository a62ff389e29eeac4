// Package movement implements the per-tick position resolver from
// spec.md §4.2: given a dog's current position, velocity and the elapsed
// time, compute where it ends up and whether it was clamped to a road
// boundary. Grounded on the teacher's engine.GameState.MovePlayer/
// CanMoveTo (game/engine/movement.go) — same "propose, check against the
// map, clamp or accept" shape, generalized from four cardinal grid steps
// to continuous motion along a sparse road network.
package movement

import (
	"fmt"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
	"github.com/nkazantsev/streetdogs/game/roadindex"
)

// MaxDelta is the hard-coded half-width of a road, in map units, per
// spec.md §4.2.
const MaxDelta = 0.4

// Resolve computes the end position for one dog's motion over deltaMs
// milliseconds. It panics if pos rounds to a lattice point not present in
// idx — per spec.md §4.2, that indicates a broken road-network invariant,
// not a recoverable error.
func Resolve(pos geom.Position, vel geom.Speed, deltaMs float64, idx *roadindex.Index) (stopped bool, newPos geom.Position) {
	if vel.X == 0 && vel.Y == 0 {
		return false, pos
	}

	dtSec := deltaMs / 1000
	candidate := geom.Position{X: pos.X + vel.X*dtSec, Y: pos.Y + vel.Y*dtSec}

	cell := pos.Round()
	roads := idx.At(cell)
	if len(roads) == 0 {
		panic(fmt.Sprintf("movement: position %v (cell %v) is not covered by any road", pos, cell))
	}

	movingHorizontal := vel.X != 0

	// Steps 2a/2b: walk the roads at this cell in one pass, exactly as the
	// source's CalculateMove does — for the road currently being examined,
	// return the instant either the candidate is fully contained (2a) or
	// this road's orientation matches the motion axis and needs a clamp
	// (2b). Do not scan ahead: a road requiring a clamp must win over a
	// later road that would merely happen to contain the unclamped
	// candidate, so a dog cannot walk through the end of one segment onto
	// the next in a single tick.
	for _, r := range roads {
		if withinInflatedBox(candidate, *r) {
			return false, candidate
		}
		if r.IsHorizontal() == movingHorizontal {
			return true, clampAlongRoad(*r, pos, vel, movingHorizontal)
		}
	}

	// Step 3: velocity orthogonal to every covering road — clamp to the
	// cell boundary itself.
	return true, clampToCell(cell, pos, vel, movingHorizontal)
}

func withinInflatedBox(candidate geom.Position, r model.Road) bool {
	minX, maxX, minY, maxY := r.Bounds()
	return candidate.X >= float64(minX)-MaxDelta && candidate.X <= float64(maxX)+MaxDelta &&
		candidate.Y >= float64(minY)-MaxDelta && candidate.Y <= float64(maxY)+MaxDelta
}

// clampAlongRoad clamps the moving coordinate to r's far boundary, offset
// by MaxDelta beyond the endpoint, in the direction of travel. The clamp
// axis is derived from the road's own orientation — never from the
// requested direction — resolving the source's GetMaxPossible bug noted
// in spec.md §9.
func clampAlongRoad(r model.Road, pos geom.Position, vel geom.Speed, movingHorizontal bool) geom.Position {
	minX, maxX, minY, maxY := r.Bounds()
	if movingHorizontal {
		if vel.X > 0 {
			return geom.Position{X: float64(maxX) + MaxDelta, Y: pos.Y}
		}
		return geom.Position{X: float64(minX) - MaxDelta, Y: pos.Y}
	}
	if vel.Y > 0 {
		return geom.Position{X: pos.X, Y: float64(maxY) + MaxDelta}
	}
	return geom.Position{X: pos.X, Y: float64(minY) - MaxDelta}
}

func clampToCell(cell geom.Point, pos geom.Position, vel geom.Speed, movingHorizontal bool) geom.Position {
	if movingHorizontal {
		if vel.X > 0 {
			return geom.Position{X: float64(cell.X) + MaxDelta, Y: pos.Y}
		}
		return geom.Position{X: float64(cell.X) - MaxDelta, Y: pos.Y}
	}
	if vel.Y > 0 {
		return geom.Position{X: pos.X, Y: float64(cell.Y) + MaxDelta}
	}
	return geom.Position{X: pos.X, Y: float64(cell.Y) - MaxDelta}
}
