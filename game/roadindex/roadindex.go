// Package roadindex builds and queries the per-map spatial index from
// spec.md §4.1: an integer lattice point maps to every road segment that
// covers it. The index is immutable once built, the same contract the
// teacher's engine.GameState.CanMoveTo relies on for its (dense) grid —
// here generalized to a sparse map keyed by geom.Point since road
// networks are rarely grid-dense.
package roadindex

import "github.com/nkazantsev/streetdogs/game/model"
import "github.com/nkazantsev/streetdogs/game/geom"

// Index answers "which roads cover this lattice point" in insertion order.
type Index struct {
	byPoint map[geom.Point][]*model.Road
}

// Build constructs an Index over roads. The roads slice must outlive the
// Index; roads are referenced, not copied.
func Build(roads []model.Road) *Index {
	idx := &Index{byPoint: make(map[geom.Point][]*model.Road)}
	for i := range roads {
		r := &roads[i]
		for _, p := range r.Covers() {
			idx.byPoint[p] = append(idx.byPoint[p], r)
		}
	}
	return idx
}

// At returns the roads covering lattice point p, in the order they were
// inserted (i.e. the order they appear in the map's road list), or nil if
// p is not covered by any road.
func (idx *Index) At(p geom.Point) []*model.Road {
	return idx.byPoint[p]
}
