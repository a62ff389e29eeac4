// Package collision implements the gather detector from spec.md §4.3: given
// a set of moving gatherers (line segments with a width) and static items
// (points with a width), it finds every (gatherer, item) pair that comes
// into contact during the gatherer's straight-line motion, ordered by when
// along that motion the contact happens.
//
// New algorithm — the teacher's single-dog grid game has no multi-actor
// collision system — but written in the small, pure-function style of
// game/engine/movement.go: free functions over value types, no hidden
// state, one responsibility per function.
package collision

import "github.com/nkazantsev/streetdogs/game/geom"

// Gatherer is a moving actor: a line segment from Start to End with a
// collection radius.
type Gatherer struct {
	Start  geom.Position
	End    geom.Position
	Width  float64
}

// Item is a static point with a collection radius.
type Item struct {
	Position geom.Position
	Width    float64
}

// Event records that gatherer GathererIndex came within range of item
// ItemIndex at the given point along the gatherer's motion.
type Event struct {
	GathererIndex int
	ItemIndex     int
	SqDistance    float64
	TimeRatio     float64
}

// FindEvents returns every contact event between gatherers and items,
// sorted by TimeRatio ascending; ties preserve gatherer-then-item index
// order (a stable sort over inputs already in that order).
func FindEvents(gatherers []Gatherer, items []Item) []Event {
	var events []Event
	for gi, g := range gatherers {
		dx := g.End.X - g.Start.X
		dy := g.End.Y - g.Start.Y
		lenSq := dx*dx + dy*dy
		if lenSq == 0 {
			continue
		}
		for ii, it := range items {
			px := it.Position.X - g.Start.X
			py := it.Position.Y - g.Start.Y

			timeRatio := (px*dx + py*dy) / lenSq
			if timeRatio < 0 || timeRatio > 1 {
				continue
			}

			// Perpendicular distance² from the item to the gatherer's line.
			projX := dx * timeRatio
			projY := dy * timeRatio
			distX := px - projX
			distY := py - projY
			sqDistance := distX*distX + distY*distY

			maxDist := g.Width + it.Width
			if sqDistance > maxDist*maxDist {
				continue
			}

			events = append(events, Event{
				GathererIndex: gi,
				ItemIndex:     ii,
				SqDistance:    sqDistance,
				TimeRatio:     timeRatio,
			})
		}
	}

	stableSortByTimeRatio(events)
	return events
}

// stableSortByTimeRatio is a small insertion sort: event counts per tick are
// tiny (dogs × nearby items), and insertion sort is naturally stable without
// reaching for sort.SliceStable's extra allocation.
func stableSortByTimeRatio(events []Event) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].TimeRatio < events[j-1].TimeRatio; j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}
