package model

import "github.com/nkazantsev/streetdogs/game/geom"

// Item is something carried in a dog's pockets.
type Item struct {
	ID   uint64 `json:"id"`
	Type uint32 `json:"type"`
}

// LostItem is an item lying on the ground, indexed by a per-session
// monotonic loot ID.
type LostItem struct {
	ID       uint64      `json:"id"`
	Type     uint32      `json:"type"`
	Position geom.Position `json:"position"`
}

// Dog is one player's avatar within a session. Its ID is stable across
// snapshot/restore; its score only ever increases.
type Dog struct {
	ID         uint64
	Name       string
	Position   geom.Position
	Speed      geom.Speed
	Direction  Direction
	Pockets    []Item
	PocketsCap int
	Score      uint64
}

// CanTakeLoot reports whether the dog has room for one more item.
func (d *Dog) CanTakeLoot() bool {
	return len(d.Pockets) < d.PocketsCap
}

// AddItem places an item in the dog's pockets. The caller must have
// checked CanTakeLoot first; AddItem silently refuses otherwise to keep
// the pocket-bound invariant (spec.md §8) from ever being broken by a
// caller bug.
func (d *Dog) AddItem(it Item) bool {
	if !d.CanTakeLoot() {
		return false
	}
	d.Pockets = append(d.Pockets, it)
	return true
}

// EmptyPockets removes and returns every carried item, as happens on an
// office delivery.
func (d *Dog) EmptyPockets() []Item {
	items := d.Pockets
	d.Pockets = nil
	return items
}

// IsMoving reports whether the dog has non-zero speed.
func (d *Dog) IsMoving() bool {
	return d.Speed.X != 0 || d.Speed.Y != 0
}

// Stop zeroes the dog's speed, leaving direction unchanged (direction never
// changes except via an explicit Move per spec.md §3).
func (d *Dog) Stop() {
	d.Speed = geom.Speed{}
}
