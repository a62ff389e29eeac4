package model

import "github.com/nkazantsev/streetdogs/game/geom"

// Building is a static, non-interactive obstacle.
type Building struct {
	Bounds geom.Rectangle
}

// Office is a delivery point: dogs whose collection radius (session.DogWidth)
// passes within session.OfficeWidth of it unload their pockets for score.
type Office struct {
	ID       string
	Position geom.Point
}

// Map is one named game world: its road network, static buildings and
// offices, and the tunables that govern dogs moving over it.
type Map struct {
	ID          string
	Name        string
	Roads       []Road
	Buildings   []Building
	Offices     []Office
	Speed       float64
	PocketsCap  int
	LootTypes   int
	LootValues  []int // index by loot type, length == LootTypes
	LootPeriod  float64 // ms
	LootProb    float64
}

// LootValue returns the score awarded for delivering one item of the given
// type, or 0 if the type is out of range.
func (m *Map) LootValue(lootType int) int {
	if lootType < 0 || lootType >= len(m.LootValues) {
		return 0
	}
	return m.LootValues[lootType]
}
