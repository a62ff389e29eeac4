// Package config loads the top-level JSON configuration file from
// spec.md §6: global defaults (dog speed, bag capacity, retirement time,
// loot-generator tunables) plus an embedded list of maps. Grounded on the
// teacher's game/config/manager.go load-and-cache shape, generalized from
// "one game config per file, looked up by name" to "one file holding
// everything, read once at startup."
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
)

var (
	// ErrInvalidConfig is wrapped around any structural problem found
	// while validating the loaded file (spec.md §6: "a map with zero
	// lootTypes is rejected").
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	defaultDogSpeed       = 1.0
	defaultBagCapacity    = 3
	defaultRetirementSecs = 60
)

// lootGeneratorConfig holds the Poisson-like spawn tunables from spec.md
// §4.5 (period in milliseconds, probability in [0,1]).
type lootGeneratorConfig struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

// roadConfig is one road segment. Exactly one of X1/Y1 is present,
// matching the horizontal/vertical invariant in spec.md §3 — a road with
// neither set is a degenerate road of zero length, which model.Road treats
// as horizontal.
type roadConfig struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingConfig struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeConfig struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// lootTypeConfig describes one loot type's score value. The source
// format carries rendering hints (name, sprite file, rotation, color)
// alongside value; those are client-rendering concerns (spec.md's
// Non-goals): name is decoded but never used, and the other hints are
// not decoded at all.
type lootTypeConfig struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// mapConfig is one entry in the top-level "maps" array.
type mapConfig struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	DogSpeed      *float64         `json:"dogSpeed,omitempty"`
	BagCapacity   *int             `json:"bagCapacity,omitempty"`
	Roads         []roadConfig     `json:"roads"`
	Buildings     []buildingConfig `json:"buildings"`
	Offices       []officeConfig   `json:"offices"`
	LootTypes     []lootTypeConfig `json:"lootTypes"`
}

// fileFormat mirrors the JSON document described in spec.md §6.
type fileFormat struct {
	DefaultDogSpeed     float64             `json:"defaultDogSpeed,omitempty"`
	DefaultBagCapacity  int                 `json:"defaultBagCapacity,omitempty"`
	DogRetirementTime   int                 `json:"dogRetirementTime,omitempty"`
	LootGeneratorConfig lootGeneratorConfig `json:"lootGeneratorConfig"`
	Maps                []mapConfig         `json:"maps"`
}

// Config is the fully-loaded, defaulted configuration ready to build
// maps and wire the retirement timer from.
type Config struct {
	RetirementMs float64
	Maps         []*model.Map
}

// Load reads and validates the configuration file at path, applying
// spec.md §6's documented defaults (defaultDogSpeed=1,
// defaultBagCapacity=3, dogRetirementTime=60s) for any field a map
// entry does not override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	dogSpeed := ff.DefaultDogSpeed
	if dogSpeed == 0 {
		dogSpeed = defaultDogSpeed
	}
	bagCapacity := ff.DefaultBagCapacity
	if bagCapacity == 0 {
		bagCapacity = defaultBagCapacity
	}
	retirementSecs := ff.DogRetirementTime
	if retirementSecs == 0 {
		retirementSecs = defaultRetirementSecs
	}

	if len(ff.Maps) == 0 {
		return nil, fmt.Errorf("%w: no maps defined", ErrInvalidConfig)
	}

	seenIDs := make(map[string]bool, len(ff.Maps))
	maps := make([]*model.Map, 0, len(ff.Maps))
	for _, mc := range ff.Maps {
		if mc.ID == "" {
			return nil, fmt.Errorf("%w: map with empty id", ErrInvalidConfig)
		}
		if seenIDs[mc.ID] {
			return nil, fmt.Errorf("%w: duplicate map id %q", ErrInvalidConfig, mc.ID)
		}
		seenIDs[mc.ID] = true

		if len(mc.LootTypes) == 0 {
			return nil, fmt.Errorf("%w: map %q has zero lootTypes", ErrInvalidConfig, mc.ID)
		}

		m, err := buildMap(mc, dogSpeed, bagCapacity, ff.LootGeneratorConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: map %q: %v", ErrInvalidConfig, mc.ID, err)
		}
		maps = append(maps, m)
	}

	return &Config{
		RetirementMs: float64(retirementSecs) * 1000,
		Maps:         maps,
	}, nil
}

func buildMap(mc mapConfig, defaultSpeed float64, defaultBag int, loot lootGeneratorConfig) (*model.Map, error) {
	speed := defaultSpeed
	if mc.DogSpeed != nil {
		speed = *mc.DogSpeed
	}
	bag := defaultBag
	if mc.BagCapacity != nil {
		bag = *mc.BagCapacity
	}
	if bag < 1 {
		return nil, fmt.Errorf("bagCapacity must be >= 1, got %d", bag)
	}

	roads := make([]model.Road, 0, len(mc.Roads))
	for _, rc := range mc.Roads {
		var road model.Road
		road.Start.X, road.Start.Y = rc.X0, rc.Y0
		switch {
		case rc.X1 != nil:
			road.End.X, road.End.Y = *rc.X1, rc.Y0
		case rc.Y1 != nil:
			road.End.X, road.End.Y = rc.X0, *rc.Y1
		default:
			road.End.X, road.End.Y = rc.X0, rc.Y0
		}
		roads = append(roads, road)
	}
	if len(roads) == 0 {
		return nil, errors.New("no roads defined")
	}

	buildings := make([]model.Building, 0, len(mc.Buildings))
	for _, bc := range mc.Buildings {
		buildings = append(buildings, model.Building{
			Bounds: buildingRectangle(bc),
		})
	}

	offices := make([]model.Office, 0, len(mc.Offices))
	seenOfficeIDs := make(map[string]bool, len(mc.Offices))
	for _, oc := range mc.Offices {
		if seenOfficeIDs[oc.ID] {
			return nil, fmt.Errorf("duplicate office id %q", oc.ID)
		}
		seenOfficeIDs[oc.ID] = true
		offices = append(offices, model.Office{
			ID:       oc.ID,
			Position: positionOf(oc.X, oc.Y),
		})
	}

	lootValues := make([]int, len(mc.LootTypes))
	for i, lt := range mc.LootTypes {
		lootValues[i] = lt.Value
	}

	return &model.Map{
		ID:         mc.ID,
		Name:       mc.Name,
		Roads:      roads,
		Buildings:  buildings,
		Offices:    offices,
		Speed:      speed,
		PocketsCap: bag,
		LootTypes:  len(mc.LootTypes),
		LootValues: lootValues,
		LootPeriod: loot.Period,
		LootProb:   loot.Probability,
	}, nil
}

func buildingRectangle(bc buildingConfig) geom.Rectangle {
	return geom.Rectangle{
		Position: geom.Point{X: bc.X, Y: bc.Y},
		Size:     geom.Size{Width: bc.W, Height: bc.H},
	}
}

func positionOf(x, y int) geom.Point {
	return geom.Point{X: x, Y: y}
}
