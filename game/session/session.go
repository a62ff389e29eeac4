// Package session implements one map's live world state and its single
// world-advancing operation, Tick — spec.md §4.4 (C5). Grounded on
// game/service.Session (the teacher's per-session container: an Engine
// plus bookkeeping) for the "one struct owns everything this map needs"
// shape, with the tick algorithm itself new: the teacher never collects
// loot or retires players.
package session

import (
	"math/rand"
	"sort"

	"github.com/nkazantsev/streetdogs/game/collision"
	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/loot"
	"github.com/nkazantsev/streetdogs/game/model"
	"github.com/nkazantsev/streetdogs/game/movement"
	"github.com/nkazantsev/streetdogs/game/roadindex"
)

// DogWidth and OfficeWidth are the collection radii used to build
// gatherers and items each tick (spec.md §4.4 step 2).
const (
	DogWidth    = 0.3
	OfficeWidth = 0.25
)

// StatSaver receives the retirement records produced by a tick. A
// StatSaver must not block the caller on external I/O — per spec.md §5,
// the relational sink belongs on a worker, not the game strand — so
// implementations are expected to hand the batch off asynchronously.
type StatSaver interface {
	Save(stats []model.SaveStat)
}

type itemRefKind int

const (
	itemRefOffice itemRefKind = iota
	itemRefLoot
)

type itemRef struct {
	kind   itemRefKind
	lootID uint64
}

// Session owns one map's dogs and loot. It has no internal locking: the
// single game strand (see Strand) is its only caller, so every method here
// assumes exclusive access for its duration.
type Session struct {
	MapID string

	m       *model.Map
	roads   *roadindex.Index
	lootGen *loot.Generator
	stats   StatSaver

	dogs  map[uint64]*model.Dog
	order []uint64 // dog insertion order, for deterministic gatherer indices

	lost map[uint64]model.LostItem

	afkMs      map[uint64]int64
	playtimeMs map[uint64]int64

	retirementMs int64

	nextDogID  uint64
	nextLootID uint64

	randomizeSpawn bool
	spawnRand      *rand.Rand
}

// New builds a session for map m. The loot generator is seeded by the
// map's road count, per spec.md §4.5/§9 — deterministic and reproducible,
// not cryptographically unpredictable.
func New(m *model.Map, retirementMs int64, stats StatSaver) *Session {
	return &Session{
		MapID:        m.ID,
		m:            m,
		roads:        roadindex.Build(m.Roads),
		lootGen:      loot.New(m.LootPeriod, m.LootProb, int64(len(m.Roads))),
		stats:        stats,
		dogs:         make(map[uint64]*model.Dog),
		lost:         make(map[uint64]model.LostItem),
		afkMs:        make(map[uint64]int64),
		playtimeMs:   make(map[uint64]int64),
		retirementMs: retirementMs,
		spawnRand:    rand.New(rand.NewSource(int64(len(m.Roads)))),
	}
}

// SetRandomizeSpawn toggles whether new dogs spawn at a uniformly random
// point on the road network (the --randomize-spawn-points CLI flag from
// spec.md §6, and the GameSession.randomize_spawn flag from spec.md §3)
// instead of always at the map's first road's start. Off by default,
// matching the source's own default behavior.
func (s *Session) SetRandomizeSpawn(enabled bool) {
	s.randomizeSpawn = enabled
}

// AddDog creates a new dog at the position spawnPosition picks (the map's
// first road's start unless randomized spawning is on), facing North with
// zero speed, and returns it. Application.Join calls it before registering
// a player for the dog.
func (s *Session) AddDog(name string) *model.Dog {
	id := s.nextDogID
	s.nextDogID++
	return s.insertDog(id, name)
}

// AddDogRestored re-creates a dog with an explicit ID, position, speed,
// direction, score and pockets — used by the persistence restore path
// (spec.md §4.8). It advances the monotonic dog-ID counter past id.
func (s *Session) AddDogRestored(d model.Dog) {
	dog := d
	s.dogs[dog.ID] = &dog
	s.order = append(s.order, dog.ID)
	s.afkMs[dog.ID] = 0
	s.playtimeMs[dog.ID] = 0
	if dog.ID >= s.nextDogID {
		s.nextDogID = dog.ID + 1
	}
}

func (s *Session) insertDog(id uint64, name string) *model.Dog {
	dog := &model.Dog{
		ID:         id,
		Name:       name,
		Position:   s.spawnPosition(),
		Direction:  model.North,
		PocketsCap: s.m.PocketsCap,
	}
	s.dogs[id] = dog
	s.order = append(s.order, id)
	s.afkMs[id] = 0
	s.playtimeMs[id] = 0
	return dog
}

// spawnPosition returns the map's first road's start, or — when
// SetRandomizeSpawn(true) has been called — a uniformly random integer
// lattice point along a uniformly random road. Either way the position
// lands exactly on a road, so it trivially satisfies the movement
// containment invariant (spec.md §8) without needing the orthogonal
// jitter loot placement uses.
func (s *Session) spawnPosition() geom.Position {
	start := s.m.Roads[0].Start
	if !s.randomizeSpawn {
		return geom.Position{X: float64(start.X), Y: float64(start.Y)}
	}

	road := s.m.Roads[s.spawnRand.Intn(len(s.m.Roads))]
	points := road.Covers()
	p := points[s.spawnRand.Intn(len(points))]
	return geom.Position{X: float64(p.X), Y: float64(p.Y)}
}

// AddLostItem re-adds a loot entry with an explicit ID — used by the
// persistence restore path. It advances the monotonic loot-ID counter
// past id.
func (s *Session) AddLostItem(item model.LostItem) {
	s.lost[item.ID] = item
	if item.ID >= s.nextLootID {
		s.nextLootID = item.ID + 1
	}
}

// Dog returns the live dog with the given ID.
func (s *Session) Dog(id uint64) (*model.Dog, bool) {
	d, ok := s.dogs[id]
	return d, ok
}

// Dogs returns every live dog, in insertion order.
func (s *Session) Dogs() []*model.Dog {
	out := make([]*model.Dog, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.dogs[id])
	}
	return out
}

// LostItems returns every item currently on the ground, sorted by ID.
func (s *Session) LostItems() []model.LostItem {
	ids := make([]uint64, 0, len(s.lost))
	for id := range s.lost {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.LostItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.lost[id])
	}
	return out
}

// Map returns the map this session was built from.
func (s *Session) Map() *model.Map {
	return s.m
}

// Move sets a dog's direction and speed, and — since this is the
// zero-to-nonzero transition point — resets its AFK counter, per spec.md
// §3's invariant.
func (s *Session) Move(dogID uint64, dir model.Direction) bool {
	dog, ok := s.dogs[dogID]
	if !ok {
		return false
	}
	dog.Direction = dir
	dog.Speed = dir.Velocity(s.m.Speed)
	s.afkMs[dogID] = 0
	return true
}

// NewLootCount asks this session's loot generator how many items to spawn
// over deltaMs, given the loot currently on the ground and the number of
// dogs that could collect it. The caller passes the result to Tick.
func (s *Session) NewLootCount(deltaMs float64) int {
	return s.lootGen.Generate(deltaMs, len(s.lost), len(s.dogs))
}

// Stop zeroes a dog's speed without resetting its AFK counter: an
// explicit stop is not a zero-to-nonzero transition.
func (s *Session) Stop(dogID uint64) bool {
	dog, ok := s.dogs[dogID]
	if !ok {
		return false
	}
	dog.Stop()
	return true
}

type proposal struct {
	oldPos    geom.Position
	newPos    geom.Position
	stopped   bool
	wasMoving bool
}

// Tick advances the world by deltaMs milliseconds, spawning newLootCount
// fresh items, and returns the IDs of dogs retired for inactivity this
// tick. It is the session's only world-advancing operation; every other
// method here is a read-only snapshot, an immediate, non-simulated
// command (Move/Stop), or an insertion of a dog or loot item (AddDog and
// the restore helpers).
func (s *Session) Tick(deltaMs float64, newLootCount int) []uint64 {
	proposals := make(map[uint64]proposal, len(s.order))

	// Step 1: propose positions.
	for _, id := range s.order {
		dog := s.dogs[id]
		if !dog.IsMoving() {
			proposals[id] = proposal{oldPos: dog.Position, newPos: dog.Position}
			continue
		}
		stopped, newPos := movement.Resolve(dog.Position, dog.Speed, deltaMs, s.roads)
		proposals[id] = proposal{oldPos: dog.Position, newPos: newPos, stopped: stopped, wasMoving: true}
	}

	// Step 2: build gatherers (moving dogs only) and items (offices, then
	// loot sorted by ID for deterministic iteration order).
	var gatherers []collision.Gatherer
	var gathererDogIDs []uint64
	for _, id := range s.order {
		p := proposals[id]
		if !p.wasMoving {
			continue
		}
		gatherers = append(gatherers, collision.Gatherer{Start: p.oldPos, End: p.newPos, Width: DogWidth})
		gathererDogIDs = append(gathererDogIDs, id)
	}

	var items []collision.Item
	var refs []itemRef
	for _, o := range s.m.Offices {
		items = append(items, collision.Item{
			Position: geom.Position{X: float64(o.Position.X), Y: float64(o.Position.Y)},
			Width:    OfficeWidth,
		})
		refs = append(refs, itemRef{kind: itemRefOffice})
	}
	for _, li := range s.LostItems() {
		items = append(items, collision.Item{Position: li.Position, Width: 0})
		refs = append(refs, itemRef{kind: itemRefLoot, lootID: li.ID})
	}

	// Step 3: find events.
	events := collision.FindEvents(gatherers, items)

	// Step 4: process events in time order. takenLoot is hoisted to this
	// outer scope (spec.md §9) so an earlier event in the same tick can
	// block a later one from collecting the same item.
	takenLoot := make(map[uint64]bool)
	for _, ev := range events {
		dogID := gathererDogIDs[ev.GathererIndex]
		dog := s.dogs[dogID]
		ref := refs[ev.ItemIndex]

		switch ref.kind {
		case itemRefOffice:
			if len(dog.Pockets) == 0 {
				continue
			}
			var total uint64
			for _, it := range dog.Pockets {
				total += uint64(s.m.LootValue(int(it.Type)))
			}
			dog.Score += total
			dog.EmptyPockets()

		case itemRefLoot:
			if takenLoot[ref.lootID] || !dog.CanTakeLoot() {
				continue
			}
			li, ok := s.lost[ref.lootID]
			if !ok {
				continue
			}
			if dog.AddItem(model.Item{ID: li.ID, Type: li.Type}) {
				takenLoot[ref.lootID] = true
				delete(s.lost, ref.lootID)
			}
		}
	}

	// Step 5: commit positions.
	for _, id := range s.order {
		p := proposals[id]
		if !p.wasMoving {
			continue
		}
		dog := s.dogs[id]
		dog.Position = p.newPos
		if p.stopped {
			dog.Stop()
		}
	}

	// Step 6: spawn loot.
	for i := 0; i < newLootCount; i++ {
		pos := s.lootGen.Place(s.m.Roads)
		typ := s.lootGen.Type(s.m.LootTypes)
		id := s.nextLootID
		s.nextLootID++
		s.lost[id] = model.LostItem{ID: id, Type: typ, Position: pos}
	}

	// Step 7: AFK + playtime. A dog accumulates AFK time this tick only if
	// it was already stopped before step 1 ran — a dog that stopped during
	// this very tick was moving for the bulk of deltaMs and starts being
	// tracked from the next tick onward.
	deltaMsInt := int64(deltaMs)
	var retiring []uint64
	for _, id := range s.order {
		s.playtimeMs[id] += deltaMsInt
		if proposals[id].wasMoving {
			continue
		}
		s.afkMs[id] += deltaMsInt
		if s.afkMs[id] >= s.retirementMs {
			retiring = append(retiring, id)
		}
	}

	// Step 8: retire.
	if len(retiring) > 0 {
		stats := make([]model.SaveStat, 0, len(retiring))
		for _, id := range retiring {
			dog := s.dogs[id]
			stats = append(stats, model.SaveStat{
				Name:       dog.Name,
				Score:      dog.Score,
				PlaytimeMs: s.playtimeMs[id],
			})
			delete(s.dogs, id)
			delete(s.afkMs, id)
			delete(s.playtimeMs, id)
		}
		s.order = removeAll(s.order, retiring)
		if s.stats != nil {
			s.stats.Save(stats)
		}
	}

	return retiring
}

func removeAll(order []uint64, remove []uint64) []uint64 {
	skip := make(map[uint64]bool, len(remove))
	for _, id := range remove {
		skip[id] = true
	}
	out := order[:0]
	for _, id := range order {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}
