// Package app implements the Application from spec.md §4.7 (C7): it owns
// every map and session, fans ticks out to them, and is the one place the
// REST surface talks to. Grounded on the teacher's
// game/service/game_service_impl.go — the same "look up session, delegate
// to the domain type" shape for every operation, without the teacher's
// per-call auto-persist (snapshots are the persistence package's job) — but
// rebuilt around many sessions (one per map) instead of one per request,
// and with no per-call mutex: every method here runs inside the game
// strand (see game/session.Strand), so it needs none of its own.
package app

import (
	"errors"
	"fmt"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
	"github.com/nkazantsev/streetdogs/game/player"
	"github.com/nkazantsev/streetdogs/game/session"
)

var (
	ErrMapNotFound     = errors.New("map not found")
	ErrUnknownToken    = errors.New("unknown token")
	ErrInvalidUserName = errors.New("user name must not be empty")
	ErrDogGone         = errors.New("dog no longer in its session")
)

// Listener is notified once per tick, after retirement has been applied —
// spec.md §4.7's ApplicationListener.
type Listener interface {
	OnTick(deltaMs float64)
}

// MapSummary is the {id,name} pair returned by the map list endpoint.
type MapSummary struct {
	ID   string
	Name string
}

// PlayerState is one player's view of their dog for the state snapshot.
type PlayerState struct {
	Position  geom.Position
	Speed     geom.Speed
	Direction model.Direction
	Bag       []model.Item
	Score     uint64
}

// StateSnapshot is the full read model behind GET /api/v1/game/state.
type StateSnapshot struct {
	Players     map[uint64]PlayerState // keyed by dog ID
	LostObjects []model.LostItem
}

// Application aggregates every map's session plus the cross-session
// player/token registry. It is the sole owner of both, per spec.md §3's
// ownership summary.
type Application struct {
	maps         map[string]*model.Map
	sessions     map[string]*session.Session
	players      *player.Registry
	statSaver    session.StatSaver
	retirementMs int64

	listeners []Listener
}

// New builds an Application over the given maps, one session per map.
func New(maps []*model.Map, retirementMs int64, statSaver session.StatSaver) *Application {
	a := &Application{
		maps:         make(map[string]*model.Map, len(maps)),
		sessions:     make(map[string]*session.Session, len(maps)),
		players:      player.NewRegistry(),
		statSaver:    statSaver,
		retirementMs: retirementMs,
	}
	for _, m := range maps {
		a.maps[m.ID] = m
		a.sessions[m.ID] = session.New(m, retirementMs, statSaver)
	}
	return a
}

// AddListener registers l to be notified after every tick.
func (a *Application) AddListener(l Listener) {
	a.listeners = append(a.listeners, l)
}

// SetRandomizeSpawn toggles randomized dog spawn points (the
// --randomize-spawn-points CLI flag, spec.md §6) on every session.
func (a *Application) SetRandomizeSpawn(enabled bool) {
	for _, s := range a.sessions {
		s.SetRandomizeSpawn(enabled)
	}
}

// ListMaps returns every map's {id,name}, in no particular order — callers
// needing a stable order sort the result themselves.
func (a *Application) ListMaps() []MapSummary {
	out := make([]MapSummary, 0, len(a.maps))
	for _, m := range a.maps {
		out = append(out, MapSummary{ID: m.ID, Name: m.Name})
	}
	return out
}

// Map looks up a map by ID.
func (a *Application) Map(id string) (*model.Map, bool) {
	m, ok := a.maps[id]
	return m, ok
}

// Join creates a dog on mapID, registers a player for it, and returns the
// new player's token and ID.
func (a *Application) Join(mapID, userName string) (token string, playerID uint64, err error) {
	if userName == "" {
		return "", 0, ErrInvalidUserName
	}
	s, ok := a.sessions[mapID]
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}

	dog := s.AddDog(userName)
	p := a.players.Add(mapID, dog.ID)
	return p.Token, p.ID, nil
}

// resolve looks up the session and dog for a bearer token.
func (a *Application) resolve(token string) (*session.Session, *model.Dog, error) {
	p, ok := a.players.FindByToken(token)
	if !ok {
		return nil, nil, ErrUnknownToken
	}
	s, ok := a.sessions[p.MapID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: map %s", ErrMapNotFound, p.MapID)
	}
	dog, ok := s.Dog(p.DogID)
	if !ok {
		return nil, nil, ErrDogGone
	}
	return s, dog, nil
}

// ListPlayers returns every dog's name in the requesting player's session,
// keyed by dog ID.
func (a *Application) ListPlayers(token string) (map[uint64]string, error) {
	s, _, err := a.resolve(token)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]string)
	for _, d := range s.Dogs() {
		out[d.ID] = d.Name
	}
	return out, nil
}

// State returns the requesting player's session snapshot: every dog's
// position/speed/direction/bag/score, plus every item on the ground.
func (a *Application) State(token string) (*StateSnapshot, error) {
	s, _, err := a.resolve(token)
	if err != nil {
		return nil, err
	}
	snap := &StateSnapshot{
		Players:     make(map[uint64]PlayerState),
		LostObjects: s.LostItems(),
	}
	for _, d := range s.Dogs() {
		snap.Players[d.ID] = PlayerState{
			Position:  d.Position,
			Speed:     d.Speed,
			Direction: d.Direction,
			Bag:       d.Pockets,
			Score:     d.Score,
		}
	}
	return snap, nil
}

// Move sets the requesting player's dog moving in dir.
func (a *Application) Move(token string, dir model.Direction) error {
	s, dog, err := a.resolve(token)
	if err != nil {
		return err
	}
	s.Move(dog.ID, dir)
	return nil
}

// Stop halts the requesting player's dog.
func (a *Application) Stop(token string) error {
	s, dog, err := a.resolve(token)
	if err != nil {
		return err
	}
	s.Stop(dog.ID)
	return nil
}

// Tick advances every session by deltaMs, drops retired players from the
// registry, and notifies listeners. It is the only place Session.Tick is
// called from — always from inside the game strand.
func (a *Application) Tick(deltaMs float64) {
	for _, s := range a.sessions {
		newLoot := s.NewLootCount(deltaMs)
		retiring := s.Tick(deltaMs, newLoot)
		for _, dogID := range retiring {
			a.players.Remove(dogID)
		}
	}
	for _, l := range a.listeners {
		l.OnTick(deltaMs)
	}
}

// AddLoot re-adds a loot item with an explicit ID to mapID's session —
// used only by the persistence restore path (spec.md §4.8).
func (a *Application) AddLoot(mapID string, item model.LostItem) error {
	s, ok := a.sessions[mapID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}
	s.AddLostItem(item)
	return nil
}

// GetLostItems returns every item on the ground, grouped by map ID — used
// only by the persistence snapshot path (spec.md §4.8).
func (a *Application) GetLostItems() map[string][]model.LostItem {
	out := make(map[string][]model.LostItem, len(a.sessions))
	for mapID, s := range a.sessions {
		out[mapID] = s.LostItems()
	}
	return out
}

// PlayerSnapshot is one player's full restorable state — used only by the
// persistence snapshot/restore path.
type PlayerSnapshot struct {
	Player model.Player
	Dog    model.Dog
}

// SnapshotPlayers returns every live player and their dog, across every
// session.
func (a *Application) SnapshotPlayers() []PlayerSnapshot {
	var out []PlayerSnapshot
	for _, s := range a.sessions {
		for _, d := range s.Dogs() {
			p, ok := a.players.FindByDogID(d.ID)
			if !ok {
				continue
			}
			out = append(out, PlayerSnapshot{Player: *p, Dog: *d})
		}
	}
	return out
}

// RestorePlayer re-creates a dog with its original ID and re-registers its
// player with its original ID and token — used only by the persistence
// restore path.
func (a *Application) RestorePlayer(snap PlayerSnapshot) error {
	s, ok := a.sessions[snap.Player.MapID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMapNotFound, snap.Player.MapID)
	}
	s.AddDogRestored(snap.Dog)
	a.players.AddRestored(snap.Player.ID, snap.Player.Token, snap.Player.MapID, snap.Player.DogID)
	return nil
}
