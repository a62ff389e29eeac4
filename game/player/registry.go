// Package player implements the token/player registry from spec.md §4.6
// (C6): it issues opaque bearer tokens and keeps a player's (map, dog)
// handle resolvable by token or by dog ID. Grounded on the teacher's
// game/session/manager.go generateSessionID — crypto/rand bytes,
// hex-encoded — scaled from a 4-hex session ID to a 32-hex player token.
package player

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/nkazantsev/streetdogs/game/model"
)

// Registry maps bearer tokens to players and back from a dog's ID to its
// player, so a retiring dog can find (and drop) its player and token.
type Registry struct {
	byToken map[string]*model.Player
	byDogID map[uint64]*model.Player
	nextID  uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byToken: make(map[string]*model.Player),
		byDogID: make(map[uint64]*model.Player),
	}
}

// Add issues a fresh token and registers a new player for dogID in
// mapID. Per spec.md §4.6, a token collision is resolved by regenerating
// — the loop terminates with overwhelming probability given 128 bits of
// randomness.
func (r *Registry) Add(mapID string, dogID uint64) *model.Player {
	var token string
	for {
		token = generateToken()
		if _, exists := r.byToken[token]; !exists {
			break
		}
	}

	p := &model.Player{
		ID:    r.nextID,
		Token: token,
		MapID: mapID,
		DogID: dogID,
	}
	r.nextID++

	r.byToken[token] = p
	r.byDogID[dogID] = p
	return p
}

// AddRestored re-inserts a player with an explicit ID and token — used by
// the persistence restore path. It advances the monotonic player-ID
// counter past id.
func (r *Registry) AddRestored(id uint64, token, mapID string, dogID uint64) {
	p := &model.Player{ID: id, Token: token, MapID: mapID, DogID: dogID}
	r.byToken[token] = p
	r.byDogID[dogID] = p
	if id >= r.nextID {
		r.nextID = id + 1
	}
}

// FindByToken looks up a player by its bearer token.
func (r *Registry) FindByToken(token string) (*model.Player, bool) {
	p, ok := r.byToken[token]
	return p, ok
}

// FindByDogID looks up a player by its dog's ID.
func (r *Registry) FindByDogID(dogID uint64) (*model.Player, bool) {
	p, ok := r.byDogID[dogID]
	return p, ok
}

// Remove drops the player owning dogID, if any — called when its dog
// retires so the token stops resolving (spec.md §3's ownership summary).
func (r *Registry) Remove(dogID uint64) {
	p, ok := r.byDogID[dogID]
	if !ok {
		return
	}
	delete(r.byDogID, dogID)
	delete(r.byToken, p.Token)
}

// Count returns the number of live players.
func (r *Registry) Count() int {
	return len(r.byToken)
}

func generateToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("player: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
