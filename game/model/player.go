package model

// Player links an opaque bearer token to a dog living in a particular
// session (map). It holds no pointer to the Dog or Session themselves —
// callers resolve (MapID, DogID) to a live Dog on each access instead of caching a reference that could dangle
// across retirement.
type Player struct {
	ID    uint64
	Token string
	MapID string
	DogID uint64
}

// SaveStat is the retirement record handed to the retired-player sink
// (C9) when a dog is timed out for inactivity.
type SaveStat struct {
	Name       string
	Score      uint64
	PlaytimeMs int64
}
