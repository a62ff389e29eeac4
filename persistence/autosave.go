package persistence

import (
	"fmt"

	"github.com/nkazantsev/streetdogs/game/app"
)

// Autosave is an app.Listener that snapshots the application to a file at
// a fixed period, accumulating Δt across ticks the way the teacher's
// main.go drives filesystemSyncRoutine off a ticker. No save runs
// concurrently with a tick: both are invoked from OnTick, which only ever
// runs on the game strand (spec.md §4.8).
type Autosave struct {
	app       *app.Application
	path      string
	periodMs  float64
	elapsedMs float64
}

// NewAutosave creates an Autosave listener. Register it with
// app.Application.AddListener.
func NewAutosave(a *app.Application, path string, periodMs float64) *Autosave {
	return &Autosave{app: a, path: path, periodMs: periodMs}
}

// OnTick accumulates deltaMs and snapshots once the accumulator reaches
// periodMs, resetting it afterward. A failed snapshot is logged, not
// fatal — the live in-memory state remains authoritative either way.
func (s *Autosave) OnTick(deltaMs float64) {
	s.elapsedMs += deltaMs
	if s.elapsedMs < s.periodMs {
		return
	}
	s.elapsedMs = 0
	if err := Snapshot(s.app, s.path); err != nil {
		fmt.Printf("Warning: autosave to %s failed: %v\n", s.path, err)
	}
}
