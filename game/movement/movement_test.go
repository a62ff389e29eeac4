package movement

import (
	"testing"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
	"github.com/nkazantsev/streetdogs/game/roadindex"
)

func TestResolve(t *testing.T) {
	horizontal := model.Road{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}}
	idx := roadindex.Build([]model.Road{horizontal})

	tests := []struct {
		name        string
		pos         geom.Position
		vel         geom.Speed
		deltaMs     float64
		wantStopped bool
		wantPos     geom.Position
	}{
		{
			name:        "fully contained motion",
			pos:         geom.Position{X: 0, Y: 0},
			vel:         geom.Speed{X: 2, Y: 0},
			deltaMs:     1000,
			wantStopped: false,
			wantPos:     geom.Position{X: 2, Y: 0},
		},
		{
			name:        "clamp at far end of road",
			pos:         geom.Position{X: 0, Y: 0},
			vel:         geom.Speed{X: 2, Y: 0},
			deltaMs:     10000,
			wantStopped: true,
			wantPos:     geom.Position{X: 10.4, Y: 0},
		},
		{
			name:        "clamp at near end of road moving backward",
			pos:         geom.Position{X: 10, Y: 0},
			vel:         geom.Speed{X: -2, Y: 0},
			deltaMs:     10000,
			wantStopped: true,
			wantPos:     geom.Position{X: -0.4, Y: 0},
		},
		{
			name:        "orthogonal motion clamps to cell boundary",
			pos:         geom.Position{X: 5, Y: 0},
			vel:         geom.Speed{X: 0, Y: 2},
			deltaMs:     1000,
			wantStopped: true,
			wantPos:     geom.Position{X: 5, Y: MaxDelta},
		},
		{
			name:        "zero velocity is a no-op",
			pos:         geom.Position{X: 3, Y: 0},
			vel:         geom.Speed{},
			deltaMs:     1000,
			wantStopped: false,
			wantPos:     geom.Position{X: 3, Y: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stopped, pos := Resolve(tt.pos, tt.vel, tt.deltaMs, idx)
			if stopped != tt.wantStopped {
				t.Errorf("stopped = %v, want %v", stopped, tt.wantStopped)
			}
			if pos != tt.wantPos {
				t.Errorf("pos = %v, want %v", pos, tt.wantPos)
			}
		})
	}
}

func TestResolvePanicsOnMissingCell(t *testing.T) {
	idx := roadindex.Build(nil)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for position not covered by any road")
		}
	}()

	Resolve(geom.Position{X: 0, Y: 0}, geom.Speed{X: 1, Y: 0}, 1000, idx)
}

// TestResolveStopsAtSharedEndpointBeforeScanningTheNextRoad guards against
// regressing to a two-pass resolver: with Road A = (0,0)-(5,0) declared
// before Road B = (5,0)-(10,0), a dog at the shared endpoint moving east
// must clamp to the end of A instead of sailing through onto B just
// because B's inflated box also happens to contain the candidate.
func TestResolveStopsAtSharedEndpointBeforeScanningTheNextRoad(t *testing.T) {
	roadA := model.Road{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 5, Y: 0}}
	roadB := model.Road{Start: geom.Point{X: 5, Y: 0}, End: geom.Point{X: 10, Y: 0}}
	idx := roadindex.Build([]model.Road{roadA, roadB})

	stopped, pos := Resolve(geom.Position{X: 5, Y: 0}, geom.Speed{X: 2, Y: 0}, 1000, idx)
	if !stopped {
		t.Fatalf("expected clamp at the end of road A, got unclamped pos %v", pos)
	}
	want := geom.Position{X: 5.4, Y: 0}
	if pos != want {
		t.Errorf("pos = %v, want %v", pos, want)
	}
}

func TestResolveVerticalRoad(t *testing.T) {
	vertical := model.Road{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 0, Y: 10}}
	idx := roadindex.Build([]model.Road{vertical})

	stopped, pos := Resolve(geom.Position{X: 0, Y: 9}, geom.Speed{X: 0, Y: 2}, 10000, idx)
	if !stopped {
		t.Fatalf("expected clamp, got unclamped pos %v", pos)
	}
	want := geom.Position{X: 0, Y: 10.4}
	if pos != want {
		t.Errorf("pos = %v, want %v", pos, want)
	}
}
