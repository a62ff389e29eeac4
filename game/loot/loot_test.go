package loot

import (
	"testing"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
)

func TestGenerateNeverExceedsDeficit(t *testing.T) {
	g := New(1000, 0.5, 42)

	got := g.Generate(1000, 0, 3)
	if got > 3 {
		t.Fatalf("Generate() = %d, want <= 3", got)
	}
	if got < 0 {
		t.Fatalf("Generate() = %d, want >= 0", got)
	}
}

func TestGenerateNoDeficitNoSpawn(t *testing.T) {
	g := New(1000, 0.5, 42)

	if got := g.Generate(1000, 5, 5); got != 0 {
		t.Errorf("Generate() = %d, want 0 when loot_count >= looter_count", got)
	}
	if got := g.Generate(1000, 10, 5); got != 0 {
		t.Errorf("Generate() = %d, want 0 when there is already surplus loot", got)
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	a := New(1000, 0.5, 7)
	b := New(1000, 0.5, 7)

	for i := 0; i < 20; i++ {
		ga := a.Generate(250, 1, 4)
		gb := b.Generate(250, 1, 4)
		if ga != gb {
			t.Fatalf("iteration %d: same-seed generators diverged: %d != %d", i, ga, gb)
		}
	}
}

func TestGenerateZeroProbabilityNeverSpawns(t *testing.T) {
	g := New(1000, 0, 1)
	for i := 0; i < 50; i++ {
		if got := g.Generate(5000, 0, 10); got != 0 {
			t.Fatalf("Generate() = %d, want 0 with zero probability", got)
		}
	}
}

func TestPlaceStaysWithinRoadWidth(t *testing.T) {
	g := New(1000, 0.5, 1)
	roads := []model.Road{
		{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}},
	}

	for i := 0; i < 100; i++ {
		pos := g.Place(roads)
		if pos.X < 0 || pos.X > 10 {
			t.Fatalf("Place() X = %v, want within [0,10]", pos.X)
		}
		if pos.Y < -maxDelta || pos.Y > maxDelta {
			t.Fatalf("Place() Y = %v, want within [-%v,%v]", pos.Y, maxDelta, maxDelta)
		}
	}
}

func TestPlacePanicsOnNoRoads(t *testing.T) {
	g := New(1000, 0.5, 1)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when placing loot with no roads")
		}
	}()
	g.Place(nil)
}

func TestTypeWithinRange(t *testing.T) {
	g := New(1000, 0.5, 1)
	for i := 0; i < 50; i++ {
		typ := g.Type(3)
		if typ >= 3 {
			t.Fatalf("Type() = %d, want < 3", typ)
		}
	}
}

func TestTypeZeroTypesReturnsZero(t *testing.T) {
	g := New(1000, 0.5, 1)
	if got := g.Type(0); got != 0 {
		t.Errorf("Type(0) = %d, want 0", got)
	}
}
