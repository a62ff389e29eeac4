package session

import (
	"testing"

	"github.com/nkazantsev/streetdogs/game/geom"
	"github.com/nkazantsev/streetdogs/game/model"
)

type fakeSaver struct {
	batches [][]model.SaveStat
}

func (f *fakeSaver) Save(stats []model.SaveStat) {
	f.batches = append(f.batches, stats)
}

func singleRoadMap() *model.Map {
	return &model.Map{
		ID:         "map1",
		Speed:      2,
		PocketsCap: 3,
		LootTypes:  1,
		LootValues: []int{10},
		LootPeriod: 1000,
		LootProb:   0,
		Roads: []model.Road{
			{Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}},
		},
		Offices: []model.Office{
			{ID: "office1", Position: geom.Point{X: 0, Y: 0}},
		},
	}
}

func TestAddDogSpawnsAtFirstRoadStart(t *testing.T) {
	s := New(singleRoadMap(), 60000, nil)
	dog := s.AddDog("Alice")

	want := geom.Position{X: 0, Y: 0}
	if dog.Position != want {
		t.Errorf("Position = %v, want %v", dog.Position, want)
	}
	if dog.Speed != (geom.Speed{}) {
		t.Errorf("Speed = %v, want zero", dog.Speed)
	}
	if dog.Direction != model.North {
		t.Errorf("Direction = %v, want North", dog.Direction)
	}
}

func TestRandomizeSpawnStaysOnARoad(t *testing.T) {
	s := New(singleRoadMap(), 60000, nil)
	s.SetRandomizeSpawn(true)

	for i := 0; i < 20; i++ {
		dog := s.AddDog("Alice")
		if dog.Position.Y != 0 {
			t.Fatalf("Position = %v, want y=0 (the only road is horizontal at y=0)", dog.Position)
		}
		if dog.Position.X < 0 || dog.Position.X > 10 {
			t.Fatalf("Position = %v, want x in [0,10]", dog.Position)
		}
	}
}

func TestMoveAndClamp(t *testing.T) {
	s := New(singleRoadMap(), 60000, nil)
	dog := s.AddDog("Alice")

	s.Move(dog.ID, model.East)
	s.Tick(10000, 0)

	want := geom.Position{X: 10.4, Y: 0}
	if dog.Position != want {
		t.Errorf("Position = %v, want %v", dog.Position, want)
	}
	if dog.Speed != (geom.Speed{}) {
		t.Errorf("Speed = %v, want zero after clamp", dog.Speed)
	}
}

func TestPickupAndDeliver(t *testing.T) {
	m := singleRoadMap()
	s := New(m, 60000, nil)
	dog := s.AddDog("Alice")
	s.AddLostItem(model.LostItem{ID: 0, Type: 0, Position: geom.Position{X: 1, Y: 0}})

	s.Move(dog.ID, model.East)
	s.Tick(500, 0)

	if len(dog.Pockets) != 1 {
		t.Fatalf("Pockets = %v, want 1 item after passing the loot", dog.Pockets)
	}

	s.Move(dog.ID, model.West)
	s.Tick(500, 0)
	s.Stop(dog.ID)
	s.Tick(0, 0)

	if dog.Score != 10 {
		t.Errorf("Score = %d, want 10 after delivery", dog.Score)
	}
	if len(dog.Pockets) != 0 {
		t.Errorf("Pockets = %v, want empty after delivery", dog.Pockets)
	}
}

func TestAFKRetirement(t *testing.T) {
	saver := &fakeSaver{}
	s := New(singleRoadMap(), 60000, saver)
	dog := s.AddDog("Alice")

	retiring := s.Tick(60000, 0)

	if len(retiring) != 1 || retiring[0] != dog.ID {
		t.Fatalf("retiring = %v, want [%d]", retiring, dog.ID)
	}
	if _, ok := s.Dog(dog.ID); ok {
		t.Error("dog should have been removed from the session")
	}
	if len(saver.batches) != 1 || len(saver.batches[0]) != 1 {
		t.Fatalf("expected exactly one SaveStat batch with one entry, got %v", saver.batches)
	}
	stat := saver.batches[0][0]
	if stat.Name != "Alice" || stat.Score != 0 || stat.PlaytimeMs != 60000 {
		t.Errorf("stat = %+v, want {Alice 0 60000}", stat)
	}
}

func TestAFKDoesNotCountTheTransitionTick(t *testing.T) {
	s := New(singleRoadMap(), 1000, nil)
	dog := s.AddDog("Alice")

	s.Move(dog.ID, model.East)
	// Clamp happens this tick (dog stops), but it was moving for the bulk
	// of it — AFK should not start counting until the next tick.
	retiring := s.Tick(10000, 0)
	if len(retiring) != 0 {
		t.Fatalf("dog retired on its stopping tick: %v", retiring)
	}

	retiring = s.Tick(1000, 0)
	if len(retiring) != 1 || retiring[0] != dog.ID {
		t.Fatalf("retiring = %v, want [%d] on the first full tick stopped", retiring, dog.ID)
	}
}

func TestMoveResetsAFKCounter(t *testing.T) {
	s := New(singleRoadMap(), 1000, nil)
	dog := s.AddDog("Alice")

	s.Tick(900, 0)
	s.Move(dog.ID, model.East)
	s.Stop(dog.ID)
	retiring := s.Tick(900, 0)

	if len(retiring) != 0 {
		t.Fatalf("AFK counter should have reset on Move, got retiring=%v", retiring)
	}
}

func TestSpawnLootIncreasesLootCount(t *testing.T) {
	s := New(singleRoadMap(), 60000, nil)
	s.Tick(100, 3)

	if got := len(s.LostItems()); got != 3 {
		t.Errorf("len(LostItems()) = %d, want 3", got)
	}
}

func TestPlaytimeAccumulatesRegardlessOfMotion(t *testing.T) {
	s := New(singleRoadMap(), 60000, nil)
	dog := s.AddDog("Alice")

	s.Tick(500, 0)
	s.Move(dog.ID, model.East)
	s.Tick(500, 0)

	if s.playtimeMs[dog.ID] != 1000 {
		t.Errorf("playtimeMs = %d, want 1000", s.playtimeMs[dog.ID])
	}
}
