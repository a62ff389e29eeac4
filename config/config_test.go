package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, `{
		"maps": [{
			"id": "map1",
			"name": "Map One",
			"roads": [{"x0": 0, "y0": 0, "x1": 10}],
			"lootTypes": [{"name": "key", "value": 10}]
		}]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RetirementMs != defaultRetirementSecs*1000 {
		t.Errorf("RetirementMs = %v, want %v", cfg.RetirementMs, defaultRetirementSecs*1000)
	}
	if len(cfg.Maps) != 1 {
		t.Fatalf("len(Maps) = %d, want 1", len(cfg.Maps))
	}
	m := cfg.Maps[0]
	if m.Speed != defaultDogSpeed {
		t.Errorf("Speed = %v, want %v", m.Speed, defaultDogSpeed)
	}
	if m.PocketsCap != defaultBagCapacity {
		t.Errorf("PocketsCap = %v, want %v", m.PocketsCap, defaultBagCapacity)
	}
	if m.LootTypes != 1 || m.LootValues[0] != 10 {
		t.Errorf("LootTypes/LootValues = %v/%v, want 1/[10]", m.LootTypes, m.LootValues)
	}
}

func TestLoadOverridesPerMap(t *testing.T) {
	path := writeTestConfig(t, `{
		"defaultDogSpeed": 1,
		"defaultBagCapacity": 3,
		"dogRetirementTime": 30,
		"maps": [{
			"id": "map1",
			"name": "Map One",
			"dogSpeed": 5,
			"bagCapacity": 10,
			"roads": [{"x0": 0, "y0": 0, "y1": 10}],
			"offices": [{"id": "o1", "x": 0, "y": 0}],
			"lootTypes": [{"value": 1}, {"value": 2}]
		}]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RetirementMs != 30000 {
		t.Errorf("RetirementMs = %v, want 30000", cfg.RetirementMs)
	}
	m := cfg.Maps[0]
	if m.Speed != 5 {
		t.Errorf("Speed = %v, want 5", m.Speed)
	}
	if m.PocketsCap != 10 {
		t.Errorf("PocketsCap = %v, want 10", m.PocketsCap)
	}
	if len(m.Offices) != 1 || m.Offices[0].ID != "o1" {
		t.Errorf("Offices = %v, want one office o1", m.Offices)
	}
	if m.LootTypes != 2 {
		t.Errorf("LootTypes = %d, want 2", m.LootTypes)
	}
}

func TestLoadRejectsZeroLootTypes(t *testing.T) {
	path := writeTestConfig(t, `{
		"maps": [{
			"id": "map1",
			"name": "Map One",
			"roads": [{"x0": 0, "y0": 0, "x1": 10}],
			"lootTypes": []
		}]
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for zero lootTypes")
	}
}

func TestLoadRejectsDuplicateMapIDs(t *testing.T) {
	path := writeTestConfig(t, `{
		"maps": [
			{"id": "map1", "name": "A", "roads": [{"x0":0,"y0":0,"x1":1}], "lootTypes": [{"value":1}]},
			{"id": "map1", "name": "B", "roads": [{"x0":0,"y0":0,"x1":1}], "lootTypes": [{"value":1}]}
		]
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want error for duplicate map id")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Load() error = nil, want error for missing file")
	}
}
