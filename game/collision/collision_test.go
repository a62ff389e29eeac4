package collision

import (
	"testing"

	"github.com/nkazantsev/streetdogs/game/geom"
)

func TestFindEvents(t *testing.T) {
	tests := []struct {
		name       string
		gatherers  []Gatherer
		items      []Item
		wantEvents int
	}{
		{
			name: "item on the path is collected",
			gatherers: []Gatherer{
				{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 0.3},
			},
			items: []Item{
				{Position: geom.Position{X: 5, Y: 0}, Width: 0},
			},
			wantEvents: 1,
		},
		{
			name: "item outside width is not collected",
			gatherers: []Gatherer{
				{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 0.3},
			},
			items: []Item{
				{Position: geom.Position{X: 5, Y: 1}, Width: 0},
			},
			wantEvents: 0,
		},
		{
			name: "item before the segment start is not collected",
			gatherers: []Gatherer{
				{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 0.3},
			},
			items: []Item{
				{Position: geom.Position{X: -1, Y: 0}, Width: 0},
			},
			wantEvents: 0,
		},
		{
			name: "item beyond the segment end is not collected",
			gatherers: []Gatherer{
				{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 0.3},
			},
			items: []Item{
				{Position: geom.Position{X: 11, Y: 0}, Width: 0},
			},
			wantEvents: 0,
		},
		{
			name: "zero-length motion produces no events",
			gatherers: []Gatherer{
				{Start: geom.Position{X: 5, Y: 5}, End: geom.Position{X: 5, Y: 5}, Width: 0.3},
			},
			items: []Item{
				{Position: geom.Position{X: 5, Y: 5}, Width: 0},
			},
			wantEvents: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindEvents(tt.gatherers, tt.items)
			if len(got) != tt.wantEvents {
				t.Fatalf("len(events) = %d, want %d", len(got), tt.wantEvents)
			}
		})
	}
}

func TestFindEventsOrderedByTimeRatio(t *testing.T) {
	gatherers := []Gatherer{
		{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 0.3},
	}
	items := []Item{
		{Position: geom.Position{X: 8, Y: 0}, Width: 0},
		{Position: geom.Position{X: 2, Y: 0}, Width: 0},
		{Position: geom.Position{X: 5, Y: 0}, Width: 0},
	}

	events := FindEvents(gatherers, items)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].TimeRatio < events[i-1].TimeRatio {
			t.Fatalf("events not sorted ascending by TimeRatio: %v", events)
		}
	}
	// nearest item (index 1, at x=2) should come first
	if events[0].ItemIndex != 1 {
		t.Errorf("events[0].ItemIndex = %d, want 1", events[0].ItemIndex)
	}
}

func TestFindEventsMultipleGatherersSameItem(t *testing.T) {
	gatherers := []Gatherer{
		{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 0.3},
		{Start: geom.Position{X: 10, Y: 0}, End: geom.Position{X: 0, Y: 0}, Width: 0.3},
	}
	items := []Item{
		{Position: geom.Position{X: 5, Y: 0}, Width: 0},
	}

	events := FindEvents(gatherers, items)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2 (both gatherers reach the item)", len(events))
	}
}

func TestStableOrderOnTies(t *testing.T) {
	gatherers := []Gatherer{
		{Start: geom.Position{X: 0, Y: 0}, End: geom.Position{X: 10, Y: 0}, Width: 1},
	}
	items := []Item{
		{Position: geom.Position{X: 5, Y: 0}, Width: 0},
		{Position: geom.Position{X: 5, Y: 0.5}, Width: 0},
	}

	events := FindEvents(gatherers, items)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].ItemIndex != 0 || events[1].ItemIndex != 1 {
		t.Errorf("expected stable tie order [0,1], got [%d,%d]", events[0].ItemIndex, events[1].ItemIndex)
	}
}
