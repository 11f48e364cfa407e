package pub

import "testing"

func TestTileSpecWalkable(t *testing.T) {
	blocked := []TileSpec{SpecWall, SpecChest, SpecBankVault, SpecMapEdge, SpecBoard1, SpecJukebox}
	for _, s := range blocked {
		if s.Walkable() {
			t.Errorf("spec %d walkable, want blocked", s)
		}
	}
	open := []TileSpec{SpecArena, SpecSpikes, SpecTimedSpikes, SpecChairDown}
	for _, s := range open {
		if !s.Walkable() {
			t.Errorf("spec %d blocked, want walkable", s)
		}
	}
}

func TestTileSpecBoard(t *testing.T) {
	if got := SpecBoard1.Board(); got != 1 {
		t.Errorf("board1 index = %d", got)
	}
	if got := SpecBoard8.Board(); got != 8 {
		t.Errorf("board8 index = %d", got)
	}
	if got := SpecWall.Board(); got != 0 {
		t.Errorf("wall board index = %d", got)
	}
}

func TestMapFileWalkable(t *testing.T) {
	m := EmptyMap(1, 10, 10)
	m.specs[Coords{X: 3, Y: 3}] = SpecWall
	m.specs[Coords{X: 4, Y: 4}] = SpecChairDown

	tests := []struct {
		name string
		at   Coords
		want bool
	}{
		{"plain ground", Coords{X: 5, Y: 5}, true},
		{"wall", Coords{X: 3, Y: 3}, false},
		{"chair", Coords{X: 4, Y: 4}, true},
		{"corner", Coords{X: 10, Y: 10}, true},
		{"past width", Coords{X: 11, Y: 5}, false},
		{"negative", Coords{X: -1, Y: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Walkable(tt.at); got != tt.want {
				t.Errorf("Walkable(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestEmptyMapHasNoFeatures(t *testing.T) {
	m := EmptyMap(0, 10, 10)
	if len(m.Warps()) != 0 {
		t.Error("empty map has warps")
	}
	if _, ok := m.Spec(Coords{X: 1, Y: 1}); ok {
		t.Error("empty map has tile specs")
	}
	if m.Raw != nil {
		t.Error("empty map carries raw file bytes")
	}
}
