package character

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/telgard/server/internal/pub"
)

func TestAddItemMergesAndClamps(t *testing.T) {
	const maxItem = 100
	c := &Character{Items: []Item{{ID: 7, Amount: 90}}}

	if got := c.AddItem(7, 5, maxItem); got != 5 {
		t.Errorf("merge added %d, want 5", got)
	}
	if got := c.AddItem(7, 20, maxItem); got != 5 {
		t.Errorf("clamped add returned %d, want 5", got)
	}
	if got := c.AddItem(7, 1, maxItem); got != 0 {
		t.Errorf("add past cap returned %d, want 0", got)
	}
	if got := c.AddItem(9, 500, maxItem); got != maxItem {
		t.Errorf("new stack added %d, want %d", got, maxItem)
	}
	if diff := deep.Equal(c.Items, []Item{{ID: 7, Amount: 100}, {ID: 9, Amount: 100}}); diff != nil {
		t.Error(diff)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	c := &Character{}
	if got := c.AddItem(7, 0, 100); got != 0 {
		t.Errorf("zero amount added %d", got)
	}
	if got := c.AddItem(0, 5, 100); got != 0 {
		t.Errorf("item id 0 added %d", got)
	}
	if len(c.Items) != 0 {
		t.Errorf("inventory grew to %d lines", len(c.Items))
	}
}

func TestRemoveItem(t *testing.T) {
	tests := []struct {
		name        string
		amount      int
		wantRemoved int
		wantLeft    int
	}{
		{"partial", 3, 3, 7},
		{"exact", 10, 10, 0},
		{"over", 15, 10, 0},
		{"zero", 0, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Character{Items: []Item{{ID: 7, Amount: 10}}}
			if got := c.RemoveItem(7, tt.amount); got != tt.wantRemoved {
				t.Errorf("removed %d, want %d", got, tt.wantRemoved)
			}
			if got := c.ItemAmount(7); got != tt.wantLeft {
				t.Errorf("left %d, want %d", got, tt.wantLeft)
			}
			if tt.wantLeft == 0 && len(c.Items) != 0 {
				t.Error("emptied stack still has a line")
			}
		})
	}
}

func TestBankAddRespectsLineCap(t *testing.T) {
	const maxItem, bankSize = 10000, 2
	c := &Character{Bank: []Item{{ID: 1, Amount: 50}, {ID: 2, Amount: 50}}}

	// Merging into an existing line ignores the line cap.
	if got := c.BankAdd(2, 25, maxItem, bankSize); got != 25 {
		t.Errorf("merge deposited %d, want 25", got)
	}
	// A new line past the cap is refused outright.
	if got := c.BankAdd(3, 25, maxItem, bankSize); got != 0 {
		t.Errorf("deposit past line cap returned %d, want 0", got)
	}
	if len(c.Bank) != bankSize {
		t.Errorf("bank has %d lines, want %d", len(c.Bank), bankSize)
	}
}

func TestWeightAndCanHold(t *testing.T) {
	tables := &pub.Tables{Items: map[int]*pub.ItemRecord{
		7: {ID: 7, Weight: 2},
		8: {ID: 8, Weight: 5},
	}}
	c := &Character{
		MaxWeight: 20,
		Items:     []Item{{ID: 7, Amount: 4}},
	}
	c.Paperdoll[EquipHat] = 8

	if got := c.Weight(tables); got != 13 {
		t.Errorf("weight = %d, want 13", got)
	}
	if !c.CanHold(tables, 7, 3) {
		t.Error("cannot hold load that exactly fits")
	}
	if c.CanHold(tables, 7, 4) {
		t.Error("holds load past the weight cap")
	}
	if c.CanHold(tables, 999, 1) {
		t.Error("holds unknown item")
	}
}

func TestEquipSlotForPairedJewelry(t *testing.T) {
	c := &Character{}
	ring := &pub.ItemRecord{ID: 7, Type: pub.ItemRing}

	if got := c.EquipSlotFor(ring); got != EquipRing1 {
		t.Fatalf("first ring slot = %d, want %d", got, EquipRing1)
	}
	c.Paperdoll[EquipRing1] = 7
	if got := c.EquipSlotFor(ring); got != EquipRing2 {
		t.Errorf("second ring slot = %d, want %d", got, EquipRing2)
	}
	if got := c.EquipSlotFor(&pub.ItemRecord{Type: pub.ItemHeal}); got != -1 {
		t.Errorf("non-equippable slot = %d, want -1", got)
	}
}

func TestInRangeOfAsymmetry(t *testing.T) {
	target := pub.Coords{X: 10, Y: 10}
	tests := []struct {
		name     string
		observer pub.Coords
		want     bool
	}{
		// Observer to the lower-right: plain bound of 12.
		{"lower-right at bound", pub.Coords{X: 16, Y: 16}, true},
		{"lower-right past bound", pub.Coords{X: 17, Y: 16}, false},
		// Any other quadrant gets the extended bound of 15.
		{"upper-left at plain bound", pub.Coords{X: 4, Y: 4}, true},
		{"upper-left at extended bound", pub.Coords{X: 3, Y: 2}, true},
		{"upper-left past extended bound", pub.Coords{X: 2, Y: 2}, false},
		{"mixed quadrant uses extension", pub.Coords{X: 17, Y: 3}, true},
		{"axis counts as lower-right", pub.Coords{X: 22, Y: 10}, true},
		{"axis at plain bound edge", pub.Coords{X: 23, Y: 10}, false},
		{"same tile", target, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRangeOf(tt.observer, target, RangeServer); got != tt.want {
				t.Errorf("InRangeOf(%v, %v) = %v, want %v", tt.observer, target, got, tt.want)
			}
		})
	}
}

func TestInRangeOfNotSymmetric(t *testing.T) {
	a := pub.Coords{X: 23, Y: 10}
	b := pub.Coords{X: 10, Y: 10}
	if InRangeOf(a, b, RangeServer) {
		t.Error("lower-right observer sees past the plain bound")
	}
	if !InRangeOf(b, a, RangeServer) {
		t.Error("upper-left observer does not get the extended bound")
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(pub.Coords{X: 3, Y: 4}, pub.Coords{X: 7, Y: 1}); got != 7 {
		t.Errorf("Distance = %d, want 7", got)
	}
}
