package engine

import (
	"testing"

	"github.com/soloran/hunter-arena/internal/game"
)

func testLookup(itemID string) (game.GearModifier, bool) {
	if itemID == "sword" {
		return game.GearModifier{ItemID: "sword", Attack: 10, Defense: 2, HP: 50, MP: 5}, true
	}
	return game.GearModifier{}, false
}

func TestBuildCombatant_AppliesGear(t *testing.T) {
	base := game.BaseStats{ID: "h1", DisplayName: "Hero", Level: 3, HP: 200, MP: 40, Attack: 30, Defense: 20}
	c, warnings := BuildCombatant(base, []string{"sword"}, testLookup)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if c.Attack != 40 || c.Defense != 22 || c.MaxHP != 250 || c.MaxMP != 45 {
		t.Fatalf("gear not applied: %+v", c)
	}
	if c.CurrentHP != c.MaxHP || c.CurrentMP != c.MaxMP {
		t.Fatalf("current stats must start full: %+v", c)
	}
	if !c.Alive {
		t.Fatalf("combatant must start alive")
	}
}

func TestBuildCombatant_DanglingItemFailsOpen(t *testing.T) {
	base := game.BaseStats{ID: "h1", HP: 100, Attack: 10}
	c, warnings := BuildCombatant(base, []string{"ghost-blade", ""}, testLookup)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning for the dangling item, got %d", len(warnings))
	}
	if warnings[0].ItemID != "ghost-blade" {
		t.Fatalf("unexpected warning item: %q", warnings[0].ItemID)
	}
	if c.Attack != 10 || c.MaxHP != 100 {
		t.Fatalf("dangling item must contribute nothing: %+v", c)
	}
}

func TestBuildCombatant_HPFloor(t *testing.T) {
	c, _ := BuildCombatant(game.BaseStats{ID: "h1", HP: 0}, nil, testLookup)
	if c.MaxHP != 1 || c.CurrentHP != 1 {
		t.Fatalf("expected HP floored at 1, got max=%d current=%d", c.MaxHP, c.CurrentHP)
	}
}
