package engine

import "github.com/soloran/hunter-arena/internal/game"

// GearLookup resolves an equipped item id to its stat modifier. The
// second return value is false when the item no longer exists in the
// catalog (a dangling reference).
type GearLookup func(itemID string) (game.GearModifier, bool)

// StatWarning records a data-integrity issue found while building a
// combatant. Warnings never block a battle; the offending modifier simply
// contributes nothing.
type StatWarning struct {
	ItemID string
	Reason string
}

// BuildCombatant resolves a fully-equipped stat block from base stats and
// the list of equipped item ids. Pure and deterministic: the only failure
// mode is a dangling item reference, which is reported as a warning and
// treated as a zero-bonus modifier.
func BuildCombatant(base game.BaseStats, equipped []string, lookup GearLookup) (*game.Combatant, []StatWarning) {
	c := &game.Combatant{
		ID:          base.ID,
		DisplayName: base.DisplayName,
		Level:       base.Level,
		Tier:        base.Tier,
		Element:     base.Element,
		MaxHP:       base.HP,
		MaxMP:       base.MP,
		Attack:      base.Attack,
		Defense:     base.Defense,
		Alive:       true,
	}

	var warnings []StatWarning
	for _, itemID := range equipped {
		if itemID == "" {
			continue
		}
		mod, ok := lookup(itemID)
		if !ok {
			warnings = append(warnings, StatWarning{ItemID: itemID, Reason: "equipped item not found in catalog"})
			continue
		}
		c.Attack += mod.Attack
		c.Defense += mod.Defense
		c.MaxHP += mod.HP
		c.MaxMP += mod.MP
	}

	if c.MaxHP < 1 {
		c.MaxHP = 1
	}
	c.CurrentHP = c.MaxHP
	c.CurrentMP = c.MaxMP
	return c, warnings
}
