package game

// Element is a combatant's elemental affinity.
type Element string

const (
	Dark  Element = "Dark"
	Light Element = "Light"
	Water Element = "Water"
	Fire  Element = "Fire"
	Wind  Element = "Wind"
	// None is the neutral affinity; it neither gains nor suffers any
	// elemental multiplier.
	None Element = "None"
)

// Elements lists the five real affinities (None excluded).
var Elements = []Element{Dark, Light, Water, Fire, Wind}

// counters maps each element to the single element it is effective
// against. Dark and Light counter each other; Water, Fire and Wind form a
// cycle. Derived lookups (what an element loses to) come from inverting
// this map, so the table cannot drift out of sync.
var counters = map[Element]Element{
	Dark:  Light,
	Light: Dark,
	Water: Fire,
	Fire:  Wind,
	Wind:  Water,
}

// Counters returns who the element beats, with ok=false for None or an
// unknown tag.
func (e Element) Counters() (Element, bool) {
	c, ok := counters[e]
	return c, ok
}

// AdvantageMultiplier returns the elemental damage multiplier for an
// attack: 1.5 when the attacker counters the defender, 0.5 when the
// defender counters the attacker, 1.0 otherwise. The effective-against
// check wins for the Dark/Light symmetric pair.
func AdvantageMultiplier(attacker, defender Element) float64 {
	if beats, ok := counters[attacker]; ok && beats == defender {
		return 1.5
	}
	if beats, ok := counters[defender]; ok && beats == attacker {
		return 0.5
	}
	return 1.0
}
