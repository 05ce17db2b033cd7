package game

import "testing"

func TestAdvantageMultiplier_SymmetricPair(t *testing.T) {
	if m := AdvantageMultiplier(Dark, Light); m != 1.5 {
		t.Fatalf("Dark vs Light: expected 1.5, got %v", m)
	}
	if m := AdvantageMultiplier(Light, Dark); m != 1.5 {
		t.Fatalf("Light vs Dark: expected 1.5, got %v", m)
	}
}

func TestAdvantageMultiplier_Cycle(t *testing.T) {
	cases := []struct {
		attacker, defender Element
		want               float64
	}{
		{Water, Fire, 1.5},
		{Fire, Wind, 1.5},
		{Wind, Water, 1.5},
		{Fire, Water, 0.5},
		{Wind, Fire, 0.5},
		{Water, Wind, 0.5},
		{Water, Water, 1.0},
	}
	for _, c := range cases {
		if m := AdvantageMultiplier(c.attacker, c.defender); m != c.want {
			t.Fatalf("%s vs %s: expected %v, got %v", c.attacker, c.defender, c.want, m)
		}
	}
}

func TestAdvantageMultiplier_NoneIsNeutral(t *testing.T) {
	for _, e := range Elements {
		if m := AdvantageMultiplier(None, e); m != 1.0 {
			t.Fatalf("None vs %s: expected 1.0, got %v", e, m)
		}
		if m := AdvantageMultiplier(e, None); m != 1.0 {
			t.Fatalf("%s vs None: expected 1.0, got %v", e, m)
		}
	}
}

func TestApplyDamage_ClampsAndFlipsAlive(t *testing.T) {
	c := &Combatant{MaxHP: 100, CurrentHP: 30, Alive: true}
	c.ApplyDamage(50)
	if c.CurrentHP != 0 {
		t.Fatalf("expected HP clamped at 0, got %d", c.CurrentHP)
	}
	if c.Alive {
		t.Fatalf("expected combatant to be down")
	}
	c.ApplyDamage(-10)
	if c.CurrentHP != 0 {
		t.Fatalf("negative damage must be ignored, got HP=%d", c.CurrentHP)
	}
}

func TestPartyStrengthAndDefeat(t *testing.T) {
	p := &Party{Members: []*Combatant{
		{Level: 10, Tier: 1, Alive: true},
		{Level: 5, Tier: 0, Alive: false},
	}}
	if s := p.Strength(); s != 25 {
		t.Fatalf("expected strength 25, got %d", s)
	}
	if p.Defeated() {
		t.Fatalf("party with a living member must not be defeated")
	}
	p.MarkAllDown()
	if !p.Defeated() {
		t.Fatalf("expected party defeated after MarkAllDown")
	}
}
