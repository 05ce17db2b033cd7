package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/soloran/hunter-arena/internal/game"
)

// Combat tuning constants. DamageConstant intentionally decouples the
// final-damage scale from raw attack-stat scaling; changing it shifts the
// whole game's balance, so it is shared by every attack in every mode.
const (
	DamageConstant = 650

	PlayerCritChance = 0.15
	AICritChance     = 0.12
	CritMultiplier   = 1.5
)

// DamageResult describes one resolved attack.
type DamageResult struct {
	Damage            int
	BaseRoll          float64
	Critical          bool
	ElementMultiplier float64
	SkillID           string
	TargetDefeated    bool
}

// SuperEffective reports whether the attacker had elemental advantage.
func (r DamageResult) SuperEffective() bool { return r.ElementMultiplier > 1.0 }

// NotEffective reports whether the attacker had elemental disadvantage.
func (r DamageResult) NotEffective() bool { return r.ElementMultiplier < 1.0 }

// ResolveAttack computes and applies one attack from attacker to defender.
//
// Basic attacks (skill == nil) roll uniformly in [attack, attack*2];
// skill attacks use the skill's damage percent as a deterministic
// multiplier on the attack stat. The roll is divided by the defender's
// defense (clamped to 1), then scaled by the elemental and critical
// multipliers and the shared damage constant.
//
// Both combatants are mutated in place: the defender takes the damage and
// the attacker's damage accumulator grows. The caller owns the battle log.
func ResolveAttack(rng *rand.Rand, attacker, defender *game.Combatant, skill *game.Skill, critChance float64) DamageResult {
	var baseRoll float64
	res := DamageResult{}
	if skill == nil {
		baseRoll = float64(attacker.Attack + rng.Intn(attacker.Attack+1))
	} else {
		baseRoll = float64(attacker.Attack) * float64(skill.DamagePercent) / 100.0
		res.SkillID = skill.ID
	}

	def := defender.Defense
	if def < 1 {
		def = 1
	}
	mitigation := baseRoll / float64(def)

	elementMult := game.AdvantageMultiplier(attacker.Element, defender.Element)

	critMult := 1.0
	if rng.Float64() < critChance {
		critMult = CritMultiplier
		res.Critical = true
	}

	damage := int(math.Round(DamageConstant * mitigation * elementMult * critMult))
	if damage < 0 {
		damage = 0
	}

	defender.ApplyDamage(damage)
	attacker.DamageDealt += damage

	res.Damage = damage
	res.BaseRoll = baseRoll
	res.ElementMultiplier = elementMult
	res.TargetDefeated = !defender.Alive
	return res
}

// SafeResolveAttack wraps ResolveAttack so a panic caused by a bad data
// point (corrupt stat block, broken skill entry) surfaces as an error and
// a zero-damage result instead of stranding the session.
func SafeResolveAttack(rng *rand.Rand, attacker, defender *game.Combatant, skill *game.Skill, critChance float64) (res DamageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = DamageResult{ElementMultiplier: 1.0}
			err = fmt.Errorf("attack resolution failed: %v", r)
		}
	}()
	res = ResolveAttack(rng, attacker, defender, skill, critChance)
	return res, nil
}
