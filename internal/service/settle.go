package service

import (
	"math"

	"github.com/soloran/hunter-arena/internal/game"
	"github.com/soloran/hunter-arena/internal/storage"
)

// XP settlement constants.
const (
	winnerBaseXP    = 100.0
	loserBaseXP     = 50.0
	survivorXPBonus = 1.5
	minXPGrant      = 10
	strengthFloor   = 0.5
	strengthCeiling = 2.0
)

// XPGrant is one combatant's settled experience reward.
type XPGrant struct {
	HeroID      string  `json:"hero_id"`
	HeroName    string  `json:"hero_name"`
	XP          int     `json:"xp"`
	Survived    bool    `json:"survived"`
	DamageShare float64 `json:"damage_share"`
}

// BattleResult is what settlement hands back to the caller for display.
type BattleResult struct {
	CallerWon bool          `json:"caller_won"`
	XPGrants  []XPGrant     `json:"xp_grants,omitempty"`
	Ranking   *RankingDelta `json:"ranking,omitempty"`
	Raid      []RaidReward  `json:"raid,omitempty"`
}

// ComputeXPGrants converts a finished session into per-combatant XP for
// the caller's party. Purely additive: a combatant that dealt no damage
// still receives the floor grant, and increasing a combatant's damage
// share never lowers its XP.
func ComputeXPGrants(callerWon bool, caller, opponent *game.Party) []XPGrant {
	totalDamage := caller.TotalDamage()
	if totalDamage == 0 {
		totalDamage = 1
	}
	baseXP := loserBaseXP
	if callerWon {
		baseXP = winnerBaseXP
	}

	callerStrength := caller.Strength()
	if callerStrength == 0 {
		callerStrength = 1
	}
	opponentStrength := opponent.Strength()
	if opponentStrength == 0 {
		opponentStrength = 1
	}
	strengthRatio := float64(opponentStrength) / float64(callerStrength)
	if strengthRatio < strengthFloor {
		strengthRatio = strengthFloor
	}
	if strengthRatio > strengthCeiling {
		strengthRatio = strengthCeiling
	}

	grants := make([]XPGrant, 0, len(caller.Members))
	for _, m := range caller.Members {
		share := float64(m.DamageDealt) / float64(totalDamage)
		xp := baseXP * strengthRatio * share
		if m.Alive {
			xp *= survivorXPBonus
		}
		if m.DamageDealt > 0 {
			xp = math.Max(minXPGrant, xp)
		} else {
			xp = minXPGrant
		}
		grants = append(grants, XPGrant{
			HeroID:      m.ID,
			HeroName:    m.DisplayName,
			XP:          int(math.Round(xp)),
			Survived:    m.Alive,
			DamageShare: share,
		})
	}
	return grants
}

// Raid reward tuning. The split is proportional to damage share with MVP
// multipliers layered on top, and a fixed participation floor so nobody
// leaves a raid empty-handed.
const (
	raidBaseGold         = 2000
	raidGoldPerLevel     = 50
	raidGoldPerDamage    = 0.15
	raidVictoryBonusGold = 1000
	raidDefeatBonusGold  = 500

	raidBaseXP      = 200
	raidXPPerLevel  = 10
	raidXPPerDamage = 8 // divisor

	raidBaseTraces     = 50
	raidTracesPerLevel = 2
	raidTracesDivisor  = 100

	raidMVPShare  = 0.40
	raidHighShare = 0.25
)

// RaidContribution is one participant's damage total going into raid
// settlement.
type RaidContribution struct {
	PlayerID   string
	PlayerName string
	Damage     int
}

// RaidReward is one participant's settled raid payout.
type RaidReward struct {
	PlayerID    string  `json:"player_id"`
	PlayerName  string  `json:"player_name"`
	Gold        int     `json:"gold"`
	XP          int     `json:"xp"`
	Traces      int     `json:"traces"`
	GateKeys    int     `json:"gate_keys"`
	Tickets     int     `json:"tickets"`
	DamageShare float64 `json:"damage_share"`
	Title       string  `json:"title,omitempty"`
}

// ComputeRaidRewards settles a finished raid into per-participant
// rewards, scaled by boss level and damage contribution.
func ComputeRaidRewards(bossLevel int, victory bool, contributions []RaidContribution) []RaidReward {
	total := 0
	for _, c := range contributions {
		total += c.Damage
	}
	if total == 0 {
		total = 1
	}

	rewards := make([]RaidReward, 0, len(contributions))
	for _, c := range contributions {
		share := float64(c.Damage) / float64(total)

		gold := raidBaseGold + bossLevel*raidGoldPerLevel + int(float64(c.Damage)*raidGoldPerDamage)
		if victory {
			gold += raidVictoryBonusGold
		} else {
			gold += raidDefeatBonusGold
		}
		xp := raidBaseXP + bossLevel*raidXPPerLevel + c.Damage/raidXPPerDamage
		traces := 0
		if victory {
			traces = raidBaseTraces + bossLevel*raidTracesPerLevel + c.Damage/raidTracesDivisor
		}

		title := ""
		switch {
		case share >= raidMVPShare:
			gold = int(float64(gold) * 1.5)
			xp = int(float64(xp) * 1.3)
			traces = int(float64(traces) * 1.2)
			title = "MVP"
		case share >= raidHighShare:
			gold = int(float64(gold) * 1.2)
			xp = int(float64(xp) * 1.1)
			traces = int(float64(traces) * 1.1)
			title = "High Performer"
		}

		r := RaidReward{
			PlayerID:    c.PlayerID,
			PlayerName:  c.PlayerName,
			Gold:        gold,
			XP:          xp,
			Traces:      traces,
			DamageShare: share,
			Title:       title,
		}
		if victory {
			r.GateKeys = 1 + bossLevel/25
			r.Tickets = 2 + bossLevel/50
		}
		rewards = append(rewards, r)
	}
	return rewards
}

func (r RaidReward) currencyDelta() storage.CurrencyDelta {
	return storage.CurrencyDelta{
		Gold:     r.Gold,
		Traces:   r.Traces,
		GateKeys: r.GateKeys,
		Tickets:  r.Tickets,
		XP:       r.XP,
	}
}
