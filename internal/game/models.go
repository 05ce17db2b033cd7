package game

import (
	"time"

	"gorm.io/gorm"
)

// Mode identifies which battle flavor a session runs.
type Mode string

const (
	ModeArena Mode = "arena"
	ModeRaid  Mode = "raid"
	ModeGate  Mode = "gate"
)

// State is the TurnScheduler state for a session.
type State string

const (
	StateMatchmaking   State = "matchmaking"
	StateAwaitingInput State = "awaiting_input"
	StateResolving     State = "resolving"
	StateComplete      State = "complete"
	StateForfeited     State = "forfeited"
	StateTimedOut      State = "timed_out"
)

// Terminal reports whether s is one of the end states of a session.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateForfeited || s == StateTimedOut
}

// Combatant is one battling entity's live stat/state block. It is owned
// exclusively by the session that created it and discarded with it.
type Combatant struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Tier        int     `json:"tier"`
	Element     Element `json:"element"`
	MaxHP       int     `json:"max_hp"`
	CurrentHP   int     `json:"current_hp"`
	MaxMP       int     `json:"max_mp"`
	CurrentMP   int     `json:"current_mp"`
	Attack      int     `json:"attack"`
	Defense     int     `json:"defense"`
	Alive       bool    `json:"alive"`
	DamageDealt int     `json:"damage_dealt"`
}

// ApplyDamage reduces CurrentHP by amount, clamping at zero and flipping
// the Alive flag when the combatant drops. Negative amounts are ignored.
func (c *Combatant) ApplyDamage(amount int) {
	if amount < 0 {
		return
	}
	c.CurrentHP -= amount
	if c.CurrentHP <= 0 {
		c.CurrentHP = 0
		c.Alive = false
	}
}

// Party is an ordered group of combatants belonging to one participant
// (or to the NPC side of an encounter).
type Party struct {
	OwnerID   string       `json:"owner_id"`
	OwnerName string       `json:"owner_name"`
	Members   []*Combatant `json:"members"`
}

// Defeated reports whether every member of the party is down.
func (p *Party) Defeated() bool {
	for _, m := range p.Members {
		if m.Alive {
			return false
		}
	}
	return true
}

// AliveMembers returns the members still standing, in party order.
func (p *Party) AliveMembers() []*Combatant {
	out := make([]*Combatant, 0, len(p.Members))
	for _, m := range p.Members {
		if m.Alive {
			out = append(out, m)
		}
	}
	return out
}

// Strength is the pre-battle scalar used by reward settlement: the sum of
// level*(tier+1) over all members.
func (p *Party) Strength() int {
	s := 0
	for _, m := range p.Members {
		s += m.Level * (m.Tier + 1)
	}
	return s
}

// TotalDamage sums DamageDealt over all members.
func (p *Party) TotalDamage() int {
	d := 0
	for _, m := range p.Members {
		d += m.DamageDealt
	}
	return d
}

// MarkAllDown forces every member out of the fight (forfeit / timeout).
func (p *Party) MarkAllDown() {
	for _, m := range p.Members {
		m.CurrentHP = 0
		m.Alive = false
	}
}

// EventKind tags entries in the battle log.
type EventKind string

const (
	EventAttack  EventKind = "attack"
	EventDefeat  EventKind = "defeat"
	EventForfeit EventKind = "forfeit"
	EventTimeout EventKind = "timeout"
	EventError   EventKind = "error"
	EventInfo    EventKind = "info"
)

// BattleEvent is one append-only battle log entry.
type BattleEvent struct {
	Round          int       `json:"round"`
	Kind           EventKind `json:"kind"`
	ActorID        string    `json:"actor_id,omitempty"`
	TargetID       string    `json:"target_id,omitempty"`
	Amount         int       `json:"amount,omitempty"`
	Critical       bool      `json:"critical,omitempty"`
	SuperEffective bool      `json:"super_effective,omitempty"`
	NotEffective   bool      `json:"not_effective,omitempty"`
	Message        string    `json:"message"`
	At             time.Time `json:"at"`
}

// BattleSession aggregates the parties of one battle and its running
// state. Sessions live in memory only: they are created when a match
// starts and discarded after settlement consumes them.
type BattleSession struct {
	ID        string        `json:"id"`
	Mode      Mode          `json:"mode"`
	State     State         `json:"state"`
	Round     int           `json:"round"`
	Parties   []*Party      `json:"parties"`
	Log       []BattleEvent `json:"log"`
	CreatedAt time.Time     `json:"created_at"`
	// WinnerID is the owner id of the winning party once the session is
	// terminal; empty while running or when nobody won.
	WinnerID string `json:"winner_id,omitempty"`
}

// AppendEvent stamps the event with the current round and time and adds
// it to the log.
func (s *BattleSession) AppendEvent(ev BattleEvent) {
	ev.Round = s.Round
	ev.At = time.Now().UTC()
	s.Log = append(s.Log, ev)
}

// PartyOf returns the party owned by the given participant, or nil.
func (s *BattleSession) PartyOf(ownerID string) *Party {
	for _, p := range s.Parties {
		if p.OwnerID == ownerID {
			return p
		}
	}
	return nil
}

// OpponentOf returns the first party not owned by the given participant.
func (s *BattleSession) OpponentOf(ownerID string) *Party {
	for _, p := range s.Parties {
		if p.OwnerID != ownerID {
			return p
		}
	}
	return nil
}

// Skill is a catalog entry resolved by id at battle time. DamagePercent
// is applied as a deterministic multiplier on the attacker's attack stat.
type Skill struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DamagePercent int    `json:"damage_percent"`
	MPCost        int    `json:"mp_cost"`
}

// GearModifier is one equipped item's stat contribution, produced by the
// inventory layer and consumed by the stat aggregator.
type GearModifier struct {
	ItemID  string `json:"item_id"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
	HP      int    `json:"hp"`
	MP      int    `json:"mp"`
}

// BaseStats is the unmodified stat block for a combatant before gear.
type BaseStats struct {
	ID          string
	DisplayName string
	Level       int
	Tier        int
	Element     Element
	HP          int
	MP          int
	Attack      int
	Defense     int
}

// RankingAccount is the long-lived zero-sum ledger row for one ranked
// participant. Created on the first ranked match, never deleted.
type RankingAccount struct {
	gorm.Model
	PlayerID      string `json:"player_id" gorm:"uniqueIndex"`
	PlayerName    string `json:"player_name"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"current_streak"`
	HighestStreak int    `json:"highest_streak"`
	// Rank is the derived ordinal position in the full point table,
	// recomputed after every settlement.
	Rank int `json:"rank"`
	// Audit holds the append-only settlement log as a JSON array. Kept as
	// a TEXT column so the row stays a single read.
	Audit string `json:"-" gorm:"type:text"`
}

func (RankingAccount) TableName() string { return "ranking_accounts" }

// PlayerProfile stores per-player aggregate stats and currencies touched
// by settlement. Currencies are explicit columns, not a free-form map.
type PlayerProfile struct {
	gorm.Model
	PlayerID    string `json:"player_id" gorm:"uniqueIndex"`
	PlayerName  string `json:"player_name"`
	ArenaWins   int    `json:"arena_wins"`
	ArenaLosses int    `json:"arena_losses"`
	WinStreak   int    `json:"win_streak"`
	// LastArenaAt enforces the arena cooldown between ranked matches.
	LastArenaAt time.Time `json:"last_arena_at"`
	Gold        int       `json:"gold"`
	Traces      int       `json:"traces"`
	GateKeys    int       `json:"gate_keys"`
	Tickets     int       `json:"tickets"`
	// XP is account-level experience from raids and gates; arena XP goes
	// to the individual hero rows instead.
	XP int `json:"xp"`
}

func (PlayerProfile) TableName() string { return "player_profiles" }

// HeroRecord is the persisted progression row XP grants are applied to.
type HeroRecord struct {
	gorm.Model
	PlayerID string `json:"player_id" gorm:"index:idx_hero_owner"`
	HeroID   string `json:"hero_id" gorm:"index:idx_hero_owner"`
	Level    int    `json:"level"`
	Tier     int    `json:"tier"`
	XP       int    `json:"xp"`
	// WeaponID references the equipped item contributing gear modifiers;
	// empty when nothing is equipped.
	WeaponID string `json:"weapon_id"`
}

func (HeroRecord) TableName() string { return "hero_records" }
