package service

import "github.com/soloran/hunter-arena/internal/game"

// PartyProvider resolves a participant's battle-ready party, with gear
// bonuses already applied by the stat aggregator. Implementations live at
// the edge (config + storage); the engine only consumes the interface.
type PartyProvider interface {
	LoadParty(playerID string) (*game.Party, error)
}

// SkillCatalog looks up skills by id and lists the skills available to a
// participant. A missing id is reported with ok=false, never an error.
type SkillCatalog interface {
	Get(id string) (game.Skill, bool)
	For(playerID string) []game.Skill
}

// OpponentSampler picks a random eligible opponent for ranked
// matchmaking: not the caller and not currently in a battle. Returns
// ErrNoOpponent when nobody qualifies.
type OpponentSampler interface {
	SampleOpponent(callerID string, busy func(string) bool) (string, error)
}

// EncounterProvider resolves NPC opposition from the encounter catalog.
type EncounterProvider interface {
	// BossParty returns the raid boss party for the given catalog id,
	// plus the boss level that scales raid rewards.
	BossParty(bossID string) (*game.Party, int, error)
	// GateEnemy returns the solo-gate opposition for the given gate rank.
	GateEnemy(rank string) (*game.Party, error)
}
